package domain

import (
	"encoding/json"
	"time"
)

// SectionData 章节数据。按 key 有固定形状，但未知字段原样保留，不做强校验
type SectionData map[string]any

// CoverDateLayout 封面日期格式，例如 "05 March 2026"
const CoverDateLayout = "02 January 2006"

const (
	CompanyName       = "ArgosMob Tech & AI Pvt. Ltd."
	DefaultPreparedBy = "Team Argos Mob"
)

type CoverPageData struct {
	ClientName   string `json:"clientName"`
	ProjectTitle string `json:"projectTitle"`
	Date         string `json:"date"`
	PreparedBy   string `json:"preparedBy"`
	Version      string `json:"version"`
}

type IntroductionData struct {
	Content string `json:"content"`
}

type KeyModuleFeature struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

type KeyModuleGroup struct {
	ID        string             `json:"id"`
	GroupName string             `json:"groupName"`
	Features  []KeyModuleFeature `json:"features"`
}

// KeyModulesData 新版 AI 输出 content（markdown），旧数据可能只有 groups
type KeyModulesData struct {
	Content        string           `json:"content"`
	Groups         []KeyModuleGroup `json:"groups,omitempty"`
	CustomFeatures []string         `json:"customFeatures,omitempty"`
}

type TechStackItem struct {
	Category   string `json:"category"`
	Technology string `json:"technology"`
	Checked    bool   `json:"checked"`
}

type TechStackData struct {
	Items []TechStackItem `json:"items"`
}

type DeliveryComponentItem struct {
	Name     string `json:"name"`
	Included bool   `json:"included"`
}

type DeliveryComponentsData struct {
	Components []DeliveryComponentItem `json:"components"`
}

type CostLineItem struct {
	Product       string `json:"product"`
	EstimatedTime string `json:"estimatedTime"`
	EstimatedCost string `json:"estimatedCost"`
}

type CostEstimationData struct {
	Currency         string         `json:"currency"`
	LineItems        []CostLineItem `json:"lineItems"`
	TotalProjectCost string         `json:"totalProjectCost"`
	GST              float64        `json:"gst"`
	PaymentTerms     string         `json:"paymentTerms"`
	ValidityDays     int            `json:"validityDays"`
}

type TeamMember struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

type ProposedTeamData struct {
	Members       []TeamMember `json:"members"`
	TotalDuration string       `json:"totalDuration"`
}

type AMCData struct {
	Percentage float64  `json:"percentage"`
	Period     string   `json:"period"`
	Inclusions []string `json:"inclusions"`
	Note       string   `json:"note,omitempty"`
}

type SLATier struct {
	Severity       string `json:"severity"`
	ResponseTime   string `json:"responseTime"`
	ResolutionTime string `json:"resolutionTime"`
}

type SLAData struct {
	Tiers             []SLATier `json:"tiers"`
	Uptime            string    `json:"uptime"`
	MaintenanceWindow string    `json:"maintenanceWindow"`
}

type ChangeRequestData struct {
	Process     []string `json:"process"`
	LeadTime    string   `json:"leadTime"`
	CostingNote string   `json:"costingNote"`
}

type AcceptanceCriteriaData struct {
	IntroText      string   `json:"introText,omitempty"`
	Criteria       []string `json:"criteria"`
	ConclusionText string   `json:"conclusionText,omitempty"`
}

type WarrantyData struct {
	PeriodDays int      `json:"periodDays"`
	Inclusions []string `json:"inclusions"`
	Exclusions []string `json:"exclusions"`
}

type LegalSignOffData struct {
	ComplianceStatement   string `json:"complianceStatement"`
	ClientSignatureName   string `json:"clientSignatureName"`
	ArgosmobSignatureName string `json:"argosmobSignatureName"`
}

// SectionVariant 章节变体：元信息 + 默认数据构造
type SectionVariant struct {
	Meta     SectionMeta
	Defaults func(now time.Time) any
}

var variants = map[SectionKey]func(now time.Time) any{
	SectionCoverPage: func(now time.Time) any {
		return CoverPageData{
			Date:       now.Format(CoverDateLayout),
			PreparedBy: DefaultPreparedBy,
			Version:    "1.0",
		}
	},
	SectionIntroduction: func(time.Time) any { return IntroductionData{} },
	SectionKeyModules:   func(time.Time) any { return KeyModulesData{} },
	SectionTechStack: func(time.Time) any {
		return TechStackData{Items: []TechStackItem{
			{"Frontend", "React Native", true},
			{"Backend", "Node.js, Express.js", true},
			{"Database", "MongoDB / MySQL", true},
			{"Cloud & DevOps", "AWS / Digital Ocean", true},
			{"Cloud & DevOps", "CI/CD Integration", true},
			{"Cloud & DevOps", "NGINX / Apache", true},
			{"Cloud & DevOps", "SSL Certification", true},
		}}
	},
	SectionDeliveryComponents: func(time.Time) any {
		names := []string{"UI/UX Design", "Android Application", "iOS Application", "Admin Panel",
			"Backend APIs", "Database", "Source Code", "Deployment Support"}
		items := make([]DeliveryComponentItem, 0, len(names))
		for _, n := range names {
			items = append(items, DeliveryComponentItem{Name: n, Included: true})
		}
		return DeliveryComponentsData{Components: items}
	},
	SectionCostEstimation: func(time.Time) any {
		return CostEstimationData{
			Currency: "INR",
			LineItems: []CostLineItem{
				{Product: "App", EstimatedTime: "50-60 Days", EstimatedCost: "3,50,000"},
				{
					Product: "Google Map API\nPayment gateway\nNotification (Google Firebase)\nHosting Server, MongoDB\n" +
						"Play Store Account, App Store Account\nSSL Certificate, Open AI tool\nAny other API, Domain",
					EstimatedCost: "Shared By Client",
				},
			},
			TotalProjectCost: "3,50,000",
			GST:              18,
			PaymentTerms:     "40% Advance, 30% mid-delivery, 20% beta-testing, 10% completion",
			ValidityDays:     30,
		}
	},
	SectionProposedTeam: func(time.Time) any {
		return ProposedTeamData{
			Members: []TeamMember{
				{"Project Manager", 1},
				{"UI/UX Designer", 1},
				{"Frontend Developer", 2},
				{"Backend Developer", 2},
				{"QA Tester", 1},
				{"DevOps Engineer", 1},
			},
			TotalDuration: "To be defined",
		}
	},
	SectionAMC: func(time.Time) any {
		return AMCData{
			Percentage: 20,
			Period:     "Annual",
			Inclusions: []string{"Performance Monitoring", "Security Updates", "Minor Enhancements",
				"Technical Support", "Server Monitoring"},
			Note: "AMC starts after warranty period.",
		}
	},
	SectionSLA: func(time.Time) any {
		return SLAData{Tiers: []SLATier{
			{"High", "2 Hours", "5 Business Hours"},
			{"Medium", "2 Hours", "1 Working Day"},
			{"Normal", "2 Hours", "2 Working Days"},
		}}
	},
	SectionChangeRequest: func(time.Time) any {
		return ChangeRequestData{
			Process: []string{
				"Client submits a written Change Request (CR) document",
				"ArgosMob reviews and provides impact analysis within 3 business days",
				"Revised timeline and cost estimate presented for client approval",
				"Upon written approval, CR is incorporated into the project scope",
				"Original delivery milestones adjusted accordingly",
			},
			LeadTime:    "3 business days for impact analysis",
			CostingNote: "All changes are costed at standard rates and require written sign-off before implementation.",
		}
	},
	SectionAcceptanceCriteria: func(time.Time) any {
		return AcceptanceCriteriaData{
			IntroText: "You agree that the app will be deemed to be accepted on whichever is the earliest of:",
			Criteria: []string{
				"You give us written notice of acceptance of the app",
				"The app being submitted to Play Store / App Store",
				"Use of the app by you in the normal course of your business",
			},
			ConclusionText: "Once the app has been accepted, you agree to pay all outstanding fees for the app, " +
				"and the warranty period will begin.",
		}
	},
	SectionWarranty: func(time.Time) any {
		return WarrantyData{
			PeriodDays: 30,
			Inclusions: []string{"30 Days Warranty for Bug Fixes"},
			Exclusions: []string{"Post-warranty changes will be billed separately"},
		}
	},
	SectionLegalSignOff: func(time.Time) any {
		return LegalSignOffData{
			ComplianceStatement: "This proposal is confidential and intended solely for the named recipient. " +
				"All intellectual property developed under this engagement remains the property of the client upon full payment. " +
				CompanyName + " adheres to applicable Indian IT laws and data protection regulations.",
			ArgosmobSignatureName: "Authorized Signatory, " + CompanyName,
		}
	},
}

// Variant 返回章节变体
func Variant(key SectionKey) (SectionVariant, bool) {
	meta, ok := Meta(key)
	if !ok {
		return SectionVariant{}, false
	}
	return SectionVariant{Meta: meta, Defaults: variants[key]}, true
}

// DefaultSectionData 构造章节默认数据
func DefaultSectionData(key SectionKey, now time.Time) SectionData {
	fn, ok := variants[key]
	if !ok {
		return SectionData{}
	}
	data, err := ToSectionData(fn(now))
	if err != nil {
		return SectionData{}
	}
	return data
}

// ToSectionData 把结构体转换成通用章节数据
func ToSectionData(v any) (SectionData, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	data := SectionData{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeSection 把通用章节数据解析为具体结构体
// 字段类型不匹配时返回错误，调用方一般回退到默认值
func DecodeSection[T any](data SectionData) (T, error) {
	var out T
	raw, err := json.Marshal(data)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// Clone 深拷贝章节数据
func (d SectionData) Clone() SectionData {
	if d == nil {
		return SectionData{}
	}
	out := make(SectionData, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case SectionData:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	case []string:
		s := make([]string, len(t))
		copy(s, t)
		return s
	default:
		return v
	}
}

// String 读取字符串字段
func (d SectionData) String(key string) string {
	if s, ok := d[key].(string); ok {
		return s
	}
	return ""
}
