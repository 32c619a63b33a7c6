package render

import (
	"strings"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/layout"
	"k8s.io/klog/v2"
)

const (
	Website = "https://www.argosmob.in/"
	Tagline = "Delivering high-velocity, enterprise-grade digital solutions"
	// HeaderBrand 页眉左侧的公司名
	HeaderBrand = "ARGOSMOB TECH & AI PVT LTD"
	// IntroductionPlaceholder 引言为空时的占位文字
	IntroductionPlaceholder = "Introduction content will appear here."
	// KeyModulesPlaceholder 没有模块内容也没有勾选项时的占位文字
	KeyModulesPlaceholder = "Key modules & features will appear here."
)

// CoverStyle 封面配色
type CoverStyle struct {
	Background string `json:"background"`
	Accent     string `json:"accent"`
	Subtext    string `json:"subtext"`
}

var coverStyles = map[domain.Theme]CoverStyle{
	domain.ThemeDefault:   {"#0B1220", "#E85D2B", "#9CA3AF"},
	domain.ThemeDark:      {"#0B1220", "#E85D2B", "#9CA3AF"},
	domain.ThemeMinimal:   {"#1E3A5F", "#E85D2B", "#93C5FD"},
	domain.ThemeLightBlue: {"#1E3A5F", "#E85D2B", "#93C5FD"},
	domain.ThemeDarkBlue:  {"#0A1628", "#3B82F6", "#60A5FA"},
}

// StyleFor 返回主题对应的封面配色，未知主题使用 default
func StyleFor(theme domain.Theme) CoverStyle {
	if s, ok := coverStyles[theme]; ok {
		return s
	}
	return coverStyles[domain.ThemeDefault]
}

// Strength "Why Choose Us" 页的一项优势
type Strength struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

var Strengths = []Strength{
	{"Industry Expertise", "Years of experience delivering mobile apps, web platforms, and AI-driven solutions across diverse industries."},
	{"End-to-End Delivery", "From ideation and design to development, QA, and deployment, we own the full product lifecycle."},
	{"Scalable Architecture", "We build with growth in mind. Our systems are designed to scale seamlessly as your user base expands."},
	{"Business-Oriented Approach", "We think like product owners, not just developers. Every decision is driven by business impact."},
	{"Transparent Process", "Regular updates, clear milestones, and open communication at every stage of the project."},
	{"Post-Launch Support", "We stay engaged after go-live with dedicated AMC, SLA-backed support, and continuous improvements."},
	{"Premium UI/UX Design", "User-first interfaces crafted to drive engagement, retention, and satisfaction."},
	{"Client-Centric Culture", "Your success is our success. We align our goals with yours from day one to delivery and beyond."},
}

const Commitment = "At ArgosMob Tech & AI Pvt. Ltd., we are committed to transforming your ideas into secure, " +
	"scalable, and high-performing digital platforms. We combine technical excellence with a deep understanding " +
	"of your business goals to deliver solutions that create real value. When you partner with us, you gain more " +
	"than a development team: you gain a long-term technology partner dedicated to your growth."

// Page 文档中的一个章节页
type Page struct {
	Key    domain.SectionKey `json:"key"`
	Number int               `json:"number"`
	Title  string            `json:"title"`
	Nodes  []layout.Node     `json:"nodes"`
}

// Document 绘制前的完整文档：封面 + 已确认章节的节点流
// HTML 预览、PDF 和纯文本导出都消费同一份 Document
type Document struct {
	ProposalID string               `json:"proposalId"`
	Company    string               `json:"company"`
	Watermark  string               `json:"watermark,omitempty"`
	Version    int                  `json:"version"`
	Cover      domain.CoverPageData `json:"cover"`
	Style      CoverStyle           `json:"style"`
	Options    layout.Options       `json:"options"`
	Pages      []Page               `json:"pages"`
}

// Compose 把提案组装成文档
// 封面总是存在；其余章节只有确认后才出现，顺序与章节注册表一致
func Compose(p *domain.Proposal, opts layout.Options) Document {
	if opts.AccentColor == "" {
		opts.AccentColor = layout.DefaultAccentColor
	}
	if opts.BodyFontSize <= 0 {
		opts.BodyFontSize = layout.DefaultBodyFontSize
	}

	doc := Document{
		Company: domain.CompanyName,
		Style:   StyleFor(domain.ThemeDefault),
		Options: opts,
	}
	if p == nil {
		return doc
	}
	doc.ProposalID = p.ID
	doc.Version = p.Version
	doc.Style = StyleFor(p.Theme)
	doc.Cover = coverData(p)

	for _, meta := range domain.Sections() {
		if meta.Key == domain.SectionCoverPage || !p.IsConfirmed(meta.Key) {
			continue
		}
		var data domain.SectionData
		if sec := p.Section(meta.Key); sec != nil {
			data = sec.Data
		}
		doc.Pages = append(doc.Pages, Page{
			Key:    meta.Key,
			Number: meta.Order,
			Title:  meta.Title,
			Nodes:  layout.Render(SectionMarkdown(meta.Key, data), opts),
		})
	}
	klog.V(6).Infof("[Render] 文档已组装: proposalID=%s, pages=%d", doc.ProposalID, len(doc.Pages))
	return doc
}

// coverData 封面数据，缺失字段用提案顶层字段补齐
func coverData(p *domain.Proposal) domain.CoverPageData {
	var cover domain.CoverPageData
	if sec := p.Section(domain.SectionCoverPage); sec != nil {
		if c, err := domain.DecodeSection[domain.CoverPageData](sec.Data); err == nil {
			cover = c
		} else {
			klog.Warningf("[Render] 封面数据格式不正确: proposalID=%s, error=%v", p.ID, err)
		}
	}
	if strings.TrimSpace(cover.ClientName) == "" {
		cover.ClientName = p.ClientName
	}
	if strings.TrimSpace(cover.ProjectTitle) == "" {
		cover.ProjectTitle = p.ProjectTitle
	}
	if cover.PreparedBy == "" {
		cover.PreparedBy = domain.DefaultPreparedBy
	}
	if cover.Date == "" {
		cover.Date = p.CreatedAt.Format(domain.CoverDateLayout)
	}
	if cover.Version == "" {
		cover.Version = "1.0"
	}
	return cover
}

// ClientLabel 页眉右侧的客户名
func (d Document) ClientLabel() string {
	if d.Cover.ClientName != "" {
		return d.Cover.ClientName
	}
	return "Client"
}

// PlainText 纯文本导出
func (d Document) PlainText() string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(d.Company))
	b.WriteString("\n\n")
	b.WriteString(orDash(d.Cover.ProjectTitle))
	b.WriteString("\nPrepared for: ")
	b.WriteString(orDash(d.Cover.ClientName))
	b.WriteString("\nPrepared by: ")
	b.WriteString(d.Cover.PreparedBy)
	b.WriteString("\nDate: ")
	b.WriteString(d.Cover.Date)
	b.WriteString("\nVersion: ")
	b.WriteString(d.Cover.Version)
	b.WriteString("\n")
	for _, page := range d.Pages {
		b.WriteString("\n# ")
		b.WriteString(page.Title)
		b.WriteString("\n")
		b.WriteString(layout.PlainText(page.Nodes))
		b.WriteString("\n")
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
