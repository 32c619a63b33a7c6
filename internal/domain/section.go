package domain

// SectionKey 提案章节标识
type SectionKey string

const (
	SectionCoverPage          SectionKey = "coverPage"
	SectionIntroduction       SectionKey = "introduction"
	SectionKeyModules         SectionKey = "keyModules"
	SectionTechStack          SectionKey = "techStack"
	SectionDeliveryComponents SectionKey = "deliveryComponents"
	SectionCostEstimation     SectionKey = "costEstimation"
	SectionProposedTeam       SectionKey = "proposedTeam"
	SectionAMC                SectionKey = "amc"
	SectionSLA                SectionKey = "sla"
	SectionChangeRequest      SectionKey = "changeRequest"
	SectionAcceptanceCriteria SectionKey = "acceptanceCriteria"
	SectionWarranty           SectionKey = "warranty"
	SectionLegalSignOff       SectionKey = "legalSignOff"
)

// RenderType 章节渲染类型
type RenderType string

const (
	RenderStatic      RenderType = "static"       // 固定结构，AI 很少改动
	RenderSemiDynamic RenderType = "semi_dynamic" // 表格/勾选项，AI 给默认值
	RenderDynamic     RenderType = "dynamic"      // 自由 markdown 内容
)

// SectionMeta 章节元信息
type SectionMeta struct {
	Key        SectionKey `json:"key"`
	Title      string     `json:"title"`
	Order      int        `json:"order"`
	RenderType RenderType `json:"type"`
}

// sectionOrder 章节顺序，定义一次且不可变
var sectionOrder = []SectionMeta{
	{SectionCoverPage, "Cover Page", 1, RenderSemiDynamic},
	{SectionIntroduction, "Introduction", 2, RenderDynamic},
	{SectionKeyModules, "Key Modules", 3, RenderDynamic},
	{SectionTechStack, "Tech Stack", 4, RenderSemiDynamic},
	{SectionDeliveryComponents, "Delivery Components", 5, RenderSemiDynamic},
	{SectionCostEstimation, "Cost & Estimation", 6, RenderDynamic},
	{SectionProposedTeam, "Proposed Team", 7, RenderSemiDynamic},
	{SectionAMC, "AMC", 8, RenderStatic},
	{SectionSLA, "SLA", 9, RenderStatic},
	{SectionChangeRequest, "Change Request", 10, RenderStatic},
	{SectionAcceptanceCriteria, "Acceptance Criteria", 11, RenderStatic},
	{SectionWarranty, "Warranty", 12, RenderStatic},
	{SectionLegalSignOff, "Legal & Sign Off", 13, RenderStatic},
}

var sectionIndex = func() map[SectionKey]int {
	idx := make(map[SectionKey]int, len(sectionOrder))
	for i, m := range sectionOrder {
		idx[m.Key] = i
	}
	return idx
}()

// Sections 返回全部章节元信息的副本，按顺序排列
func Sections() []SectionMeta {
	out := make([]SectionMeta, len(sectionOrder))
	copy(out, sectionOrder)
	return out
}

// SectionKeys 返回按顺序排列的章节标识
func SectionKeys() []SectionKey {
	keys := make([]SectionKey, len(sectionOrder))
	for i, m := range sectionOrder {
		keys[i] = m.Key
	}
	return keys
}

// Meta 获取章节元信息
func Meta(key SectionKey) (SectionMeta, bool) {
	i, ok := sectionIndex[key]
	if !ok {
		return SectionMeta{}, false
	}
	return sectionOrder[i], true
}

// IndexOf 返回章节位置，不存在返回 -1
func IndexOf(key SectionKey) int {
	if i, ok := sectionIndex[key]; ok {
		return i
	}
	return -1
}

// Next 返回下一个章节；最后一个章节或非法 key 返回 false
func Next(key SectionKey) (SectionKey, bool) {
	i := IndexOf(key)
	if i < 0 || i+1 >= len(sectionOrder) {
		return "", false
	}
	return sectionOrder[i+1].Key, true
}

func FirstSection() SectionKey {
	return sectionOrder[0].Key
}

func LastSection() SectionKey {
	return sectionOrder[len(sectionOrder)-1].Key
}

func IsLast(key SectionKey) bool {
	return key == LastSection()
}

func IsValid(key SectionKey) bool {
	_, ok := sectionIndex[key]
	return ok
}

// ParseSectionKey 解析章节标识
func ParseSectionKey(s string) (SectionKey, error) {
	key := SectionKey(s)
	if !IsValid(key) {
		return "", NewValidationError("sectionKey", "unknown section "+s)
	}
	return key, nil
}

// Title 返回章节标题，非法 key 返回 key 本身
func (k SectionKey) Title() string {
	if m, ok := Meta(k); ok {
		return m.Title
	}
	return string(k)
}
