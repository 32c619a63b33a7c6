package domain

import (
	"strings"
	"time"
)

// SectionStatus 章节状态
type SectionStatus string

const (
	SectionPending    SectionStatus = "pending"
	SectionInProgress SectionStatus = "in_progress"
	SectionConfirmed  SectionStatus = "confirmed"
	SectionSkipped    SectionStatus = "skipped"
)

// ProposalStatus 提案状态
type ProposalStatus string

const (
	ProposalDraft    ProposalStatus = "draft"
	ProposalComplete ProposalStatus = "complete"
)

// Theme 预览主题
type Theme string

const (
	ThemeDefault   Theme = "default"
	ThemeDark      Theme = "dark"
	ThemeMinimal   Theme = "minimal"
	ThemeLightBlue Theme = "lightBlue"
	ThemeDarkBlue  Theme = "darkBlue"
)

// ParseTheme 解析主题，空串视为 default
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case "":
		return ThemeDefault, nil
	case ThemeDefault, ThemeDark, ThemeMinimal, ThemeLightBlue, ThemeDarkBlue:
		return t, nil
	}
	return "", NewValidationError("theme", "unknown theme "+s)
}

// ParseProposalStatus 解析提案状态
func ParseProposalStatus(s string) (ProposalStatus, error) {
	switch st := ProposalStatus(s); st {
	case ProposalDraft, ProposalComplete:
		return st, nil
	}
	return "", NewValidationError("status", "unknown status "+s)
}

// Section 单个章节的包装：状态 + 数据
type Section struct {
	Status       SectionStatus `json:"status"`
	Data         SectionData   `json:"data"`
	AIGenerated  bool          `json:"aiGenerated"`
	UserModified bool          `json:"userModified"`
}

// Clone 深拷贝章节
func (s *Section) Clone() *Section {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Data = s.Data.Clone()
	return &cp
}

// Creator 提案创建人
type Creator struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Proposal 提案聚合根
type Proposal struct {
	ID                string                  `json:"id"`
	SessionID         string                  `json:"sessionId"`
	ClientName        string                  `json:"clientName"`
	ProjectTitle      string                  `json:"projectTitle"`
	ProjectBrief      string                  `json:"projectBrief"`
	CurrentSection    SectionKey              `json:"currentSection"`
	ConfirmedSections []SectionKey            `json:"confirmedSections"`
	Theme             Theme                   `json:"theme"`
	Status            ProposalStatus          `json:"status"`
	Version           int                     `json:"version"`
	ParentID          string                  `json:"parentId,omitempty"`
	Sections          map[SectionKey]*Section `json:"sections"`
	CreatedBy         *Creator                `json:"createdBy,omitempty"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

// ProposalSummary 列表展示用的提案摘要
type ProposalSummary struct {
	ID           string         `json:"id"`
	SessionID    string         `json:"sessionId"`
	ClientName   string         `json:"clientName"`
	ProjectTitle string         `json:"projectTitle"`
	Status       ProposalStatus `json:"status"`
	Version      int            `json:"version"`
	ParentID     string         `json:"parentId,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// NewSections 为全部 13 个章节生成默认数据
func NewSections(now time.Time) map[SectionKey]*Section {
	sections := make(map[SectionKey]*Section, len(sectionOrder))
	for _, m := range sectionOrder {
		sections[m.Key] = &Section{
			Status: SectionPending,
			Data:   DefaultSectionData(m.Key, now),
		}
	}
	return sections
}

// NewProposal 创建空白提案，所有章节为默认值
func NewProposal(id, sessionID string, now time.Time) *Proposal {
	return &Proposal{
		ID:                id,
		SessionID:         sessionID,
		CurrentSection:    FirstSection(),
		ConfirmedSections: []SectionKey{},
		Theme:             ThemeDefault,
		Status:            ProposalDraft,
		Version:           1,
		Sections:          NewSections(now),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Normalize 加载后修复聚合根，保证不变式成立
// - sections 一定包含全部 13 个 key（缺失的补默认值）
// - confirmedSections 去重且只含合法 key
// - version >= 1
// - currentSection 合法，否则指向第一个未确认章节
func (p *Proposal) Normalize(now time.Time) {
	if p.Sections == nil {
		p.Sections = make(map[SectionKey]*Section, len(sectionOrder))
	}
	for _, m := range sectionOrder {
		sec, ok := p.Sections[m.Key]
		if !ok || sec == nil {
			p.Sections[m.Key] = &Section{Status: SectionPending, Data: DefaultSectionData(m.Key, now)}
			continue
		}
		if sec.Data == nil {
			sec.Data = DefaultSectionData(m.Key, now)
		}
		if sec.Status == "" {
			sec.Status = SectionPending
		}
	}

	seen := make(map[SectionKey]bool, len(p.ConfirmedSections))
	confirmed := make([]SectionKey, 0, len(p.ConfirmedSections))
	for _, k := range p.ConfirmedSections {
		if !IsValid(k) || seen[k] {
			continue
		}
		seen[k] = true
		confirmed = append(confirmed, k)
	}
	p.ConfirmedSections = confirmed

	if p.Version < 1 {
		p.Version = 1
	}
	if p.Theme == "" {
		p.Theme = ThemeDefault
	}
	if p.Status == "" {
		p.Status = ProposalDraft
	}
	if !IsValid(p.CurrentSection) {
		p.CurrentSection = p.FirstUnconfirmed()
	}
}

// FirstUnconfirmed 返回第一个未确认章节；全部确认时返回最后一个章节
func (p *Proposal) FirstUnconfirmed() SectionKey {
	for _, m := range sectionOrder {
		if !p.IsConfirmed(m.Key) {
			return m.Key
		}
	}
	return LastSection()
}

// IsConfirmed 章节是否已确认
func (p *Proposal) IsConfirmed(key SectionKey) bool {
	for _, k := range p.ConfirmedSections {
		if k == key {
			return true
		}
	}
	return false
}

// IsRevision 是否为派生版本
func (p *Proposal) IsRevision() bool {
	return strings.TrimSpace(p.ParentID) != ""
}

// Section 获取章节，不存在返回 nil
func (p *Proposal) Section(key SectionKey) *Section {
	if p.Sections == nil {
		return nil
	}
	return p.Sections[key]
}

// Clone 深拷贝提案
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	cp := *p
	cp.ConfirmedSections = append([]SectionKey{}, p.ConfirmedSections...)
	cp.Sections = make(map[SectionKey]*Section, len(p.Sections))
	for k, s := range p.Sections {
		cp.Sections[k] = s.Clone()
	}
	if p.CreatedBy != nil {
		c := *p.CreatedBy
		cp.CreatedBy = &c
	}
	return &cp
}

// Summary 生成列表摘要
func (p *Proposal) Summary() ProposalSummary {
	return ProposalSummary{
		ID:           p.ID,
		SessionID:    p.SessionID,
		ClientName:   p.ClientName,
		ProjectTitle: p.ProjectTitle,
		Status:       p.Status,
		Version:      p.Version,
		ParentID:     p.ParentID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
