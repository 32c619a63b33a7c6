package domain

import "time"

// ProposalPatch 部分更新，nil 字段表示不修改
type ProposalPatch struct {
	ClientName        *string                 `json:"clientName,omitempty"`
	ProjectTitle      *string                 `json:"projectTitle,omitempty"`
	ProjectBrief      *string                 `json:"projectBrief,omitempty"`
	CurrentSection    *SectionKey             `json:"currentSection,omitempty"`
	ConfirmedSections *[]SectionKey           `json:"confirmedSections,omitempty"`
	Sections          map[SectionKey]*Section `json:"sections,omitempty"`
	Theme             *Theme                  `json:"theme,omitempty"`
	Status            *ProposalStatus         `json:"status,omitempty"`
}

// SnapshotPatch 自动保存时写回的字段，与会话状态保持一致
func SnapshotPatch(p *Proposal) ProposalPatch {
	cp := p.Clone()
	confirmed := cp.ConfirmedSections
	return ProposalPatch{
		ClientName:        &cp.ClientName,
		ProjectTitle:      &cp.ProjectTitle,
		ProjectBrief:      &cp.ProjectBrief,
		CurrentSection:    &cp.CurrentSection,
		ConfirmedSections: &confirmed,
		Sections:          cp.Sections,
		Theme:             &cp.Theme,
		Status:            &cp.Status,
	}
}

// Validate 校验枚举类字段
func (pp ProposalPatch) Validate() error {
	if pp.CurrentSection != nil && !IsValid(*pp.CurrentSection) {
		return NewValidationError("currentSection", "unknown section "+string(*pp.CurrentSection))
	}
	if pp.ConfirmedSections != nil {
		for _, k := range *pp.ConfirmedSections {
			if !IsValid(k) {
				return NewValidationError("confirmedSections", "unknown section "+string(k))
			}
		}
	}
	for k := range pp.Sections {
		if !IsValid(k) {
			return NewValidationError("sections", "unknown section "+string(k))
		}
	}
	if pp.Theme != nil {
		if _, err := ParseTheme(string(*pp.Theme)); err != nil {
			return err
		}
	}
	if pp.Status != nil {
		if _, err := ParseProposalStatus(string(*pp.Status)); err != nil {
			return err
		}
	}
	return nil
}

// Empty 是否没有任何字段
func (pp ProposalPatch) Empty() bool {
	return pp.ClientName == nil && pp.ProjectTitle == nil && pp.ProjectBrief == nil &&
		pp.CurrentSection == nil && pp.ConfirmedSections == nil && pp.Sections == nil &&
		pp.Theme == nil && pp.Status == nil
}

// Apply 把补丁写入提案，sections 按 key 整体替换（与文档存储的 $set 一致）
func (pp ProposalPatch) Apply(p *Proposal, now time.Time) {
	if pp.ClientName != nil {
		p.ClientName = *pp.ClientName
	}
	if pp.ProjectTitle != nil {
		p.ProjectTitle = *pp.ProjectTitle
	}
	if pp.ProjectBrief != nil {
		p.ProjectBrief = *pp.ProjectBrief
	}
	if pp.CurrentSection != nil {
		p.CurrentSection = *pp.CurrentSection
	}
	if pp.ConfirmedSections != nil {
		p.ConfirmedSections = append([]SectionKey{}, (*pp.ConfirmedSections)...)
	}
	if pp.Sections != nil {
		if p.Sections == nil {
			p.Sections = make(map[SectionKey]*Section, len(pp.Sections))
		}
		for k, s := range pp.Sections {
			if s != nil {
				p.Sections[k] = s.Clone()
			}
		}
	}
	if pp.Theme != nil {
		p.Theme = *pp.Theme
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	p.Normalize(now)
	p.UpdatedAt = now
}
