package model

import (
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
)

// Proposal 提案表。章节数据以 JSON 整体存储，不拆表
type Proposal struct {
	ID                string                                `json:"id" gorm:"primaryKey;size:36"`
	SessionID         string                                `json:"session_id" gorm:"size:64;index"`
	ClientName        string                                `json:"client_name" gorm:"size:255"`
	ProjectTitle      string                                `json:"project_title" gorm:"size:255"`
	ProjectBrief      string                                `json:"project_brief" gorm:"type:text"`
	CurrentSection    string                                `json:"current_section" gorm:"size:50;default:coverPage"`
	ConfirmedSections []string                              `json:"confirmed_sections" gorm:"type:text;serializer:json"`
	Theme             string                                `json:"theme" gorm:"size:20;default:default"`
	Status            string                                `json:"status" gorm:"size:20;default:draft;index"` // draft, complete
	Version           int                                   `json:"version" gorm:"default:1"`
	ParentID          string                                `json:"parent_id" gorm:"size:36;index"`
	Sections          map[domain.SectionKey]*domain.Section `json:"sections" gorm:"type:text;serializer:json"`
	CreatedBy         *domain.Creator                       `json:"created_by" gorm:"type:text;serializer:json"`
	CreatedAt         time.Time                             `json:"created_at" gorm:"index"`
	UpdatedAt         time.Time                             `json:"updated_at"`
}

// NewProposalFromDomain 领域对象转存储行
func NewProposalFromDomain(p *domain.Proposal) *Proposal {
	confirmed := make([]string, 0, len(p.ConfirmedSections))
	for _, k := range p.ConfirmedSections {
		confirmed = append(confirmed, string(k))
	}
	cp := p.Clone()
	return &Proposal{
		ID:                cp.ID,
		SessionID:         cp.SessionID,
		ClientName:        cp.ClientName,
		ProjectTitle:      cp.ProjectTitle,
		ProjectBrief:      cp.ProjectBrief,
		CurrentSection:    string(cp.CurrentSection),
		ConfirmedSections: confirmed,
		Theme:             string(cp.Theme),
		Status:            string(cp.Status),
		Version:           cp.Version,
		ParentID:          cp.ParentID,
		Sections:          cp.Sections,
		CreatedBy:         cp.CreatedBy,
		CreatedAt:         cp.CreatedAt,
		UpdatedAt:         cp.UpdatedAt,
	}
}

// ToDomain 存储行转领域对象，缺失章节按默认值补齐
func (m *Proposal) ToDomain() *domain.Proposal {
	confirmed := make([]domain.SectionKey, 0, len(m.ConfirmedSections))
	for _, k := range m.ConfirmedSections {
		confirmed = append(confirmed, domain.SectionKey(k))
	}
	p := &domain.Proposal{
		ID:                m.ID,
		SessionID:         m.SessionID,
		ClientName:        m.ClientName,
		ProjectTitle:      m.ProjectTitle,
		ProjectBrief:      m.ProjectBrief,
		CurrentSection:    domain.SectionKey(m.CurrentSection),
		ConfirmedSections: confirmed,
		Theme:             domain.Theme(m.Theme),
		Status:            domain.ProposalStatus(m.Status),
		Version:           m.Version,
		ParentID:          m.ParentID,
		Sections:          m.Sections,
		CreatedBy:         m.CreatedBy,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	p = p.Clone()
	p.Normalize(m.CreatedAt)
	return p
}

// ToSummary 列表摘要，不反序列化章节
func (m *Proposal) ToSummary() domain.ProposalSummary {
	return domain.ProposalSummary{
		ID:           m.ID,
		SessionID:    m.SessionID,
		ClientName:   m.ClientName,
		ProjectTitle: m.ProjectTitle,
		Status:       domain.ProposalStatus(m.Status),
		Version:      m.Version,
		ParentID:     m.ParentID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
