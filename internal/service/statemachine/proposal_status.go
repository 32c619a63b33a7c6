package statemachine

import (
	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"k8s.io/klog/v2"
)

// SectionProgress 章节进度汇总
type SectionProgress struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Confirmed  int `json:"confirmed"`
	Skipped    int `json:"skipped"`
}

// Summarize 统计提案各章节状态
// confirmedSections 是确认的唯一依据，章节自身的 status 只用于区分 pending/in_progress
func Summarize(p *domain.Proposal) SectionProgress {
	var s SectionProgress
	if p == nil {
		return s
	}
	for _, key := range domain.SectionKeys() {
		s.Total++
		if p.IsConfirmed(key) {
			s.Confirmed++
			continue
		}
		sec := p.Section(key)
		if sec == nil {
			s.Pending++
			continue
		}
		switch sec.Status {
		case domain.SectionInProgress:
			s.InProgress++
		case domain.SectionSkipped:
			s.Skipped++
		default:
			s.Pending++
		}
	}
	return s
}

// AggregateProposalStatus 根据章节进度推导提案状态
// 全部确认为 complete，否则为 draft
func AggregateProposalStatus(current domain.ProposalStatus, progress SectionProgress, proposalID string) domain.ProposalStatus {
	next := domain.ProposalDraft
	if progress.Total > 0 && progress.Confirmed == progress.Total {
		next = domain.ProposalComplete
	}
	if next != current {
		klog.V(6).Infof("提案状态聚合: proposalID=%s, %s -> %s (confirmed=%d/%d)",
			proposalID, current, next, progress.Confirmed, progress.Total)
	}
	return next
}
