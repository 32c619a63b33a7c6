package chat

import (
	"context"
	"fmt"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/eventbus"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/statemachine"
	"k8s.io/klog/v2"
)

// ConfirmResult 确认章节的结果
type ConfirmResult struct {
	SectionKey  domain.SectionKey `json:"sectionKey"`
	Current     domain.SectionKey `json:"currentSection"`
	NextPending bool              `json:"nextPending"`
	Completed   bool              `json:"completed"`
}

// Confirm 确认章节
// 只有确认的是当前章节且不是最后一个章节时，才安排一次"开始下一章节"的对话。
// 重新确认一个不是当前章节的已确认章节不会改变任何东西。
func (s *Session) Confirm(ctx context.Context, key domain.SectionKey) (ConfirmResult, error) {
	if !domain.IsValid(key) {
		return ConfirmResult{}, domain.NewValidationError("sectionKey", "unknown section "+string(key))
	}

	s.mu.Lock()
	if !s.store.Loaded() {
		s.mu.Unlock()
		return ConfirmResult{}, domain.ErrNotFound
	}
	if statemachine.InFlight(s.state) {
		s.mu.Unlock()
		return ConfirmResult{}, ErrTurnInFlight
	}

	current := s.store.Current()
	if key != current {
		confirmed := s.store.IsConfirmed(key)
		s.mu.Unlock()
		if !confirmed {
			return ConfirmResult{}, domain.NewValidationError("sectionKey", "only the current section can be confirmed")
		}
		return ConfirmResult{SectionKey: key, Current: current}, nil
	}

	s.store.ConfirmSection(key)
	last := domain.IsLast(key)
	if !last {
		s.pendingAdvance = true
	}
	if s.state == statemachine.TurnFailed {
		_ = s.transitionLocked(statemachine.TurnIdle)
		s.failedSection = ""
	}
	seq := s.nextSeqLocked()
	res := ConfirmResult{
		SectionKey:  key,
		Current:     s.store.Current(),
		NextPending: s.pendingAdvance,
		Completed:   last,
	}
	s.mu.Unlock()

	klog.V(6).Infof("[Session] 章节已确认: proposalID=%s, section=%s, next=%s, pending=%t",
		s.proposalID, key, res.Current, res.NextPending)

	if last {
		s.publish(ctx, eventbus.ProposalEventProposalCompleted, key, seq)
	} else {
		s.publish(ctx, eventbus.ProposalEventSectionConfirmed, key, seq)
	}
	return res, nil
}

// Jump 回到一个已确认章节进行修改
func (s *Session) Jump(key domain.SectionKey) error {
	if !domain.IsValid(key) {
		return domain.NewValidationError("sectionKey", "unknown section "+string(key))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.store.Loaded() {
		return domain.ErrNotFound
	}
	if statemachine.InFlight(s.state) {
		return ErrTurnInFlight
	}
	if !s.store.IsConfirmed(key) {
		return domain.NewValidationError("sectionKey", "can only jump to a confirmed section")
	}

	s.store.JumpToSection(key)
	s.pendingAdvance = false
	if s.state == statemachine.TurnFailed {
		_ = s.transitionLocked(statemachine.TurnIdle)
	}
	s.failedSection = ""
	klog.V(6).Infof("[Session] 跳转章节: proposalID=%s, section=%s", s.proposalID, key)
	return nil
}

// HasPending 是否有待执行的"开始下一章节"对话
func (s *Session) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingAdvance
}

// RunPending 执行一次待定的下一章节对话，标记在发送前清除，保证只触发一次
func (s *Session) RunPending(ctx context.Context, sink Sink) (TurnResult, bool, error) {
	s.mu.Lock()
	if !s.pendingAdvance || statemachine.InFlight(s.state) {
		s.mu.Unlock()
		return TurnResult{}, false, nil
	}
	s.pendingAdvance = false
	opening := nextSectionOpening(s.store.Snapshot())
	s.mu.Unlock()

	if opening == "" {
		return TurnResult{}, false, nil
	}
	res, err := s.Send(ctx, opening, sink)
	return res, true, err
}

// Start 会话的第一轮对话，会话记录非空时拒绝
func (s *Session) Start(ctx context.Context, sink Sink) (TurnResult, error) {
	s.mu.Lock()
	if !s.store.Loaded() {
		s.mu.Unlock()
		return TurnResult{}, domain.ErrNotFound
	}
	if len(s.messages) > 0 {
		s.mu.Unlock()
		return TurnResult{}, domain.NewValidationError("session", "already started")
	}
	opening := startOpening(s.store.Snapshot())
	s.mu.Unlock()

	return s.Send(ctx, opening, sink)
}

// Replay 把会话记录中所有 AI 回复重新合并一遍
// 用于从存储重新加载提案后补回尚未保存的数据
func (s *Session) Replay(ctx context.Context) int {
	s.mu.Lock()
	applied := 0
	for _, m := range s.messages {
		if m.Role != RoleAssistant || m.SectionKey == "" {
			continue
		}
		if ex := s.applyTextLocked(m.SectionKey, m.Content); ex.outcome == OutcomeApplied {
			applied++
		}
	}
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	klog.V(6).Infof("[Session] 回放会话记录: proposalID=%s, applied=%d", s.proposalID, applied)
	if applied > 0 {
		s.publish(ctx, eventbus.ProposalEventTurnApplied, "", seq)
	}
	return applied
}

// Reload 用存储中的最新版本替换会话内提案，然后回放会话记录
func (s *Session) Reload(ctx context.Context, p *domain.Proposal) (int, error) {
	s.mu.Lock()
	if statemachine.InFlight(s.state) {
		s.mu.Unlock()
		return 0, ErrTurnInFlight
	}
	s.store.Load(p)
	s.mu.Unlock()
	return s.Replay(ctx), nil
}

func nextSectionOpening(p *domain.Proposal) string {
	if p == nil {
		return ""
	}
	meta, ok := domain.Meta(p.CurrentSection)
	if !ok {
		return ""
	}
	if p.IsRevision() {
		return fmt.Sprintf("We're revising v%d. The %s data from the previous version is loaded. Review it and tell me what to change, or approve it as-is.",
			previousVersion(p), meta.Title)
	}
	return fmt.Sprintf("Let's work on Section %d: %s", meta.Order, meta.Title)
}

func startOpening(p *domain.Proposal) string {
	switch {
	case p.IsRevision():
		return fmt.Sprintf("We're revising v%d of this proposal. The Cover Page data from the previous version is loaded. Review it and tell me what to change, or approve it as-is.",
			previousVersion(p))
	case p.ProjectBrief != "":
		return "My project brief: " + p.ProjectBrief
	default:
		return "Let's start building the proposal. I'll give you my project details as we go."
	}
}

func previousVersion(p *domain.Proposal) int {
	if p.Version < 2 {
		return 1
	}
	return p.Version - 1
}
