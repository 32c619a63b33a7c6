package chat

import (
	"context"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/eventbus"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/statemachine"
	"github.com/dixitakash2514/argos-mob-proposal/internal/store"
	"k8s.io/klog/v2"
)

// ManualResult 手动提交的结果；错误触发时可能带有下一章节的对话结果
type ManualResult struct {
	SectionKey domain.SectionKey `json:"sectionKey"`
	Trigger    ManualTrigger     `json:"trigger"`
	Confirmed  bool              `json:"confirmed"`
	Next       *TurnResult       `json:"next,omitempty"`
}

// SetOffline 切换离线模式。离线时 Send 不调用 AI
func (s *Session) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
	klog.V(6).Infof("[Session] 离线模式: proposalID=%s, offline=%t", s.proposalID, offline)
}

func (s *Session) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

// ManualForm 返回手动录入表单；AI 失败优先于离线模式
func (s *Session) ManualForm() (ManualForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trigger, key, err := s.manualTriggerLocked()
	if err != nil {
		return ManualForm{}, err
	}
	return ManualForm{
		SectionKey: key,
		Title:      key.Title(),
		Trigger:    trigger,
		Data:       s.store.SectionData(key),
	}, nil
}

func (s *Session) manualTriggerLocked() (ManualTrigger, domain.SectionKey, error) {
	if !s.store.Loaded() {
		return "", "", domain.ErrNotFound
	}
	if statemachine.InFlight(s.state) {
		return "", "", ErrTurnInFlight
	}
	if s.state == statemachine.TurnFailed {
		key := s.failedSection
		if key == "" {
			key = s.store.Current()
		}
		return ManualError, key, nil
	}
	if s.offline {
		return ManualOffline, s.store.Current(), nil
	}
	return "", "", domain.NewValidationError("manual", "manual entry is only available offline or after an AI failure")
}

// SubmitManual 提交手动录入的数据
// 离线模式只合并，由用户在预览里确认；AI 失败后提交视同接受，自动确认并立即开始下一章节
func (s *Session) SubmitManual(ctx context.Context, data domain.SectionData, sink Sink) (ManualResult, error) {
	if len(data) == 0 {
		return ManualResult{}, domain.NewValidationError("data", "must not be empty")
	}

	s.mu.Lock()
	trigger, key, err := s.manualTriggerLocked()
	if err != nil {
		s.mu.Unlock()
		return ManualResult{}, err
	}

	s.store.MergeSectionData(key, data.Clone())
	if key == domain.SectionCoverPage {
		if v, ok := data["clientName"].(string); ok {
			s.store.SetField(store.FieldClientName, v)
		}
		if v, ok := data["projectTitle"].(string); ok {
			s.store.SetField(store.FieldProjectTitle, v)
		}
	}
	result := ManualResult{SectionKey: key, Trigger: trigger}

	if trigger == ManualOffline {
		seq := s.nextSeqLocked()
		s.mu.Unlock()
		klog.V(6).Infof("[Session] 离线手动录入: proposalID=%s, section=%s", s.proposalID, key)
		s.publish(ctx, eventbus.ProposalEventManualSubmitted, key, seq)
		return result, nil
	}

	_ = s.transitionLocked(statemachine.TurnIdle)
	s.failedSection = ""
	wasCurrent := s.store.Current() == key
	s.store.ConfirmSection(key)
	last := domain.IsLast(key)
	if wasCurrent && !last {
		s.pendingAdvance = true
	}
	result.Confirmed = true
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	klog.V(6).Infof("[Session] 失败后手动录入并确认: proposalID=%s, section=%s", s.proposalID, key)
	if last {
		s.publish(ctx, eventbus.ProposalEventProposalCompleted, key, seq)
	} else {
		s.publish(ctx, eventbus.ProposalEventSectionConfirmed, key, seq)
	}

	next, ran, err := s.RunPending(ctx, sink)
	if ran {
		result.Next = &next
	}
	return result, err
}
