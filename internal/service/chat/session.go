package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/eventbus"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/statemachine"
	"github.com/dixitakash2514/argos-mob-proposal/internal/store"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// failureNotice 追加在占位消息末尾的错误提示
const failureNotice = "Sorry, the AI assistant is unavailable right now (%s). You can enter this section manually."

// Session 单个提案的对话会话
// 同一时间最多一轮对话；流式读取期间不持有锁，状态查询不会被阻塞
type Session struct {
	mu sync.Mutex

	proposalID   string
	store        *store.Store
	collaborator Collaborator
	bus          *eventbus.ProposalEventBus
	sm           *statemachine.TurnStateMachine

	state          statemachine.TurnState
	messages       []Message
	offline        bool
	failedSection  domain.SectionKey
	pendingAdvance bool
	closed         bool

	// seq 按提案递增，会话重建后继续沿用，自动保存据此丢弃过期快照
	seq *atomic.Uint64

	now   func() time.Time
	newID func() string
}

type Option func(*Session)

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator 替换消息 ID 生成
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// WithSequence 共享快照序号；同一提案的会话被重建时沿用同一个计数器
func WithSequence(seq *atomic.Uint64) Option {
	return func(s *Session) { s.seq = seq }
}

// NewSession 基于已加载的提案创建会话
func NewSession(p *domain.Proposal, collaborator Collaborator, bus *eventbus.ProposalEventBus, opts ...Option) *Session {
	s := &Session{
		proposalID:   p.ID,
		store:        store.New(),
		collaborator: collaborator,
		bus:          bus,
		sm:           statemachine.NewTurnStateMachine(),
		state:        statemachine.TurnIdle,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seq == nil {
		s.seq = new(atomic.Uint64)
	}
	s.store.WithClock(s.now)
	s.store.Load(p)
	return s
}

func (s *Session) ProposalID() string {
	return s.proposalID
}

// Snapshot 当前提案的深拷贝
func (s *Session) Snapshot() *domain.Proposal {
	return s.store.Snapshot()
}

// Messages 会话记录副本
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// State 返回会话状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.store.Snapshot()
	return State{
		ProposalID:      s.proposalID,
		TurnState:       s.state,
		Offline:         s.offline,
		PendingAdvance:  s.pendingAdvance,
		ManualAvailable: s.offline || s.state == statemachine.TurnFailed,
		Progress:        statemachine.Summarize(p),
		Messages:        append([]Message(nil), s.messages...),
		Proposal:        p,
	}
}

// Send 发送一条用户消息并完成一轮对话
// AI 调用失败不会返回错误，而是进入 Failed 状态并提供手动录入
func (s *Session) Send(ctx context.Context, text string, sink Sink) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, domain.NewValidationError("userMessage", "must not be empty")
	}
	if len([]rune(text)) > MaxUserMessageLength {
		return TurnResult{}, domain.NewValidationError("userMessage", "must be at most 4000 characters")
	}

	s.mu.Lock()
	if !s.store.Loaded() {
		s.mu.Unlock()
		return TurnResult{}, domain.ErrNotFound
	}
	if statemachine.InFlight(s.state) {
		s.mu.Unlock()
		klog.V(6).Infof("[Session] 拒绝并发输入: proposalID=%s, state=%s", s.proposalID, s.state)
		return TurnResult{}, ErrTurnInFlight
	}

	section := s.store.Current()
	userMsg := s.appendMessageLocked(RoleUser, text, section)

	if s.offline {
		// 离线不改变轮次状态，失败后的会话仍保持 Failed
		state := s.state
		s.mu.Unlock()
		klog.V(6).Infof("[Session] 离线模式，跳过 AI 调用: proposalID=%s, section=%s", s.proposalID, section)
		return TurnResult{
			MessageID:      userMsg.ID,
			SectionKey:     section,
			State:          state,
			Outcome:        OutcomeOffline,
			ManualFallback: true,
		}, nil
	}

	req := s.buildRequestLocked(section, text)
	placeholder := s.appendMessageLocked(RoleAssistant, "", section)
	if err := s.transitionLocked(statemachine.TurnSending); err != nil {
		s.mu.Unlock()
		return TurnResult{}, err
	}
	s.failedSection = ""
	s.mu.Unlock()

	result := TurnResult{MessageID: placeholder.ID, SectionKey: section}
	return s.runTurn(ctx, req, placeholder.ID, sink, result)
}

// runTurn Sending -> Streaming -> Applying/Failed
func (s *Session) runTurn(ctx context.Context, req TurnRequest, msgID string, sink Sink, result TurnResult) (TurnResult, error) {
	reader, err := s.collaborator.Stream(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return s.cancel(result, ctx.Err())
		}
		return s.fail(result, msgID, collaboratorError("stream", err))
	}
	defer reader.Close()

	s.mu.Lock()
	err = s.transitionLocked(statemachine.TurnStreaming)
	s.mu.Unlock()
	if err != nil {
		return result, err
	}

	var full strings.Builder
	for {
		if ctx.Err() != nil {
			return s.cancel(result, ctx.Err())
		}
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return s.cancel(result, ctx.Err())
			}
			return s.fail(result, msgID, collaboratorError("recv", err))
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		full.WriteString(chunk.Content)
		s.appendToMessage(msgID, chunk.Content)
		sink.emit(Chunk{MessageID: msgID, Text: chunk.Content})
	}

	// 写端关闭也会表现为 EOF，取消时不做任何合并
	if ctx.Err() != nil {
		return s.cancel(result, ctx.Err())
	}

	return s.apply(ctx, result, full.String())
}

// apply 流完整结束后才解析 JSON 并合并
func (s *Session) apply(ctx context.Context, result TurnResult, text string) (TurnResult, error) {
	s.mu.Lock()
	if err := s.transitionLocked(statemachine.TurnApplying); err != nil {
		s.mu.Unlock()
		return result, err
	}
	ex := s.applyTextLocked(result.SectionKey, text)
	_ = s.transitionLocked(statemachine.TurnIdle)
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	result.State = statemachine.TurnIdle
	result.Outcome = ex.outcome
	result.Source = ex.source
	result.NextPending = s.HasPending()

	klog.V(6).Infof("[Session] 本轮完成: proposalID=%s, section=%s, outcome=%s, source=%s",
		s.proposalID, result.SectionKey, ex.outcome, ex.source)

	s.publish(ctx, eventbus.ProposalEventTurnApplied, result.SectionKey, seq)
	return result, nil
}

// applyTextLocked 把一段完整回复合并进提案
func (s *Session) applyTextLocked(key domain.SectionKey, text string) extraction {
	ex := extractSection(key, text, s.store.Snapshot())
	if ex.outcome != OutcomeApplied {
		return ex
	}
	if ex.clientName != nil {
		s.store.SetField(store.FieldClientName, *ex.clientName)
	}
	if ex.projectTitle != nil {
		s.store.SetField(store.FieldProjectTitle, *ex.projectTitle)
	}
	s.store.MergeSectionData(key, ex.data)
	s.store.MarkAIGenerated(key)
	return ex
}

// fail 进入 Failed，章节数据保持不变
func (s *Session) fail(result TurnResult, msgID string, err error) (TurnResult, error) {
	klog.Errorf("[Session] 对话失败: proposalID=%s, section=%s, error=%v", s.proposalID, result.SectionKey, err)

	s.mu.Lock()
	notice := fmt.Sprintf(failureNotice, err.Error())
	for i := range s.messages {
		if s.messages[i].ID != msgID {
			continue
		}
		if s.messages[i].Content != "" {
			notice = "\n\n" + notice
		}
		s.messages[i].Content += notice
	}
	_ = s.transitionLocked(statemachine.TurnFailed)
	s.failedSection = result.SectionKey
	s.mu.Unlock()

	result.State = statemachine.TurnFailed
	result.Outcome = OutcomeFailed
	result.ManualFallback = true
	result.Error = err.Error()
	return result, nil
}

func collaboratorError(op string, err error) error {
	if domain.IsAICollaborator(err) {
		return err
	}
	return &domain.AICollaboratorError{Op: op, Err: err}
}

// cancel 调用方放弃本轮，只恢复轮次状态
func (s *Session) cancel(result TurnResult, err error) (TurnResult, error) {
	s.mu.Lock()
	_ = s.transitionLocked(statemachine.TurnIdle)
	s.mu.Unlock()

	klog.V(6).Infof("[Session] 本轮已取消: proposalID=%s, section=%s", s.proposalID, result.SectionKey)
	result.State = statemachine.TurnIdle
	result.Outcome = OutcomeCanceled
	return result, err
}

// buildRequestLocked 历史只取当前章节的非空消息，且不包含刚追加的用户消息
func (s *Session) buildRequestLocked(section domain.SectionKey, text string) TurnRequest {
	p := s.store.Snapshot()

	var scoped []Message
	for _, m := range s.messages {
		if m.SectionKey == section && strings.TrimSpace(m.Content) != "" {
			scoped = append(scoped, m)
		}
	}
	if len(scoped) > 0 {
		scoped = scoped[:len(scoped)-1]
	}
	history := make([]HistoryEntry, 0, len(scoped))
	for _, m := range scoped {
		history = append(history, HistoryEntry{Role: m.Role, Content: m.Content})
	}

	return TurnRequest{
		ProposalID:  s.proposalID,
		SectionKey:  section,
		UserMessage: text,
		Context: TurnContext{
			ClientName:         p.ClientName,
			ProjectTitle:       p.ProjectTitle,
			ProjectBrief:       p.ProjectBrief,
			ConfirmedSections:  p.ConfirmedSections,
			CurrentSection:     section,
			CurrentSectionData: p.Sections[section].Data,
		},
		History: history,
	}
}

func (s *Session) appendMessageLocked(role Role, content string, section domain.SectionKey) Message {
	m := Message{
		ID:         s.newID(),
		Role:       role,
		Content:    content,
		Timestamp:  s.now(),
		SectionKey: section,
	}
	s.messages = append(s.messages, m)
	return m
}

func (s *Session) appendToMessage(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID == id {
			s.messages[i].Content += text
			return
		}
	}
}

func (s *Session) transitionLocked(to statemachine.TurnState) error {
	if err := s.sm.Transition(s.state, to, s.proposalID); err != nil {
		return err
	}
	s.state = to
	return nil
}

func (s *Session) nextSeqLocked() uint64 {
	return s.seq.Add(1)
}

// Close 会话被丢弃后不再发布事件，进行中的一轮结束时也不会写回旧快照
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed 会话是否已被丢弃
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Busy 是否有一轮对话正在进行
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statemachine.InFlight(s.state)
}

// publish 发布事件，订阅方的错误只记录日志
func (s *Session) publish(ctx context.Context, t eventbus.ProposalEventType, key domain.SectionKey, seq uint64) {
	if s.bus == nil || s.Closed() {
		return
	}
	event := eventbus.ProposalEvent{
		Type:       t,
		ProposalID: s.proposalID,
		SectionKey: key,
		Seq:        seq,
		Snapshot:   s.store.Snapshot(),
	}
	if err := s.bus.Publish(context.WithoutCancel(ctx), t, event); err != nil {
		klog.Warningf("[Session] 事件处理失败: type=%s, proposalID=%s, error=%v", t, s.proposalID, err)
	}
}
