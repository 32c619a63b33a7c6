package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/eventbus"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type step func(ctx context.Context) (*schema.StreamReader[*schema.Message], error)

// scriptedCollaborator 按顺序返回预先编排的回复，用完后回复一段纯文字
type scriptedCollaborator struct {
	mu       sync.Mutex
	requests []TurnRequest
	steps    []step
}

func (c *scriptedCollaborator) Stream(ctx context.Context, req TurnRequest) (*schema.StreamReader[*schema.Message], error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	var next step
	if len(c.steps) > 0 {
		next, c.steps = c.steps[0], c.steps[1:]
	}
	c.mu.Unlock()

	if next == nil {
		return reply("Got it.")(ctx)
	}
	return next(ctx)
}

func (c *scriptedCollaborator) calls() []TurnRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TurnRequest(nil), c.requests...)
}

func reply(chunks ...string) step {
	return func(ctx context.Context) (*schema.StreamReader[*schema.Message], error) {
		msgs := make([]*schema.Message, 0, len(chunks))
		for _, c := range chunks {
			msgs = append(msgs, schema.AssistantMessage(c, nil))
		}
		return schema.StreamReaderFromArray(msgs), nil
	}
}

// failAfter 先输出若干片段，再给出流内错误
func failAfter(err error, chunks ...string) step {
	return func(ctx context.Context) (*schema.StreamReader[*schema.Message], error) {
		sr, sw := schema.Pipe[*schema.Message](len(chunks) + 1)
		for _, c := range chunks {
			sw.Send(schema.AssistantMessage(c, nil), nil)
		}
		sw.Send(nil, err)
		sw.Close()
		return sr, nil
	}
}

func refuse(err error) step {
	return func(ctx context.Context) (*schema.StreamReader[*schema.Message], error) {
		return nil, err
	}
}

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, p *domain.Proposal, steps ...step) (*Session, *scriptedCollaborator, *eventRecorder) {
	t.Helper()
	if p == nil {
		p = domain.NewProposal("p1", "s1", fixedNow)
	}
	collab := &scriptedCollaborator{steps: steps}
	bus := eventbus.NewProposalEventBus()
	rec := &eventRecorder{}
	for _, et := range []eventbus.ProposalEventType{
		eventbus.ProposalEventTurnApplied,
		eventbus.ProposalEventManualSubmitted,
		eventbus.ProposalEventSectionConfirmed,
		eventbus.ProposalEventProposalCompleted,
	} {
		bus.Subscribe(et, rec.handle)
	}

	n := 0
	s := NewSession(p, collab, bus,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("m%d", n)
		}),
	)
	return s, collab, rec
}

type eventRecorder struct {
	mu     sync.Mutex
	events []eventbus.ProposalEvent
}

func (r *eventRecorder) handle(ctx context.Context, e eventbus.ProposalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) types() []eventbus.ProposalEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]eventbus.ProposalEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func collect() (Sink, func() string) {
	var mu sync.Mutex
	var b strings.Builder
	return func(c Chunk) {
			mu.Lock()
			defer mu.Unlock()
			b.WriteString(c.Text)
		}, func() string {
			mu.Lock()
			defer mu.Unlock()
			return b.String()
		}
}

func TestSendPromotesCoverFields(t *testing.T) {
	s, collab, rec := newTestSession(t, nil,
		reply("Great, here is the cover.\n", "```json\n{\"clientName\": \"Acme Corp\",", " \"projectTitle\": \"Fleet App\"}\n```"))
	sink, streamed := collect()

	res, err := s.Send(context.Background(), "We're building a fleet app for Acme Corp", sink)
	require.NoError(t, err)

	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "fenced", res.Source)
	assert.Equal(t, statemachine.TurnIdle, res.State)
	assert.False(t, res.ManualFallback)

	p := s.Snapshot()
	assert.Equal(t, "Acme Corp", p.ClientName, "clientName 应提升到顶层字段")
	assert.Equal(t, "Fleet App", p.ProjectTitle)
	cover := p.Sections[domain.SectionCoverPage]
	assert.Equal(t, "Acme Corp", cover.Data["clientName"])
	assert.Equal(t, domain.SectionInProgress, cover.Status)
	assert.True(t, cover.AIGenerated)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, streamed(), msgs[1].Content, "占位消息内容应与推送的增量一致")
	assert.Equal(t, res.MessageID, msgs[1].ID)

	calls := collab.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.SectionCoverPage, calls[0].SectionKey)
	assert.Empty(t, calls[0].History)
	assert.Equal(t, []eventbus.ProposalEventType{eventbus.ProposalEventTurnApplied}, rec.types())
}

func TestSendStreamErrorLeavesDataUntouched(t *testing.T) {
	s, _, rec := newTestSession(t, nil, failAfter(errors.New("upstream reset"), "Working on"))
	before := s.Snapshot().Sections[domain.SectionCoverPage].Clone()

	res, err := s.Send(context.Background(), "Client is Acme", nil)
	require.NoError(t, err, "AI 失败不应作为错误返回")

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, statemachine.TurnFailed, res.State)
	assert.True(t, res.ManualFallback)
	assert.Contains(t, res.Error, "upstream reset")

	after := s.Snapshot().Sections[domain.SectionCoverPage]
	assert.Equal(t, before, after, "失败后章节数据不应变化")

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, strings.HasPrefix(msgs[1].Content, "Working on\n\nSorry, the AI assistant is unavailable right now"))
	assert.Empty(t, rec.types())

	st := s.State()
	assert.Equal(t, statemachine.TurnFailed, st.TurnState)
	assert.True(t, st.ManualAvailable)

	form, err := s.ManualForm()
	require.NoError(t, err)
	assert.Equal(t, ManualError, form.Trigger)
	assert.Equal(t, domain.SectionCoverPage, form.SectionKey)
	assert.Equal(t, "Cover Page", form.Title)
}

func TestSendStreamRefusedThenRetry(t *testing.T) {
	s, _, _ := newTestSession(t, nil,
		refuse(errors.New("status 503")),
		reply(`{"clientName": "Globex", "projectTitle": "Portal"}`))

	res, err := s.Send(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	msgs := s.Messages()
	assert.True(t, strings.HasPrefix(msgs[1].Content, "Sorry, the AI assistant is unavailable right now"))

	res, err = s.Send(context.Background(), "try again", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome, "失败后可以重新发送")
	assert.Equal(t, "bare", res.Source)
	assert.Equal(t, "Globex", s.Snapshot().ClientName)
}

func TestSendRejectsInvalidInput(t *testing.T) {
	s, collab, _ := newTestSession(t, nil)

	_, err := s.Send(context.Background(), "   ", nil)
	assert.True(t, domain.IsValidation(err))

	_, err = s.Send(context.Background(), strings.Repeat("a", MaxUserMessageLength+1), nil)
	assert.True(t, domain.IsValidation(err))

	assert.Empty(t, collab.calls())
	assert.Empty(t, s.Messages())
}

func TestSendRejectsWhileInFlight(t *testing.T) {
	s, collab, _ := newTestSession(t, nil, reply("one ", "two"))

	var nested []error
	sink := func(c Chunk) {
		_, err := s.Send(context.Background(), "another", nil)
		nested = append(nested, err)
		_, err = s.Confirm(context.Background(), domain.SectionCoverPage)
		nested = append(nested, err)
		nested = append(nested, s.Jump(domain.SectionCoverPage))
	}

	_, err := s.Send(context.Background(), "first", sink)
	require.NoError(t, err)
	require.NotEmpty(t, nested)
	for _, e := range nested {
		assert.ErrorIs(t, e, ErrTurnInFlight)
	}
	assert.Len(t, collab.calls(), 1, "并发输入不应排队")
	assert.Len(t, s.Messages(), 2)
}

func TestHistoryIsScopedToSection(t *testing.T) {
	s, collab, _ := newTestSession(t, nil, reply("first answer"), reply("second answer"))
	ctx := context.Background()

	_, err := s.Send(ctx, "first", nil)
	require.NoError(t, err)
	_, err = s.Send(ctx, "second", nil)
	require.NoError(t, err)

	calls := collab.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []HistoryEntry{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "first answer"},
	}, calls[1].History)

	_, err = s.Confirm(ctx, domain.SectionCoverPage)
	require.NoError(t, err)
	_, ran, err := s.RunPending(ctx, nil)
	require.NoError(t, err)
	require.True(t, ran)

	calls = collab.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, domain.SectionIntroduction, calls[2].SectionKey)
	assert.Empty(t, calls[2].History, "新章节不应带上一章节的历史")
	assert.Equal(t, "Let's work on Section 2: Introduction", calls[2].UserMessage)
	assert.Equal(t, []domain.SectionKey{domain.SectionCoverPage}, calls[2].Context.ConfirmedSections)
}

func TestConfirmSchedulesExactlyOneTurn(t *testing.T) {
	s, collab, rec := newTestSession(t, nil)
	ctx := context.Background()

	res, err := s.Confirm(ctx, domain.SectionCoverPage)
	require.NoError(t, err)
	assert.True(t, res.NextPending)
	assert.Equal(t, domain.SectionIntroduction, res.Current)

	_, ran, err := s.RunPending(ctx, nil)
	require.NoError(t, err)
	assert.True(t, ran)
	_, ran, err = s.RunPending(ctx, nil)
	require.NoError(t, err)
	assert.False(t, ran, "待定对话只执行一次")
	assert.Len(t, collab.calls(), 1)

	// 回到已确认章节再次确认，不安排新对话
	res, err = s.Confirm(ctx, domain.SectionCoverPage)
	require.NoError(t, err)
	assert.False(t, res.NextPending)
	assert.False(t, s.HasPending())
	assert.Equal(t, []domain.SectionKey{domain.SectionCoverPage}, s.Snapshot().ConfirmedSections)

	_, err = s.Confirm(ctx, domain.SectionTechStack)
	assert.True(t, domain.IsValidation(err), "未确认的非当前章节不能确认")

	assert.Contains(t, rec.types(), eventbus.ProposalEventSectionConfirmed)
}

func TestConfirmLastSectionCompletes(t *testing.T) {
	p := domain.NewProposal("p1", "s1", fixedNow)
	keys := domain.SectionKeys()
	p.ConfirmedSections = append([]domain.SectionKey{}, keys[:len(keys)-1]...)
	p.CurrentSection = domain.SectionLegalSignOff
	s, collab, rec := newTestSession(t, p)

	res, err := s.Confirm(context.Background(), domain.SectionLegalSignOff)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.False(t, res.NextPending)
	assert.Equal(t, domain.SectionLegalSignOff, res.Current)
	assert.Equal(t, domain.ProposalComplete, s.Snapshot().Status)
	assert.Equal(t, []eventbus.ProposalEventType{eventbus.ProposalEventProposalCompleted}, rec.types())

	_, ran, err := s.RunPending(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Empty(t, collab.calls())
}

func TestJump(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	ctx := context.Background()

	err := s.Jump(domain.SectionIntroduction)
	assert.True(t, domain.IsValidation(err), "只能跳到已确认章节")

	_, err = s.Confirm(ctx, domain.SectionCoverPage)
	require.NoError(t, err)
	require.NoError(t, s.Jump(domain.SectionCoverPage))

	assert.Equal(t, domain.SectionCoverPage, s.Snapshot().CurrentSection)
	assert.False(t, s.HasPending(), "跳转后取消待定对话")

	assert.True(t, domain.IsValidation(s.Jump("nope")))
}

func TestManualAfterFailureConfirmsAndAdvances(t *testing.T) {
	s, collab, rec := newTestSession(t, nil,
		refuse(errors.New("timeout")),
		reply("Let's write the introduction."))
	ctx := context.Background()

	_, err := s.Send(ctx, "Acme", nil)
	require.NoError(t, err)

	sink, streamed := collect()
	res, err := s.SubmitManual(ctx, domain.SectionData{"clientName": "Acme", "projectTitle": "Fleet"}, sink)
	require.NoError(t, err)

	assert.True(t, res.Confirmed)
	assert.Equal(t, ManualError, res.Trigger)
	require.NotNil(t, res.Next, "失败后手动录入应立即开始下一章节")
	assert.Equal(t, domain.SectionIntroduction, res.Next.SectionKey)
	assert.Equal(t, "Let's write the introduction.", streamed())

	p := s.Snapshot()
	assert.Equal(t, []domain.SectionKey{domain.SectionCoverPage}, p.ConfirmedSections)
	assert.Equal(t, domain.SectionIntroduction, p.CurrentSection)
	assert.Equal(t, "Acme", p.ClientName)
	assert.Equal(t, "Fleet", p.Sections[domain.SectionCoverPage].Data["projectTitle"])

	calls := collab.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Let's work on Section 2: Introduction", calls[1].UserMessage)
	assert.Equal(t, statemachine.TurnIdle, s.State().TurnState)

	types := rec.types()
	assert.Contains(t, types, eventbus.ProposalEventSectionConfirmed)
}

func TestOfflineSkipsCollaborator(t *testing.T) {
	s, collab, rec := newTestSession(t, nil)
	ctx := context.Background()

	_, err := s.ManualForm()
	assert.True(t, domain.IsValidation(err), "在线且未失败时不提供手动录入")

	s.SetOffline(true)
	res, err := s.Send(ctx, "Client is Acme", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOffline, res.Outcome)
	assert.Equal(t, statemachine.TurnIdle, res.State)
	assert.True(t, res.ManualFallback)
	assert.Empty(t, collab.calls())
	assert.Len(t, s.Messages(), 1)

	form, err := s.ManualForm()
	require.NoError(t, err)
	assert.Equal(t, ManualOffline, form.Trigger)

	mres, err := s.SubmitManual(ctx, domain.SectionData{"clientName": "Acme"}, nil)
	require.NoError(t, err)
	assert.False(t, mres.Confirmed, "离线录入不自动确认")
	assert.Nil(t, mres.Next)

	p := s.Snapshot()
	assert.Empty(t, p.ConfirmedSections)
	assert.Equal(t, domain.SectionCoverPage, p.CurrentSection)
	assert.Equal(t, "Acme", p.ClientName)
	assert.Equal(t, []eventbus.ProposalEventType{eventbus.ProposalEventManualSubmitted}, rec.types())

	_, err = s.SubmitManual(ctx, nil, nil)
	assert.True(t, domain.IsValidation(err))
}

func TestOfflineAfterFailureKeepsFailedState(t *testing.T) {
	s, _, _ := newTestSession(t, nil, refuse(errors.New("connection refused")))
	ctx := context.Background()

	res, err := s.Send(ctx, "hello", nil)
	require.NoError(t, err)
	require.Equal(t, statemachine.TurnFailed, res.State)

	s.SetOffline(true)
	res, err = s.Send(ctx, "Client is Acme", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOffline, res.Outcome)
	assert.Equal(t, statemachine.TurnFailed, res.State, "离线消息不应掩盖失败状态")
	assert.Equal(t, statemachine.TurnFailed, s.State().TurnState)
}

func TestIntroductionProseFallback(t *testing.T) {
	p := domain.NewProposal("p1", "s1", fixedNow)
	p.ConfirmedSections = []domain.SectionKey{domain.SectionCoverPage}
	p.CurrentSection = domain.SectionIntroduction

	prose := "Acme Corp operates a national fleet of delivery vehicles and needs a modern app to track drivers, routes and deliveries in real time."
	s, _, _ := newTestSession(t, p, reply(prose+"\n\n**Does this introduction look good?** Let me know."))

	res, err := s.Send(context.Background(), "Write the intro", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "heuristic", res.Source)
	assert.Equal(t, prose, s.Snapshot().Sections[domain.SectionIntroduction].Data["content"])
}

func TestAcknowledgementMergesNothing(t *testing.T) {
	s, _, _ := newTestSession(t, nil, reply("Looks good!\n```json\n{\"confirmed\": true}\n```"))
	before := s.Snapshot().Sections[domain.SectionCoverPage].Clone()

	res, err := s.Send(context.Background(), "approve", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAcknowledged, res.Outcome)
	assert.Equal(t, before, s.Snapshot().Sections[domain.SectionCoverPage])
	assert.Empty(t, s.Snapshot().ConfirmedSections, "确认由用户在预览中完成")
}

func TestStartOpeningLines(t *testing.T) {
	ctx := context.Background()

	p := domain.NewProposal("p1", "s1", fixedNow)
	p.ProjectBrief = "Fleet tracking for Acme"
	s, collab, _ := newTestSession(t, p)
	_, err := s.Start(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "My project brief: Fleet tracking for Acme", collab.calls()[0].UserMessage)

	_, err = s.Start(ctx, nil)
	assert.True(t, domain.IsValidation(err), "会话已开始时不能再次开始")

	rev := domain.Fork(domain.NewProposal("p1", "s1", fixedNow), "s2", fixedNow)
	rev.ID = "p2"
	s, collab, _ = newTestSession(t, rev)
	_, err = s.Start(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "We're revising v1 of this proposal. The Cover Page data from the previous version is loaded. Review it and tell me what to change, or approve it as-is.",
		collab.calls()[0].UserMessage)

	_, err = s.Confirm(ctx, domain.SectionCoverPage)
	require.NoError(t, err)
	_, _, err = s.RunPending(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "We're revising v1. The Introduction data from the previous version is loaded. Review it and tell me what to change, or approve it as-is.",
		collab.calls()[1].UserMessage)

	s, collab, _ = newTestSession(t, nil)
	_, err = s.Start(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "Let's start building the proposal. I'll give you my project details as we go.", collab.calls()[0].UserMessage)
}

func TestReloadReplaysTranscript(t *testing.T) {
	original := domain.NewProposal("p1", "s1", fixedNow)
	s, _, rec := newTestSession(t, original, reply(`{"clientName": "Initech", "projectTitle": "TPS"}`))

	_, err := s.Send(context.Background(), "go", nil)
	require.NoError(t, err)
	require.Equal(t, "Initech", s.Snapshot().ClientName)

	// 存储里仍是旧版本，回放后补回
	applied, err := s.Reload(context.Background(), original)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, "Initech", s.Snapshot().ClientName)
	assert.Equal(t, "TPS", s.Snapshot().Sections[domain.SectionCoverPage].Data["projectTitle"])
	assert.Len(t, rec.types(), 2)
}

func TestCancelStopsWithoutApplying(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blocking := func(ctx context.Context) (*schema.StreamReader[*schema.Message], error) {
		sr, sw := schema.Pipe[*schema.Message](1)
		go func() {
			defer sw.Close()
			sw.Send(schema.AssistantMessage(`{"clientName": "Half`, nil), nil)
			<-ctx.Done()
		}()
		return sr, nil
	}
	s, _, rec := newTestSession(t, nil, blocking)
	before := s.Snapshot().Sections[domain.SectionCoverPage].Clone()

	res, err := s.Send(ctx, "go", func(Chunk) { cancel() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeCanceled, res.Outcome)
	assert.Equal(t, statemachine.TurnIdle, s.State().TurnState)
	assert.Equal(t, before, s.Snapshot().Sections[domain.SectionCoverPage], "取消后不应合并任何数据")
	assert.Empty(t, rec.types())
}
