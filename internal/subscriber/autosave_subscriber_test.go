package subscriber

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSaver struct {
	mu    sync.Mutex
	saved []*domain.Proposal
	err   error
}

func (m *mockSaver) SaveSnapshot(ctx context.Context, p *domain.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, p)
	return nil
}

func (m *mockSaver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func newSubscriber(t *testing.T, saver *mockSaver) (*AutosaveSubscriber, *eventbus.ProposalEventBus) {
	t.Helper()
	sub, err := NewAutosaveSubscriber(saver, 2)
	require.NoError(t, err)
	t.Cleanup(sub.Stop)
	bus := eventbus.NewProposalEventBus()
	sub.Register(bus)
	return sub, bus
}

func TestAutosavePersistsSnapshot(t *testing.T) {
	saver := &mockSaver{}
	sub, bus := newSubscriber(t, saver)

	p := domain.NewProposal("p1", "s1", time.Now())
	p.ClientName = "Acme"
	err := bus.Publish(context.Background(), eventbus.ProposalEventTurnApplied, eventbus.ProposalEvent{
		Type: eventbus.ProposalEventTurnApplied, ProposalID: "p1", Seq: 1, Snapshot: p,
	})
	require.NoError(t, err)

	// 发布后修改原对象，不应影响保存的快照
	p.ClientName = "Changed"
	sub.Flush()

	require.Equal(t, 1, saver.count())
	assert.Equal(t, "Acme", saver.saved[0].ClientName)
}

func TestAutosaveErrorIsSwallowed(t *testing.T) {
	saver := &mockSaver{err: errors.New("db down")}
	sub, bus := newSubscriber(t, saver)

	err := bus.Publish(context.Background(), eventbus.ProposalEventSectionConfirmed, eventbus.ProposalEvent{
		Type: eventbus.ProposalEventSectionConfirmed, ProposalID: "p1", Seq: 1,
		Snapshot: domain.NewProposal("p1", "s1", time.Now()),
	})
	assert.NoError(t, err, "保存失败不应返回给发布方")
	sub.Flush()
	assert.Equal(t, 0, saver.count())
}

func TestAutosaveSkipsStaleSnapshot(t *testing.T) {
	saver := &mockSaver{}
	sub, bus := newSubscriber(t, saver)
	ctx := context.Background()

	newer := domain.NewProposal("p1", "s1", time.Now())
	newer.ClientName = "new"
	require.NoError(t, bus.Publish(ctx, eventbus.ProposalEventTurnApplied, eventbus.ProposalEvent{ProposalID: "p1", Seq: 5, Snapshot: newer}))
	sub.Flush()

	older := domain.NewProposal("p1", "s1", time.Now())
	older.ClientName = "old"
	require.NoError(t, bus.Publish(ctx, eventbus.ProposalEventTurnApplied, eventbus.ProposalEvent{ProposalID: "p1", Seq: 3, Snapshot: older}))
	sub.Flush()

	require.Equal(t, 1, saver.count())
	assert.Equal(t, "new", saver.saved[0].ClientName)
}

func TestAutosaveIgnoresEmptyEvent(t *testing.T) {
	saver := &mockSaver{}
	sub, bus := newSubscriber(t, saver)
	require.NoError(t, bus.Publish(context.Background(), eventbus.ProposalEventTurnApplied, eventbus.ProposalEvent{ProposalID: "p1"}))
	sub.Flush()
	assert.Equal(t, 0, saver.count())
}
