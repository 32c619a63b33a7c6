package eventbus

import (
	"context"
	"errors"
	"testing"
)

func TestBusPublishBroadcast(t *testing.T) {
	bus := NewProposalEventBus()
	calledA := false
	calledB := false

	bus.Subscribe(ProposalEventTurnApplied, func(ctx context.Context, event ProposalEvent) error {
		calledA = true
		return nil
	})
	bus.Subscribe(ProposalEventTurnApplied, func(ctx context.Context, event ProposalEvent) error {
		calledB = event.ProposalID == "p1"
		return nil
	})

	if err := bus.Publish(context.Background(), ProposalEventTurnApplied, ProposalEvent{Type: ProposalEventTurnApplied, ProposalID: "p1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !calledA || !calledB {
		t.Fatalf("expected handlers to be called")
	}
}

func TestBusOnlyMatchingType(t *testing.T) {
	bus := NewProposalEventBus()
	called := false
	bus.Subscribe(ProposalEventRevisionCreated, func(ctx context.Context, event ProposalEvent) error {
		called = true
		return nil
	})

	if err := bus.Publish(context.Background(), ProposalEventTurnApplied, ProposalEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("handler for another type should not run")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewProposalEventBus()
	called := false
	unsubscribe := bus.Subscribe(ProposalEventSectionConfirmed, func(ctx context.Context, event ProposalEvent) error {
		called = true
		return nil
	})
	unsubscribe()

	if err := bus.Publish(context.Background(), ProposalEventSectionConfirmed, ProposalEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler to be unsubscribed")
	}
}

func TestBusPublishJoinErrors(t *testing.T) {
	bus := NewProposalEventBus()
	errA := errors.New("err-a")
	bus.Subscribe(ProposalEventTurnApplied, func(ctx context.Context, event ProposalEvent) error {
		return errA
	})
	bus.Subscribe(ProposalEventTurnApplied, func(ctx context.Context, event ProposalEvent) error {
		return errors.New("err-b")
	})

	err := bus.Publish(context.Background(), ProposalEventTurnApplied, ProposalEvent{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, errA) {
		t.Fatalf("joined error should wrap err-a: %v", err)
	}
}

func TestNilBusPublish(t *testing.T) {
	var bus *ProposalEventBus
	if err := bus.Publish(context.Background(), ProposalEventTurnApplied, ProposalEvent{}); err != nil {
		t.Fatalf("nil bus should be a no-op: %v", err)
	}
}
