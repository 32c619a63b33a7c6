package statemachine

import (
	"errors"
	"testing"
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTurnTransitions(t *testing.T) {
	sm := NewTurnStateMachine()
	tests := []struct {
		from, to TurnState
		ok       bool
	}{
		{TurnIdle, TurnSending, true},
		{TurnSending, TurnStreaming, true},
		{TurnStreaming, TurnApplying, true},
		{TurnApplying, TurnIdle, true},
		{TurnStreaming, TurnFailed, true},
		{TurnFailed, TurnSending, true},
		{TurnIdle, TurnStreaming, false},
		{TurnApplying, TurnFailed, false},
		{TurnIdle, TurnIdle, false},
	}
	for _, tt := range tests {
		err := sm.Transition(tt.from, tt.to, "p1")
		if tt.ok {
			assert.NoError(t, err, "%s -> %s 应合法", tt.from, tt.to)
			continue
		}
		var invalid *InvalidStateTransitionError
		assert.True(t, errors.As(err, &invalid), "%s -> %s 应被拒绝", tt.from, tt.to)
	}
}

func TestInFlight(t *testing.T) {
	assert.False(t, InFlight(TurnIdle))
	assert.False(t, InFlight(TurnFailed))
	assert.True(t, InFlight(TurnSending))
	assert.True(t, InFlight(TurnStreaming))
	assert.True(t, InFlight(TurnApplying))
}

func TestAggregateProposalStatus(t *testing.T) {
	p := domain.NewProposal("p1", "s1", time.Now())
	p.Sections[domain.SectionIntroduction].Status = domain.SectionInProgress
	p.ConfirmedSections = []domain.SectionKey{domain.SectionCoverPage}

	progress := Summarize(p)
	assert.Equal(t, SectionProgress{Total: 13, Pending: 11, InProgress: 1, Confirmed: 1}, progress)
	assert.Equal(t, domain.ProposalDraft, AggregateProposalStatus(domain.ProposalDraft, progress, p.ID))

	p.ConfirmedSections = domain.SectionKeys()
	assert.Equal(t, domain.ProposalComplete, AggregateProposalStatus(domain.ProposalDraft, Summarize(p), p.ID))
}
