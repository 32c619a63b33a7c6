package eventbus

import "github.com/dixitakash2514/argos-mob-proposal/internal/domain"

type ProposalEventType string

const (
	ProposalEventTurnApplied       ProposalEventType = "TurnApplied"
	ProposalEventManualSubmitted   ProposalEventType = "ManualSubmitted"
	ProposalEventSectionConfirmed  ProposalEventType = "SectionConfirmed"
	ProposalEventProposalCompleted ProposalEventType = "ProposalCompleted"
	ProposalEventRevisionCreated   ProposalEventType = "RevisionCreated"
)

type ProposalEvent struct {
	Type       ProposalEventType
	ProposalID string
	SectionKey domain.SectionKey
	// Seq 按提案单调递增，会话重建后继续计数，自动保存据此丢弃过期快照
	Seq      uint64
	Snapshot *domain.Proposal
	ParentID string
}

type ProposalEventHandler = Handler[ProposalEvent]
type ProposalEventBus = Bus[ProposalEventType, ProposalEvent]

func NewProposalEventBus() *ProposalEventBus {
	return NewBus[ProposalEventType, ProposalEvent]()
}
