package store

import (
	"testing"
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoadedStore(t *testing.T) *Store {
	t.Helper()
	s := New().WithClock(func() time.Time { return time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC) })
	s.Init("p1", "s1")
	require.True(t, s.Loaded())
	return s
}

func TestOperationsWithoutProposalAreNoops(t *testing.T) {
	s := New()
	assert.False(t, s.SetField(FieldClientName, "Acme"))
	assert.False(t, s.MergeSectionData(domain.SectionIntroduction, domain.SectionData{"content": "x"}))
	assert.False(t, s.ConfirmSection(domain.SectionCoverPage))
	assert.False(t, s.JumpToSection(domain.SectionCoverPage))
	assert.False(t, s.MarkAIGenerated(domain.SectionCoverPage))
	assert.Nil(t, s.Snapshot())
	assert.Equal(t, domain.SectionKey(""), s.Current())
}

func TestConfirmAdvancesToSuccessor(t *testing.T) {
	keys := domain.SectionKeys()
	for i, k := range keys {
		s := newLoadedStore(t)
		require.True(t, s.ConfirmSection(k))
		if i == len(keys)-1 {
			assert.Equal(t, domain.SectionCoverPage, s.Current(), "最后一个章节确认后指针不变")
			continue
		}
		assert.Equal(t, keys[i+1], s.Current())
	}
}

func TestConfirmLastSectionCompletesProposal(t *testing.T) {
	s := newLoadedStore(t)
	require.True(t, s.JumpToSection(domain.SectionLegalSignOff))
	s.ConfirmSection(domain.SectionLegalSignOff)

	p := s.Snapshot()
	assert.Equal(t, domain.SectionLegalSignOff, p.CurrentSection)
	assert.Equal(t, domain.ProposalComplete, p.Status)
}

func TestConfirmIsIdempotent(t *testing.T) {
	s := newLoadedStore(t)
	p := s.Snapshot()
	p.ConfirmedSections = []domain.SectionKey{domain.SectionCoverPage, domain.SectionIntroduction}
	p.CurrentSection = domain.SectionIntroduction
	s.Load(p)

	s.ConfirmSection(domain.SectionIntroduction)

	got := s.Snapshot()
	assert.Equal(t, []domain.SectionKey{domain.SectionCoverPage, domain.SectionIntroduction}, got.ConfirmedSections)
	assert.Equal(t, domain.SectionKeyModules, got.CurrentSection)
	assert.Equal(t, domain.SectionConfirmed, got.Sections[domain.SectionIntroduction].Status)
}

func TestMergeKeepsExistingFields(t *testing.T) {
	s := newLoadedStore(t)
	p := s.Snapshot()
	p.Sections[domain.SectionKeyModules].Data = domain.SectionData{}
	s.Load(p)

	s.MergeSectionData(domain.SectionKeyModules, domain.SectionData{"a": 1})
	s.MergeSectionData(domain.SectionKeyModules, domain.SectionData{"b": 2})

	sec := s.Snapshot().Sections[domain.SectionKeyModules]
	assert.Equal(t, domain.SectionData{"a": 1, "b": 2}, sec.Data)
	assert.Equal(t, domain.SectionInProgress, sec.Status)
	assert.True(t, sec.UserModified)
}

func TestMergeDoesNotDowngradeConfirmed(t *testing.T) {
	s := newLoadedStore(t)
	s.ConfirmSection(domain.SectionCoverPage)
	s.MergeSectionData(domain.SectionCoverPage, domain.SectionData{"clientName": "Acme"})

	sec := s.Snapshot().Sections[domain.SectionCoverPage]
	assert.Equal(t, domain.SectionConfirmed, sec.Status)
	assert.Equal(t, "Acme", sec.Data["clientName"])
	assert.Equal(t, domain.DefaultPreparedBy, sec.Data["preparedBy"], "未出现在 partial 中的字段保留")
}

func TestSetField(t *testing.T) {
	s := newLoadedStore(t)
	assert.True(t, s.SetField(FieldClientName, "Acme"))
	assert.True(t, s.SetField(FieldTheme, "dark"))
	assert.False(t, s.SetField("status", "complete"))

	p := s.Snapshot()
	assert.Equal(t, "Acme", p.ClientName)
	assert.Equal(t, domain.ThemeDark, p.Theme)
	assert.Equal(t, domain.ProposalDraft, p.Status)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := newLoadedStore(t)
	snap := s.Snapshot()
	snap.Sections[domain.SectionCoverPage].Data["clientName"] = "mutated"

	assert.Equal(t, "", s.SectionData(domain.SectionCoverPage)["clientName"])
}
