package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/config"
	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/eventbus"
	"github.com/dixitakash2514/argos-mob-proposal/internal/pkg/database"
	"github.com/dixitakash2514/argos-mob-proposal/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProposalService(t *testing.T) (*ProposalService, repository.ProposalRepository, *eventbus.ProposalEventBus) {
	t.Helper()
	db, err := database.InitDB("sqlite", ":memory:")
	require.NoError(t, err)
	repo := repository.NewProposalRepository(db)
	bus := eventbus.NewProposalEventBus()
	return NewProposalService(config.Default(), repo, bus), repo, bus
}

func TestProposalService_Create(t *testing.T) {
	svc, _, _ := setupProposalService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProposalRequest{ClientName: " Acme ", ProjectBrief: "Fleet app"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.NotEmpty(t, p.SessionID, "未传 sessionId 时自动生成")
	assert.Equal(t, "Acme", p.ClientName)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fleet app", got.ProjectBrief)
	assert.Equal(t, "Acme", got.Sections[domain.SectionCoverPage].Data["clientName"])
	assert.Equal(t, "Team Argos Mob", got.Sections[domain.SectionCoverPage].Data["preparedBy"])
	assert.Len(t, got.Sections, len(domain.SectionKeys()))
}

func TestProposalService_UpdateAndList(t *testing.T) {
	svc, _, _ := setupProposalService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProposalRequest{})
	require.NoError(t, err)

	_, err = svc.Update(ctx, p.ID, domain.ProposalPatch{})
	assert.True(t, domain.IsValidation(err), "空补丁应被拒绝")

	theme := domain.Theme("neon")
	_, err = svc.Update(ctx, p.ID, domain.ProposalPatch{Theme: &theme})
	assert.True(t, domain.IsValidation(err))

	title := "Portal"
	updated, err := svc.Update(ctx, p.ID, domain.ProposalPatch{ProjectTitle: &title})
	require.NoError(t, err)
	assert.Equal(t, "Portal", updated.ProjectTitle)

	list, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Portal", list[0].ProjectTitle)

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProposalService_Revise(t *testing.T) {
	svc, repo, bus := setupProposalService(t)
	ctx := context.Background()

	var mu sync.Mutex
	var events []eventbus.ProposalEvent
	bus.Subscribe(eventbus.ProposalEventRevisionCreated, func(ctx context.Context, e eventbus.ProposalEvent) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
		return nil
	})

	src, err := svc.Create(ctx, CreateProposalRequest{ClientName: "Acme"})
	require.NoError(t, err)
	src.ConfirmedSections = domain.SectionKeys()
	src.Status = domain.ProposalComplete
	src.Sections[domain.SectionIntroduction].Data["content"] = "Original intro"
	src.Sections[domain.SectionIntroduction].Status = domain.SectionConfirmed
	src.Sections[domain.SectionIntroduction].AIGenerated = true
	require.NoError(t, svc.SaveSnapshot(ctx, src))

	next, err := svc.Revise(ctx, src.ID)
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, next.ID)
	assert.NotEqual(t, src.SessionID, next.SessionID)
	assert.Equal(t, 2, next.Version)
	assert.Equal(t, src.ID, next.ParentID)
	assert.Equal(t, domain.ProposalDraft, next.Status)
	assert.Empty(t, next.ConfirmedSections)
	assert.Equal(t, domain.SectionCoverPage, next.CurrentSection)
	assert.Equal(t, "2.0", next.Sections[domain.SectionCoverPage].Data["version"])
	intro := next.Sections[domain.SectionIntroduction]
	assert.Equal(t, "Original intro", intro.Data["content"], "派生版本保留章节数据")
	assert.Equal(t, domain.SectionPending, intro.Status)
	assert.False(t, intro.AIGenerated)

	stored, err := repo.Get(ctx, next.ID)
	require.NoError(t, err)
	assert.Equal(t, src.ID, stored.ParentID)

	revisions, err := svc.ListRevisions(ctx, src.ID)
	require.NoError(t, err)
	require.Len(t, revisions, 1)
	assert.Equal(t, next.ID, revisions[0].ID)

	mu.Lock()
	require.Len(t, events, 1)
	assert.Equal(t, src.ID, events[0].ParentID)
	mu.Unlock()

	// 源提案不变
	orig, err := repo.Get(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, orig.Version)
	assert.Equal(t, domain.ProposalComplete, orig.Status)
}

func TestProposalService_ReviseMissing(t *testing.T) {
	svc, repo, _ := setupProposalService(t)
	ctx := context.Background()

	_, err := svc.Revise(ctx, "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, list, "源提案不存在时不应创建任何记录")
}

func TestProposalService_SaveSnapshotDerivesStatus(t *testing.T) {
	svc, repo, _ := setupProposalService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProposalRequest{})
	require.NoError(t, err)

	p.ConfirmedSections = domain.SectionKeys()
	p.Status = domain.ProposalDraft
	p.UpdatedAt = time.Now()
	require.NoError(t, svc.SaveSnapshot(ctx, p))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalComplete, got.Status)
	assert.Equal(t, domain.ProposalDraft, p.Status, "不修改调用方的对象")

	assert.True(t, domain.IsValidation(svc.SaveSnapshot(ctx, &domain.Proposal{})))
}
