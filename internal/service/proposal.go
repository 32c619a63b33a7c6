package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/config"
	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/eventbus"
	"github.com/dixitakash2514/argos-mob-proposal/internal/repository"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/statemachine"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// MaxListLimit 列表最大条数
const MaxListLimit = 100

type ProposalService struct {
	cfg  *config.Config
	repo repository.ProposalRepository
	bus  *eventbus.ProposalEventBus
	now  func() time.Time
}

// NewProposalService 创建提案服务实例。
func NewProposalService(cfg *config.Config, repo repository.ProposalRepository, bus *eventbus.ProposalEventBus) *ProposalService {
	return &ProposalService{
		cfg:  cfg,
		repo: repo,
		bus:  bus,
		now:  time.Now,
	}
}

type CreateProposalRequest struct {
	SessionID    string          `json:"sessionId"`
	ClientName   string          `json:"clientName"`
	ProjectTitle string          `json:"projectTitle"`
	ProjectBrief string          `json:"projectBrief"`
	CreatedBy    *domain.Creator `json:"createdBy"`
}

// Create 创建空白提案
func (s *ProposalService) Create(ctx context.Context, req CreateProposalRequest) (*domain.Proposal, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	now := s.now()
	p := domain.NewProposal("", sessionID, now)
	p.ClientName = strings.TrimSpace(req.ClientName)
	p.ProjectTitle = strings.TrimSpace(req.ProjectTitle)
	p.ProjectBrief = strings.TrimSpace(req.ProjectBrief)
	p.CreatedBy = req.CreatedBy
	s.applyDefaults(p)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("创建提案失败: %w", err)
	}
	klog.V(6).Infof("提案已创建: id=%s, sessionID=%s", p.ID, p.SessionID)
	return p, nil
}

// applyDefaults 用配置中的公司信息预填封面
func (s *ProposalService) applyDefaults(p *domain.Proposal) {
	if s.cfg == nil {
		return
	}
	cover := p.Section(domain.SectionCoverPage)
	if cover == nil {
		return
	}
	if by := s.cfg.Proposal.PreparedBy; by != "" {
		cover.Data["preparedBy"] = by
	}
	if p.ClientName != "" {
		cover.Data["clientName"] = p.ClientName
	}
	if p.ProjectTitle != "" {
		cover.Data["projectTitle"] = p.ProjectTitle
	}
}

// Get 获取提案
func (s *ProposalService) Get(ctx context.Context, id string) (*domain.Proposal, error) {
	return s.repo.Get(ctx, id)
}

// Update 部分更新提案
func (s *ProposalService) Update(ctx context.Context, id string, patch domain.ProposalPatch) (*domain.Proposal, error) {
	if patch.Empty() {
		return nil, domain.NewValidationError("body", "no fields to update")
	}
	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	klog.V(6).Infof("提案已更新: id=%s", id)
	return p, nil
}

// List 按创建时间倒序列出提案摘要
func (s *ProposalService) List(ctx context.Context, limit int) ([]domain.ProposalSummary, error) {
	if limit <= 0 {
		limit = repository.DefaultListLimit
		if s.cfg != nil && s.cfg.Proposal.ListLimit > 0 {
			limit = s.cfg.Proposal.ListLimit
		}
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.List(ctx, limit)
}

// ListRevisions 列出某个提案派生出的版本
func (s *ProposalService) ListRevisions(ctx context.Context, id string) ([]domain.ProposalSummary, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListRevisions(ctx, id)
}

// Delete 删除提案
func (s *ProposalService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	klog.V(6).Infof("提案已删除: id=%s", id)
	return nil
}

// Revise 基于已有提案派生新版本，源提案不存在时不创建任何记录
func (s *ProposalService) Revise(ctx context.Context, id string) (*domain.Proposal, error) {
	src, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			klog.V(6).Infof("派生版本失败，源提案不存在: id=%s", id)
		}
		return nil, err
	}

	next := domain.Fork(src, uuid.NewString(), s.now())
	if err := s.repo.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("创建派生版本失败: %w", err)
	}
	klog.V(6).Infof("派生版本已创建: id=%s, parentID=%s, version=%d", next.ID, src.ID, next.Version)

	event := eventbus.ProposalEvent{
		Type:       eventbus.ProposalEventRevisionCreated,
		ProposalID: next.ID,
		ParentID:   src.ID,
		Snapshot:   next.Clone(),
	}
	if err := s.bus.Publish(ctx, eventbus.ProposalEventRevisionCreated, event); err != nil {
		klog.Warningf("派生版本事件处理失败: id=%s, error=%v", next.ID, err)
	}
	return next, nil
}

// SaveSnapshot 自动保存会话快照
// 提案状态按章节确认情况重新推导
func (s *ProposalService) SaveSnapshot(ctx context.Context, p *domain.Proposal) error {
	if p == nil || p.ID == "" {
		return domain.NewValidationError("id", "snapshot without id")
	}
	snapshot := p.Clone()
	snapshot.Status = statemachine.AggregateProposalStatus(snapshot.Status, statemachine.Summarize(snapshot), snapshot.ID)

	if _, err := s.repo.Update(ctx, snapshot.ID, domain.SnapshotPatch(snapshot)); err != nil {
		return err
	}
	return nil
}
