package repository

import (
	"context"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/model"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = domain.ErrNotFound

// DefaultListLimit 列表默认条数
const DefaultListLimit = 20

type ProposalRepository interface {
	// Create 写入新提案，ID 为空时自动生成
	Create(ctx context.Context, p *domain.Proposal) error
	// Get 按 ID 读取，不存在返回 ErrNotFound
	Get(ctx context.Context, id string) (*domain.Proposal, error)
	// Update 部分更新并返回更新后的提案，后写覆盖先写
	Update(ctx context.Context, id string, patch domain.ProposalPatch) (*domain.Proposal, error)
	// List 按创建时间倒序返回摘要
	List(ctx context.Context, limit int) ([]domain.ProposalSummary, error)
	// ListRevisions 返回以 parentID 为父版本的提案摘要
	ListRevisions(ctx context.Context, parentID string) ([]domain.ProposalSummary, error)
	Delete(ctx context.Context, id string) error
}

func toSummaries(rows []model.Proposal) []domain.ProposalSummary {
	out := make([]domain.ProposalSummary, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToSummary())
	}
	return out
}
