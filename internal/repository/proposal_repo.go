package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type proposalRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewProposalRepository 创建提案仓储
func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db, now: time.Now}
}

func (r *proposalRepository) Create(ctx context.Context, p *domain.Proposal) error {
	now := r.now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.SessionID == "" {
		p.SessionID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Normalize(now)

	if err := r.db.WithContext(ctx).Create(model.NewProposalFromDomain(p)).Error; err != nil {
		return &domain.PersistenceError{Op: "create", Err: err}
	}
	return nil
}

func (r *proposalRepository) Get(ctx context.Context, id string) (*domain.Proposal, error) {
	row, err := r.get(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

func (r *proposalRepository) get(db *gorm.DB, id string) (*model.Proposal, error) {
	var row model.Proposal
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &domain.PersistenceError{Op: "get", Err: err}
	}
	return &row, nil
}

func (r *proposalRepository) Update(ctx context.Context, id string, patch domain.ProposalPatch) (*domain.Proposal, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Proposal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.get(tx, id)
		if err != nil {
			return err
		}
		p := row.ToDomain()
		patch.Apply(p, r.now())

		next := model.NewProposalFromDomain(p)
		if err := tx.Save(next).Error; err != nil {
			return &domain.PersistenceError{Op: "update", Err: err}
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *proposalRepository) List(ctx context.Context, limit int) ([]domain.ProposalSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var rows []model.Proposal
	err := r.db.WithContext(ctx).
		Omit("sections", "project_brief").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list", Err: err}
	}
	return toSummaries(rows), nil
}

func (r *proposalRepository) ListRevisions(ctx context.Context, parentID string) ([]domain.ProposalSummary, error) {
	var rows []model.Proposal
	err := r.db.WithContext(ctx).
		Omit("sections", "project_brief").
		Where("parent_id = ?", parentID).
		Order("version ASC").
		Find(&rows).Error
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list revisions", Err: err}
	}
	return toSummaries(rows), nil
}

func (r *proposalRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Proposal{})
	if res.Error != nil {
		return &domain.PersistenceError{Op: "delete", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
