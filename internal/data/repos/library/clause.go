package library

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/draftwell/draftwell-backend/internal/domain/library"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

// ClauseRepo persists clause logical entities. Every read is tenant-scoped;
// a cross-tenant id simply comes back empty.
type ClauseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, clauses []*types.Clause) ([]*types.Clause, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID) (*types.Clause, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, clauseIDs []uuid.UUID) ([]*types.Clause, error)
	GetByKey(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key string) (*types.Clause, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Clause, error)
	SetCurrentPublishedVersion(ctx context.Context, tx *gorm.DB, tenantID, clauseID, versionID uuid.UUID) error
}

type clauseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClauseRepo(db *gorm.DB, baseLog *logger.Logger) ClauseRepo {
	repoLog := baseLog.With("repo", "ClauseRepo")
	return &clauseRepo{db: db, log: repoLog}
}

func (r *clauseRepo) Create(ctx context.Context, tx *gorm.DB, clauses []*types.Clause) ([]*types.Clause, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(clauses) == 0 {
		return []*types.Clause{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&clauses).Error; err != nil {
		return nil, err
	}
	return clauses, nil
}

func (r *clauseRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID) (*types.Clause, error) {
	rows, err := r.GetByIDs(ctx, tx, tenantID, []uuid.UUID{clauseID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *clauseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, clauseIDs []uuid.UUID) ([]*types.Clause, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Clause
	if len(clauseIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, clauseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *clauseRepo) GetByKey(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key string) (*types.Clause, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Clause
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND key = ?", tenantID, key).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *clauseRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Clause, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Clause
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// SetCurrentPublishedVersion is the single writer of the weak published
// reference; only the published-transition path calls it.
func (r *clauseRepo) SetCurrentPublishedVersion(ctx context.Context, tx *gorm.DB, tenantID, clauseID, versionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Clause{}).
		Where("tenant_id = ? AND id = ?", tenantID, clauseID).
		Update("current_published_version_id", versionID).Error
}
