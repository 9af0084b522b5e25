package library

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/draftwell/draftwell-backend/internal/domain/library"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

// ClauseVersionRepo persists immutable clause versions. Rows are append-only:
// the only updates ever issued are the whitelisted status-transition field
// sets, guarded by an expected-status predicate.
type ClauseVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, version *types.ClauseVersion) (*types.ClauseVersion, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID) (*types.ClauseVersion, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, versionIDs []uuid.UUID) ([]*types.ClauseVersion, error)
	GetByClauseAndNumber(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID, versionNumber int) (*types.ClauseVersion, error)
	ListByClause(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID) ([]*types.ClauseVersion, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID, from, to types.VersionStatus, fields map[string]interface{}) (int64, error)
}

type clauseVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClauseVersionRepo(db *gorm.DB, baseLog *logger.Logger) ClauseVersionRepo {
	repoLog := baseLog.With("repo", "ClauseVersionRepo")
	return &clauseVersionRepo{db: db, log: repoLog}
}

// Create assigns the next version number (max+1 within the creating tx) and
// inserts. The unique (clause_id, version_number) index turns a lost race
// into an insert error rather than a gap or duplicate.
func (r *clauseVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *types.ClauseVersion) (*types.ClauseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if version.VersionNumber == 0 {
		var next int
		if err := transaction.WithContext(ctx).
			Model(&types.ClauseVersion{}).
			Where("clause_id = ?", version.ClauseID).
			Select("COALESCE(MAX(version_number), 0) + 1").
			Scan(&next).Error; err != nil {
			return nil, err
		}
		version.VersionNumber = next
	}

	if err := transaction.WithContext(ctx).Create(version).Error; err != nil {
		return nil, err
	}
	return version, nil
}

func (r *clauseVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID) (*types.ClauseVersion, error) {
	rows, err := r.GetByIDs(ctx, tx, tenantID, []uuid.UUID{versionID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *clauseVersionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, versionIDs []uuid.UUID) ([]*types.ClauseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ClauseVersion
	if len(versionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, versionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *clauseVersionRepo) GetByClauseAndNumber(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID, versionNumber int) (*types.ClauseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ClauseVersion
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND clause_id = ? AND version_number = ?", tenantID, clauseID, versionNumber).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *clauseVersionRepo) ListByClause(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID) ([]*types.ClauseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ClauseVersion
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND clause_id = ?", tenantID, clauseID).
		Order("version_number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateStatus applies a transition optimistically: the row must still be in
// the expected source status. Returns the affected row count; zero means the
// caller lost a race (or the version vanished) and must re-read.
func (r *clauseVersionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID, from, to types.VersionStatus, fields map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	res := transaction.WithContext(ctx).
		Model(&types.ClauseVersion{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, versionID, from).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
