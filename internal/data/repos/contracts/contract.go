package contracts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/draftwell/draftwell-backend/internal/domain/contracts"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

// ContractRepo persists contract instances. Mutations only ever target
// drafts: every update carries a status = 'draft' predicate, so a completed
// contract is immutable at the storage layer, not just by convention.
type ContractRepo interface {
	Create(ctx context.Context, tx *gorm.DB, contract *types.ContractInstance) (*types.ContractInstance, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID) (*types.ContractInstance, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, tenantID, ownerID uuid.UUID) ([]*types.ContractInstance, error)
	UpdateDraft(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID, fields map[string]interface{}) (int64, error)
	SetValidation(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID, state types.ValidationState, report datatypes.JSON) (int64, error)
	Complete(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID, state types.ValidationState, report datatypes.JSON, completedAt time.Time) (int64, error)
}

type contractRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContractRepo(db *gorm.DB, baseLog *logger.Logger) ContractRepo {
	repoLog := baseLog.With("repo", "ContractRepo")
	return &contractRepo{db: db, log: repoLog}
}

func (r *contractRepo) Create(ctx context.Context, tx *gorm.DB, contract *types.ContractInstance) (*types.ContractInstance, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(contract).Error; err != nil {
		return nil, err
	}
	return contract, nil
}

func (r *contractRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID) (*types.ContractInstance, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContractInstance
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, contractID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *contractRepo) ListByOwner(ctx context.Context, tx *gorm.DB, tenantID, ownerID uuid.UUID) ([]*types.ContractInstance, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContractInstance
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND owner_id = ?", tenantID, ownerID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contractRepo) UpdateDraft(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID, fields map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.ContractInstance{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, contractID, types.ContractDraft).
		Updates(fields)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// SetValidation persists the cached evaluator result. Last write wins; the
// evaluator itself is deterministic and side-effect-free.
func (r *contractRepo) SetValidation(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID, state types.ValidationState, report datatypes.JSON) (int64, error) {
	return r.UpdateDraft(ctx, tx, tenantID, contractID, map[string]interface{}{
		"validation_state":  state,
		"validation_report": report,
	})
}

func (r *contractRepo) Complete(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID, state types.ValidationState, report datatypes.JSON, completedAt time.Time) (int64, error) {
	return r.UpdateDraft(ctx, tx, tenantID, contractID, map[string]interface{}{
		"status":            types.ContractCompleted,
		"completed_at":      completedAt,
		"validation_state":  state,
		"validation_report": report,
	})
}
