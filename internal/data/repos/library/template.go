package library

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/draftwell/draftwell-backend/internal/domain/library"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

type TemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, templates []*types.Template) ([]*types.Template, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID) (*types.Template, error)
	GetByKey(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key string) (*types.Template, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Template, error)
	SetCurrentPublishedVersion(ctx context.Context, tx *gorm.DB, tenantID, templateID, versionID uuid.UUID) error
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	repoLog := baseLog.With("repo", "TemplateRepo")
	return &templateRepo{db: db, log: repoLog}
}

func (r *templateRepo) Create(ctx context.Context, tx *gorm.DB, templates []*types.Template) ([]*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(templates) == 0 {
		return []*types.Template{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Template
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, templateID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *templateRepo) GetByKey(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key string) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Template
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

func (r *templateRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Template
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateRepo) SetCurrentPublishedVersion(ctx context.Context, tx *gorm.DB, tenantID, templateID, versionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Template{}).
		Where("tenant_id = ? AND id = ?", tenantID, templateID).
		Update("current_published_version_id", versionID).Error
}
