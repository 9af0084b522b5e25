package library

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/draftwell/draftwell-backend/internal/domain/library"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

type TemplateVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, version *types.TemplateVersion) (*types.TemplateVersion, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID) (*types.TemplateVersion, error)
	GetByTemplateAndNumber(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID, versionNumber int) (*types.TemplateVersion, error)
	ListByTemplate(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID) ([]*types.TemplateVersion, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID, from, to types.VersionStatus, fields map[string]interface{}) (int64, error)
}

type templateVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateVersionRepo(db *gorm.DB, baseLog *logger.Logger) TemplateVersionRepo {
	repoLog := baseLog.With("repo", "TemplateVersionRepo")
	return &templateVersionRepo{db: db, log: repoLog}
}

func (r *templateVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *types.TemplateVersion) (*types.TemplateVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if version.VersionNumber == 0 {
		var next int
		if err := transaction.WithContext(ctx).
			Model(&types.TemplateVersion{}).
			Where("template_id = ?", version.TemplateID).
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

func (r *templateVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID) (*types.TemplateVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TemplateVersion
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, versionID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *templateVersionRepo) GetByTemplateAndNumber(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID, versionNumber int) (*types.TemplateVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TemplateVersion
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND template_id = ? AND version_number = ?", tenantID, templateID, versionNumber).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *templateVersionRepo) ListByTemplate(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID) ([]*types.TemplateVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TemplateVersion
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND template_id = ?", tenantID, templateID).
		Order("version_number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateVersionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID, from, to types.VersionStatus, fields map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	res := transaction.WithContext(ctx).
		Model(&types.TemplateVersion{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, versionID, from).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
