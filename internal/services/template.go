package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/draftwell/draftwell-backend/internal/clients/redis"
	"github.com/draftwell/draftwell-backend/internal/data/repos"
	types "github.com/draftwell/draftwell-backend/internal/domain"
	"github.com/draftwell/draftwell-backend/internal/modules/library/gates"
	"github.com/draftwell/draftwell-backend/internal/modules/library/status"
	"github.com/draftwell/draftwell-backend/internal/pkg/apperr"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

type TemplateService interface {
	CreateTemplate(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key, title string) (*types.Template, error)
	GetTemplate(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID) (*types.Template, error)
	ListTemplates(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Template, error)

	CreateTemplateVersion(ctx context.Context, tx *gorm.DB, tenantID, templateID, authorID uuid.UUID, structure types.TemplateStructure, rules []types.Rule) (*types.TemplateVersion, error)
	GetTemplateVersion(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID) (*types.TemplateVersion, error)
	ListTemplateVersions(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID) ([]*types.TemplateVersion, error)

	TransitionTemplateVersion(ctx context.Context, tenantID, actorID, versionID uuid.UUID, to types.VersionStatus) (*types.TemplateVersion, error)
	ValidatePublishingGates(ctx context.Context, tenantID, versionID uuid.UUID) (gates.GateReport, error)
}

type templateService struct {
	db                  *gorm.DB
	log                 *logger.Logger
	templateRepo        repos.TemplateRepo
	templateVersionRepo repos.TemplateVersionRepo
	validator           *gates.Validator
	bus                 redisclient.EventBus
}

func NewTemplateService(
	db *gorm.DB,
	baseLog *logger.Logger,
	templateRepo repos.TemplateRepo,
	templateVersionRepo repos.TemplateVersionRepo,
	validator *gates.Validator,
	bus redisclient.EventBus,
) TemplateService {
	serviceLog := baseLog.With("service", "TemplateService")
	return &templateService{
		db:                  db,
		log:                 serviceLog,
		templateRepo:        templateRepo,
		templateVersionRepo: templateVersionRepo,
		validator:           validator,
		bus:                 bus,
	}
}

// =====================================
// Logical templates
// =====================================

func (ts *templateService) CreateTemplate(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key, title string) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = ts.db
	}
	ts.log.Info("CreateTemplate", "tenant_id", tenantID, "key", key)
	if key == "" {
		return nil, fmt.Errorf("template key required: %w", apperr.ErrInvalidArgument)
	}
	existing, err := ts.templateRepo.GetByKey(ctx, transaction, tenantID, key)
	if err != nil {
		return nil, fmt.Errorf("check template key: %w", err)
	}
	if existing != nil {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeInvalidArgument,
			fmt.Errorf("template key %q already exists", key))
	}
	template := &types.Template{
		ID:       uuid.New(),
		TenantID: tenantID,
		Key:      key,
		Title:    title,
	}
	if _, err := ts.templateRepo.Create(ctx, transaction, []*types.Template{template}); err != nil {
		ts.log.Error("CreateTemplate failed", "error", err)
		return nil, fmt.Errorf("create template: %w", err)
	}
	return template, nil
}

func (ts *templateService) GetTemplate(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID) (*types.Template, error) {
	template, err := ts.templateRepo.GetByID(ctx, tx, tenantID, templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("template %s: %w", templateID, apperr.ErrNotFound)
	}
	return template, nil
}

func (ts *templateService) ListTemplates(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Template, error) {
	return ts.templateRepo.ListByTenant(ctx, tx, tenantID)
}

// =====================================
// Versions
// =====================================

func (ts *templateService) CreateTemplateVersion(ctx context.Context, tx *gorm.DB, tenantID, templateID, authorID uuid.UUID, structure types.TemplateStructure, rules []types.Rule) (*types.TemplateVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = ts.db
	}
	ts.log.Info("CreateTemplateVersion", "tenant_id", tenantID, "template_id", templateID)

	if _, err := ts.GetTemplate(ctx, transaction, tenantID, templateID); err != nil {
		return nil, err
	}
	rawStructure, err := types.MarshalStructure(structure)
	if err != nil {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeInvalidArgument, err)
	}
	normalized, err := types.NormalizeRules(rules)
	if err != nil {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeInvalidArgument, err)
	}

	version := &types.TemplateVersion{
		ID:         uuid.New(),
		TemplateID: templateID,
		TenantID:   tenantID,
		Status:     types.StatusDraft,
		Structure:  rawStructure,
		Rules:      normalized,
		AuthorID:   authorID,
	}
	if _, err := ts.templateVersionRepo.Create(ctx, transaction, version); err != nil {
		ts.log.Error("CreateTemplateVersion failed", "error", err)
		return nil, fmt.Errorf("create template version: %w", err)
	}
	return version, nil
}

func (ts *templateService) GetTemplateVersion(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID) (*types.TemplateVersion, error) {
	version, err := ts.templateVersionRepo.GetByID(ctx, tx, tenantID, versionID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, fmt.Errorf("template version %s: %w", versionID, apperr.ErrNotFound)
	}
	return version, nil
}

func (ts *templateService) ListTemplateVersions(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID) ([]*types.TemplateVersion, error) {
	if _, err := ts.GetTemplate(ctx, tx, tenantID, templateID); err != nil {
		return nil, err
	}
	return ts.templateVersionRepo.ListByTemplate(ctx, tx, tenantID, templateID)
}

// =====================================
// Status transitions
// =====================================

func (ts *templateService) TransitionTemplateVersion(ctx context.Context, tenantID, actorID, versionID uuid.UUID, to types.VersionStatus) (*types.TemplateVersion, error) {
	ts.log.Info("TransitionTemplateVersion", "tenant_id", tenantID, "version_id", versionID, "to", string(to))
	if !to.Valid() {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeInvalidArgument,
			fmt.Errorf("unknown status %q", to))
	}

	var updated *types.TemplateVersion
	err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		version, err := ts.GetTemplateVersion(ctx, tx, tenantID, versionID)
		if err != nil {
			return err
		}
		if err := status.Check(version.Status, to); err != nil {
			return err
		}

		fields := map[string]interface{}{}
		switch to {
		case types.StatusApproved:
			fields["reviewer_id"] = actorID
		case types.StatusPublished:
			report, err := ts.validator.ValidateTemplateVersion(ctx, tx, version)
			if err != nil {
				return err
			}
			if !report.CanPublish {
				return &gates.GateFailureError{Report: report}
			}
			fields["published_at"] = time.Now().UTC()
		}

		rows, err := ts.templateVersionRepo.UpdateStatus(ctx, tx, tenantID, versionID, version.Status, to, fields)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("template version %s moved from %s concurrently: %w", versionID, version.Status, apperr.ErrStaleWriteConflict)
		}

		if to == types.StatusPublished {
			if err := ts.templateRepo.SetCurrentPublishedVersion(ctx, tx, tenantID, version.TemplateID, versionID); err != nil {
				return fmt.Errorf("set current published version: %w", err)
			}
		}

		updated, err = ts.GetTemplateVersion(ctx, tx, tenantID, versionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	ts.publishAudit(ctx, "template_version.transition", tenantID, actorID, versionID, map[string]interface{}{
		"to": string(to),
	})
	return updated, nil
}

func (ts *templateService) ValidatePublishingGates(ctx context.Context, tenantID, versionID uuid.UUID) (gates.GateReport, error) {
	version, err := ts.GetTemplateVersion(ctx, nil, tenantID, versionID)
	if err != nil {
		return gates.GateReport{}, err
	}
	return ts.validator.ValidateTemplateVersion(ctx, nil, version)
}

func (ts *templateService) publishAudit(ctx context.Context, eventType string, tenantID, actorID, entityID uuid.UUID, payload map[string]interface{}) {
	if ts.bus == nil {
		return
	}
	event := redisclient.AuditEvent{
		Type:     eventType,
		TenantID: tenantID.String(),
		ActorID:  actorID.String(),
		EntityID: entityID.String(),
		Payload:  payload,
	}
	if err := ts.bus.Publish(ctx, event); err != nil {
		ts.log.Warn("audit publish failed", "type", eventType, "error", err)
	}
}
