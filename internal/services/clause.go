package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/draftwell/draftwell-backend/internal/clients/redis"
	"github.com/draftwell/draftwell-backend/internal/data/repos"
	types "github.com/draftwell/draftwell-backend/internal/domain"
	"github.com/draftwell/draftwell-backend/internal/modules/library/gates"
	"github.com/draftwell/draftwell-backend/internal/modules/library/status"
	"github.com/draftwell/draftwell-backend/internal/pkg/apperr"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

type ClauseService interface {
	CreateClause(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key, title string) (*types.Clause, error)
	GetClause(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID) (*types.Clause, error)
	ListClauses(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Clause, error)

	CreateClauseVersion(ctx context.Context, tx *gorm.DB, tenantID, clauseID, authorID uuid.UUID, body string, params datatypes.JSON, rules []types.Rule) (*types.ClauseVersion, error)
	GetClauseVersion(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID) (*types.ClauseVersion, error)
	ListClauseVersions(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID) ([]*types.ClauseVersion, error)

	TransitionClauseVersion(ctx context.Context, tenantID, actorID, versionID uuid.UUID, to types.VersionStatus) (*types.ClauseVersion, error)
	ValidatePublishingGates(ctx context.Context, tenantID, versionID uuid.UUID) (gates.GateReport, error)
}

type clauseService struct {
	db                *gorm.DB
	log               *logger.Logger
	clauseRepo        repos.ClauseRepo
	clauseVersionRepo repos.ClauseVersionRepo
	validator         *gates.Validator
	bus               redisclient.EventBus
}

func NewClauseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	clauseRepo repos.ClauseRepo,
	clauseVersionRepo repos.ClauseVersionRepo,
	validator *gates.Validator,
	bus redisclient.EventBus,
) ClauseService {
	serviceLog := baseLog.With("service", "ClauseService")
	return &clauseService{
		db:                db,
		log:               serviceLog,
		clauseRepo:        clauseRepo,
		clauseVersionRepo: clauseVersionRepo,
		validator:         validator,
		bus:               bus,
	}
}

// =====================================
// Logical clauses
// =====================================

func (cs *clauseService) CreateClause(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key, title string) (*types.Clause, error) {
	transaction := tx
	if transaction == nil {
		transaction = cs.db
	}
	cs.log.Info("CreateClause", "tenant_id", tenantID, "key", key)
	if key == "" {
		return nil, fmt.Errorf("clause key required: %w", apperr.ErrInvalidArgument)
	}
	existing, err := cs.clauseRepo.GetByKey(ctx, transaction, tenantID, key)
	if err != nil {
		return nil, fmt.Errorf("check clause key: %w", err)
	}
	if existing != nil {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeInvalidArgument,
			fmt.Errorf("clause key %q already exists", key))
	}
	clause := &types.Clause{
		ID:       uuid.New(),
		TenantID: tenantID,
		Key:      key,
		Title:    title,
	}
	if _, err := cs.clauseRepo.Create(ctx, transaction, []*types.Clause{clause}); err != nil {
		cs.log.Error("CreateClause failed", "error", err)
		return nil, fmt.Errorf("create clause: %w", err)
	}
	return clause, nil
}

func (cs *clauseService) GetClause(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID) (*types.Clause, error) {
	clause, err := cs.clauseRepo.GetByID(ctx, tx, tenantID, clauseID)
	if err != nil {
		return nil, err
	}
	if clause == nil {
		return nil, fmt.Errorf("clause %s: %w", clauseID, apperr.ErrNotFound)
	}
	return clause, nil
}

func (cs *clauseService) ListClauses(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Clause, error) {
	return cs.clauseRepo.ListByTenant(ctx, tx, tenantID)
}

// =====================================
// Versions
// =====================================

func (cs *clauseService) CreateClauseVersion(ctx context.Context, tx *gorm.DB, tenantID, clauseID, authorID uuid.UUID, body string, params datatypes.JSON, rules []types.Rule) (*types.ClauseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cs.db
	}
	cs.log.Info("CreateClauseVersion", "tenant_id", tenantID, "clause_id", clauseID)

	if _, err := cs.GetClause(ctx, transaction, tenantID, clauseID); err != nil {
		return nil, err
	}
	normalized, err := types.NormalizeRules(rules)
	if err != nil {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeInvalidArgument, err)
	}

	version := &types.ClauseVersion{
		ID:       uuid.New(),
		ClauseID: clauseID,
		TenantID: tenantID,
		Status:   types.StatusDraft,
		Body:     body,
		Params:   params,
		Rules:    normalized,
		AuthorID: authorID,
	}
	if _, err := cs.clauseVersionRepo.Create(ctx, transaction, version); err != nil {
		cs.log.Error("CreateClauseVersion failed", "error", err)
		return nil, fmt.Errorf("create clause version: %w", err)
	}
	return version, nil
}

func (cs *clauseService) GetClauseVersion(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID) (*types.ClauseVersion, error) {
	version, err := cs.clauseVersionRepo.GetByID(ctx, tx, tenantID, versionID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, fmt.Errorf("clause version %s: %w", versionID, apperr.ErrNotFound)
	}
	return version, nil
}

func (cs *clauseService) ListClauseVersions(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID) ([]*types.ClauseVersion, error) {
	if _, err := cs.GetClause(ctx, tx, tenantID, clauseID); err != nil {
		return nil, err
	}
	return cs.clauseVersionRepo.ListByClause(ctx, tx, tenantID, clauseID)
}

// =====================================
// Status transitions
// =====================================

// TransitionClauseVersion moves a version through the lifecycle. The whole
// transition runs in one transaction; publishing re-runs the gate battery
// inside it and flips the clause's current-published pointer, the only
// write path for that pointer.
func (cs *clauseService) TransitionClauseVersion(ctx context.Context, tenantID, actorID, versionID uuid.UUID, to types.VersionStatus) (*types.ClauseVersion, error) {
	cs.log.Info("TransitionClauseVersion", "tenant_id", tenantID, "version_id", versionID, "to", string(to))
	if !to.Valid() {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeInvalidArgument,
			fmt.Errorf("unknown status %q", to))
	}

	var updated *types.ClauseVersion
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		version, err := cs.GetClauseVersion(ctx, tx, tenantID, versionID)
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
			report, err := cs.validator.ValidateClauseVersion(ctx, tx, version)
			if err != nil {
				return err
			}
			if !report.CanPublish {
				return &gates.GateFailureError{Report: report}
			}
			fields["published_at"] = time.Now().UTC()
		}

		rows, err := cs.clauseVersionRepo.UpdateStatus(ctx, tx, tenantID, versionID, version.Status, to, fields)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("clause version %s moved from %s concurrently: %w", versionID, version.Status, apperr.ErrStaleWriteConflict)
		}

		if to == types.StatusPublished {
			if err := cs.clauseRepo.SetCurrentPublishedVersion(ctx, tx, tenantID, version.ClauseID, versionID); err != nil {
				return fmt.Errorf("set current published version: %w", err)
			}
		}

		updated, err = cs.GetClauseVersion(ctx, tx, tenantID, versionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	cs.publishAudit(ctx, "clause_version.transition", tenantID, actorID, versionID, map[string]interface{}{
		"to": string(to),
	})
	return updated, nil
}

// ValidatePublishingGates runs the gate battery without touching status, so
// authors can preview the report from any state.
func (cs *clauseService) ValidatePublishingGates(ctx context.Context, tenantID, versionID uuid.UUID) (gates.GateReport, error) {
	version, err := cs.GetClauseVersion(ctx, nil, tenantID, versionID)
	if err != nil {
		return gates.GateReport{}, err
	}
	return cs.validator.ValidateClauseVersion(ctx, nil, version)
}

func (cs *clauseService) publishAudit(ctx context.Context, eventType string, tenantID, actorID, entityID uuid.UUID, payload map[string]interface{}) {
	if cs.bus == nil {
		return
	}
	event := redisclient.AuditEvent{
		Type:     eventType,
		TenantID: tenantID.String(),
		ActorID:  actorID.String(),
		EntityID: entityID.String(),
		Payload:  payload,
	}
	if err := cs.bus.Publish(ctx, event); err != nil {
		cs.log.Warn("audit publish failed", "type", eventType, "error", err)
	}
}
