package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/draftwell/draftwell-backend/internal/clients/redis"
	"github.com/draftwell/draftwell-backend/internal/data/repos"
	types "github.com/draftwell/draftwell-backend/internal/domain"
	"github.com/draftwell/draftwell-backend/internal/modules/contracts/evaluate"
	"github.com/draftwell/draftwell-backend/internal/modules/contracts/pinning"
	"github.com/draftwell/draftwell-backend/internal/pkg/apperr"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

type ContractService interface {
	CreateContract(ctx context.Context, tenantID, ownerID, templateVersionID uuid.UUID, jurisdiction, contractType string) (*types.ContractInstance, error)
	GetContract(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID) (*types.ContractInstance, error)
	ListContracts(ctx context.Context, tx *gorm.DB, tenantID, ownerID uuid.UUID) ([]*types.ContractInstance, error)

	UpdateAnswers(ctx context.Context, tenantID, contractID uuid.UUID, answers map[string]string) (*types.ContractInstance, error)
	UpdateSelection(ctx context.Context, tenantID, contractID uuid.UUID, selected []uuid.UUID) (*types.ContractInstance, error)
	Validate(ctx context.Context, tenantID, contractID uuid.UUID) (*types.ContractInstance, evaluate.Result, error)
	Complete(ctx context.Context, tenantID, actorID, contractID uuid.UUID) (*types.ContractInstance, error)
	RefreshPins(ctx context.Context, tenantID, actorID, contractID uuid.UUID) (*types.ContractInstance, error)
}

type contractService struct {
	db                  *gorm.DB
	log                 *logger.Logger
	contractRepo        repos.ContractRepo
	templateVersionRepo repos.TemplateVersionRepo
	pins                *pinning.Manager
	bus                 redisclient.EventBus
}

func NewContractService(
	db *gorm.DB,
	baseLog *logger.Logger,
	contractRepo repos.ContractRepo,
	templateVersionRepo repos.TemplateVersionRepo,
	pins *pinning.Manager,
	bus redisclient.EventBus,
) ContractService {
	serviceLog := baseLog.With("service", "ContractService")
	return &contractService{
		db:                  db,
		log:                 serviceLog,
		contractRepo:        contractRepo,
		templateVersionRepo: templateVersionRepo,
		pins:                pins,
		bus:                 bus,
	}
}

// =====================================
// Creation and reads
// =====================================

// CreateContract instantiates a draft from a published template version,
// resolving every slot clause to its current published version. Those pins
// are frozen from here on; only RefreshPins may move them.
func (s *contractService) CreateContract(ctx context.Context, tenantID, ownerID, templateVersionID uuid.UUID, jurisdiction, contractType string) (*types.ContractInstance, error) {
	s.log.Info("CreateContract", "tenant_id", tenantID, "owner_id", ownerID, "template_version_id", templateVersionID)

	var created *types.ContractInstance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		templateVersion, err := s.templateVersionRepo.GetByID(ctx, tx, tenantID, templateVersionID)
		if err != nil {
			return err
		}
		if templateVersion == nil {
			return fmt.Errorf("template version %s: %w", templateVersionID, apperr.ErrNotFound)
		}
		if templateVersion.Status != types.StatusPublished {
			return apperr.New(http.StatusBadRequest, apperr.CodeInvalidArgument,
				fmt.Errorf("template version %s is %s, contracts require a published version", templateVersionID, templateVersion.Status))
		}

		refs, err := s.pins.Pin(ctx, tx, tenantID, templateVersion)
		if err != nil {
			return err
		}
		rawRefs, err := types.MarshalRefs(refs)
		if err != nil {
			return err
		}
		rawAnswers, err := types.MarshalAnswers(nil)
		if err != nil {
			return err
		}

		contract := &types.ContractInstance{
			ID:                uuid.New(),
			TenantID:          tenantID,
			OwnerID:           ownerID,
			TemplateVersionID: templateVersionID,
			ClauseVersionRefs: rawRefs,
			Answers:           rawAnswers,
			Jurisdiction:      jurisdiction,
			ContractType:      contractType,
			Status:            types.ContractDraft,
		}
		if _, err := s.contractRepo.Create(ctx, tx, contract); err != nil {
			return fmt.Errorf("create contract: %w", err)
		}

		created, err = s.revalidate(ctx, tx, contract)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, "contract.created", tenantID, ownerID, created.ID, nil)
	return created, nil
}

func (s *contractService) GetContract(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID) (*types.ContractInstance, error) {
	contract, err := s.contractRepo.GetByID(ctx, tx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, fmt.Errorf("contract %s: %w", contractID, apperr.ErrNotFound)
	}
	return contract, nil
}

func (s *contractService) ListContracts(ctx context.Context, tx *gorm.DB, tenantID, ownerID uuid.UUID) ([]*types.ContractInstance, error) {
	return s.contractRepo.ListByOwner(ctx, tx, tenantID, ownerID)
}

// =====================================
// Draft mutations
// =====================================

func (s *contractService) UpdateAnswers(ctx context.Context, tenantID, contractID uuid.UUID, answers map[string]string) (*types.ContractInstance, error) {
	s.log.Info("UpdateAnswers", "tenant_id", tenantID, "contract_id", contractID)
	raw, err := types.MarshalAnswers(answers)
	if err != nil {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeInvalidArgument, err)
	}
	return s.updateDraft(ctx, tenantID, contractID, map[string]interface{}{"answers": raw})
}

func (s *contractService) UpdateSelection(ctx context.Context, tenantID, contractID uuid.UUID, selected []uuid.UUID) (*types.ContractInstance, error) {
	s.log.Info("UpdateSelection", "tenant_id", tenantID, "contract_id", contractID)

	var updated *types.ContractInstance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.GetContract(ctx, tx, tenantID, contractID)
		if err != nil {
			return err
		}
		refs, err := types.ParseRefs(contract.ClauseVersionRefs)
		if err != nil {
			return err
		}
		pinned := make(map[uuid.UUID]bool, len(refs))
		for _, ref := range refs {
			pinned[ref.ClauseID] = true
		}
		for _, id := range selected {
			if !pinned[id] {
				return apperr.New(http.StatusBadRequest, apperr.CodeInvalidArgument,
					fmt.Errorf("clause %s is not part of this contract's template", id))
			}
		}
		raw, err := types.MarshalSelection(selected)
		if err != nil {
			return err
		}
		updated, err = s.applyDraftUpdate(ctx, tx, contract, map[string]interface{}{"selected_clause_ids": raw})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// updateDraft is the shared load-mutate-revalidate path for answer and
// selection changes.
func (s *contractService) updateDraft(ctx context.Context, tenantID, contractID uuid.UUID, fields map[string]interface{}) (*types.ContractInstance, error) {
	var updated *types.ContractInstance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.GetContract(ctx, tx, tenantID, contractID)
		if err != nil {
			return err
		}
		updated, err = s.applyDraftUpdate(ctx, tx, contract, fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *contractService) applyDraftUpdate(ctx context.Context, tx *gorm.DB, contract *types.ContractInstance, fields map[string]interface{}) (*types.ContractInstance, error) {
	if contract.Status != types.ContractDraft {
		return nil, apperr.New(http.StatusConflict, apperr.CodeInvalidTransition,
			fmt.Errorf("contract %s is %s, only drafts can be modified", contract.ID, contract.Status))
	}
	rows, err := s.contractRepo.UpdateDraft(ctx, tx, contract.TenantID, contract.ID, fields)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("contract %s completed concurrently: %w", contract.ID, apperr.ErrStaleWriteConflict)
	}
	refreshed, err := s.GetContract(ctx, tx, contract.TenantID, contract.ID)
	if err != nil {
		return nil, err
	}
	return s.revalidate(ctx, tx, refreshed)
}

// revalidate re-runs the evaluator over the contract's pinned rule sets and
// caches the result on the row.
func (s *contractService) revalidate(ctx context.Context, tx *gorm.DB, contract *types.ContractInstance) (*types.ContractInstance, error) {
	result, err := s.pins.Evaluate(ctx, tx, contract)
	if err != nil {
		return nil, err
	}
	report, err := evaluate.MarshalViolations(result.Violations)
	if err != nil {
		return nil, err
	}
	if _, err := s.contractRepo.SetValidation(ctx, tx, contract.TenantID, contract.ID, result.State, report); err != nil {
		return nil, err
	}
	return s.GetContract(ctx, tx, contract.TenantID, contract.ID)
}

// =====================================
// Validation and completion
// =====================================

func (s *contractService) Validate(ctx context.Context, tenantID, contractID uuid.UUID) (*types.ContractInstance, evaluate.Result, error) {
	s.log.Info("Validate", "tenant_id", tenantID, "contract_id", contractID)

	var (
		updated *types.ContractInstance
		result  evaluate.Result
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.GetContract(ctx, tx, tenantID, contractID)
		if err != nil {
			return err
		}
		result, err = s.pins.Evaluate(ctx, tx, contract)
		if err != nil {
			return err
		}
		// Completed contracts keep their frozen report; only drafts cache
		// the fresh result.
		if contract.Status == types.ContractDraft {
			report, err := evaluate.MarshalViolations(result.Violations)
			if err != nil {
				return err
			}
			if _, err := s.contractRepo.SetValidation(ctx, tx, tenantID, contractID, result.State, report); err != nil {
				return err
			}
		}
		updated, err = s.GetContract(ctx, tx, tenantID, contractID)
		return err
	})
	if err != nil {
		return nil, evaluate.Result{}, err
	}
	return updated, result, nil
}

func (s *contractService) Complete(ctx context.Context, tenantID, actorID, contractID uuid.UUID) (*types.ContractInstance, error) {
	s.log.Info("Complete", "tenant_id", tenantID, "contract_id", contractID)

	var completed *types.ContractInstance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		completed, err = s.pins.Complete(ctx, tx, tenantID, contractID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, "contract.completed", tenantID, actorID, contractID, map[string]interface{}{
		"validation_state": string(completed.ValidationState),
	})
	return completed, nil
}

// RefreshPins re-resolves a draft's pins to the clauses' current published
// versions and re-validates against the new rule sets.
func (s *contractService) RefreshPins(ctx context.Context, tenantID, actorID, contractID uuid.UUID) (*types.ContractInstance, error) {
	s.log.Info("RefreshPins", "tenant_id", tenantID, "contract_id", contractID)

	var updated *types.ContractInstance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.GetContract(ctx, tx, tenantID, contractID)
		if err != nil {
			return err
		}
		refreshed, err := s.pins.RefreshPins(ctx, tx, contract)
		if err != nil {
			return err
		}
		raw, err := types.MarshalRefs(refreshed)
		if err != nil {
			return err
		}
		updated, err = s.applyDraftUpdate(ctx, tx, contract, map[string]interface{}{"clause_version_refs": raw})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, "contract.pins_refreshed", tenantID, actorID, contractID, nil)
	return updated, nil
}

func (s *contractService) publishAudit(ctx context.Context, eventType string, tenantID, actorID, entityID uuid.UUID, payload map[string]interface{}) {
	if s.bus == nil {
		return
	}
	event := redisclient.AuditEvent{
		Type:     eventType,
		TenantID: tenantID.String(),
		ActorID:  actorID.String(),
		EntityID: entityID.String(),
		Payload:  payload,
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.log.Warn("audit publish failed", "type", eventType, "error", err)
	}
}
