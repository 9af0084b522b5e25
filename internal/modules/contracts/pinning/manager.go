package pinning

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	contractrepos "github.com/draftwell/draftwell-backend/internal/data/repos/contracts"
	libraryrepos "github.com/draftwell/draftwell-backend/internal/data/repos/library"
	contracttypes "github.com/draftwell/draftwell-backend/internal/domain/contracts"
	librarytypes "github.com/draftwell/draftwell-backend/internal/domain/library"
	"github.com/draftwell/draftwell-backend/internal/modules/contracts/evaluate"
	"github.com/draftwell/draftwell-backend/internal/pkg/apperr"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

// Manager owns the version-pin lifecycle of a contract: resolving pins at
// creation, re-resolving them only through the explicit refresh operation,
// evaluating the pinned rule sets, and freezing the contract at completion.
type Manager struct {
	clauses          libraryrepos.ClauseRepo
	clauseVersions   libraryrepos.ClauseVersionRepo
	templateVersions libraryrepos.TemplateVersionRepo
	contracts        contractrepos.ContractRepo
	log              *logger.Logger
}

func NewManager(
	clauses libraryrepos.ClauseRepo,
	clauseVersions libraryrepos.ClauseVersionRepo,
	templateVersions libraryrepos.TemplateVersionRepo,
	contracts contractrepos.ContractRepo,
	baseLog *logger.Logger,
) *Manager {
	return &Manager{
		clauses:          clauses,
		clauseVersions:   clauseVersions,
		templateVersions: templateVersions,
		contracts:        contracts,
		log:              baseLog.With("module", "PinningManager"),
	}
}

// Pin resolves every slot clause of a template version to its current
// published version. Creation requires every slot to resolve; a clause that
// has lost its published version since the template was published is an
// error, not a silently dropped pin.
func (m *Manager) Pin(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, templateVersion *librarytypes.TemplateVersion) ([]contracttypes.ClauseVersionRef, error) {
	structure, err := librarytypes.ParseStructure(templateVersion.Structure)
	if err != nil {
		return nil, fmt.Errorf("template version %s: %w", templateVersion.ID, err)
	}

	clauseIDs := structure.ClauseIDs()
	refs := make([]contracttypes.ClauseVersionRef, 0, len(clauseIDs))
	for _, clauseID := range clauseIDs {
		ref, err := m.resolvePin(ctx, tx, tenantID, clauseID)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			return nil, apperr.New(http.StatusConflict, apperr.CodeConflict,
				fmt.Errorf("clause %s has no published version to pin", clauseID))
		}
		refs = append(refs, *ref)
	}
	return refs, nil
}

// RefreshPins re-resolves a draft contract's pins against the clauses'
// current published versions. A clause that currently has no published
// version keeps its existing pin: refresh moves pins forward, it never
// invalidates them.
func (m *Manager) RefreshPins(ctx context.Context, tx *gorm.DB, contract *contracttypes.ContractInstance) ([]contracttypes.ClauseVersionRef, error) {
	refs, err := contracttypes.ParseRefs(contract.ClauseVersionRefs)
	if err != nil {
		return nil, fmt.Errorf("contract %s: %w", contract.ID, err)
	}

	refreshed := make([]contracttypes.ClauseVersionRef, 0, len(refs))
	for _, ref := range refs {
		next, err := m.resolvePin(ctx, tx, contract.TenantID, ref.ClauseID)
		if err != nil {
			return nil, err
		}
		if next == nil {
			refreshed = append(refreshed, ref)
			continue
		}
		refreshed = append(refreshed, *next)
	}
	return refreshed, nil
}

// resolvePin returns the clause's current published version ref, or nil when
// the clause has none. The referenced version's own status is re-checked so
// a stale pointer left by out-of-band writes cannot pin an unpublished body.
func (m *Manager) resolvePin(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID) (*contracttypes.ClauseVersionRef, error) {
	clause, err := m.clauses.GetByID(ctx, tx, tenantID, clauseID)
	if err != nil {
		return nil, err
	}
	if clause == nil {
		return nil, fmt.Errorf("clause %s: %w", clauseID, apperr.ErrNotFound)
	}
	if clause.CurrentPublishedVersionID == nil {
		return nil, nil
	}
	version, err := m.clauseVersions.GetByID(ctx, tx, tenantID, *clause.CurrentPublishedVersionID)
	if err != nil {
		return nil, err
	}
	if version == nil || version.Status != librarytypes.StatusPublished {
		return nil, nil
	}
	return &contracttypes.ClauseVersionRef{
		ClauseID:      clauseID,
		VersionID:     version.ID,
		VersionNumber: version.VersionNumber,
	}, nil
}

// Evaluate runs the conflict evaluation over the contract's pinned rule
// sets. Rules are always read from the pinned versions, never from the
// clauses' latest versions, so a completed-and-reopened report is
// reproducible.
func (m *Manager) Evaluate(ctx context.Context, tx *gorm.DB, contract *contracttypes.ContractInstance) (evaluate.Result, error) {
	refs, err := contracttypes.ParseRefs(contract.ClauseVersionRefs)
	if err != nil {
		return evaluate.Result{}, fmt.Errorf("contract %s: %w", contract.ID, err)
	}
	answers, err := contracttypes.ParseAnswers(contract.Answers)
	if err != nil {
		return evaluate.Result{}, fmt.Errorf("contract %s: %w", contract.ID, err)
	}

	selected, err := m.effectiveSelection(contract, refs)
	if err != nil {
		return evaluate.Result{}, err
	}

	ruleSets, err := m.ruleSets(ctx, tx, contract, refs)
	if err != nil {
		return evaluate.Result{}, err
	}

	evalCtx := evaluate.Context{
		Jurisdiction: contract.Jurisdiction,
		ContractType: contract.ContractType,
	}
	return evaluate.Evaluate(selected, answers, evalCtx, ruleSets), nil
}

// Complete freezes a draft. Completion is blocked by hard violations, both
// the cached ones and a fresh evaluation run inside the same transaction,
// and is guarded against concurrent completion by the draft-only update.
func (m *Manager) Complete(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID) (*contracttypes.ContractInstance, error) {
	contract, err := m.contracts.GetByID(ctx, tx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, fmt.Errorf("contract %s: %w", contractID, apperr.ErrNotFound)
	}
	if contract.Status != contracttypes.ContractDraft {
		return nil, apperr.New(http.StatusConflict, apperr.CodeInvalidTransition,
			fmt.Errorf("contract %s is %s, only drafts can be completed", contract.ID, contract.Status))
	}

	// Cached conflicts short-circuit before re-evaluating.
	if contract.ValidationState == contracttypes.ValidationConflicts {
		cached, err := evaluate.ParseViolations(contract.ValidationReport)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", contract.ID, err)
		}
		return nil, &evaluate.ConflictError{Violations: cached}
	}

	result, err := m.Evaluate(ctx, tx, contract)
	if err != nil {
		return nil, err
	}
	if result.State == contracttypes.ValidationConflicts {
		return nil, &evaluate.ConflictError{Violations: result.Violations}
	}

	report, err := evaluate.MarshalViolations(result.Violations)
	if err != nil {
		return nil, err
	}

	rows, err := m.contracts.Complete(ctx, tx, tenantID, contractID, result.State, report, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Another writer completed or archived the draft between our read
		// and this update.
		return nil, fmt.Errorf("contract %s: %w", contractID, apperr.ErrStaleWriteConflict)
	}

	completed, err := m.contracts.GetByID(ctx, tx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	if completed == nil {
		return nil, fmt.Errorf("contract %s: %w", contractID, apperr.ErrNotFound)
	}
	m.log.Info("contract completed",
		"contract_id", contractID.String(),
		"tenant_id", tenantID.String(),
		"validation_state", string(completed.ValidationState))
	return completed, nil
}

// effectiveSelection defaults an unset selection to every pinned clause; an
// explicitly stored empty selection stays empty.
func (m *Manager) effectiveSelection(contract *contracttypes.ContractInstance, refs []contracttypes.ClauseVersionRef) ([]uuid.UUID, error) {
	selected, err := contracttypes.ParseSelection(contract.SelectedClauseIDs)
	if err != nil {
		return nil, fmt.Errorf("contract %s: %w", contract.ID, err)
	}
	if selected == nil {
		selected = make([]uuid.UUID, 0, len(refs))
		for _, ref := range refs {
			selected = append(selected, ref.ClauseID)
		}
	}
	return selected, nil
}

// ruleSets loads the pinned clause versions' rules plus the pinned template
// version's own rules (owner nil, always in force).
func (m *Manager) ruleSets(ctx context.Context, tx *gorm.DB, contract *contracttypes.ContractInstance, refs []contracttypes.ClauseVersionRef) ([]evaluate.RuleSet, error) {
	versionIDs := make([]uuid.UUID, 0, len(refs))
	ownerByVersion := make(map[uuid.UUID]uuid.UUID, len(refs))
	for _, ref := range refs {
		versionIDs = append(versionIDs, ref.VersionID)
		ownerByVersion[ref.VersionID] = ref.ClauseID
	}

	versions, err := m.clauseVersions.GetByIDs(ctx, tx, contract.TenantID, versionIDs)
	if err != nil {
		return nil, err
	}
	if len(versions) != len(versionIDs) {
		return nil, fmt.Errorf("contract %s: pinned clause version missing: %w", contract.ID, apperr.ErrNotFound)
	}

	ruleSets := make([]evaluate.RuleSet, 0, len(versions)+1)
	for _, cv := range versions {
		rules, err := librarytypes.ParseRules(cv.Rules)
		if err != nil {
			return nil, fmt.Errorf("clause version %s: %w", cv.ID, err)
		}
		ruleSets = append(ruleSets, evaluate.RuleSet{Owner: ownerByVersion[cv.ID], Rules: rules})
	}

	templateVersion, err := m.templateVersions.GetByID(ctx, tx, contract.TenantID, contract.TemplateVersionID)
	if err != nil {
		return nil, err
	}
	if templateVersion == nil {
		return nil, fmt.Errorf("template version %s: %w", contract.TemplateVersionID, apperr.ErrNotFound)
	}
	templateRules, err := librarytypes.ParseRules(templateVersion.Rules)
	if err != nil {
		return nil, fmt.Errorf("template version %s: %w", templateVersion.ID, err)
	}
	if len(templateRules) > 0 {
		ruleSets = append(ruleSets, evaluate.RuleSet{Owner: uuid.Nil, Rules: templateRules})
	}
	return ruleSets, nil
}
