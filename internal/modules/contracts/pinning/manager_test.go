package pinning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	contracttypes "github.com/draftwell/draftwell-backend/internal/domain/contracts"
	librarytypes "github.com/draftwell/draftwell-backend/internal/domain/library"
	"github.com/draftwell/draftwell-backend/internal/modules/contracts/evaluate"
	"github.com/draftwell/draftwell-backend/internal/pkg/apperr"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

type fakeStore struct {
	clauses          map[uuid.UUID]*librarytypes.Clause
	clauseVersions   map[uuid.UUID]*librarytypes.ClauseVersion
	templateVersions map[uuid.UUID]*librarytypes.TemplateVersion
	contracts        map[uuid.UUID]*contracttypes.ContractInstance
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clauses:          map[uuid.UUID]*librarytypes.Clause{},
		clauseVersions:   map[uuid.UUID]*librarytypes.ClauseVersion{},
		templateVersions: map[uuid.UUID]*librarytypes.TemplateVersion{},
		contracts:        map[uuid.UUID]*contracttypes.ContractInstance{},
	}
}

// addPublishedClause creates a clause with a published version carrying the
// given rules and returns (clauseID, versionID).
func (f *fakeStore) addPublishedClause(tenantID uuid.UUID, key string, rules []librarytypes.Rule) (uuid.UUID, uuid.UUID) {
	clauseID := uuid.New()
	versionID := f.publishVersion(tenantID, clauseID, 1, rules)
	f.clauses[clauseID] = &librarytypes.Clause{
		ID: clauseID, TenantID: tenantID, Key: key,
		CurrentPublishedVersionID: &versionID,
	}
	return clauseID, versionID
}

func (f *fakeStore) publishVersion(tenantID, clauseID uuid.UUID, number int, rules []librarytypes.Rule) uuid.UUID {
	raw, err := librarytypes.NormalizeRules(rules)
	if err != nil {
		panic(err)
	}
	versionID := uuid.New()
	f.clauseVersions[versionID] = &librarytypes.ClauseVersion{
		ID: versionID, ClauseID: clauseID, TenantID: tenantID,
		VersionNumber: number, Status: librarytypes.StatusPublished,
		Body: "body", Rules: raw,
	}
	return versionID
}

func (f *fakeStore) addTemplateVersion(tenantID uuid.UUID, slotClauses []uuid.UUID, rules []librarytypes.Rule) *librarytypes.TemplateVersion {
	slots := make([]librarytypes.TemplateSlot, 0, len(slotClauses))
	for i, id := range slotClauses {
		slots = append(slots, librarytypes.TemplateSlot{Key: "slot-" + string(rune('a'+i)), ClauseID: id})
	}
	structure, err := librarytypes.MarshalStructure(librarytypes.TemplateStructure{
		Sections: []librarytypes.TemplateSection{{Key: "main", Slots: slots}},
	})
	if err != nil {
		panic(err)
	}
	rawRules, err := librarytypes.NormalizeRules(rules)
	if err != nil {
		panic(err)
	}
	tv := &librarytypes.TemplateVersion{
		ID: uuid.New(), TemplateID: uuid.New(), TenantID: tenantID,
		VersionNumber: 1, Status: librarytypes.StatusPublished,
		Structure: structure, Rules: rawRules,
	}
	f.templateVersions[tv.ID] = tv
	return tv
}

type fakeClauseRepo struct{ s *fakeStore }

func (r *fakeClauseRepo) Create(ctx context.Context, tx *gorm.DB, clauses []*librarytypes.Clause) ([]*librarytypes.Clause, error) {
	for _, c := range clauses {
		r.s.clauses[c.ID] = c
	}
	return clauses, nil
}

func (r *fakeClauseRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID) (*librarytypes.Clause, error) {
	c, ok := r.s.clauses[clauseID]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	return c, nil
}

func (r *fakeClauseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, clauseIDs []uuid.UUID) ([]*librarytypes.Clause, error) {
	var out []*librarytypes.Clause
	for _, id := range clauseIDs {
		if c, ok := r.s.clauses[id]; ok && c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeClauseRepo) GetByKey(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key string) (*librarytypes.Clause, error) {
	for _, c := range r.s.clauses {
		if c.TenantID == tenantID && c.Key == key {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeClauseRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*librarytypes.Clause, error) {
	return nil, nil
}

func (r *fakeClauseRepo) SetCurrentPublishedVersion(ctx context.Context, tx *gorm.DB, tenantID, clauseID, versionID uuid.UUID) error {
	if c, ok := r.s.clauses[clauseID]; ok && c.TenantID == tenantID {
		c.CurrentPublishedVersionID = &versionID
	}
	return nil
}

type fakeClauseVersionRepo struct{ s *fakeStore }

func (r *fakeClauseVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *librarytypes.ClauseVersion) (*librarytypes.ClauseVersion, error) {
	r.s.clauseVersions[version.ID] = version
	return version, nil
}

func (r *fakeClauseVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID) (*librarytypes.ClauseVersion, error) {
	v, ok := r.s.clauseVersions[versionID]
	if !ok || v.TenantID != tenantID {
		return nil, nil
	}
	return v, nil
}

func (r *fakeClauseVersionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, versionIDs []uuid.UUID) ([]*librarytypes.ClauseVersion, error) {
	var out []*librarytypes.ClauseVersion
	for _, id := range versionIDs {
		if v, ok := r.s.clauseVersions[id]; ok && v.TenantID == tenantID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeClauseVersionRepo) GetByClauseAndNumber(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID, versionNumber int) (*librarytypes.ClauseVersion, error) {
	return nil, nil
}

func (r *fakeClauseVersionRepo) ListByClause(ctx context.Context, tx *gorm.DB, tenantID, clauseID uuid.UUID) ([]*librarytypes.ClauseVersion, error) {
	return nil, nil
}

func (r *fakeClauseVersionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID, from, to librarytypes.VersionStatus, fields map[string]interface{}) (int64, error) {
	return 0, nil
}

type fakeTemplateVersionRepo struct{ s *fakeStore }

func (r *fakeTemplateVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *librarytypes.TemplateVersion) (*librarytypes.TemplateVersion, error) {
	r.s.templateVersions[version.ID] = version
	return version, nil
}

func (r *fakeTemplateVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID) (*librarytypes.TemplateVersion, error) {
	v, ok := r.s.templateVersions[versionID]
	if !ok || v.TenantID != tenantID {
		return nil, nil
	}
	return v, nil
}

func (r *fakeTemplateVersionRepo) GetByTemplateAndNumber(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID, versionNumber int) (*librarytypes.TemplateVersion, error) {
	return nil, nil
}

func (r *fakeTemplateVersionRepo) ListByTemplate(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID) ([]*librarytypes.TemplateVersion, error) {
	return nil, nil
}

func (r *fakeTemplateVersionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, tenantID, versionID uuid.UUID, from, to librarytypes.VersionStatus, fields map[string]interface{}) (int64, error) {
	return 0, nil
}

type fakeContractRepo struct{ s *fakeStore }

func (r *fakeContractRepo) Create(ctx context.Context, tx *gorm.DB, contract *contracttypes.ContractInstance) (*contracttypes.ContractInstance, error) {
	r.s.contracts[contract.ID] = contract
	return contract, nil
}

func (r *fakeContractRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID) (*contracttypes.ContractInstance, error) {
	c, ok := r.s.contracts[contractID]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	return c, nil
}

func (r *fakeContractRepo) ListByOwner(ctx context.Context, tx *gorm.DB, tenantID, ownerID uuid.UUID) ([]*contracttypes.ContractInstance, error) {
	return nil, nil
}

func (r *fakeContractRepo) UpdateDraft(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID, fields map[string]interface{}) (int64, error) {
	c, ok := r.s.contracts[contractID]
	if !ok || c.TenantID != tenantID || c.Status != contracttypes.ContractDraft {
		return 0, nil
	}
	for k, v := range fields {
		switch k {
		case "answers":
			c.Answers = v.(datatypes.JSON)
		case "selected_clause_ids":
			c.SelectedClauseIDs = v.(datatypes.JSON)
		case "clause_version_refs":
			c.ClauseVersionRefs = v.(datatypes.JSON)
		case "validation_state":
			c.ValidationState = v.(contracttypes.ValidationState)
		case "validation_report":
			c.ValidationReport = v.(datatypes.JSON)
		case "status":
			c.Status = v.(contracttypes.ContractStatus)
		case "completed_at":
			at := v.(time.Time)
			c.CompletedAt = &at
		}
	}
	return 1, nil
}

func (r *fakeContractRepo) SetValidation(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID, state contracttypes.ValidationState, report datatypes.JSON) (int64, error) {
	return r.UpdateDraft(ctx, tx, tenantID, contractID, map[string]interface{}{
		"validation_state":  state,
		"validation_report": report,
	})
}

func (r *fakeContractRepo) Complete(ctx context.Context, tx *gorm.DB, tenantID, contractID uuid.UUID, state contracttypes.ValidationState, report datatypes.JSON, completedAt time.Time) (int64, error) {
	return r.UpdateDraft(ctx, tx, tenantID, contractID, map[string]interface{}{
		"status":            contracttypes.ContractCompleted,
		"completed_at":      completedAt,
		"validation_state":  state,
		"validation_report": report,
	})
}

func newTestManager(t *testing.T, s *fakeStore) *Manager {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	return NewManager(
		&fakeClauseRepo{s: s},
		&fakeClauseVersionRepo{s: s},
		&fakeTemplateVersionRepo{s: s},
		&fakeContractRepo{s: s},
		log,
	)
}

func draftContract(s *fakeStore, tenantID uuid.UUID, templateVersionID uuid.UUID, refs []contracttypes.ClauseVersionRef) *contracttypes.ContractInstance {
	rawRefs, err := contracttypes.MarshalRefs(refs)
	if err != nil {
		panic(err)
	}
	c := &contracttypes.ContractInstance{
		ID: uuid.New(), TenantID: tenantID, OwnerID: uuid.New(),
		TemplateVersionID: templateVersionID,
		ClauseVersionRefs: rawRefs,
		Status:            contracttypes.ContractDraft,
		ValidationState:   contracttypes.ValidationValid,
	}
	s.contracts[c.ID] = c
	return c
}

func TestPinResolvesPublishedVersions(t *testing.T) {
	tenantID := uuid.New()
	s := newFakeStore()
	a, aVersion := s.addPublishedClause(tenantID, "Indemnity", nil)
	b, bVersion := s.addPublishedClause(tenantID, "Liability-Cap", nil)
	tv := s.addTemplateVersion(tenantID, []uuid.UUID{a, b}, nil)
	m := newTestManager(t, s)

	refs, err := m.Pin(context.Background(), nil, tenantID, tv)
	if err != nil {
		t.Fatalf("Pin failed: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs, got %v", refs)
	}
	want := map[uuid.UUID]uuid.UUID{a: aVersion, b: bVersion}
	for _, ref := range refs {
		if want[ref.ClauseID] != ref.VersionID {
			t.Fatalf("unexpected pin: %+v", ref)
		}
		if ref.VersionNumber != 1 {
			t.Fatalf("expected version number 1, got %+v", ref)
		}
	}
}

func TestPinFailsWithoutPublishedVersion(t *testing.T) {
	tenantID := uuid.New()
	s := newFakeStore()
	a, _ := s.addPublishedClause(tenantID, "Indemnity", nil)
	draftOnly := uuid.New()
	s.clauses[draftOnly] = &librarytypes.Clause{ID: draftOnly, TenantID: tenantID, Key: "Liability-Cap"}
	tv := s.addTemplateVersion(tenantID, []uuid.UUID{a, draftOnly}, nil)
	m := newTestManager(t, s)

	_, err := m.Pin(context.Background(), nil, tenantID, tv)
	if err == nil {
		t.Fatal("expected Pin to fail for a clause with no published version")
	}
	if apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("expected conflict code, got %q (%v)", apperr.CodeOf(err), err)
	}
}

func TestEvaluateUsesPinnedVersionRules(t *testing.T) {
	tenantID := uuid.New()
	s := newFakeStore()

	// v1 has no rules; v2 (now current) requires a clause that is not
	// selected. A contract pinned to v1 must stay clean.
	a, v1 := s.addPublishedClause(tenantID, "Indemnity", nil)
	missing := uuid.New()
	v2 := s.publishVersion(tenantID, a, 2, []librarytypes.Rule{{
		Kind: librarytypes.RuleRequires, Severity: librarytypes.SeverityHard, TargetClauseID: &missing,
	}})
	s.clauses[a].CurrentPublishedVersionID = &v2

	tv := s.addTemplateVersion(tenantID, []uuid.UUID{a}, nil)
	m := newTestManager(t, s)

	contract := draftContract(s, tenantID, tv.ID, []contracttypes.ClauseVersionRef{
		{ClauseID: a, VersionID: v1, VersionNumber: 1},
	})
	res, err := m.Evaluate(context.Background(), nil, contract)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.State != contracttypes.ValidationValid || len(res.Violations) != 0 {
		t.Fatalf("pinned v1 has no rules, got %+v", res)
	}

	// Re-pinned to v2 the violation appears.
	contract2 := draftContract(s, tenantID, tv.ID, []contracttypes.ClauseVersionRef{
		{ClauseID: a, VersionID: v2, VersionNumber: 2},
	})
	res, err = m.Evaluate(context.Background(), nil, contract2)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.State != contracttypes.ValidationConflicts {
		t.Fatalf("pinned v2 must surface the requires violation, got %+v", res)
	}
}

func TestEvaluateDefaultsSelectionToAllPins(t *testing.T) {
	tenantID := uuid.New()
	s := newFakeStore()
	b, bVersion := s.addPublishedClause(tenantID, "Liability-Cap", nil)
	a, aVersion := s.addPublishedClause(tenantID, "Indemnity", []librarytypes.Rule{{
		Kind: librarytypes.RuleRequires, Severity: librarytypes.SeverityHard, TargetClauseID: &b,
	}})
	tv := s.addTemplateVersion(tenantID, []uuid.UUID{a, b}, nil)
	m := newTestManager(t, s)

	contract := draftContract(s, tenantID, tv.ID, []contracttypes.ClauseVersionRef{
		{ClauseID: a, VersionID: aVersion, VersionNumber: 1},
		{ClauseID: b, VersionID: bVersion, VersionNumber: 1},
	})

	// No stored selection: every pinned clause counts as selected, so the
	// requires rule is satisfied.
	res, err := m.Evaluate(context.Background(), nil, contract)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.State != contracttypes.ValidationValid {
		t.Fatalf("default selection should satisfy requires, got %+v", res)
	}

	// An explicit selection of only Indemnity drops Liability-Cap and the
	// requires rule fires.
	rawSel, err := contracttypes.MarshalSelection([]uuid.UUID{a})
	if err != nil {
		t.Fatalf("MarshalSelection failed: %v", err)
	}
	contract.SelectedClauseIDs = rawSel
	res, err = m.Evaluate(context.Background(), nil, contract)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.State != contracttypes.ValidationConflicts {
		t.Fatalf("narrowed selection must fire requires, got %+v", res)
	}
}

func TestCompleteFreezesDraft(t *testing.T) {
	tenantID := uuid.New()
	s := newFakeStore()
	a, aVersion := s.addPublishedClause(tenantID, "Indemnity", nil)
	tv := s.addTemplateVersion(tenantID, []uuid.UUID{a}, nil)
	m := newTestManager(t, s)

	contract := draftContract(s, tenantID, tv.ID, []contracttypes.ClauseVersionRef{
		{ClauseID: a, VersionID: aVersion, VersionNumber: 1},
	})

	completed, err := m.Complete(context.Background(), nil, tenantID, contract.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.Status != contracttypes.ContractCompleted {
		t.Fatalf("status=%s, want completed", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
	if completed.ValidationState != contracttypes.ValidationValid {
		t.Fatalf("validation_state=%s, want valid", completed.ValidationState)
	}
}

func TestCompleteBlockedByCachedConflicts(t *testing.T) {
	tenantID := uuid.New()
	s := newFakeStore()
	a, aVersion := s.addPublishedClause(tenantID, "Indemnity", nil)
	tv := s.addTemplateVersion(tenantID, []uuid.UUID{a}, nil)
	m := newTestManager(t, s)

	contract := draftContract(s, tenantID, tv.ID, []contracttypes.ClauseVersionRef{
		{ClauseID: a, VersionID: aVersion, VersionNumber: 1},
	})
	cached, err := evaluate.MarshalViolations([]evaluate.Violation{{
		RuleID: "r-x", ClauseID: a, Kind: librarytypes.RuleRequires,
		Severity: librarytypes.SeverityHard, Message: "cached conflict",
	}})
	if err != nil {
		t.Fatalf("MarshalViolations failed: %v", err)
	}
	contract.ValidationState = contracttypes.ValidationConflicts
	contract.ValidationReport = cached

	_, err = m.Complete(context.Background(), nil, tenantID, contract.ID)
	var conflictErr *evaluate.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected *evaluate.ConflictError, got %v", err)
	}
	if len(conflictErr.Violations) != 1 || conflictErr.Violations[0].RuleID != "r-x" {
		t.Fatalf("expected the cached violations, got %+v", conflictErr.Violations)
	}
	if s.contracts[contract.ID].Status != contracttypes.ContractDraft {
		t.Fatal("contract must stay a draft")
	}
}

func TestCompleteBlockedByFreshConflicts(t *testing.T) {
	tenantID := uuid.New()
	s := newFakeStore()
	missing := uuid.New()
	a, aVersion := s.addPublishedClause(tenantID, "Indemnity", []librarytypes.Rule{{
		Kind: librarytypes.RuleRequires, Severity: librarytypes.SeverityHard, TargetClauseID: &missing,
	}})
	tv := s.addTemplateVersion(tenantID, []uuid.UUID{a}, nil)
	m := newTestManager(t, s)

	// Cached state is stale-valid; the re-run inside Complete must catch
	// the hard violation anyway.
	contract := draftContract(s, tenantID, tv.ID, []contracttypes.ClauseVersionRef{
		{ClauseID: a, VersionID: aVersion, VersionNumber: 1},
	})

	_, err := m.Complete(context.Background(), nil, tenantID, contract.ID)
	var conflictErr *evaluate.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected *evaluate.ConflictError, got %v", err)
	}
	if s.contracts[contract.ID].Status != contracttypes.ContractDraft {
		t.Fatal("contract must stay a draft")
	}
}

func TestCompleteRejectsNonDraft(t *testing.T) {
	tenantID := uuid.New()
	s := newFakeStore()
	a, aVersion := s.addPublishedClause(tenantID, "Indemnity", nil)
	tv := s.addTemplateVersion(tenantID, []uuid.UUID{a}, nil)
	m := newTestManager(t, s)

	contract := draftContract(s, tenantID, tv.ID, []contracttypes.ClauseVersionRef{
		{ClauseID: a, VersionID: aVersion, VersionNumber: 1},
	})
	contract.Status = contracttypes.ContractCompleted

	_, err := m.Complete(context.Background(), nil, tenantID, contract.ID)
	if apperr.CodeOf(err) != apperr.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition, got %q (%v)", apperr.CodeOf(err), err)
	}
}

func TestCompleteMissingContract(t *testing.T) {
	tenantID := uuid.New()
	s := newFakeStore()
	m := newTestManager(t, s)

	_, err := m.Complete(context.Background(), nil, tenantID, uuid.New())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompletedPinsSurviveNewPublications(t *testing.T) {
	tenantID := uuid.New()
	s := newFakeStore()
	a, v1 := s.addPublishedClause(tenantID, "Indemnity", nil)
	tv := s.addTemplateVersion(tenantID, []uuid.UUID{a}, nil)
	m := newTestManager(t, s)

	contract := draftContract(s, tenantID, tv.ID, []contracttypes.ClauseVersionRef{
		{ClauseID: a, VersionID: v1, VersionNumber: 1},
	})
	completed, err := m.Complete(context.Background(), nil, tenantID, contract.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// Publishing v2 after completion must not touch the frozen refs.
	v2 := s.publishVersion(tenantID, a, 2, nil)
	s.clauses[a].CurrentPublishedVersionID = &v2

	stored := s.contracts[contract.ID]
	refs, err := contracttypes.ParseRefs(stored.ClauseVersionRefs)
	if err != nil {
		t.Fatalf("ParseRefs failed: %v", err)
	}
	if len(refs) != 1 || refs[0].VersionID != v1 || refs[0].VersionNumber != 1 {
		t.Fatalf("completed contract pins moved: %+v", refs)
	}
	if string(stored.ClauseVersionRefs) != string(completed.ClauseVersionRefs) {
		t.Fatalf("stored refs diverged from the completion result: %s vs %s",
			stored.ClauseVersionRefs, completed.ClauseVersionRefs)
	}
}

func TestRefreshPinsMovesForward(t *testing.T) {
	tenantID := uuid.New()
	s := newFakeStore()
	a, v1 := s.addPublishedClause(tenantID, "Indemnity", nil)
	b, bVersion := s.addPublishedClause(tenantID, "Liability-Cap", nil)
	tv := s.addTemplateVersion(tenantID, []uuid.UUID{a, b}, nil)
	m := newTestManager(t, s)

	contract := draftContract(s, tenantID, tv.ID, []contracttypes.ClauseVersionRef{
		{ClauseID: a, VersionID: v1, VersionNumber: 1},
		{ClauseID: b, VersionID: bVersion, VersionNumber: 1},
	})

	// Publish v2 of Indemnity and drop Liability-Cap's published pointer.
	v2 := s.publishVersion(tenantID, a, 2, nil)
	s.clauses[a].CurrentPublishedVersionID = &v2
	s.clauses[b].CurrentPublishedVersionID = nil

	refs, err := m.RefreshPins(context.Background(), nil, contract)
	if err != nil {
		t.Fatalf("RefreshPins failed: %v", err)
	}
	byClause := map[uuid.UUID]contracttypes.ClauseVersionRef{}
	for _, ref := range refs {
		byClause[ref.ClauseID] = ref
	}
	if byClause[a].VersionID != v2 || byClause[a].VersionNumber != 2 {
		t.Fatalf("Indemnity pin should move to v2: %+v", byClause[a])
	}
	if byClause[b].VersionID != bVersion {
		t.Fatalf("Liability-Cap pin must keep its old version: %+v", byClause[b])
	}
}
