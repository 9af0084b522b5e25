package gates

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	repos "github.com/draftwell/draftwell-backend/internal/data/repos/library"
	types "github.com/draftwell/draftwell-backend/internal/domain/library"
	"github.com/draftwell/draftwell-backend/internal/modules/library/rulegraph"
	"github.com/draftwell/draftwell-backend/internal/platform/logger"
)

type GateSeverity string

const (
	SeverityError   GateSeverity = "error"
	SeverityWarning GateSeverity = "warning"
)

// The fixed gate battery, in report order.
const (
	GateContentCompleteness   = "content_completeness"
	GatePublishedDependencies = "published_dependencies"
	GateRuleCycles            = "rule_cycles"
	GateRuleCoverage          = "rule_coverage"
)

type GateResult struct {
	Gate     string       `json:"gate"`
	Passed   bool         `json:"passed"`
	Severity GateSeverity `json:"severity"`
	Message  string       `json:"message"`
}

type GateReport struct {
	CanPublish bool         `json:"can_publish"`
	Gates      []GateResult `json:"gates"`
}

// GateFailureError carries the full report so the caller can present every
// failing gate, not just the first.
type GateFailureError struct {
	Report GateReport
}

func (e *GateFailureError) Error() string {
	var failed []string
	for _, g := range e.Report.Gates {
		if !g.Passed && g.Severity == SeverityError {
			failed = append(failed, g.Gate)
		}
	}
	return fmt.Sprintf("publishing gates failed: %s", strings.Join(failed, ", "))
}

// Validator runs the publishing gate battery. It is read-only and
// idempotent; the publish path re-runs it inside the transition transaction
// so a stale prior report can never let bad content through.
type Validator struct {
	clauses        repos.ClauseRepo
	clauseVersions repos.ClauseVersionRepo
	log            *logger.Logger
}

func NewValidator(clauses repos.ClauseRepo, clauseVersions repos.ClauseVersionRepo, baseLog *logger.Logger) *Validator {
	return &Validator{
		clauses:        clauses,
		clauseVersions: clauseVersions,
		log:            baseLog.With("module", "PublishingGateValidator"),
	}
}

// ValidateClauseVersion gates a clause version for publication.
func (v *Validator) ValidateClauseVersion(ctx context.Context, tx *gorm.DB, version *types.ClauseVersion) (GateReport, error) {
	rules, err := types.ParseRules(version.Rules)
	if err != nil {
		return GateReport{}, fmt.Errorf("clause version %s: %w", version.ID, err)
	}

	var gates []GateResult

	contentOK := strings.TrimSpace(version.Body) != ""
	gates = append(gates, gateResult(GateContentCompleteness, contentOK, SeverityError,
		"clause body is present", "clause body is empty"))

	closure, err := v.dependencyClosure(ctx, tx, version.TenantID, version.ClauseID, rules)
	if err != nil {
		return GateReport{}, err
	}

	depsOK := len(closure.missing) == 0
	gates = append(gates, gateResult(GatePublishedDependencies, depsOK, SeverityError,
		"all required clauses have a published version",
		fmt.Sprintf("clause(s) without a published version: %s", strings.Join(closure.missing, ", "))))

	cycle := closure.graph.RequiresCycleFrom(rulegraph.ID(version.ClauseID))
	cycleOK := cycle == nil
	gates = append(gates, gateResult(GateRuleCycles, cycleOK, SeverityError,
		"no circular requirements",
		fmt.Sprintf("unresolved circular requirement: %s", rulegraph.FormatCycle(cycle, closure.labels))))

	coverageOK := len(rules) > 0
	gates = append(gates, gateResult(GateRuleCoverage, coverageOK, SeverityWarning,
		"version carries rules", "version has no rules attached; flagged for editorial review"))

	return buildReport(gates), nil
}

// ValidateTemplateVersion gates a template version for publication.
func (v *Validator) ValidateTemplateVersion(ctx context.Context, tx *gorm.DB, version *types.TemplateVersion) (GateReport, error) {
	structure, err := types.ParseStructure(version.Structure)
	if err != nil {
		return GateReport{}, fmt.Errorf("template version %s: %w", version.ID, err)
	}
	rules, err := types.ParseRules(version.Rules)
	if err != nil {
		return GateReport{}, fmt.Errorf("template version %s: %w", version.ID, err)
	}

	var gates []GateResult

	slotClauseIDs := structure.ClauseIDs()
	contentOK := len(structure.Sections) > 0 && len(slotClauseIDs) > 0
	gates = append(gates, gateResult(GateContentCompleteness, contentOK, SeverityError,
		"structure has sections and clause slots", "structure has no sections or no clause slots"))

	// Every slot clause must be publishable; template-rule targets are only
	// hard requirements when the rule is a requires.
	closure, err := v.dependencyClosureFromSeeds(ctx, tx, version.TenantID, slotClauseIDs, rules)
	if err != nil {
		return GateReport{}, err
	}

	depsOK := len(closure.missing) == 0
	gates = append(gates, gateResult(GatePublishedDependencies, depsOK, SeverityError,
		"every referenced clause has a published version",
		fmt.Sprintf("clause(s) without a published version: %s", strings.Join(closure.missing, ", "))))

	cycle := closure.graph.RequiresCycle()
	cycleOK := cycle == nil
	gates = append(gates, gateResult(GateRuleCycles, cycleOK, SeverityError,
		"no circular requirements",
		fmt.Sprintf("unresolved circular requirement: %s", rulegraph.FormatCycle(cycle, closure.labels))))

	coverageOK := len(closure.uncovered) == 0
	gates = append(gates, gateResult(GateRuleCoverage, coverageOK, SeverityWarning,
		"all referenced clauses carry rules",
		fmt.Sprintf("clause(s) with no rules, flagged for editorial review: %s", strings.Join(closure.uncovered, ", "))))

	return buildReport(gates), nil
}

type closureResult struct {
	graph      *rulegraph.Graph
	labels     map[rulegraph.ClauseID]string
	required   map[uuid.UUID]bool
	unresolved map[uuid.UUID]string
	missing    []string
	uncovered  []string
}

func newClosureResult() *closureResult {
	return &closureResult{
		graph:      rulegraph.New(),
		labels:     make(map[rulegraph.ClauseID]string),
		required:   make(map[uuid.UUID]bool),
		unresolved: make(map[uuid.UUID]string),
	}
}

// finish resolves the hard misses: only clauses the closure actually
// requires must have a published version. Forbids and incompatible targets
// are walked for labels and cycle context, but an unpublished one can never
// be selected, so it does not block publication.
func (r *closureResult) finish() {
	for id, label := range r.unresolved {
		if r.required[id] {
			r.missing = append(r.missing, label)
		}
	}
	sort.Strings(r.missing)
	sort.Strings(r.uncovered)
}

// dependencyClosure walks the rule targets starting from a candidate clause
// version whose rules are not yet published.
func (v *Validator) dependencyClosure(ctx context.Context, tx *gorm.DB, tenantID, startClause uuid.UUID, startRules []types.Rule) (*closureResult, error) {
	res := newClosureResult()
	res.graph.AddRules(rulegraph.ID(startClause), startRules)
	markRequired(res.required, startRules)

	if start, err := v.clauses.GetByID(ctx, tx, tenantID, startClause); err != nil {
		return nil, err
	} else if start != nil {
		res.labels[rulegraph.ID(startClause)] = start.Key
	}

	seeds := targetsOf(startRules)
	if err := v.expand(ctx, tx, tenantID, seeds, map[uuid.UUID]bool{startClause: true}, res); err != nil {
		return nil, err
	}
	res.finish()
	return res, nil
}

// dependencyClosureFromSeeds walks from a template's slot clauses (all of
// which must be publishable) plus its template-rule targets.
func (v *Validator) dependencyClosureFromSeeds(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, slotClauses []uuid.UUID, templateRules []types.Rule) (*closureResult, error) {
	res := newClosureResult()
	for _, id := range slotClauses {
		res.required[id] = true
	}
	markRequired(res.required, templateRules)

	frontier := append([]uuid.UUID{}, slotClauses...)
	frontier = append(frontier, targetsOf(templateRules)...)
	if err := v.expand(ctx, tx, tenantID, frontier, map[uuid.UUID]bool{}, res); err != nil {
		return nil, err
	}
	res.finish()
	return res, nil
}

// expand loads each frontier clause's current published version, folds its
// rules into the graph, and follows new targets until the closure is stable.
func (v *Validator) expand(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, frontier []uuid.UUID, visited map[uuid.UUID]bool, res *closureResult) error {
	for len(frontier) > 0 {
		var batch []uuid.UUID
		for _, id := range frontier {
			if visited[id] {
				continue
			}
			visited[id] = true
			batch = append(batch, id)
		}
		frontier = nil
		if len(batch) == 0 {
			break
		}

		clauses, err := v.clauses.GetByIDs(ctx, tx, tenantID, batch)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*types.Clause, len(clauses))
		var versionIDs []uuid.UUID
		for _, c := range clauses {
			byID[c.ID] = c
			res.labels[rulegraph.ID(c.ID)] = c.Key
			if c.CurrentPublishedVersionID != nil {
				versionIDs = append(versionIDs, *c.CurrentPublishedVersionID)
			}
		}

		versions, err := v.clauseVersions.GetByIDs(ctx, tx, tenantID, versionIDs)
		if err != nil {
			return err
		}
		versionByClause := make(map[uuid.UUID]*types.ClauseVersion, len(versions))
		for _, cv := range versions {
			if cv.Status == types.StatusPublished {
				versionByClause[cv.ClauseID] = cv
			}
		}

		for _, id := range batch {
			c, ok := byID[id]
			if !ok {
				res.unresolved[id] = id.String()
				continue
			}
			cv, ok := versionByClause[id]
			if !ok {
				res.unresolved[id] = c.Key
				continue
			}
			rules, err := types.ParseRules(cv.Rules)
			if err != nil {
				return fmt.Errorf("clause version %s: %w", cv.ID, err)
			}
			if len(rules) == 0 {
				res.uncovered = append(res.uncovered, c.Key)
			}
			res.graph.AddRules(rulegraph.ID(id), rules)
			markRequired(res.required, rules)
			for _, t := range targetsOf(rules) {
				if !visited[t] {
					frontier = append(frontier, t)
				}
			}
		}
	}
	return nil
}

// markRequired adds the targets of requires rules to the hard-dependency
// set.
func markRequired(required map[uuid.UUID]bool, rules []types.Rule) {
	for _, r := range rules {
		if r.Kind == types.RuleRequires && r.TargetClauseID != nil {
			required[*r.TargetClauseID] = true
		}
	}
}

func targetsOf(rules []types.Rule) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, r := range rules {
		if r.TargetClauseID == nil {
			continue
		}
		switch r.Kind {
		case types.RuleRequires, types.RuleForbids, types.RuleIncompatible:
		default:
			continue
		}
		if seen[*r.TargetClauseID] {
			continue
		}
		seen[*r.TargetClauseID] = true
		out = append(out, *r.TargetClauseID)
	}
	return out
}

func gateResult(gate string, passed bool, severity GateSeverity, okMsg, failMsg string) GateResult {
	msg := okMsg
	if !passed {
		msg = failMsg
	}
	return GateResult{Gate: gate, Passed: passed, Severity: severity, Message: msg}
}

func buildReport(gates []GateResult) GateReport {
	report := GateReport{CanPublish: true, Gates: gates}
	for _, g := range gates {
		if !g.Passed && g.Severity == SeverityError {
			report.CanPublish = false
		}
	}
	return report
}
