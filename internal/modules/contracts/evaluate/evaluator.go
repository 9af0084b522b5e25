package evaluate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/draftwell/draftwell-backend/internal/domain/contracts"
	"github.com/draftwell/draftwell-backend/internal/domain/library"
)

// Context is the contract-level evaluation context rules may be scoped to.
type Context struct {
	Jurisdiction string
	ContractType string
}

// RuleSet is one owner's rules. Owner is the clause logical id the rules are
// attached to; a nil owner marks template-level rules, which are always in
// force regardless of the selection.
type RuleSet struct {
	Owner uuid.UUID
	Rules []library.Rule
}

type Violation struct {
	RuleID         string           `json:"rule_id"`
	ClauseID       uuid.UUID        `json:"clause_id"`
	Kind           library.RuleKind `json:"kind"`
	Severity       library.Severity `json:"severity"`
	Message        string           `json:"message"`
	TargetClauseID *uuid.UUID       `json:"target_clause_id,omitempty"`
}

type Result struct {
	State      contracts.ValidationState
	Violations []Violation
}

// ConflictError is returned when completion (or any hard gate on the
// contract path) hits hard-severity violations. It carries the full list so
// the caller can render every conflict, not just the first.
type ConflictError struct {
	Violations []Violation
}

func (e *ConflictError) Error() string {
	hard := 0
	for _, v := range e.Violations {
		if v.Severity == library.SeverityHard {
			hard++
		}
	}
	return fmt.Sprintf("%d hard rule violation(s)", hard)
}

type activeRule struct {
	owner uuid.UUID
	rule  library.Rule
}

// Evaluate runs the four-phase conflict evaluation. It is a pure function of
// its inputs: no I/O, deterministic output ordering (rule sets by owner id,
// rules in stored order, phases in fixed order), safe to re-run any number
// of times.
func Evaluate(selected []uuid.UUID, answers map[string]string, evalCtx Context, ruleSets []RuleSet) Result {
	selection := make(map[uuid.UUID]bool, len(selected))
	for _, id := range selected {
		selection[id] = true
	}

	ordered := make([]RuleSet, len(ruleSets))
	copy(ordered, ruleSets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Owner.String() < ordered[j].Owner.String()
	})

	// Only rules attached to a selected clause (or to the template itself)
	// participate at all.
	var active []activeRule
	for _, set := range ordered {
		if set.Owner != uuid.Nil && !selection[set.Owner] {
			continue
		}
		for _, r := range set.Rules {
			active = append(active, activeRule{owner: set.Owner, rule: r})
		}
	}

	var violations []Violation

	// Phase 1: scope conditions. A scoped_to rule with no matching context
	// value set is inert; a set-but-different value fires.
	for _, ar := range active {
		if ar.rule.Kind != library.RuleScopedTo {
			continue
		}
		ctxVal := ""
		switch ar.rule.ScopeKind {
		case library.ScopeJurisdiction:
			ctxVal = evalCtx.Jurisdiction
		case library.ScopeContractType:
			ctxVal = evalCtx.ContractType
		}
		if ctxVal == "" || ctxVal == ar.rule.ScopeValue {
			continue
		}
		violations = append(violations, newViolation(ar))
	}

	// Phase 2: answer conditions. An unanswered question leaves the rule
	// inert; a later answer change re-activates it on the next run.
	for _, ar := range active {
		if ar.rule.Kind != library.RuleRequiresAnswer {
			continue
		}
		ans, ok := answers[ar.rule.QuestionKey]
		if !ok || ans == "" || ans == ar.rule.ExpectedAnswer {
			continue
		}
		violations = append(violations, newViolation(ar))
	}

	// Phase 3: dependency check.
	for _, ar := range active {
		if ar.rule.Kind != library.RuleRequires {
			continue
		}
		if ar.rule.TargetClauseID != nil && !selection[*ar.rule.TargetClauseID] {
			violations = append(violations, newViolation(ar))
		}
	}

	// Phase 4: conflict check.
	for _, ar := range active {
		if ar.rule.Kind != library.RuleForbids && ar.rule.Kind != library.RuleIncompatible {
			continue
		}
		if ar.rule.TargetClauseID != nil && selection[*ar.rule.TargetClauseID] {
			violations = append(violations, newViolation(ar))
		}
	}

	return Result{State: StateOf(violations), Violations: violations}
}

func newViolation(ar activeRule) Violation {
	return Violation{
		RuleID:         ar.rule.ID,
		ClauseID:       ar.owner,
		Kind:           ar.rule.Kind,
		Severity:       ar.rule.Severity,
		Message:        ar.rule.Message,
		TargetClauseID: ar.rule.TargetClauseID,
	}
}

// StateOf aggregates violations: any hard violation wins, then soft, then
// clean.
func StateOf(violations []Violation) contracts.ValidationState {
	state := contracts.ValidationValid
	for _, v := range violations {
		if v.Severity == library.SeverityHard {
			return contracts.ValidationConflicts
		}
		state = contracts.ValidationWarnings
	}
	return state
}

// MarshalViolations encodes the cached validation report payload.
func MarshalViolations(violations []Violation) (datatypes.JSON, error) {
	if violations == nil {
		violations = []Violation{}
	}
	raw, err := json.Marshal(violations)
	if err != nil {
		return nil, fmt.Errorf("encode violations: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// ParseViolations decodes a cached validation report.
func ParseViolations(raw datatypes.JSON) ([]Violation, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var violations []Violation
	if err := json.Unmarshal(raw, &violations); err != nil {
		return nil, fmt.Errorf("decode violations: %w", err)
	}
	return violations, nil
}
