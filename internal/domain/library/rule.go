package library

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RuleKind is the closed set of constraint kinds. Rules are stored as a
// jsonb array inside a version row and parsed exactly once at the storage
// boundary; internal code only ever sees the typed form.
type RuleKind string

const (
	RuleRequires       RuleKind = "requires"
	RuleForbids        RuleKind = "forbids"
	RuleIncompatible   RuleKind = "incompatible_with"
	RuleScopedTo       RuleKind = "scoped_to"
	RuleRequiresAnswer RuleKind = "requires_answer"
)

type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

type ScopeKind string

const (
	ScopeJurisdiction ScopeKind = "jurisdiction"
	ScopeContractType ScopeKind = "contract_type"
)

// Rule is the tagged union. Kind decides which optional fields are set:
// requires/forbids/incompatible_with carry TargetClauseID, scoped_to carries
// ScopeKind+ScopeValue, requires_answer carries QuestionKey+ExpectedAnswer.
type Rule struct {
	ID             string     `json:"id"`
	Kind           RuleKind   `json:"kind"`
	Severity       Severity   `json:"severity"`
	Message        string     `json:"message"`
	TargetClauseID *uuid.UUID `json:"target_clause_id,omitempty"`
	ScopeKind      ScopeKind  `json:"scope_kind,omitempty"`
	ScopeValue     string     `json:"scope_value,omitempty"`
	QuestionKey    string     `json:"question_key,omitempty"`
	ExpectedAnswer string     `json:"expected_answer,omitempty"`
}

func (r Rule) Validate() error {
	switch r.Severity {
	case SeverityHard, SeveritySoft:
	default:
		return fmt.Errorf("rule %s: unknown severity %q", r.ID, r.Severity)
	}
	switch r.Kind {
	case RuleRequires, RuleForbids, RuleIncompatible:
		if r.TargetClauseID == nil || *r.TargetClauseID == uuid.Nil {
			return fmt.Errorf("rule %s: kind %s requires target_clause_id", r.ID, r.Kind)
		}
	case RuleScopedTo:
		if r.ScopeKind != ScopeJurisdiction && r.ScopeKind != ScopeContractType {
			return fmt.Errorf("rule %s: unknown scope_kind %q", r.ID, r.ScopeKind)
		}
		if r.ScopeValue == "" {
			return fmt.Errorf("rule %s: scoped_to requires scope_value", r.ID)
		}
	case RuleRequiresAnswer:
		if r.QuestionKey == "" {
			return fmt.Errorf("rule %s: requires_answer requires question_key", r.ID)
		}
		if r.ExpectedAnswer == "" {
			return fmt.Errorf("rule %s: requires_answer requires expected_answer", r.ID)
		}
	default:
		return fmt.Errorf("rule %s: unknown kind %q", r.ID, r.Kind)
	}
	return nil
}

// ParseRules decodes and validates a stored rule array. A missing or empty
// payload yields an empty slice.
func ParseRules(raw datatypes.JSON) ([]Rule, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rules []Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// NormalizeRules validates rules on the write path and assigns ids to any
// rule that arrived without one. Returns the canonical jsonb payload.
func NormalizeRules(rules []Rule) (datatypes.JSON, error) {
	for i := range rules {
		if rules[i].ID == "" {
			rules[i].ID = uuid.New().String()
		}
		if err := rules[i].Validate(); err != nil {
			return nil, err
		}
	}
	if len(rules) == 0 {
		return datatypes.JSON([]byte("[]")), nil
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	return datatypes.JSON(raw), nil
}
