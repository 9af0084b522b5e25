package library

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRuleValidate(t *testing.T) {
	target := uuid.New()
	cases := []struct {
		name    string
		rule    Rule
		wantErr string
	}{
		{
			name: "requires_ok",
			rule: Rule{ID: "r1", Kind: RuleRequires, Severity: SeverityHard, TargetClauseID: &target},
		},
		{
			name:    "requires_missing_target",
			rule:    Rule{ID: "r2", Kind: RuleRequires, Severity: SeverityHard},
			wantErr: "target_clause_id",
		},
		{
			name: "scoped_to_ok",
			rule: Rule{ID: "r3", Kind: RuleScopedTo, Severity: SeveritySoft, ScopeKind: ScopeJurisdiction, ScopeValue: "DE"},
		},
		{
			name:    "scoped_to_bad_scope_kind",
			rule:    Rule{ID: "r4", Kind: RuleScopedTo, Severity: SeveritySoft, ScopeKind: "region", ScopeValue: "DE"},
			wantErr: "scope_kind",
		},
		{
			name:    "scoped_to_missing_value",
			rule:    Rule{ID: "r5", Kind: RuleScopedTo, Severity: SeveritySoft, ScopeKind: ScopeContractType},
			wantErr: "scope_value",
		},
		{
			name: "requires_answer_ok",
			rule: Rule{ID: "r6", Kind: RuleRequiresAnswer, Severity: SeverityHard, QuestionKey: "dataProcessing", ExpectedAnswer: "yes"},
		},
		{
			name:    "requires_answer_missing_question",
			rule:    Rule{ID: "r7", Kind: RuleRequiresAnswer, Severity: SeverityHard, ExpectedAnswer: "yes"},
			wantErr: "question_key",
		},
		{
			name:    "unknown_kind",
			rule:    Rule{ID: "r8", Kind: "excludes", Severity: SeverityHard, TargetClauseID: &target},
			wantErr: "unknown kind",
		},
		{
			name:    "unknown_severity",
			rule:    Rule{ID: "r9", Kind: RuleForbids, Severity: "fatal", TargetClauseID: &target},
			wantErr: "severity",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate()=%v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate()=%v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestNormalizeRulesAssignsIDs(t *testing.T) {
	target := uuid.New()
	raw, err := NormalizeRules([]Rule{
		{Kind: RuleForbids, Severity: SeverityHard, TargetClauseID: &target},
	})
	if err != nil {
		t.Fatalf("NormalizeRules failed: %v", err)
	}
	rules, err := ParseRules(raw)
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].ID == "" {
		t.Fatal("expected an assigned rule id")
	}
	if rules[0].TargetClauseID == nil || *rules[0].TargetClauseID != target {
		t.Fatalf("target lost in round trip: %+v", rules[0])
	}
}

func TestNormalizeRulesEmpty(t *testing.T) {
	raw, err := NormalizeRules(nil)
	if err != nil {
		t.Fatalf("NormalizeRules(nil) failed: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("expected empty array payload, got %s", raw)
	}
}

func TestParseRulesRejectsInvalid(t *testing.T) {
	raw := []byte(`[{"id":"x","kind":"requires","severity":"hard"}]`)
	if _, err := ParseRules(raw); err == nil {
		t.Fatal("expected validation error for requires without target")
	}
}

func TestParseRulesEmptyPayload(t *testing.T) {
	rules, err := ParseRules(nil)
	if err != nil {
		t.Fatalf("ParseRules(nil) failed: %v", err)
	}
	if len(rules) != 0 {
		t.Fatalf("expected no rules, got %v", rules)
	}
}
