package rulegraph

import (
	"testing"

	"github.com/google/uuid"

	"github.com/draftwell/draftwell-backend/internal/domain/library"
)

func requiresRule(target uuid.UUID) library.Rule {
	return library.Rule{
		ID:             uuid.New().String(),
		Kind:           library.RuleRequires,
		Severity:       library.SeverityHard,
		TargetClauseID: &target,
	}
}

func forbidsRule(target uuid.UUID) library.Rule {
	return library.Rule{
		ID:             uuid.New().String(),
		Kind:           library.RuleForbids,
		Severity:       library.SeverityHard,
		TargetClauseID: &target,
	}
}

func TestRequiresCycleDetectsTriangle(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	g := New()
	g.AddRules(ID(a), []library.Rule{requiresRule(b)})
	g.AddRules(ID(b), []library.Rule{requiresRule(c)})
	g.AddRules(ID(c), []library.Rule{requiresRule(a)})

	cycle := g.RequiresCycle()
	if cycle == nil {
		t.Fatal("expected a cycle")
	}
	if len(cycle) != 4 {
		t.Fatalf("expected closed 3-cycle (4 entries), got %v", cycle)
	}
	if cycle[0] != cycle[len(cycle)-1] {
		t.Fatalf("cycle not closed: %v", cycle)
	}
	seen := map[ClauseID]bool{}
	for _, v := range cycle[:len(cycle)-1] {
		seen[v] = true
	}
	for _, id := range []uuid.UUID{a, b, c} {
		if !seen[ID(id)] {
			t.Fatalf("cycle missing %s: %v", id, cycle)
		}
	}
}

func TestRequiresCycleIgnoresOtherKinds(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	// Mutual forbids is legal; only requires edges form cycles.
	g := New()
	g.AddRules(ID(a), []library.Rule{forbidsRule(b)})
	g.AddRules(ID(b), []library.Rule{forbidsRule(a)})

	if cycle := g.RequiresCycle(); cycle != nil {
		t.Fatalf("forbids edges must not form a cycle, got %v", cycle)
	}
}

func TestRequiresCycleSelfLoop(t *testing.T) {
	a := uuid.New()
	g := New()
	g.AddRules(ID(a), []library.Rule{requiresRule(a)})

	cycle := g.RequiresCycleFrom(ID(a))
	if cycle == nil {
		t.Fatal("self-requires must be a cycle")
	}
	if len(cycle) != 2 || cycle[0] != ID(a) || cycle[1] != ID(a) {
		t.Fatalf("expected [a a], got %v", cycle)
	}
}

func TestRequiresCycleFromScopesToReachable(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	x, y := uuid.New(), uuid.New()

	// a -> b is acyclic; x <-> y cycles but is unreachable from a.
	g := New()
	g.AddRules(ID(a), []library.Rule{requiresRule(b)})
	g.AddRules(ID(x), []library.Rule{requiresRule(y)})
	g.AddRules(ID(y), []library.Rule{requiresRule(x)})

	if cycle := g.RequiresCycleFrom(ID(a)); cycle != nil {
		t.Fatalf("no cycle reachable from a, got %v", cycle)
	}
	if cycle := g.RequiresCycleFrom(ID(x)); cycle == nil {
		t.Fatal("expected cycle reachable from x")
	}
	if cycle := g.RequiresCycle(); cycle == nil {
		t.Fatal("whole-graph scan should still find the x/y cycle")
	}
}

func TestRequiresCycleDiamondIsAcyclic(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	g := New()
	g.AddRules(ID(a), []library.Rule{requiresRule(b), requiresRule(c)})
	g.AddRules(ID(b), []library.Rule{requiresRule(d)})
	g.AddRules(ID(c), []library.Rule{requiresRule(d)})

	if cycle := g.RequiresCycle(); cycle != nil {
		t.Fatalf("diamond is acyclic, got %v", cycle)
	}
}

func TestFormatCycle(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	cycle := []ClauseID{ID(a), ID(b), ID(a)}
	labels := map[ClauseID]string{ID(a): "Indemnity", ID(b): "Liability-Cap"}

	got := FormatCycle(cycle, labels)
	want := "Indemnity -> Liability-Cap -> Indemnity"
	if got != want {
		t.Fatalf("FormatCycle=%q, want %q", got, want)
	}

	// Unlabeled vertices fall back to the raw id.
	got = FormatCycle(cycle, map[ClauseID]string{ID(a): "Indemnity"})
	want = "Indemnity -> " + b.String() + " -> Indemnity"
	if got != want {
		t.Fatalf("FormatCycle=%q, want %q", got, want)
	}
}
