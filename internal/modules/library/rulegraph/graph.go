package rulegraph

import (
	"sort"

	"github.com/google/uuid"

	"github.com/draftwell/draftwell-backend/internal/domain/library"
)

// ClauseID is the graph's vertex identifier. It is a distinct type so a
// template slot id or version id can never be fed into the graph without an
// explicit conversion at the boundary.
type ClauseID uuid.UUID

func ID(u uuid.UUID) ClauseID { return ClauseID(u) }

func (id ClauseID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id ClauseID) String() string { return uuid.UUID(id).String() }

// Edge is one directed constraint between two clauses, typed by rule kind.
// Only the kinds that carry a target clause produce edges; scoped_to and
// requires_answer rules are conditions, not graph structure.
type Edge struct {
	From     ClauseID
	To       ClauseID
	Kind     library.RuleKind
	RuleID   string
	Severity library.Severity
	Message  string
}

// Graph holds the constraint graph for one tenant's rule sets under
// evaluation. It is built fresh per evaluation and never shared.
type Graph struct {
	vertices map[ClauseID]bool
	edges    map[ClauseID][]Edge
}

func New() *Graph {
	return &Graph{
		vertices: make(map[ClauseID]bool),
		edges:    make(map[ClauseID][]Edge),
	}
}

func (g *Graph) AddVertex(id ClauseID) {
	g.vertices[id] = true
}

// AddRules registers owner and the edges induced by its target-carrying
// rules. Rules without a target clause add no edges.
func (g *Graph) AddRules(owner ClauseID, rules []library.Rule) {
	g.AddVertex(owner)
	for _, r := range rules {
		if r.TargetClauseID == nil {
			continue
		}
		switch r.Kind {
		case library.RuleRequires, library.RuleForbids, library.RuleIncompatible:
		default:
			continue
		}
		to := ID(*r.TargetClauseID)
		g.AddVertex(to)
		g.edges[owner] = append(g.edges[owner], Edge{
			From:     owner,
			To:       to,
			Kind:     r.Kind,
			RuleID:   r.ID,
			Severity: r.Severity,
			Message:  r.Message,
		})
	}
}

func (g *Graph) HasVertex(id ClauseID) bool { return g.vertices[id] }

// Vertices returns all vertices in lexicographic order, so traversals are
// deterministic regardless of insertion order.
func (g *Graph) Vertices() []ClauseID {
	out := make([]ClauseID, 0, len(g.vertices))
	for v := range g.vertices {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// OutEdges returns owner's edges, optionally filtered by kind, ordered by
// target id then rule id.
func (g *Graph) OutEdges(owner ClauseID, kind library.RuleKind) []Edge {
	var out []Edge
	for _, e := range g.edges[owner] {
		if kind != "" && e.Kind != kind {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].To != out[j].To {
			return out[i].To.String() < out[j].To.String()
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}
