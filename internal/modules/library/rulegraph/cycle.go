package rulegraph

import (
	"strings"

	"github.com/draftwell/draftwell-backend/internal/domain/library"
)

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// RequiresCycle searches the whole graph for a cycle over requires edges.
// The returned sequence is closed (first vertex repeated at the end), or nil
// when the requires subgraph is acyclic.
func (g *Graph) RequiresCycle() []ClauseID {
	color := make(map[ClauseID]int, len(g.vertices))
	for _, v := range g.Vertices() {
		if color[v] != colorWhite {
			continue
		}
		if cycle := g.requiresDFS(v, color, nil); cycle != nil {
			return cycle
		}
	}
	return nil
}

// RequiresCycleFrom searches only the requires subgraph reachable from
// start. Used by the publishing gates, which scope cycle detection to the
// candidate version's dependency closure.
func (g *Graph) RequiresCycleFrom(start ClauseID) []ClauseID {
	if !g.vertices[start] {
		return nil
	}
	color := make(map[ClauseID]int, len(g.vertices))
	return g.requiresDFS(start, color, nil)
}

// requiresDFS walks requires edges depth-first. A gray vertex reached again
// is a back-edge; the cycle is the stack suffix from that vertex, closed.
func (g *Graph) requiresDFS(v ClauseID, color map[ClauseID]int, stack []ClauseID) []ClauseID {
	color[v] = colorGray
	stack = append(stack, v)
	for _, e := range g.OutEdges(v, library.RuleRequires) {
		switch color[e.To] {
		case colorGray:
			return closeCycle(stack, e.To)
		case colorWhite:
			if cycle := g.requiresDFS(e.To, color, stack); cycle != nil {
				return cycle
			}
		}
	}
	color[v] = colorBlack
	return nil
}

func closeCycle(stack []ClauseID, at ClauseID) []ClauseID {
	for i, v := range stack {
		if v == at {
			cycle := make([]ClauseID, 0, len(stack)-i+1)
			cycle = append(cycle, stack[i:]...)
			cycle = append(cycle, at)
			return cycle
		}
	}
	return nil
}

// FormatCycle renders a cycle as "A -> B -> C -> A", substituting human
// labels where the caller has them.
func FormatCycle(cycle []ClauseID, labels map[ClauseID]string) string {
	parts := make([]string, 0, len(cycle))
	for _, v := range cycle {
		if label, ok := labels[v]; ok && label != "" {
			parts = append(parts, label)
			continue
		}
		parts = append(parts, v.String())
	}
	return strings.Join(parts, " -> ")
}
