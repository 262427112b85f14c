package graph

import "fmt"

// Violation describes one broken structural invariant.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

// Invariant rule names reported by Check.
const (
	RuleUniqueNodeID   = "unique_node_id"
	RuleEdgeEndpoints  = "edge_endpoints"
	RuleBayIndices     = "bay_indices"
	RuleLiftIndices    = "lift_indices"
	RuleLiftHeights    = "lift_heights"
	RuleNodeKind       = "node_kind"
	RulePositiveLength = "positive_length"
)

// Check verifies the structural invariants of g and returns every violation
// found, in a stable order. A nil result means the graph is well formed.
func Check(g *Graph) []Violation {
	if g == nil {
		return []Violation{{Rule: "graph", Message: "graph is nil"}}
	}

	var out []Violation

	for i, b := range g.Bays {
		if b.Index != i {
			out = append(out, Violation{RuleBayIndices, fmt.Sprintf("bay at position %d has index %d", i, b.Index)})
		}
		if !(b.LengthM > 0) {
			out = append(out, Violation{RulePositiveLength, fmt.Sprintf("bay %d has length %v", b.Index, b.LengthM)})
		}
	}

	var prev float64
	for i, l := range g.Lifts {
		if l.Index != i {
			out = append(out, Violation{RuleLiftIndices, fmt.Sprintf("lift at position %d has index %d", i, l.Index)})
		}
		if !(l.HeightM > prev) {
			out = append(out, Violation{RuleLiftHeights, fmt.Sprintf("lift %d height %v does not exceed %v", l.Index, l.HeightM, prev)})
		}
		prev = l.HeightM
	}

	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := ids[n.ID]; dup {
			out = append(out, Violation{RuleUniqueNodeID, fmt.Sprintf("node id %q appears more than once", n.ID)})
		}
		ids[n.ID] = struct{}{}
		if !n.Kind.Valid() {
			out = append(out, Violation{RuleNodeKind, fmt.Sprintf("node %q has unknown kind %q", n.ID, n.Kind)})
		}
	}

	for _, e := range g.Edges {
		if _, ok := ids[e.From]; !ok {
			out = append(out, Violation{RuleEdgeEndpoints, fmt.Sprintf("edge %q references missing node %q", e.ID, e.From)})
		}
		if _, ok := ids[e.To]; !ok {
			out = append(out, Violation{RuleEdgeEndpoints, fmt.Sprintf("edge %q references missing node %q", e.ID, e.To)})
		}
	}

	return out
}
