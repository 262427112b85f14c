package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_GeneratedGraphIsClean(t *testing.T) {
	g, err := Generate(Dimensions{LengthM: 12, HeightM: 9, LiftM: 2})
	require.NoError(t, err)
	assert.Nil(t, Check(g))
}

func TestCheck_Nil(t *testing.T) {
	v := Check(nil)
	require.Len(t, v, 1)
	assert.Equal(t, "graph", v[0].Rule)
}

func TestCheck_Violations(t *testing.T) {
	g := &Graph{
		Bays:  []Bay{{Index: 0, LengthM: 2}, {Index: 2, LengthM: 0}},
		Lifts: []Lift{{Index: 0, HeightM: 2}, {Index: 1, HeightM: 2}},
		Nodes: []Node{
			{ID: "a", Kind: KindStandard},
			{ID: "a", Kind: KindStandard},
			{ID: "b", Kind: NodeKind("Plank")},
		},
		Edges: []Edge{{ID: "e", From: "a", To: "missing", Kind: EdgeLedger}},
	}

	rules := make([]string, 0)
	for _, v := range Check(g) {
		rules = append(rules, v.Rule)
	}

	assert.Equal(t, []string{
		RuleBayIndices,
		RulePositiveLength,
		RuleLiftHeights,
		RuleUniqueNodeID,
		RuleNodeKind,
		RuleEdgeEndpoints,
	}, rules)
}

func TestViolation_String(t *testing.T) {
	v := Violation{Rule: RuleEdgeEndpoints, Message: "edge x"}
	assert.Equal(t, "edge_endpoints: edge x", v.String())
}
