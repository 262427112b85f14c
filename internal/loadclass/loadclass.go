// Package loadclass rates a scaffold graph with a coarse load class label.
package loadclass

import "github.com/roach88/scaffold/internal/graph"

// Labels returned by Estimate.
const (
	Class3 = "Class 3"
	Class4 = "Class 4"
	Class5 = "Class 5"
)

// Thresholds used by Estimate.
const (
	Class3MaxHeightM = 10.0
	Class3MaxBays    = 8
	Class4MaxHeightM = 20.0
)

// Estimate returns the load class of g. It never fails.
//
// Rules are evaluated in order and the first match wins. The Class 4 rule
// deliberately ignores the bay count, so a wide structure of modest height
// falls to Class 4 rather than Class 5.
func Estimate(g *graph.Graph) string {
	if g == nil {
		return Class3
	}
	maxHeight := g.MaxHeight()
	bays := g.BayCount()

	switch {
	case maxHeight <= Class3MaxHeightM && bays <= Class3MaxBays:
		return Class3
	case maxHeight <= Class4MaxHeightM:
		return Class4
	default:
		return Class5
	}
}
