package graph

// GraphVersion is written to Meta.Version of every generated graph.
const GraphVersion = "1.0"

// NodeKind identifies the structural member a node represents.
// The set is closed; Valid reports membership.
type NodeKind string

const (
	KindStandard     NodeKind = "Standard"
	KindLedger       NodeKind = "Ledger"
	KindTransom      NodeKind = "Transom"
	KindBasePlate    NodeKind = "BasePlate"
	KindToeBoard     NodeKind = "ToeBoard"
	KindGuardrail    NodeKind = "Guardrail"
	KindTie          NodeKind = "Tie"
	KindDiagonal     NodeKind = "Diagonal"
	KindLadderAccess NodeKind = "LadderAccess"
)

// NodeKinds lists every node kind in declaration order.
var NodeKinds = []NodeKind{
	KindStandard,
	KindLedger,
	KindTransom,
	KindBasePlate,
	KindToeBoard,
	KindGuardrail,
	KindTie,
	KindDiagonal,
	KindLadderAccess,
}

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindStandard, KindLedger, KindTransom, KindBasePlate, KindToeBoard,
		KindGuardrail, KindTie, KindDiagonal, KindLadderAccess:
		return true
	}
	return false
}

// Edge kinds produced by Generate.
const (
	EdgeVertical = "Vertical"
	EdgeLedger   = "Ledger"
)

// Bay is one horizontal span along the scaffold's length.
type Bay struct {
	Index   int     `json:"index"`
	LengthM float64 `json:"length_m"`
}

// Lift is one vertical tier. HeightM is the cumulative top elevation.
type Lift struct {
	Index   int     `json:"index"`
	HeightM float64 `json:"height_m"`
}

// Node is a structural member. Two nodes with the same ID are the same member.
type Node struct {
	ID        string   `json:"id"`
	Kind      NodeKind `json:"type"`
	BayIndex  int      `json:"bay_index"`
	LiftIndex int      `json:"lift_index"`
}

// Edge connects two nodes by id. Parallel edges of different kinds between
// the same pair are permitted.
type Edge struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// Params retains the dimensions a graph was generated from.
type Params struct {
	LengthM    float64 `json:"length_m"`
	HeightM    float64 `json:"height_m"`
	LiftM      float64 `json:"lift_m"`
	BayLengthM float64 `json:"bay_length_m"`
}

// Meta carries traceability data. It never holds a timestamp so that
// regenerated graphs stay byte-identical.
type Meta struct {
	Version string  `json:"version,omitempty"`
	Params  *Params `json:"params,omitempty"`
}

// Graph is the structural model of a scaffold.
type Graph struct {
	Bays  []Bay  `json:"bays"`
	Lifts []Lift `json:"lifts"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Meta  Meta   `json:"meta"`
}

// BayCount returns the number of bays.
func (g *Graph) BayCount() int { return len(g.Bays) }

// LiftCount returns the number of lifts.
func (g *Graph) LiftCount() int { return len(g.Lifts) }

// MaxHeight returns the greatest lift height, or 0 when there are no lifts.
func (g *Graph) MaxHeight() float64 {
	var max float64
	for _, l := range g.Lifts {
		if l.HeightM > max {
			max = l.HeightM
		}
	}
	return max
}

// TotalLength returns the sum of all bay lengths.
func (g *Graph) TotalLength() float64 {
	var total float64
	for _, b := range g.Bays {
		total += b.LengthM
	}
	return total
}

// CountKinds returns the number of nodes of each kind present in the graph.
func (g *Graph) CountKinds() map[NodeKind]int {
	counts := make(map[NodeKind]int)
	for _, n := range g.Nodes {
		counts[n.Kind]++
	}
	return counts
}
