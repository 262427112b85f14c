// Package takeoff derives the bill of materials for a scaffold graph.
//
// Quantities come from closed-form rules over the bay and lift counts, not
// from counting graph edges. The 2x multipliers model the front and back
// faces of the scaffold.
package takeoff

import "github.com/roach88/scaffold/internal/graph"

// Item codes in emission order.
const (
	CodeStandard  = "STD"
	CodeLedger    = "LDG"
	CodeTransom   = "TRS"
	CodeBaseplate = "BSP"
	CodeGuardrail = "GRD"
	CodeToeboard  = "TOE"
	CodeDiagonal  = "DIA"
	CodeTie       = "TIE"
)

// Bracing intervals in bays.
const (
	DiagonalEveryBays = 5
	TieEveryBays      = 4
)

// Line is one material quantity.
type Line struct {
	ItemCode string `json:"item_code"`
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
}

// FromGraph returns the material lines for g in a fixed item-code order.
// An empty, non-nil slice is returned when g has no bays or no lifts.
func FromGraph(g *graph.Graph) []Line {
	if g == nil {
		return []Line{}
	}
	return FromCounts(g.BayCount(), g.LiftCount())
}

// FromCounts applies the takeoff rules to explicit bay and lift counts.
func FromCounts(bays, lifts int) []Line {
	if bays <= 0 || lifts <= 0 {
		return []Line{}
	}

	cells := 2 * bays * lifts
	return []Line{
		{ItemCode: CodeStandard, Name: "Standard", Qty: cells},
		{ItemCode: CodeLedger, Name: "Ledger", Qty: cells},
		{ItemCode: CodeTransom, Name: "Transom", Qty: cells},
		{ItemCode: CodeBaseplate, Name: "Baseplate", Qty: 2 * bays},
		// Guardrails and toe boards sit on the top lift only.
		{ItemCode: CodeGuardrail, Name: "Guardrail", Qty: 2 * bays},
		{ItemCode: CodeToeboard, Name: "Toeboard", Qty: 2 * bays},
		{ItemCode: CodeDiagonal, Name: "Diagonal", Qty: ceilDiv(bays, DiagonalEveryBays) * lifts},
		{ItemCode: CodeTie, Name: "Tie", Qty: ceilDiv(bays, TieEveryBays) * lifts},
	}
}

// Lookup returns the line with the given item code.
func Lookup(lines []Line, code string) (Line, bool) {
	for _, l := range lines {
		if l.ItemCode == code {
			return l, true
		}
	}
	return Line{}, false
}

// Total returns the sum of all quantities.
func Total(lines []Line) int {
	var n int
	for _, l := range lines {
		n += l.Qty
	}
	return n
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
