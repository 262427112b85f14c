package graph

import (
	"errors"
	"fmt"
	"math"
)

// DefaultBayLengthM is used when Dimensions.BayLengthM is omitted (zero).
const DefaultBayLengthM = 2.0

// Upper bounds on the derived counts. Larger requests are rejected before
// anything is allocated.
const (
	MaxBays  = 10_000
	MaxLifts = 10_000
)

// spanTolerance absorbs binary rounding in extent/unit quotients, so that
// 8.4/1.2 counts as exactly 7 spans rather than 7.000000000000001.
const spanTolerance = 1e-9

// ErrInvalidDimensions is matched (errors.Is) by every DimensionError.
var ErrInvalidDimensions = errors.New("invalid dimensions")

// DimensionError reports a dimension that is missing, non-positive, not
// finite, or that would need more than Limit bays or lifts.
type DimensionError struct {
	Field string
	Value float64
	Limit int // set when the derived count exceeds MaxBays or MaxLifts
}

func (e *DimensionError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("invalid dimensions: %s %v needs more than %d spans", e.Field, e.Value, e.Limit)
	}
	return fmt.Sprintf("invalid dimensions: %s must be a positive number, got %v", e.Field, e.Value)
}

// Is makes errors.Is(err, ErrInvalidDimensions) true.
func (e *DimensionError) Is(target error) bool {
	return target == ErrInvalidDimensions
}

// Dimensions are the coarse building measurements a graph is generated from.
// A zero BayLengthM means "not supplied" and resolves to DefaultBayLengthM.
type Dimensions struct {
	LengthM    float64 `json:"length_m" yaml:"length_m"`
	HeightM    float64 `json:"height_m" yaml:"height_m"`
	LiftM      float64 `json:"lift_m" yaml:"lift_m"`
	BayLengthM float64 `json:"bay_length_m,omitempty" yaml:"bay_length_m,omitempty"`
}

// WithDefaults returns d with an omitted bay length replaced by the default.
func (d Dimensions) WithDefaults() Dimensions {
	if d.BayLengthM == 0 {
		d.BayLengthM = DefaultBayLengthM
	}
	return d
}

// Validate checks every dimension after defaults are applied.
func (d Dimensions) Validate() error {
	d = d.WithDefaults()
	fields := []struct {
		name  string
		value float64
	}{
		{"length_m", d.LengthM},
		{"height_m", d.HeightM},
		{"lift_m", d.LiftM},
		{"bay_length_m", d.BayLengthM},
	}
	for _, f := range fields {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return &DimensionError{Field: f.name, Value: f.value}
		}
	}

	if spans(d.LengthM, d.BayLengthM) > MaxBays {
		return &DimensionError{Field: "length_m", Value: d.LengthM, Limit: MaxBays}
	}
	if spans(d.HeightM, d.LiftM) > MaxLifts {
		return &DimensionError{Field: "height_m", Value: d.HeightM, Limit: MaxLifts}
	}
	return nil
}

// spans returns ceil(extent/unit), treating quotients within spanTolerance
// of an integer as that integer. The result stays a float so callers can
// bound it before converting.
func spans(extent, unit float64) float64 {
	q := extent / unit
	if r := math.Round(q); math.Abs(q-r) < spanTolerance {
		q = r
	}
	return math.Ceil(q)
}

// Generate builds the primary scaffold structure for d.
//
// Bays and lifts are sized by ceiling division (within spanTolerance of an
// integer quotient, the integer is used); the final bay and lift are
// clipped to the requested extent, falling back to the nominal size when the
// clipped value is zero. One BasePlate per bay and one Standard per
// (bay, lift) cell are emitted, joined by one vertical chain per bay and a
// Ledger edge between horizontally adjacent standards on every lift.
func Generate(d Dimensions) (*Graph, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	d = d.WithDefaults()

	bayCount := max(1, int(spans(d.LengthM, d.BayLengthM)))
	liftCount := max(1, int(spans(d.HeightM, d.LiftM)))

	bays := make([]Bay, 0, bayCount)
	for i := 0; i < bayCount; i++ {
		length := d.BayLengthM
		if i == bayCount-1 {
			remaining := math.Max(d.LengthM-float64(i)*d.BayLengthM, 0)
			length = math.Min(remaining, d.BayLengthM)
			if length == 0 {
				length = d.BayLengthM
			}
		}
		bays = append(bays, Bay{Index: i, LengthM: length})
	}

	lifts := make([]Lift, 0, liftCount)
	for i := 0; i < liftCount; i++ {
		nominalTop := float64(i+1) * d.LiftM
		height := nominalTop
		if i == liftCount-1 {
			height = math.Min(d.HeightM, nominalTop)
			if height == 0 {
				height = nominalTop
			}
		}
		lifts = append(lifts, Lift{Index: i, HeightM: height})
	}

	nodes := make([]Node, 0, bayCount*(liftCount+1))
	edges := make([]Edge, 0, bayCount*liftCount+(bayCount-1)*liftCount)

	for _, bay := range bays {
		base := BasePlateID(bay.Index)
		nodes = append(nodes, Node{ID: base, Kind: KindBasePlate, BayIndex: bay.Index, LiftIndex: 0})

		for _, lift := range lifts {
			std := StandardID(bay.Index, lift.Index)
			nodes = append(nodes, Node{ID: std, Kind: KindStandard, BayIndex: bay.Index, LiftIndex: lift.Index})

			if lift.Index == 0 {
				edges = append(edges, Edge{
					ID:   fmt.Sprintf("edge_vertical_%d_base_to_0", bay.Index),
					From: base,
					To:   std,
					Kind: EdgeVertical,
				})
				continue
			}
			edges = append(edges, Edge{
				ID:   fmt.Sprintf("edge_vertical_%d_%d_to_%d", bay.Index, lift.Index-1, lift.Index),
				From: StandardID(bay.Index, lift.Index-1),
				To:   std,
				Kind: EdgeVertical,
			})
		}
	}

	for _, lift := range lifts {
		for b := 0; b < bayCount-1; b++ {
			edges = append(edges, Edge{
				ID:   fmt.Sprintf("edge_ledger_%d_to_%d_lift_%d", b, b+1, lift.Index),
				From: StandardID(b, lift.Index),
				To:   StandardID(b+1, lift.Index),
				Kind: EdgeLedger,
			})
		}
	}

	return &Graph{
		Bays:  bays,
		Lifts: lifts,
		Nodes: nodes,
		Edges: edges,
		Meta: Meta{
			Version: GraphVersion,
			Params: &Params{
				LengthM:    d.LengthM,
				HeightM:    d.HeightM,
				LiftM:      d.LiftM,
				BayLengthM: d.BayLengthM,
			},
		},
	}, nil
}

// BasePlateID returns the id of the base plate under a bay.
func BasePlateID(bay int) string {
	return fmt.Sprintf("baseplate_%d_0", bay)
}

// StandardID returns the id of the standard in a (bay, lift) cell.
func StandardID(bay, lift int) string {
	return fmt.Sprintf("standard_%d_%d", bay, lift)
}
