// Package graph synthesises the parametric structural graph of a scaffold.
//
// A graph is built from four coarse dimensions (length, height, lift height
// and nominal bay length) and contains bays, lifts, structural nodes and the
// edges connecting them.
//
// Key constraints:
//   - Generation is deterministic: identical dimensions yield byte-identical
//     graphs. No randomness, no wall clock in the graph body.
//   - Node and edge ids are derived from (kind, bay_index, lift_index).
//   - Only the primary structure is materialised (base plates, standards,
//     vertical and ledger edges). Guardrails, toe boards, diagonals and ties
//     are accounted for by the takeoff package alone.
//   - A Graph is a value. Nothing in this package mutates a graph after
//     Generate returns it.
//
// This package imports nothing internal.
package graph
