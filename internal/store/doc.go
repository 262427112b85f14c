// Package store provides SQLite-backed persistence for jobs, dimensions,
// scaffold models and their material takeoffs.
//
// # Guarantees
//
// Append-only models
//   - scaffold_models rows are never edited; triggers reject updates to
//     the graph, version, load class or timestamps
//   - is_published moves 0 → 1 once and a trigger rejects the reverse
//
// Revision uniqueness
//   - UNIQUE(job_id, version) is the arbiter for concurrent revision
//     assignment. A violation surfaces as domain.ErrConflict so callers can
//     re-read and retry
//
// Logical ordering
//   - Newest-first listings use the seq INTEGER column, never timestamps
//
// Graph integrity
//   - graph_hash stores graph.Fingerprint of model_json; reads recompute it
//     and fail with ErrCorrupt on mismatch
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
