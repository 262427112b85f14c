// Package lifecycle orchestrates scaffold models for a job: it generates
// graphs, assigns revision labels, persists models with their takeoff and
// gates publication on a compliance check.
//
// # Revision assignment
//
// Create and Supersede read the latest model, compute the next label and
// insert against the repository's UNIQUE(job_id, version) constraint. A
// uniqueness violation (domain.ErrConflict) restarts that sequence, up to
// MaxAttempts times, after which the operation fails with ErrCodeConflict.
// Two concurrent creates for one job therefore end with two distinct,
// strictly ordered labels, or with one of them reporting a conflict.
//
// A job whose latest model is "Rev Z" fails immediately with
// ErrCodeRevisionsExhausted; retrying cannot produce a new label.
//
// # Publication
//
// Draft → Published is one-way. Publish runs the configured
// compliance.Checker against the stored graph and only then flips the flag.
// Publishing an already-published model returns it unchanged.
//
// Thread-safety: Service holds no mutable state of its own and is safe for
// concurrent use when its Repository is.
package lifecycle
