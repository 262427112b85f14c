// Package domain holds the persisted records shared by the store, the
// lifecycle orchestrator and the outer surfaces (CLI, HTTP).
//
// This package imports only leaf packages (graph, takeoff).
package domain

import (
	"errors"
	"time"

	"github.com/roach88/scaffold/internal/graph"
)

// Sentinel errors returned (wrapped) by repositories.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint,
	// most importantly UNIQUE(job_id, version) on scaffold models.
	ErrConflict = errors.New("conflict")
)

// Model is one immutable revision of a job's scaffold design.
//
// Rows are append-only: nothing but the published flag (false → true, once)
// ever changes after insertion.
type Model struct {
	ID          string       `json:"id"`
	JobID       string       `json:"job_id"`
	Version     string       `json:"version"`
	Graph       *graph.Graph `json:"model_json"`
	GraphHash   string       `json:"graph_hash"`
	LoadClass   string       `json:"load_class"`
	Published   bool         `json:"is_published"`
	CreatedAt   time.Time    `json:"created_at"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`

	// Seq is the store's insertion order. Newest-first listings sort on it,
	// never on CreatedAt.
	Seq int64 `json:"seq"`
}

// Material is a persisted takeoff line belonging to a model.
type Material struct {
	ModelID  string `json:"scaffold_model_id"`
	Position int    `json:"position"`
	ItemCode string `json:"item_code"`
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
}

// JobStatus is the coarse state of a contract.
type JobStatus string

const (
	JobDraft    JobStatus = "draft"
	JobActive   JobStatus = "active"
	JobComplete JobStatus = "complete"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobDraft, JobActive, JobComplete:
		return true
	}
	return false
}

// Job is a scaffolding contract at one site.
type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	SiteAddress string    `json:"site_address"`
	Status      JobStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Dimensions are the building measurements recorded against a job.
type Dimensions struct {
	JobID     string    `json:"job_id"`
	Source    string    `json:"meta_source"`
	UpdatedAt time.Time `json:"updated_at"`
	graph.Dimensions
}
