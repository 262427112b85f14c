package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/graph"
	"github.com/roach88/scaffold/internal/lifecycle"
	"github.com/roach88/scaffold/internal/loadclass"
	"github.com/roach88/scaffold/internal/takeoff"
)

// JobStore persists jobs and their dimensions. *store.Store implements it.
type JobStore interface {
	CreateJob(ctx context.Context, j domain.Job) (domain.Job, error)
	GetJob(ctx context.Context, id string) (domain.Job, error)
	ListJobs(ctx context.Context) ([]domain.Job, error)
	UpdateJobStatus(ctx context.Context, id string, status domain.JobStatus) (domain.Job, error)
	UpsertDimensions(ctx context.Context, d domain.Dimensions) (domain.Dimensions, error)
	GetDimensions(ctx context.Context, jobID string) (domain.Dimensions, error)
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API.
type Handler struct {
	models    *lifecycle.Service
	jobs      JobStore
	ids       lifecycle.IDGenerator
	clock     lifecycle.Clock
	logger    *slog.Logger
	bayLength float64
}

// Options configures a Handler. Zero fields take defaults.
type Options struct {
	// IDs generates job ids. Default: lifecycle.UUIDv7Generator.
	IDs lifecycle.IDGenerator

	// Clock stamps jobs and dimensions. Default: lifecycle.SystemClock.
	Clock lifecycle.Clock

	// Logger receives request and failure logs. Default: slog.Default().
	Logger *slog.Logger

	// DefaultBayLengthM fills in omitted bay lengths. Default: 2.0.
	DefaultBayLengthM float64
}

// NewHandler creates a Handler over the model lifecycle and the job store.
func NewHandler(models *lifecycle.Service, jobs JobStore, opts Options) *Handler {
	h := &Handler{
		models:    models,
		jobs:      jobs,
		ids:       opts.IDs,
		clock:     opts.Clock,
		logger:    opts.Logger,
		bayLength: opts.DefaultBayLengthM,
	}
	if h.ids == nil {
		h.ids = lifecycle.UUIDv7Generator{}
	}
	if h.clock == nil {
		h.clock = lifecycle.SystemClock{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.bayLength <= 0 {
		h.bayLength = graph.DefaultBayLengthM
	}
	return h
}

func (h *Handler) withDefaults(d graph.Dimensions) graph.Dimensions {
	if d.BayLengthM == 0 {
		d.BayLengthM = h.bayLength
	}
	return d
}

// GenerateResult is the reply of POST /graphs.
type GenerateResult struct {
	Graph       *graph.Graph           `json:"graph"`
	Members     map[graph.NodeKind]int `json:"members"`
	LoadClass   string                 `json:"load_class"`
	Takeoff     []takeoff.Line         `json:"takeoff"`
	Fingerprint string                 `json:"fingerprint"`
}

// Health reports whether the database is reachable.
func (h *Handler) Health(c *gin.Context) {
	if err := h.jobs.Ping(c.Request.Context()); err != nil {
		fail(c, http.StatusServiceUnavailable, ErrorInternalError, "database unavailable", nil)
		return
	}
	ok(c, http.StatusOK, gin.H{"database": "ok"})
}

// GenerateGraph builds a graph without persisting anything.
func (h *Handler) GenerateGraph(c *gin.Context) {
	var d graph.Dimensions
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, "invalid dimensions body: "+err.Error())
		return
	}

	g, err := graph.Generate(h.withDefaults(d))
	if err != nil {
		h.respondError(c, err)
		return
	}
	fp, err := graph.Fingerprint(g)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, GenerateResult{
		Graph:       g,
		Members:     g.CountKinds(),
		LoadClass:   loadclass.Estimate(g),
		Takeoff:     takeoff.FromGraph(g),
		Fingerprint: fp,
	})
}

// CreateJobRequest is the body of POST /jobs.
type CreateJobRequest struct {
	Title       string            `json:"title"`
	SiteAddress string            `json:"site_address"`
	Dimensions  *graph.Dimensions `json:"dimensions,omitempty"`
}

// CreateJob creates a job, optionally recording its dimensions.
func (h *Handler) CreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid job body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		badRequest(c, "title is required")
		return
	}
	if req.Dimensions != nil {
		if err := h.withDefaults(*req.Dimensions).Validate(); err != nil {
			h.respondError(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	job, err := h.jobs.CreateJob(ctx, domain.Job{
		ID:          h.ids.Generate(),
		Title:       req.Title,
		SiteAddress: req.SiteAddress,
		CreatedAt:   h.clock.Now(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if req.Dimensions != nil {
		if _, err := h.jobs.UpsertDimensions(ctx, domain.Dimensions{
			JobID:      job.ID,
			UpdatedAt:  h.clock.Now(),
			Dimensions: h.withDefaults(*req.Dimensions),
		}); err != nil {
			h.respondError(c, err)
			return
		}
	}

	h.logger.Info("job created", "job_id", job.ID)
	ok(c, http.StatusCreated, job)
}

// ListJobs lists jobs newest first.
func (h *Handler) ListJobs(c *gin.Context) {
	jobs, err := h.jobs.ListJobs(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, jobs)
}

// GetJob returns one job.
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, job)
}

// UpdateJobRequest is the body of PATCH /jobs/:id.
type UpdateJobRequest struct {
	Status domain.JobStatus `json:"status"`
}

// UpdateJob changes a job's status.
func (h *Handler) UpdateJob(c *gin.Context) {
	var req UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid job body: "+err.Error())
		return
	}
	if !req.Status.Valid() {
		badRequest(c, "status must be one of draft, active, complete")
		return
	}
	job, err := h.jobs.UpdateJobStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, job)
}

// PutDimensions records a job's dimensions.
func (h *Handler) PutDimensions(c *gin.Context) {
	var req struct {
		graph.Dimensions
		Source string `json:"meta_source"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid dimensions body: "+err.Error())
		return
	}
	d, err := h.jobs.UpsertDimensions(c.Request.Context(), domain.Dimensions{
		JobID:      c.Param("id"),
		Source:     req.Source,
		UpdatedAt:  h.clock.Now(),
		Dimensions: h.withDefaults(req.Dimensions),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// GetDimensions returns a job's recorded dimensions.
func (h *Handler) GetDimensions(c *gin.Context) {
	d, err := h.jobs.GetDimensions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// ListModels lists a job's models newest first.
func (h *Handler) ListModels(c *gin.Context) {
	models, err := h.models.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, models)
}

// LatestModel returns a job's newest model.
func (h *Handler) LatestModel(c *gin.Context) {
	m, found, err := h.models.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, ErrorNotFound, "job has no models", nil)
		return
	}
	ok(c, http.StatusOK, m)
}

// DraftModel generates and stores the next revision for a job. The body
// holds dimensions; an empty body uses the job's recorded dimensions.
func (h *Handler) DraftModel(c *gin.Context) {
	h.storeRevision(c, h.models.Draft)
}

// SupersedeModel is DraftModel for a job that already has a model.
func (h *Handler) SupersedeModel(c *gin.Context) {
	h.storeRevision(c, h.models.Revise)
}

func (h *Handler) storeRevision(c *gin.Context, op func(context.Context, string, graph.Dimensions) (domain.Model, error)) {
	ctx := c.Request.Context()
	jobID := c.Param("id")

	if _, err := h.jobs.GetJob(ctx, jobID); err != nil {
		h.respondError(c, err)
		return
	}

	var d graph.Dimensions
	supplied, err := bindOptionalJSON(c, &d)
	if err != nil {
		badRequest(c, "invalid dimensions body: "+err.Error())
		return
	}
	if !supplied {
		stored, err := h.jobs.GetDimensions(ctx, jobID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		d = stored.Dimensions
	}

	m, err := op(ctx, jobID, h.withDefaults(d))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

// GetModel returns one model.
func (h *Handler) GetModel(c *gin.Context) {
	m, err := h.models.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// PublishModel runs the compliance gate and publishes a model.
func (h *Handler) PublishModel(c *gin.Context) {
	m, err := h.models.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// ListMaterials returns a model's stored takeoff.
func (h *Handler) ListMaterials(c *gin.Context) {
	materials, err := h.models.Materials(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, materials)
}

// Retakeoff recomputes a model's takeoff.
func (h *Handler) Retakeoff(c *gin.Context) {
	lines, err := h.models.Retakeoff(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, lines)
}
