package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/scaffold/internal/compliance"
	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/graph"
	"github.com/roach88/scaffold/internal/loadclass"
	"github.com/roach88/scaffold/internal/revision"
	"github.com/roach88/scaffold/internal/takeoff"
)

// DefaultMaxAttempts bounds the read-compute-insert loop of Create and
// Supersede.
const DefaultMaxAttempts = 3

// Repository is the persistence collaborator. *store.Store implements it.
//
// InsertModel must insert the model and its lines atomically and must report
// a (job_id, version) collision as an error wrapping domain.ErrConflict.
// Missing records are reported as errors wrapping domain.ErrNotFound.
type Repository interface {
	ListModels(ctx context.Context, jobID string) ([]domain.Model, error)
	LatestModel(ctx context.Context, jobID string) (domain.Model, bool, error)
	GetModel(ctx context.Context, id string) (domain.Model, error)
	InsertModel(ctx context.Context, m domain.Model, lines []takeoff.Line) (domain.Model, error)
	ReplaceTakeoffLines(ctx context.Context, modelID string, lines []takeoff.Line) error
	MarkPublished(ctx context.Context, id string, at time.Time) (domain.Model, error)
	ListMaterials(ctx context.Context, modelID string) ([]domain.Material, error)
}

// Service is the model lifecycle orchestrator.
type Service struct {
	repo        Repository
	checker     compliance.Checker
	ids         IDGenerator
	clock       Clock
	logger      *slog.Logger
	maxAttempts int
}

// Option configures a Service.
type Option func(*Service)

// WithChecker sets the compliance gate consulted by Publish.
//
// Default: compliance.AlwaysPass{}
func WithChecker(c compliance.Checker) Option {
	return func(s *Service) {
		s.checker = c
	}
}

// WithIDGenerator sets the model id generator.
//
// Default: UUIDv7Generator{}
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) {
		s.ids = g
	}
}

// WithClock sets the clock used for created_at and published_at.
//
// Default: SystemClock{}
func WithClock(c Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithLogger sets the logger.
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMaxAttempts sets how many times Create and Supersede try to insert
// before giving up with ErrCodeConflict. Values below 1 are treated as 1.
//
// Default: 3 (DefaultMaxAttempts)
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		s.maxAttempts = n
	}
}

// New creates a Service over repo.
func New(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		checker:     compliance.AlwaysPass{},
		ids:         UUIDv7Generator{},
		clock:       SystemClock{},
		logger:      slog.Default(),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.checker == nil {
		s.checker = compliance.AlwaysPass{}
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = 1
	}
	return s
}

// MaxAttempts returns the configured attempt bound.
func (s *Service) MaxAttempts() int {
	return s.maxAttempts
}

// Create stores g as the next revision of jobID: "Rev A" for a job without
// models, otherwise the label following the latest model's version.
func (s *Service) Create(ctx context.Context, jobID string, g *graph.Graph, loadClass string) (domain.Model, error) {
	return s.insertNext(ctx, jobID, g, loadClass, false)
}

// Supersede is Create for a job that must already have a model. It fails with
// ErrCodeNotFound otherwise.
func (s *Service) Supersede(ctx context.Context, jobID string, g *graph.Graph, loadClass string) (domain.Model, error) {
	return s.insertNext(ctx, jobID, g, loadClass, true)
}

// Draft generates a graph from d, estimates its load class and creates it as
// the next revision of jobID.
func (s *Service) Draft(ctx context.Context, jobID string, d graph.Dimensions) (domain.Model, error) {
	g, err := graph.Generate(d)
	if err != nil {
		return domain.Model{}, invalidDimensions(jobID, err)
	}
	return s.Create(ctx, jobID, g, loadclass.Estimate(g))
}

// Revise generates a graph from d and supersedes the latest model of jobID.
func (s *Service) Revise(ctx context.Context, jobID string, d graph.Dimensions) (domain.Model, error) {
	g, err := graph.Generate(d)
	if err != nil {
		return domain.Model{}, invalidDimensions(jobID, err)
	}
	return s.Supersede(ctx, jobID, g, loadclass.Estimate(g))
}

func (s *Service) insertNext(ctx context.Context, jobID string, g *graph.Graph, loadClass string, requirePrior bool) (domain.Model, error) {
	if jobID == "" {
		return domain.Model{}, fmt.Errorf("job id is required")
	}
	if g == nil {
		return domain.Model{}, fmt.Errorf("graph is required")
	}

	// The id stays fixed across attempts; only the version is recomputed.
	id := s.ids.Generate()
	lines := takeoff.FromGraph(g)

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.Model{}, err
		}

		latest, ok, err := s.repo.LatestModel(ctx, jobID)
		if err != nil {
			return domain.Model{}, fmt.Errorf("latest model for %s: %w", jobID, err)
		}
		if !ok && requirePrior {
			return domain.Model{}, nothingToSupersede(jobID)
		}

		version := revision.Initial
		if ok {
			if revision.IsTerminal(latest.Version) {
				return domain.Model{}, revisionsExhausted(jobID, latest.Version)
			}
			version = revision.Next(latest.Version)
		}

		m, err := s.repo.InsertModel(ctx, domain.Model{
			ID:        id,
			JobID:     jobID,
			Version:   version,
			Graph:     g,
			LoadClass: loadClass,
			CreatedAt: s.clock.Now(),
		}, lines)
		if err == nil {
			s.logger.Info("scaffold model created",
				"job_id", jobID,
				"model_id", m.ID,
				"version", m.Version,
				"load_class", m.LoadClass,
				"attempt", attempt,
			)
			return m, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Model{}, fmt.Errorf("insert model for %s: %w", jobID, err)
		}

		lastErr = err
		s.logger.Warn("revision conflict",
			"job_id", jobID,
			"version", version,
			"attempt", attempt,
			"max_attempts", s.maxAttempts,
		)
	}

	return domain.Model{}, conflict(jobID, s.maxAttempts, lastErr)
}

// Publish runs the compliance gate against the stored graph of modelID and
// marks the model published. A failing check leaves the model unpublished
// and returns ErrCodeComplianceFailed with the checker's issues.
func (s *Service) Publish(ctx context.Context, modelID string) (domain.Model, error) {
	m, err := s.Get(ctx, modelID)
	if err != nil {
		return domain.Model{}, err
	}
	if m.Published {
		return m, nil
	}

	if res := s.checker.Check(m.Graph); !res.Pass {
		s.logger.Info("publication blocked",
			"model_id", modelID,
			"issues", len(res.Issues),
		)
		return domain.Model{}, complianceFailed(modelID, res.Issues)
	}

	published, err := s.repo.MarkPublished(ctx, modelID, s.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Model{}, modelNotFound(modelID, err)
		}
		return domain.Model{}, fmt.Errorf("publish %s: %w", modelID, err)
	}

	s.logger.Info("scaffold model published",
		"job_id", published.JobID,
		"model_id", published.ID,
		"version", published.Version,
	)
	return published, nil
}

// Get returns a model by id.
func (s *Service) Get(ctx context.Context, modelID string) (domain.Model, error) {
	m, err := s.repo.GetModel(ctx, modelID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Model{}, modelNotFound(modelID, err)
		}
		return domain.Model{}, fmt.Errorf("get model %s: %w", modelID, err)
	}
	return m, nil
}

// List returns every model of jobID, newest first.
func (s *Service) List(ctx context.Context, jobID string) ([]domain.Model, error) {
	models, err := s.repo.ListModels(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list models for %s: %w", jobID, err)
	}
	return models, nil
}

// Latest returns the newest model of jobID. The boolean is false when the
// job has none.
func (s *Service) Latest(ctx context.Context, jobID string) (domain.Model, bool, error) {
	m, ok, err := s.repo.LatestModel(ctx, jobID)
	if err != nil {
		return domain.Model{}, false, fmt.Errorf("latest model for %s: %w", jobID, err)
	}
	return m, ok, nil
}

// Materials returns the stored takeoff of modelID in takeoff order.
func (s *Service) Materials(ctx context.Context, modelID string) ([]domain.Material, error) {
	if _, err := s.Get(ctx, modelID); err != nil {
		return nil, err
	}
	materials, err := s.repo.ListMaterials(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("materials for %s: %w", modelID, err)
	}
	return materials, nil
}

// Retakeoff recomputes the takeoff of a stored model from its graph and fully
// replaces the persisted lines.
func (s *Service) Retakeoff(ctx context.Context, modelID string) ([]takeoff.Line, error) {
	m, err := s.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}

	lines := takeoff.FromGraph(m.Graph)
	if err := s.repo.ReplaceTakeoffLines(ctx, modelID, lines); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, modelNotFound(modelID, err)
		}
		return nil, fmt.Errorf("retakeoff %s: %w", modelID, err)
	}

	s.logger.Info("takeoff replaced", "model_id", modelID, "lines", len(lines))
	return lines, nil
}
