package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/scaffold/internal/compliance"
	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/graph"
	"github.com/roach88/scaffold/internal/lifecycle"
	"github.com/roach88/scaffold/internal/store"
	"github.com/roach88/scaffold/internal/testutil"
)

// Harness executes one scenario against its own store.
type Harness struct {
	store    *store.Store
	models   *lifecycle.Service
	jobID    string
	defaults *graph.Dimensions
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. An error is returned
// only when the scenario cannot be set up; failed expectations and
// assertions are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	checker, err := buildChecker(scenario)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testutil.NewStepClock(testutil.Epoch, 0)
	opts := []lifecycle.Option{
		lifecycle.WithChecker(checker),
		lifecycle.WithIDGenerator(testutil.NewSequentialIDs("model")),
		lifecycle.WithClock(clock),
		lifecycle.WithLogger(logger),
	}
	if scenario.MaxAttempts > 0 {
		opts = append(opts, lifecycle.WithMaxAttempts(scenario.MaxAttempts))
	}

	h := &Harness{
		store:    st,
		models:   lifecycle.New(st, opts...),
		jobID:    scenario.JobID(),
		defaults: scenario.Dimensions,
		logger:   logger,
	}

	if err := h.setup(ctx, scenario, clock); err != nil {
		return nil, fmt.Errorf("failed to set up job: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		event, err := h.execute(ctx, step)
		event.Seq = int64(i + 1)
		result.Trace = append(result.Trace, event)
		checkStep(result, i, step, event, err)
	}

	if err := h.snapshot(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to snapshot models: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func buildChecker(s *Scenario) (compliance.Checker, error) {
	var checkers []compliance.Checker
	if s.Structural {
		checkers = append(checkers, compliance.Structural{})
	}
	if s.Rules != "" {
		rs, err := compliance.ParseRuleSet(s.Name+".cue", []byte(s.Rules))
		if err != nil {
			return nil, err
		}
		checkers = append(checkers, rs)
	}
	if len(checkers) == 0 {
		return compliance.AlwaysPass{}, nil
	}
	return compliance.Chain(checkers...), nil
}

// setup creates the job and records its dimensions.
func (h *Harness) setup(ctx context.Context, s *Scenario, clock lifecycle.Clock) error {
	job, err := h.store.CreateJob(ctx, domain.Job{
		ID:        h.jobID,
		Title:     s.Name,
		CreatedAt: clock.Now(),
	})
	if err != nil {
		return err
	}
	if s.Dimensions == nil {
		return nil
	}
	_, err = h.store.UpsertDimensions(ctx, domain.Dimensions{
		JobID:      job.ID,
		Source:     "scenario",
		UpdatedAt:  clock.Now(),
		Dimensions: *s.Dimensions,
	})
	return err
}

// execute runs one step. The returned event is filled in as far as the
// step got.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	event := TraceEvent{Op: step.Op}

	var (
		m   domain.Model
		err error
	)
	switch step.Op {
	case OpDraft, OpSupersede:
		d := step.Dimensions
		if d == nil {
			d = h.defaults
		}
		if step.Op == OpDraft {
			m, err = h.models.Draft(ctx, h.jobID, *d)
		} else {
			m, err = h.models.Revise(ctx, h.jobID, *d)
		}
	case OpPublish:
		var id string
		if id, err = h.target(ctx, step.Revision); err == nil {
			event.ModelID = id
			m, err = h.models.Publish(ctx, id)
		}
	case OpRetakeoff:
		var id string
		if id, err = h.target(ctx, step.Revision); err == nil {
			event.ModelID = id
			if _, err = h.models.Retakeoff(ctx, id); err == nil {
				m, err = h.models.Get(ctx, id)
			}
		}
	}

	if err != nil {
		event.Code = errorCode(err)
		h.logger.Info("scenario step failed", "op", step.Op, "code", event.Code, "error", err)
		return event, err
	}

	event.ModelID = m.ID
	event.Version = m.Version
	event.LoadClass = m.LoadClass
	event.Published = m.Published
	return event, nil
}

// target resolves a revision label to a model id. An empty label selects
// the latest model.
func (h *Harness) target(ctx context.Context, rev string) (string, error) {
	models, err := h.models.List(ctx, h.jobID)
	if err != nil {
		return "", err
	}
	for _, m := range models {
		if rev == "" || m.Version == rev {
			return m.ID, nil
		}
	}
	if rev == "" {
		return "", fmt.Errorf("job %s has no models: %w", h.jobID, domain.ErrNotFound)
	}
	return "", fmt.Errorf("revision %s of job %s: %w", rev, h.jobID, domain.ErrNotFound)
}

// snapshot records the job's final models, newest first.
func (h *Harness) snapshot(ctx context.Context, result *Result) error {
	models, err := h.models.List(ctx, h.jobID)
	if err != nil {
		return err
	}
	for _, m := range models {
		materials, err := h.models.Materials(ctx, m.ID)
		if err != nil {
			return err
		}
		snap := ModelSnapshot{
			ID:        m.ID,
			Version:   m.Version,
			LoadClass: m.LoadClass,
			Published: m.Published,
			Bays:      m.Graph.BayCount(),
			Lifts:     m.Graph.LiftCount(),
			Materials: make(map[string]int, len(materials)),
		}
		for _, mat := range materials {
			snap.Materials[mat.ItemCode] = mat.Qty
		}
		result.Models = append(result.Models, snap)
	}
	return nil
}

// errorCode classifies err the way the outer surfaces report it.
func errorCode(err error) string {
	if code := lifecycle.CodeOf(err); code != "" {
		return string(code)
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return string(lifecycle.ErrCodeNotFound)
	case errors.Is(err, domain.ErrConflict):
		return string(lifecycle.ErrCodeConflict)
	}
	return "ERROR"
}

// checkStep compares a step's outcome with its expect clause.
func checkStep(result *Result, index int, step Step, event TraceEvent, err error) {
	prefix := fmt.Sprintf("step %d (%s)", index+1, step.Op)
	exp := step.Expect

	if err != nil {
		if exp == nil || exp.Error == "" {
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, err))
		} else if exp.Error != event.Code {
			result.AddError(fmt.Sprintf("%s: expected error %s, got %s: %v", prefix, exp.Error, event.Code, err))
		}
		return
	}
	if exp == nil {
		return
	}

	if exp.Error != "" {
		result.AddError(fmt.Sprintf("%s: expected error %s, got success", prefix, exp.Error))
	}
	if exp.Version != "" && exp.Version != event.Version {
		result.AddError(fmt.Sprintf("%s: expected version %q, got %q", prefix, exp.Version, event.Version))
	}
	if exp.LoadClass != "" && exp.LoadClass != event.LoadClass {
		result.AddError(fmt.Sprintf("%s: expected load class %q, got %q", prefix, exp.LoadClass, event.LoadClass))
	}
	if exp.Published != nil && *exp.Published != event.Published {
		result.AddError(fmt.Sprintf("%s: expected published=%t, got %t", prefix, *exp.Published, event.Published))
	}
}
