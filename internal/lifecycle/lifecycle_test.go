package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scaffold/internal/compliance"
	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/graph"
	"github.com/roach88/scaffold/internal/revision"
	"github.com/roach88/scaffold/internal/store"
	"github.com/roach88/scaffold/internal/takeoff"
	"github.com/roach88/scaffold/internal/testutil"
)

var testDims = graph.Dimensions{LengthM: 10, HeightM: 6, LiftM: 2}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "lifecycle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newService(t *testing.T, repo Repository, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithIDGenerator(testutil.NewSequentialIDs("model")),
		WithClock(testutil.NewStepClock(time.Time{}, time.Second)),
		WithLogger(quietLogger()),
	}
	return New(repo, append(base, opts...)...)
}

func mustGenerate(t *testing.T, d graph.Dimensions) *graph.Graph {
	t.Helper()
	g, err := graph.Generate(d)
	require.NoError(t, err)
	return g
}

// countingRepo counts InsertModel calls.
type countingRepo struct {
	Repository
	inserts atomic.Int32
}

func (r *countingRepo) InsertModel(ctx context.Context, m domain.Model, lines []takeoff.Line) (domain.Model, error) {
	r.inserts.Add(1)
	return r.Repository.InsertModel(ctx, m, lines)
}

// racingRepo lets a competing writer take the computed version right before
// each of the first `races` inserts, as a concurrent create would.
type racingRepo struct {
	*store.Store
	races   int
	inserts int
}

func (r *racingRepo) InsertModel(ctx context.Context, m domain.Model, lines []takeoff.Line) (domain.Model, error) {
	r.inserts++
	if r.inserts <= r.races {
		rival := m
		rival.ID = fmt.Sprintf("rival-%d", r.inserts)
		if _, err := r.Store.InsertModel(ctx, rival, lines); err != nil {
			return domain.Model{}, err
		}
	}
	return r.Store.InsertModel(ctx, m, lines)
}

// conflictRepo rejects every insert with a conflict.
type conflictRepo struct {
	*store.Store
	inserts int
}

func (r *conflictRepo) InsertModel(ctx context.Context, m domain.Model, lines []takeoff.Line) (domain.Model, error) {
	r.inserts++
	return domain.Model{}, fmt.Errorf("insert: %w", domain.ErrConflict)
}

func TestCreate_FirstModelIsRevA(t *testing.T) {
	s := openStore(t)
	svc := newService(t, s)
	ctx := context.Background()

	g := mustGenerate(t, testDims)
	m, err := svc.Create(ctx, "job-1", g, "Class 3")
	require.NoError(t, err)

	assert.Equal(t, "model-0001", m.ID)
	assert.Equal(t, "job-1", m.JobID)
	assert.Equal(t, revision.Initial, m.Version)
	assert.Equal(t, "Class 3", m.LoadClass)
	assert.False(t, m.Published)
	assert.Equal(t, testutil.Epoch, m.CreatedAt)

	materials, err := svc.Materials(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, materials, len(takeoff.FromGraph(g)))
}

func TestCreate_AssignsIncreasingRevisions(t *testing.T) {
	s := openStore(t)
	svc := newService(t, s)
	ctx := context.Background()

	g := mustGenerate(t, testDims)
	var versions []string
	for i := 0; i < 4; i++ {
		m, err := svc.Create(ctx, "job-1", g, "Class 3")
		require.NoError(t, err)
		versions = append(versions, m.Version)
	}
	assert.Equal(t, []string{"Rev A", "Rev B", "Rev C", "Rev D"}, versions)

	// Other jobs have their own sequence.
	m, err := svc.Create(ctx, "job-2", g, "Class 3")
	require.NoError(t, err)
	assert.Equal(t, "Rev A", m.Version)

	models, err := svc.List(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, models, 4)
	assert.Equal(t, "Rev D", models[0].Version)
	assert.Equal(t, "Rev A", models[3].Version)

	latest, ok, err := svc.Latest(ctx, "job-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Rev D", latest.Version)
}

func TestCreate_RequiresJobAndGraph(t *testing.T) {
	svc := newService(t, openStore(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, "", mustGenerate(t, testDims), "Class 3")
	assert.Error(t, err)

	_, err = svc.Create(ctx, "job-1", nil, "Class 3")
	assert.Error(t, err)
}

func TestSupersede_WithoutPriorModelIsNotFound(t *testing.T) {
	repo := &countingRepo{Repository: openStore(t)}
	svc := newService(t, repo)

	_, err := svc.Supersede(context.Background(), "job-1", mustGenerate(t, testDims), "Class 3")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
	assert.Equal(t, int32(0), repo.inserts.Load())
}

func TestSupersede_NextRevision(t *testing.T) {
	svc := newService(t, openStore(t))
	ctx := context.Background()

	first, err := svc.Draft(ctx, "job-1", testDims)
	require.NoError(t, err)

	second, err := svc.Revise(ctx, "job-1", graph.Dimensions{LengthM: 20, HeightM: 12, LiftM: 2})
	require.NoError(t, err)

	assert.Equal(t, "Rev A", first.Version)
	assert.Equal(t, "Rev B", second.Version)
	assert.Equal(t, "Class 4", second.LoadClass)
	assert.NotEqual(t, first.GraphHash, second.GraphHash)
}

func TestDraft_InvalidDimensions(t *testing.T) {
	repo := &countingRepo{Repository: openStore(t)}
	svc := newService(t, repo)

	for _, d := range []graph.Dimensions{
		{LengthM: 0, HeightM: 6, LiftM: 2},
		{LengthM: 10, HeightM: -1, LiftM: 2},
		{LengthM: 10, HeightM: 6, LiftM: 0},
	} {
		_, err := svc.Draft(context.Background(), "job-1", d)
		require.Error(t, err)
		assert.True(t, IsInvalidDimensions(err), "dims %+v", d)
		assert.Equal(t, ErrCodeInvalidDimensions, CodeOf(err))
	}

	_, err := svc.Revise(context.Background(), "job-1", graph.Dimensions{})
	assert.True(t, IsInvalidDimensions(err))
	assert.Equal(t, int32(0), repo.inserts.Load())
}

func TestCreate_RetriesAfterConflict(t *testing.T) {
	repo := &racingRepo{Store: openStore(t), races: 2}
	svc := newService(t, repo)
	ctx := context.Background()

	m, err := svc.Create(ctx, "job-1", mustGenerate(t, testDims), "Class 3")
	require.NoError(t, err)

	// Two rivals took Rev A and Rev B; the third attempt lands on Rev C.
	assert.Equal(t, "Rev C", m.Version)
	assert.Equal(t, "model-0001", m.ID)
	assert.Equal(t, 3, repo.inserts)
}

func TestCreate_ConflictAfterMaxAttempts(t *testing.T) {
	repo := &conflictRepo{Store: openStore(t)}
	svc := newService(t, repo)

	_, err := svc.Create(context.Background(), "job-1", mustGenerate(t, testDims), "Class 3")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, ErrCodeConflict, CodeOf(err))
	assert.Equal(t, DefaultMaxAttempts, repo.inserts)
}

func TestCreate_MaxAttemptsOption(t *testing.T) {
	repo := &conflictRepo{Store: openStore(t)}
	svc := newService(t, repo, WithMaxAttempts(5))
	assert.Equal(t, 5, svc.MaxAttempts())

	_, err := svc.Create(context.Background(), "job-1", mustGenerate(t, testDims), "Class 3")
	assert.True(t, IsConflict(err))
	assert.Equal(t, 5, repo.inserts)

	assert.Equal(t, 1, New(repo, WithMaxAttempts(0)).MaxAttempts())
}

func TestCreate_RevisionsExhausted(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.InsertModel(ctx, domain.Model{
		ID:        "last",
		JobID:     "job-1",
		Version:   revision.Terminal,
		Graph:     mustGenerate(t, testDims),
		LoadClass: "Class 3",
		CreatedAt: testutil.Epoch,
	}, nil)
	require.NoError(t, err)

	repo := &countingRepo{Repository: s}
	svc := newService(t, repo)

	_, err = svc.Create(ctx, "job-1", mustGenerate(t, testDims), "Class 3")
	require.Error(t, err)
	assert.True(t, IsRevisionsExhausted(err))
	assert.True(t, IsConflict(err))
	assert.Equal(t, int32(0), repo.inserts.Load(), "exhaustion must not burn retries")

	_, err = svc.Supersede(ctx, "job-1", mustGenerate(t, testDims), "Class 3")
	assert.True(t, IsRevisionsExhausted(err))
}

func TestCreate_ConcurrentCreatesGetDistinctVersions(t *testing.T) {
	s := openStore(t)
	svc := New(s,
		WithIDGenerator(testutil.NewSequentialIDs("model")),
		WithLogger(quietLogger()),
	)
	g := mustGenerate(t, testDims)

	const workers = 2
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		versions []string
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			m, err := svc.Create(context.Background(), "job-1", g, "Class 3")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			versions = append(versions, m.Version)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	sort.Strings(versions)
	assert.Equal(t, []string{"Rev A", "Rev B"}, versions)
}

func TestCreate_ManyConcurrentCreatesNeverShareAVersion(t *testing.T) {
	s := openStore(t)
	svc := New(s,
		WithIDGenerator(testutil.NewSequentialIDs("model")),
		WithLogger(quietLogger()),
	)
	g := mustGenerate(t, testDims)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), "job-1", g, "Class 3")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err != nil {
			assert.True(t, IsConflict(err), "unexpected error: %v", err)
			continue
		}
		succeeded++
	}

	models, err := svc.List(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Len(t, models, succeeded)

	// Newest-first listing must be strictly decreasing.
	for i := 1; i < len(models); i++ {
		assert.Equal(t, 1, revision.Compare(models[i-1].Version, models[i].Version))
	}
}

func TestPublish(t *testing.T) {
	svc := newService(t, openStore(t))
	ctx := context.Background()

	m, err := svc.Draft(ctx, "job-1", testDims)
	require.NoError(t, err)

	published, err := svc.Publish(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, published.Published)
	require.NotNil(t, published.PublishedAt)

	// Already published: no-op returning the stored model.
	again, err := svc.Publish(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, published, again)
}

func TestPublish_NotFound(t *testing.T) {
	svc := newService(t, openStore(t))

	_, err := svc.Publish(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "model=missing")
}

func TestPublish_ComplianceFailedLeavesModelUnpublished(t *testing.T) {
	issues := []string{"height exceeds permit", "missing ties"}
	checker := compliance.CheckerFunc(func(*graph.Graph) compliance.Result {
		return compliance.Failed(issues...)
	})
	svc := newService(t, openStore(t), WithChecker(checker))
	ctx := context.Background()

	m, err := svc.Draft(ctx, "job-1", testDims)
	require.NoError(t, err)

	_, err = svc.Publish(ctx, m.ID)
	require.Error(t, err)
	assert.True(t, IsComplianceFailed(err))
	assert.Equal(t, issues, IssuesOf(err))

	stored, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, stored.Published)
	assert.Nil(t, stored.PublishedAt)
}

func TestPublish_ChecksStoredGraph(t *testing.T) {
	var seen *graph.Graph
	checker := compliance.CheckerFunc(func(g *graph.Graph) compliance.Result {
		seen = g
		return compliance.Passed()
	})
	svc := newService(t, openStore(t), WithChecker(checker))
	ctx := context.Background()

	m, err := svc.Draft(ctx, "job-1", testDims)
	require.NoError(t, err)
	_, err = svc.Publish(ctx, m.ID)
	require.NoError(t, err)

	require.NotNil(t, seen)
	fp, err := graph.Fingerprint(seen)
	require.NoError(t, err)
	assert.Equal(t, m.GraphHash, fp)
}

func TestPublish_StructuralChecker(t *testing.T) {
	svc := newService(t, openStore(t), WithChecker(compliance.Chain(compliance.AlwaysPass{}, compliance.Structural{})))
	ctx := context.Background()

	m, err := svc.Draft(ctx, "job-1", testDims)
	require.NoError(t, err)

	published, err := svc.Publish(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, published.Published)
}

func TestMaterials_NotFound(t *testing.T) {
	svc := newService(t, openStore(t))

	_, err := svc.Materials(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestRetakeoff_ReplacesLines(t *testing.T) {
	s := openStore(t)
	svc := newService(t, s)
	ctx := context.Background()

	m, err := svc.Draft(ctx, "job-1", testDims)
	require.NoError(t, err)

	require.NoError(t, s.ReplaceTakeoffLines(ctx, m.ID, []takeoff.Line{{ItemCode: "STD", Name: "Standard", Qty: 1}}))

	lines, err := svc.Retakeoff(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, takeoff.FromGraph(m.Graph), lines)

	materials, err := svc.Materials(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, materials, len(lines))
	for i, l := range lines {
		assert.Equal(t, l.ItemCode, materials[i].ItemCode)
		assert.Equal(t, l.Qty, materials[i].Qty)
	}

	_, err = svc.Retakeoff(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestCreate_CancelledContext(t *testing.T) {
	repo := &countingRepo{Repository: openStore(t)}
	svc := newService(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Create(ctx, "job-1", mustGenerate(t, testDims), "Class 3")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), repo.inserts.Load())
}
