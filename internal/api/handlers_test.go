package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scaffold/internal/compliance"
	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/graph"
	"github.com/roach88/scaffold/internal/lifecycle"
	"github.com/roach88/scaffold/internal/store"
	"github.com/roach88/scaffold/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *store.Store
}

func newTestServer(t *testing.T, checker compliance.Checker) *testServer {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testutil.NewStepClock(time.Time{}, time.Second)
	svc := lifecycle.New(s,
		lifecycle.WithChecker(checker),
		lifecycle.WithIDGenerator(testutil.NewSequentialIDs("model")),
		lifecycle.WithClock(clock),
		lifecycle.WithLogger(logger),
	)
	h := NewHandler(svc, s, Options{
		IDs:    testutil.NewSequentialIDs("job"),
		Clock:  clock,
		Logger: logger,
	})
	return &testServer{router: NewRouter(h), store: s}
}

// do sends a request and decodes the envelope, returning the raw data.
func (ts *testServer) do(t *testing.T, method, path string, body any) (int, Response, json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var raw struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw), "body: %s", rec.Body.String())
	return rec.Code, raw.Response, raw.Data
}

func decode[T any](t *testing.T, data json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

var dims = map[string]float64{"length_m": 10, "height_m": 6, "lift_m": 2}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	code, resp, _ := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
}

func TestGenerateGraph(t *testing.T) {
	ts := newTestServer(t, nil)

	code, resp, data := ts.do(t, http.MethodPost, "/graphs", dims)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)

	res := decode[GenerateResult](t, data)
	assert.Equal(t, 5, res.Graph.BayCount())
	assert.Equal(t, 3, res.Graph.LiftCount())
	assert.Equal(t, "Class 3", res.LoadClass)
	assert.Len(t, res.Takeoff, 8)
	assert.Equal(t, 5, res.Members[graph.KindBasePlate])
	assert.Equal(t, 15, res.Members[graph.KindStandard])
	fp, err := graph.Fingerprint(res.Graph)
	require.NoError(t, err)
	assert.Equal(t, fp, res.Fingerprint)
}

func TestGenerateGraph_InvalidDimensions(t *testing.T) {
	ts := newTestServer(t, nil)

	code, resp, _ := ts.do(t, http.MethodPost, "/graphs", map[string]float64{"length_m": 10, "height_m": 0, "lift_m": 2})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_DIMENSIONS", resp.Error.Code)

	code, resp, _ = ts.do(t, http.MethodPost, "/graphs", map[string]float64{"length_m": 1e6, "height_m": 6, "lift_m": 2, "bay_length_m": 0.001})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_DIMENSIONS", resp.Error.Code)

	code, resp, _ = ts.do(t, http.MethodPost, "/graphs", "not an object")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, ErrorBadRequest, resp.Error.Code)
}

func TestJobs(t *testing.T) {
	ts := newTestServer(t, nil)

	code, _, data := ts.do(t, http.MethodPost, "/jobs", CreateJobRequest{Title: "Terrace", SiteAddress: "1 Quay St"})
	require.Equal(t, http.StatusCreated, code)
	job := decode[domain.Job](t, data)
	assert.Equal(t, "job-0001", job.ID)
	assert.Equal(t, domain.JobDraft, job.Status)

	code, _, data = ts.do(t, http.MethodGet, "/jobs/job-0001", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, job, decode[domain.Job](t, data))

	code, _, data = ts.do(t, http.MethodPatch, "/jobs/job-0001", UpdateJobRequest{Status: domain.JobActive})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.JobActive, decode[domain.Job](t, data).Status)

	code, _, _ = ts.do(t, http.MethodPatch, "/jobs/job-0001", UpdateJobRequest{Status: "paused"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, data = ts.do(t, http.MethodGet, "/jobs", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]domain.Job](t, data), 1)

	code, resp, _ := ts.do(t, http.MethodGet, "/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, ErrorNotFound, resp.Error.Code)

	code, _, _ = ts.do(t, http.MethodPost, "/jobs", CreateJobRequest{Title: "  "})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDimensions(t *testing.T) {
	ts := newTestServer(t, nil)

	d := graph.Dimensions{LengthM: 10, HeightM: 6, LiftM: 2}
	code, _, _ := ts.do(t, http.MethodPost, "/jobs", CreateJobRequest{Title: "Terrace", Dimensions: &d})
	require.Equal(t, http.StatusCreated, code)

	code, _, data := ts.do(t, http.MethodGet, "/jobs/job-0001/dimensions", nil)
	require.Equal(t, http.StatusOK, code)
	got := decode[domain.Dimensions](t, data)
	assert.Equal(t, 2.0, got.BayLengthM)
	assert.Equal(t, "manual", got.Source)

	code, _, data = ts.do(t, http.MethodPut, "/jobs/job-0001/dimensions", map[string]any{
		"length_m": 12, "height_m": 8, "lift_m": 2, "meta_source": "survey",
	})
	require.Equal(t, http.StatusOK, code)
	got = decode[domain.Dimensions](t, data)
	assert.Equal(t, 12.0, got.LengthM)
	assert.Equal(t, "survey", got.Source)

	code, resp, _ := ts.do(t, http.MethodPut, "/jobs/job-0001/dimensions", map[string]any{"length_m": -1, "height_m": 8, "lift_m": 2})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_DIMENSIONS", resp.Error.Code)

	code, _, _ = ts.do(t, http.MethodPut, "/jobs/ghost/dimensions", dims)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestModelLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	code, _, _ := ts.do(t, http.MethodPost, "/jobs", CreateJobRequest{Title: "Terrace"})
	require.Equal(t, http.StatusCreated, code)

	// Supersede before any model exists.
	code, resp, _ := ts.do(t, http.MethodPost, "/jobs/job-0001/models/supersede", dims)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	code, _, data := ts.do(t, http.MethodPost, "/jobs/job-0001/models", dims)
	require.Equal(t, http.StatusCreated, code)
	first := decode[domain.Model](t, data)
	assert.Equal(t, "Rev A", first.Version)
	assert.Equal(t, "model-0001", first.ID)

	code, _, data = ts.do(t, http.MethodPost, "/jobs/job-0001/models/supersede", map[string]float64{"length_m": 20, "height_m": 12, "lift_m": 2})
	require.Equal(t, http.StatusCreated, code)
	second := decode[domain.Model](t, data)
	assert.Equal(t, "Rev B", second.Version)
	assert.Equal(t, "Class 4", second.LoadClass)

	code, _, data = ts.do(t, http.MethodGet, "/jobs/job-0001/models", nil)
	require.Equal(t, http.StatusOK, code)
	models := decode[[]domain.Model](t, data)
	require.Len(t, models, 2)
	assert.Equal(t, "Rev B", models[0].Version)

	code, _, data = ts.do(t, http.MethodGet, "/jobs/job-0001/models/latest", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, second.ID, decode[domain.Model](t, data).ID)

	code, _, data = ts.do(t, http.MethodPost, "/models/"+second.ID+"/publish", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[domain.Model](t, data).Published)

	code, _, data = ts.do(t, http.MethodGet, "/models/"+second.ID+"/materials", nil)
	require.Equal(t, http.StatusOK, code)
	materials := decode[[]domain.Material](t, data)
	require.Len(t, materials, 8)
	assert.Equal(t, "STD", materials[0].ItemCode)
	assert.Equal(t, 2*10*6, materials[0].Qty)

	code, _, _ = ts.do(t, http.MethodPost, "/models/"+second.ID+"/retakeoff", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _, _ = ts.do(t, http.MethodGet, "/models/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDraftModel_UsesStoredDimensions(t *testing.T) {
	ts := newTestServer(t, nil)

	d := graph.Dimensions{LengthM: 4, HeightM: 2, LiftM: 2}
	code, _, _ := ts.do(t, http.MethodPost, "/jobs", CreateJobRequest{Title: "Shed", Dimensions: &d})
	require.Equal(t, http.StatusCreated, code)

	code, _, data := ts.do(t, http.MethodPost, "/jobs/job-0001/models", nil)
	require.Equal(t, http.StatusCreated, code)
	m := decode[domain.Model](t, data)
	assert.Equal(t, 2, m.Graph.BayCount())
	assert.Equal(t, 1, m.Graph.LiftCount())
}

func TestDraftModel_Errors(t *testing.T) {
	ts := newTestServer(t, nil)

	code, _, _ := ts.do(t, http.MethodPost, "/jobs/ghost/models", dims)
	assert.Equal(t, http.StatusNotFound, code, "unknown job")

	code, _, _ = ts.do(t, http.MethodPost, "/jobs", CreateJobRequest{Title: "Terrace"})
	require.Equal(t, http.StatusCreated, code)

	code, _, _ = ts.do(t, http.MethodPost, "/jobs/job-0001/models", nil)
	assert.Equal(t, http.StatusNotFound, code, "no body and no stored dimensions")

	code, resp, _ := ts.do(t, http.MethodPost, "/jobs/job-0001/models", map[string]float64{"length_m": 10})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_DIMENSIONS", resp.Error.Code)
}

func TestPublish_ComplianceFailed(t *testing.T) {
	checker := compliance.CheckerFunc(func(*graph.Graph) compliance.Result {
		return compliance.Failed("ties missing on lift 2")
	})
	ts := newTestServer(t, checker)

	code, _, _ := ts.do(t, http.MethodPost, "/jobs", CreateJobRequest{Title: "Terrace"})
	require.Equal(t, http.StatusCreated, code)
	code, _, data := ts.do(t, http.MethodPost, "/jobs/job-0001/models", dims)
	require.Equal(t, http.StatusCreated, code)
	m := decode[domain.Model](t, data)

	code, resp, _ := ts.do(t, http.MethodPost, "/models/"+m.ID+"/publish", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "COMPLIANCE_FAILED", resp.Error.Code)
	assert.Equal(t, map[string]any{"issues": []any{"ties missing on lift 2"}}, resp.Error.Details)

	stored, err := ts.store.GetModel(context.Background(), m.ID)
	require.NoError(t, err)
	assert.False(t, stored.Published)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", &lifecycle.Error{Code: lifecycle.ErrCodeConflict}, http.StatusConflict, "CONFLICT"},
		{"exhausted", &lifecycle.Error{Code: lifecycle.ErrCodeRevisionsExhausted}, http.StatusConflict, "REVISIONS_EXHAUSTED"},
		{"sentinel conflict", domain.ErrConflict, http.StatusConflict, ErrorConflict},
		{"sentinel not found", domain.ErrNotFound, http.StatusNotFound, ErrorNotFound},
		{"dimensions", graph.ErrInvalidDimensions, http.StatusBadRequest, "INVALID_DIMENSIONS"},
		{"other", io.ErrUnexpectedEOF, http.StatusInternalServerError, ErrorInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := statusOf(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
