package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/schwartzgroup/daymet-aggregation/internal/adapter/http"
	"github.com/schwartzgroup/daymet-aggregation/internal/observability"
	"github.com/schwartzgroup/daymet-aggregation/internal/pipeline"
)

var _ sharedobs.ReadinessChecker = (*pipeline.Pipeline)(nil)

type mockPipeline struct {
	err    error
	status pipeline.Status
}

func (m *mockPipeline) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockPipeline) Status() pipeline.Status { return m.status }

func newTestServer(p *mockPipeline) *httpadapter.Server {
	return httpadapter.NewServer(":0", p, p, slog.Default())
}

func get(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(&mockPipeline{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200AfterFirstOutput(t *testing.T) {
	rec := get(t, newTestServer(&mockPipeline{}), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzTracksPipelineReadiness(t *testing.T) {
	p := pipeline.New(pipeline.FileSource{}, slog.Default(), observability.NewMetricsForTesting())
	srv := httpadapter.NewServer(":0", p, p, slog.Default())

	rec := get(t, srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "no job has run yet")
}

func TestReadyzReturns503BeforeFirstOutput(t *testing.T) {
	rec := get(t, newTestServer(&mockPipeline{err: errors.New("no extraction job has completed yet")}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no extraction job has completed yet", body["error"])
}

func TestStatusReportsProgress(t *testing.T) {
	status := pipeline.Status{
		Running:       true,
		CurrentOutput: "output/extra/counties/extreme_temps_pctile05_pctile95.csv.gz",
		Completed:     2,
		LastRunID:     "run-2",
	}
	rec := get(t, newTestServer(&mockPipeline{status: status}), "/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body pipeline.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, status, body)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(&mockPipeline{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownMethodRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&mockPipeline{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
