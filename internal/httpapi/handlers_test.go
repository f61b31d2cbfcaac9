package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/conductord/internal/agent"
	"github.com/fyrsmithlabs/conductord/internal/engine"
	"github.com/fyrsmithlabs/conductord/internal/learning"
	"github.com/fyrsmithlabs/conductord/internal/router"
	"github.com/fyrsmithlabs/conductord/internal/telemetry"
	"github.com/fyrsmithlabs/conductord/internal/trace"
)

// pipelineResultView decodes the result fields the tests assert on.
// PipelineResult itself cannot be unmarshaled because agent outputs are an
// interface on the wire.
type pipelineResultView struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	TraceID string `json:"trace_id"`
}

// newTestServer wires an engine whose testing agent passes or fails based
// on the "should_fail" context key.
func newTestServer(t *testing.T, analyzeAfterRun bool) (*Server, *trace.Store) {
	t.Helper()

	reg := agent.NewRegistry(zap.NewNop())
	reg.RegisterInstance(agent.Func{
		AgentName: router.AgentTesting,
		Fn: func(ctx context.Context, snapshot map[string]any) (agent.Output, error) {
			if fail, _ := snapshot["should_fail"].(bool); fail {
				return agent.TestOutcome{Status: agent.TestFail, Summary: "auth suite red", FailedCount: 2}, nil
			}
			return agent.TestOutcome{Status: agent.TestPass, Summary: "all green"}, nil
		},
	})

	traces := trace.NewStore()
	eng, err := engine.New(router.New(), reg, traces, nil, nil, zap.NewNop())
	require.NoError(t, err)

	learn, err := learning.NewService(learning.NewDetector(nil), learning.NewGate(), learning.NewProposalStore(), nil, nil)
	require.NoError(t, err)

	s, err := NewServer(eng, traces, learn, zap.NewNop(), Config{AnalyzeAfterRun: analyzeAfterRun})
	require.NoError(t, err)
	return s, traces
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := doRequest(t, s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestPostIntent(t *testing.T) {
	s, traces := newTestServer(t, false)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/intents",
		`{"type":"run_tests","context":{"code_changes":["a.go"]}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result pipelineResultView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, engine.StatusSuccess, result.Status)
	assert.NotEmpty(t, result.TraceID)

	_, ok := traces.Get(result.TraceID)
	assert.True(t, ok)
}

func TestPostIntentRoutingFailureIsStructured(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/intents",
		`{"type":"summon_dragon","context":{}}`)
	require.Equal(t, http.StatusOK, rec.Code, "routing failures return a structured result, not an HTTP error")

	var result pipelineResultView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, engine.StatusFailure, result.Status)
	assert.Contains(t, result.Error, "unknown intent type")
}

func TestPostIntentBadJSON(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/intents", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTrace(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/intents",
		`{"type":"run_tests","context":{"code_changes":["a.go"]}}`)
	var result pipelineResultView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	rec = doRequest(t, s, http.MethodGet, "/api/v1/traces/"+result.TraceID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var tr trace.ExecutionTrace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tr))
	assert.Equal(t, result.TraceID, tr.TraceID)
	assert.Equal(t, trace.PipelineSuccess, tr.PipelineStatus)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/traces/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTracesRecent(t *testing.T) {
	s, _ := newTestServer(t, false)

	for i := 0; i < 3; i++ {
		doRequest(t, s, http.MethodPost, "/api/v1/intents",
			`{"type":"run_tests","context":{"code_changes":["a.go"]}}`)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/v1/traces?recent=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var traces []*trace.ExecutionTrace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &traces))
	assert.Len(t, traces, 2)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/traces?recent=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndpoint(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/intents",
		`{"type":"run_tests","context":{"code_changes":["a.go"],"should_fail":true}}`)
	var result pipelineResultView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, engine.StatusPartial, result.Status)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/traces/"+result.TraceID+"/analyze", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, result.TraceID, resp.TraceID)
	assert.Empty(t, resp.Approved, "a single failure never clears the gate")

	rec = doRequest(t, s, http.MethodGet, "/api/v1/patterns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var patterns []*learning.Pattern
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patterns))
	require.Len(t, patterns, 1)
	assert.Equal(t, router.AgentTesting, patterns[0].AgentName)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/traces/missing/analyze", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeAfterRun(t *testing.T) {
	s, _ := newTestServer(t, true)

	doRequest(t, s, http.MethodPost, "/api/v1/intents",
		`{"type":"run_tests","context":{"code_changes":["a.go"],"should_fail":true}}`)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/patterns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var patterns []*learning.Pattern
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patterns))
	assert.Len(t, patterns, 1, "failed runs feed the detector without an explicit analyze call")
}

func TestMetricsEndpointServesPipelineCounters(t *testing.T) {
	shutdown, err := telemetry.SetupMeterProvider(nil, "test")
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()
	metrics := telemetry.NewMetrics(nil)

	reg := agent.NewRegistry(zap.NewNop())
	reg.RegisterInstance(agent.Func{
		AgentName: router.AgentTesting,
		Fn: func(ctx context.Context, snapshot map[string]any) (agent.Output, error) {
			return agent.TestOutcome{Status: agent.TestPass}, nil
		},
	})
	traces := trace.NewStore()
	eng, err := engine.New(router.New(), reg, traces, nil, metrics, zap.NewNop())
	require.NoError(t, err)
	s, err := NewServer(eng, traces, nil, zap.NewNop(), Config{})
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/intents",
		`{"type":"run_tests","context":{"code_changes":["a.go"]}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	scrape := rec.Body.String()
	assert.Contains(t, scrape, "conductord_pipeline_runs_total")
	assert.Contains(t, scrape, "conductord_pipeline_steps_total")
	assert.Contains(t, scrape, `status="success"`)
}

func TestProposalsFilter(t *testing.T) {
	s, _ := newTestServer(t, true)

	doRequest(t, s, http.MethodPost, "/api/v1/intents",
		`{"type":"run_tests","context":{"code_changes":["a.go"],"should_fail":true}}`)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/proposals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var proposals []*learning.Proposal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proposals))
	assert.Len(t, proposals, 1)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/proposals?decision=reject", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/proposals?decision=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
