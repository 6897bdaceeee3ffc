// cmd/veridex/server_test.go
package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	pipeline := newTestPipeline(
		&fakeReasoner{judgment: &Judgment{Verdict: VerdictTrue, Explanation: "ok"}},
		&AgentSet{
			News: &fakeAgent{name: AgentNews, items: []CollectedDataItem{
				evidenceItem("https://reuters.com/a", AgentNews),
			}},
			FactCheck: &fakeAgent{name: AgentFactCheck},
		},
	)
	cfg := &Config{ServerPort: 0, Scoring: DefaultScoringConfig(), WebSearchDefault: true}
	srv := NewServer(cfg, pipeline, NewJobStore(time.Hour))

	ts := httptest.NewServer(srv.router)
	t.Cleanup(ts.Close)
	return srv, ts
}

func submitClaim(t *testing.T, ts *httptest.Server, body string) map[string]interface{} {
	t.Helper()

	resp, err := http.Post(ts.URL+"/api/v1/claims/analyze", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func waitForJob(t *testing.T, ts *httptest.Server, jobID string) Job {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	var job Job
	for {
		resp, err := http.Get(ts.URL + "/api/v1/claims/" + jobID)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
		resp.Body.Close()

		if job.Status == JobStatusCompleted || job.Status == JobStatusFailed {
			return job
		}
		require.True(t, time.Now().Before(deadline), "job did not finish in time")
		time.Sleep(20 * time.Millisecond)
	}
}

func TestAnalyzeEndpointRunsJobToCompletion(t *testing.T) {
	_, ts := newTestServer(t)

	payload := submitClaim(t, ts, `{"claim_text": "the sky is blue"}`)
	jobID, ok := payload["job_id"].(string)
	require.True(t, ok, "missing job_id in response")

	job := waitForJob(t, ts, jobID)
	require.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.Result)
	require.NotNil(t, job.Result.Output)
	assert.Equal(t, VerdictTrue, job.Result.Output.Verdict)

	// The claim carries the same identity the API handed out as job_id.
	assert.Equal(t, job.ID, job.Result.Claim.ID)
	assert.Equal(t, job.ID, job.Result.Output.ClaimID)
}

// A subscriber arriving after the job finished must get the terminal stage
// and a prompt close, never a watcher channel nothing will ever close.
func TestProgressStreamAfterJobFinished(t *testing.T) {
	srv, ts := newTestServer(t)

	payload := submitClaim(t, ts, `{"claim_text": "the sky is blue"}`)
	jobID := payload["job_id"].(string)
	waitForJob(t, ts, jobID)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/claims/" + jobID + "/progress"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]string
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "Completed", msg["stage"])

	// The server closes the stream after the terminal replay.
	require.Error(t, conn.ReadJSON(&msg))

	// No watcher left behind once the handler returns.
	deadline := time.Now().Add(2 * time.Second)
	for {
		srv.watchMu.Lock()
		remaining := len(srv.watchers)
		srv.watchMu.Unlock()
		if remaining == 0 {
			break
		}
		require.True(t, time.Now().Before(deadline), "watcher was never cleaned up")
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAnalyzeWebSearchDefaultsFromConfig(t *testing.T) {
	_, ts := newTestServer(t)

	payload := submitClaim(t, ts, `{"claim_text": "claim without the flag"}`)
	job := waitForJob(t, ts, payload["job_id"].(string))
	assert.True(t, job.Request.UseWebSearch)

	payload = submitClaim(t, ts, `{"claim_text": "claim opting out", "use_web_search": false}`)
	job = waitForJob(t, ts, payload["job_id"].(string))
	assert.False(t, job.Request.UseWebSearch)
}

func TestAnalyzeEndpointRejectsEmptyClaim(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/claims/analyze", "application/json",
		strings.NewReader(`{"claim_text": "  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeEndpointRejectsMalformedBody(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/claims/analyze", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, ErrServerRequest, payload["code"])
}

func TestGetJobUnknownID(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/claims/1b671a64-40d5-491e-99b0-da01ff1f3341")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetJobInvalidID(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/claims/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, VERSION, payload["version"])
}

func TestWebsocketOriginAllowlist(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/claims/x/progress", nil)
	req.Header.Set("Origin", "https://dash.example")

	// No allowlist configured: every origin passes.
	assert.True(t, srv.checkOrigin(req))

	srv.cfg.AllowedWSOrigins = []string{"https://dash.example"}
	assert.True(t, srv.checkOrigin(req))

	req.Header.Set("Origin", "https://elsewhere.example")
	assert.False(t, srv.checkOrigin(req))

	srv.cfg.AllowedWSOrigins = []string{"*"}
	assert.True(t, srv.checkOrigin(req))
}
