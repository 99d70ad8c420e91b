package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/testutil"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/runner"
	"github.com/hupe1980/agentcrew/session"
	"github.com/hupe1980/agentcrew/tool"
	"github.com/hupe1980/agentcrew/workspace"
)

type fixture struct {
	srv   *Server
	ws    *workspace.Workspace
	store *session.InMemoryStore
	gate  chan struct{}
}

// newFixture builds a single-agent crew whose model waits on gate before
// finishing, so tests control when a run ends.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ws, err := workspace.New("", func(o *workspace.Options) { o.BaseDir = t.TempDir() })
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics, err := runner.NewMetrics(reg)
	require.NoError(t, err)

	f := &fixture{ws: ws, gate: make(chan struct{})}
	f.store = session.NewInMemoryStore(func(id string) (*session.Workflow, error) {
		llm := &gatedModel{
			gate: f.gate,
			ScriptedModel: model.NewScriptedModel("scripted",
				model.Calls("All done", testutil.FinishCall("ok")),
			),
		}
		a := testutil.NewAgent("Orchestrator Agent", llm, tool.NewFinishTool())
		return session.NewWorkflow(id, []core.Agent{a}, func(o *session.Options) {
			o.Tasks = ws.Tasks()
			o.Observers = []runner.Observer{metrics}
		})
	})
	f.srv = New(f.store, ws, func(o *Options) { o.Gatherer = reg })
	return f
}

type gatedModel struct {
	*model.ScriptedModel
	gate chan struct{}
}

func (m *gatedModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	select {
	case <-m.gate:
	case <-ctx.Done():
		errCh := make(chan error, 1)
		errCh <- ctx.Err()
		close(errCh)
		return nil, errCh
	}
	return m.ScriptedModel.Generate(ctx, req)
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	out := map[string]any{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (f *fixture) waitIdle(t *testing.T) {
	t.Helper()
	w, err := f.store.Current()
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Wait(ctx))
}

func TestHealthAndAgents(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = f.do(t, http.MethodGet, "/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	agents := body["agents"].([]any)
	require.Len(t, agents, 1)
	a := agents[0].(map[string]any)
	assert.Equal(t, "orchestrator", a["id"])
	assert.Equal(t, []any{tool.FinishToolName}, a["tools"])
}

func TestSubmitPromptLifecycle(t *testing.T) {
	f := newFixture(t)
	_, err := f.ws.Tasks().CreateFromJSON(`["plan","code"]`)
	require.NoError(t, err)

	rec, _ := f.do(t, http.MethodPost, "/submit-prompt", map[string]string{"prompt": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := f.do(t, http.MethodPost, "/submit-prompt", map[string]string{"prompt": "build it"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "Workflow started", body["message"])

	rec, body = f.do(t, http.MethodPost, "/submit-prompt", map[string]string{"prompt": "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "error", body["status"])

	_, body = f.do(t, http.MethodGet, "/status", nil)
	status := body["system_status"].(map[string]any)
	assert.Equal(t, true, status["workflow_running"])

	close(f.gate)
	f.waitIdle(t)

	_, body = f.do(t, http.MethodGet, "/status", nil)
	status = body["system_status"].(map[string]any)
	assert.Equal(t, "completed", status["workflow_status"])
	assert.InDelta(t, 3, status["messages_count"], 0)
	assert.InDelta(t, 2, status["tasks_count"], 0)

	_, body = f.do(t, http.MethodGet, "/messages?limit=2", nil)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "finalize", msgs[0].(map[string]any)["type"])

	rec, _ = f.do(t, http.MethodGet, "/messages?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, body = f.do(t, http.MethodGet, "/tasks", nil)
	assert.Len(t, body["tasks"], 2)
	assert.InDelta(t, 0, body["currentTaskIndex"], 0)
	assert.Equal(t, "completed", body["workflowStatus"])

	rec, body = f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `agentcrew_runner_stops_total{reason="finished"} 1`)
	assert.Empty(t, body)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	_, err := f.ws.Tasks().CreateFromJSON(`["a"]`)
	require.NoError(t, err)

	rec, _ := f.do(t, http.MethodPost, "/submit-prompt", map[string]string{"prompt": "go"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec, body := f.do(t, http.MethodPost, "/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "System reset successfully", body["message"])

	_, body = f.do(t, http.MethodGet, "/status", nil)
	status := body["system_status"].(map[string]any)
	assert.Equal(t, "idle", status["workflow_status"])
	assert.InDelta(t, 0, status["messages_count"], 0)
	assert.False(t, f.ws.Tasks().Exists())
}

func TestFiles(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("x", filePreviewLimit+10)
	require.NoError(t, os.WriteFile(filepath.Join(f.ws.Dir(), "calc.go"), []byte(long), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.ws.Dir(), "image.png"), []byte("png"), 0o644))

	rec, body := f.do(t, http.MethodGet, "/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	files := body["files"].([]any)
	require.Len(t, files, 1)
	file := files[0].(map[string]any)
	assert.Equal(t, "calc.go", file["name"])
	assert.InDelta(t, len(long), file["size"], 0)
	assert.True(t, strings.HasSuffix(file["content"].(string), "..."))
}

func TestFiles_PreviewKeepsCharactersWhole(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("é", filePreviewLimit+10)
	require.NoError(t, os.WriteFile(filepath.Join(f.ws.Dir(), "notes.md"), []byte(long), 0o644))

	rec, body := f.do(t, http.MethodGet, "/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	files := body["files"].([]any)
	require.Len(t, files, 1)
	content := files[0].(map[string]any)["content"].(string)
	assert.True(t, utf8.ValidString(content))
	assert.NotContains(t, content, "\uFFFD")
	assert.Equal(t, strings.Repeat("é", filePreviewLimit)+"...", content)
}

func TestCurrentTaskIndex(t *testing.T) {
	assert.Equal(t, 0, currentTaskIndex(nil))
	assert.Equal(t, 1, currentTaskIndex([]workspace.Task{
		{Status: workspace.StatusCompleted}, {Status: workspace.StatusPending},
	}))
	assert.Equal(t, 1, currentTaskIndex([]workspace.Task{{Status: workspace.StatusCompleted}}))
}
