package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entanglegraph/entanglegraph/internal/app/dto"
	"github.com/entanglegraph/entanglegraph/internal/app/services"
	"github.com/entanglegraph/entanglegraph/internal/config"
	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
	"github.com/entanglegraph/entanglegraph/pkg/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer builds a started server without a network listener; tests
// drive it through Router.
func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()

	cfg := config.Default()
	for _, m := range mutate {
		m(&cfg)
	}
	require.NoError(t, cfg.Validate())

	srv, err := New(cfg, quietLogger())
	require.NoError(t, err)
	srv.Start()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func createGraph(t *testing.T, srv *Server, name string) string {
	t.Helper()

	w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs", gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.GraphResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

// journalCount reads the journal size over the API, for Eventually polling:
// observations reach the journal through the asynchronous stream.
func journalCount(srv *Server, graphID string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/graphs/"+graphID+"/journal", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		return -1
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		return -1
	}
	return resp.Count
}

func TestServer_Healthz(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestServer_GraphLifecycle(t *testing.T) {
	srv := newTestServer(t)

	id := createGraph(t, srv, "lifecycle")

	t.Run("get", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.GraphResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, id, resp.ID)
		assert.Equal(t, "lifecycle", resp.Name)
		assert.Equal(t, entangle.DefaultConfig(), resp.Config)
		assert.Zero(t, resp.State.EdgeCount)
	})

	t.Run("list", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Graphs []dto.GraphResponse `json:"graphs"`
			Count  int                 `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		require.Len(t, resp.Graphs, 1)
		assert.Equal(t, id, resp.Graphs[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodDelete, "/api/v1/graphs/"+id, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, srv, http.MethodGet, "/api/v1/graphs/"+id, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(t, srv, http.MethodDelete, "/api/v1/graphs/"+id, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_CreateGraph(t *testing.T) {
	srv := newTestServer(t)

	t.Run("config overrides applied", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs", gin.H{
			"name":             "tuned",
			"default_strength": 0.9,
			"decay_rate":       0.25,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.GraphResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 0.9, resp.Config.DefaultStrength)
		assert.Equal(t, 0.25, resp.Config.DecayRate)
		assert.True(t, resp.Config.AutoPropagate)
	})

	t.Run("missing name rejected", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs", gin.H{})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp validation.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Details)
		assert.Equal(t, "name", resp.Details[0].Field)
	})

	t.Run("out of range strength rejected", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs", gin.H{
			"name":             "bad",
			"default_strength": 1.5,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/graphs", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_Entangle(t *testing.T) {
	srv := newTestServer(t)
	id := createGraph(t, srv, "edges")

	t.Run("defaults fill in", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/entangle", gin.H{
			"source": "alice",
			"target": "bob",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.EntangleResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.StatusOK, resp.Status)
		assert.Equal(t, 0.5, resp.Strength)
		assert.True(t, resp.Bidirectional)
	})

	t.Run("state reflects the edges", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs/"+id+"/state", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var state entangle.State
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
		assert.Equal(t, 2, state.EdgeCount)
		assert.Equal(t, 2, state.NodeCount)
		// One call created both directions; the counter moves per call.
		assert.Equal(t, int64(1), state.Stats.EntanglementsCreated)
	})

	t.Run("unknown graph", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/ghost/entangle", gin.H{
			"source": "alice",
			"target": "bob",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing target rejected", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/entangle", gin.H{
			"source": "alice",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp validation.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Details)
		assert.Equal(t, "target", resp.Details[0].Field)
	})
}

func TestServer_Disentangle(t *testing.T) {
	srv := newTestServer(t)
	id := createGraph(t, srv, "breakups")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/entangle", gin.H{
		"source": "a", "target": "b",
	})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("existing link broken", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/disentangle", gin.H{
			"source": "a", "target": "b",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.DisentangleResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.StatusOK, resp.Status)
	})

	t.Run("missing link rejected not errored", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/disentangle", gin.H{
			"source": "a", "target": "b",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.DisentangleResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.StatusRejected, resp.Status)
	})
}

func TestServer_Propagate(t *testing.T) {
	srv := newTestServer(t)
	id := createGraph(t, srv, "pulses")

	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}} {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/entangle", gin.H{
			"source": pair[0], "target": pair[1], "bidirectional": false,
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Run("cascade counted in stats", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/propagate", gin.H{
			"source": "a", "payload": "pulse",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.PropagateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.StatusOK, resp.Status)
		assert.Equal(t, 1, resp.Propagated)
		// Entry frame, cascade into b, cascade into edgeless c.
		assert.Equal(t, int64(3), resp.Stats.Propagations)
	})

	t.Run("amplify factor accepted", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/propagate", gin.H{
			"source": "a", "payload": 10.0, "amplify": 2.0,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.PropagateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Propagated)
	})

	t.Run("non-positive amplify rejected", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/propagate", gin.H{
			"source": "a", "amplify": -1.0,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_Entanglements(t *testing.T) {
	srv := newTestServer(t)
	id := createGraph(t, srv, "listing")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/entangle", gin.H{
		"source": "x", "target": "y", "strength": 0.8, "bidirectional": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/graphs/"+id+"/entanglements", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Entanglements []dto.EntanglementView `json:"entanglements"`
		Count         int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "x", resp.Entanglements[0].Source)
	assert.Equal(t, "y", resp.Entanglements[0].Target)
	assert.Equal(t, 0.8, resp.Entanglements[0].Strength)
	// Zero decay keeps effective strength at the stored value.
	assert.Equal(t, 0.8, resp.Entanglements[0].EffectiveStrength)
}

func TestServer_Analytics(t *testing.T) {
	srv := newTestServer(t)
	id := createGraph(t, srv, "analyzed")

	for _, edge := range []gin.H{
		{"source": "a", "target": "b", "strength": 0.2, "bidirectional": false},
		{"source": "a", "target": "c", "strength": 0.6, "bidirectional": false},
		{"source": "b", "target": "c", "strength": 1.0, "bidirectional": false},
	} {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/entangle", edge)
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Run("report shape", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs/"+id+"/analytics?top=2", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var report services.Report
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, 3, report.EdgeCount)
		assert.Equal(t, 2, report.NodeCount)
		assert.Equal(t, 3, report.Stored.Count)
		assert.InDelta(t, 0.6, report.Stored.Mean, 1e-9)
		require.Len(t, report.TopEdges, 2)
		assert.Equal(t, 1.0, report.TopEdges[0].Strength)
		assert.Equal(t, map[string]int{"a": 2, "b": 1}, report.OutDegree)
	})

	t.Run("top out of range rejected", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs/"+id+"/analytics?top=500", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown graph", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs/ghost/analytics", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_Journal(t *testing.T) {
	srv := newTestServer(t)
	id := createGraph(t, srv, "journaled")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/entangle", gin.H{
		"source": "a", "target": "b", "bidirectional": false,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/propagate", gin.H{
		"source": "a", "payload": "pulse",
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		return journalCount(srv, id) == 2
	}, time.Second, 10*time.Millisecond, "observations should reach the journal")

	t.Run("kind filter", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs/"+id+"/journal?kind=propagated", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Entries []map[string]any `json:"entries"`
			Count   int              `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, "propagated", resp.Entries[0]["kind"])
		assert.Equal(t, "pulse", resp.Entries[0]["payload"])
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs/"+id+"/journal?kind=materialized", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown graph", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs/ghost/journal", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("global listing spans graphs", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/journal", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.GreaterOrEqual(t, resp.Count, 2)
	})
}

func TestServer_JournalExportImport(t *testing.T) {
	srv := newTestServer(t)
	id := createGraph(t, srv, "exported")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/graphs/"+id+"/entangle", gin.H{
		"source": "a", "target": "b", "bidirectional": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		return journalCount(srv, id) == 1
	}, time.Second, 10*time.Millisecond)

	var snapshot []byte
	t.Run("export", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs/"+id+"/journal/export", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "msgpack", w.Header().Get("X-Journal-Codec"))
		assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
		snapshot = w.Body.Bytes()
		require.NotEmpty(t, snapshot)
	})

	t.Run("import", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/journal/import", bytes.NewReader(snapshot))
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"imported": 1}`, w.Body.String())

		// Entries keep their ids, so re-importing does not duplicate them.
		assert.Equal(t, 1, journalCount(srv, id))
	})

	t.Run("garbage rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/journal/import", bytes.NewBufferString("not a snapshot"))
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("global export", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/journal/export", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Body.Bytes())
	})

	t.Run("export of unknown graph", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs/ghost/journal/export", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_APIKeyAuth(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.APIKey = "hunter2"
	})

	t.Run("api requires the key", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("key grants access", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/graphs", nil)
		req.Header.Set("Authorization", "Bearer hunter2")
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("health stays open", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestServer_Observability(t *testing.T) {
	srv := newTestServer(t)

	t.Run("prometheus", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "entanglegraph_")
	})

	t.Run("expvar", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/debug/vars", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "entanglegraph")
	})

	t.Run("pprof off by default", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/debug/pprof/cmdline", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_PprofEnabled(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.EnablePprof = true
	})

	w := doJSON(t, srv, http.MethodGet, "/debug/pprof/cmdline", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_WorkloadEndpoints(t *testing.T) {
	srv := newTestServer(t)

	t.Run("start", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/workload/start?interval=5ms&nodes=4", nil)
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.True(t, srv.workload.Running())
	})

	t.Run("second start conflicts", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/workload/start", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("workload graph visible", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Graphs []dto.GraphResponse `json:"graphs"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Graphs, 1)
		assert.Equal(t, "synthetic-workload", resp.Graphs[0].Name)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/workload/stop", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, srv.workload.Running())

		w = doJSON(t, srv, http.MethodPost, "/api/v1/workload/stop", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("workload graph dropped on stop", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/graphs", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Zero(t, resp.Count)
	})
}
