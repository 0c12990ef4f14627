package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"review-service/internal/ledger"
	"review-service/internal/repository"
	"review-service/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	recordsDir := filepath.Join(dir, "pipeline_output")
	require.NoError(t, os.MkdirAll(recordsDir, 0755))
	for _, name := range []string{"a.json", "b.json"} {
		content := `{"image":{"image_path":"` + strings.TrimSuffix(name, ".json") + `.jpg"}}`
		require.NoError(t, os.WriteFile(filepath.Join(recordsDir, name), []byte(content), 0644))
	}

	logger := zap.NewNop()
	records := repository.NewRecordRepository(map[string]string{"pipeline_output": recordsDir}, dir, logger)

	votes, err := ledger.NewCSVLedger(filepath.Join(dir, "votes.csv"), logger)
	require.NoError(t, err)

	cfg := session.Config{
		Reviewers:  []string{"alina", "bob"},
		Datasets:   []string{"pipeline_output"},
		Partitions: map[string]string{"pipeline_output": ""},
	}
	sessions := session.NewManager(cfg, records, votes, time.Hour, time.Hour, logger)
	t.Cleanup(sessions.Close)

	h := NewHandler(sessions, records, votes, []string{"pipeline_output"}, cfg.Partitions, logger)
	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/v1/sessions",
		`{"dataset":"pipeline_output","reviewer":"alina"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestReviewFlow(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	// Fresh session sits on the first record, nothing voted yet
	w := do(t, router, http.MethodGet, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap struct {
		RecordKey string `json:"record_key"`
		Total     int    `json:"total"`
		UIState   struct {
			Locked bool `json:"locked"`
		} `json:"ui_state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "a.json", snap.RecordKey)
	assert.Equal(t, 2, snap.Total)
	assert.False(t, snap.UIState.Locked)

	// Submitting a vote auto-advances to b.json
	w = do(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/vote",
		`{"user_name":"alina","explicit_selected":"accepted","moderate_selected":"rejected","no_leak_selected":"accepted","comments":"ok"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var voteResp struct {
		Success bool `json:"success"`
		Session struct {
			RecordKey string `json:"record_key"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &voteResp))
	assert.True(t, voteResp.Success)
	assert.Equal(t, "b.json", voteResp.Session.RecordKey)

	// The vote is durable and visible through the raw ledger endpoint
	w = do(t, router, http.MethodGet, "/api/v1/votes/a.json", "")
	require.Equal(t, http.StatusOK, w.Code)

	var entries []struct {
		UserName string `json:"user_name"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "alina", entries[0].UserName)
	assert.Equal(t, "a.json", entries[0].Filename)

	// Going back to a.json shows the locked state
	w = do(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/prev", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "a.json", snap.RecordKey)
	assert.True(t, snap.UIState.Locked)
}

func TestSubmitVote_MissingReviewer(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	w := do(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/vote",
		`{"user_name":"","explicit_selected":"accepted"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation")

	// Nothing was written
	w = do(t, router, http.MethodGet, "/api/v1/votes/a.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestUnknownSession(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/sessions/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "session_not_found")
}

func TestStatelessRecordAccess(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/records/pipeline_output", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a.json")

	w = do(t, router, http.MethodGet, "/api/v1/records/pipeline_output/a.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a.jpg")

	w = do(t, router, http.MethodGet, "/api/v1/records/pipeline_output/zzz.json", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "record_not_found")

	w = do(t, router, http.MethodGet, "/api/v1/records/unknown", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "listing_unavailable")
}

func TestSelectUnknownDataset(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	w := do(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/dataset", `{"name":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation")
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
