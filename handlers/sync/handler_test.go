package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	syncs "github.com/movieverse/catalog/services/sync"
)

type fakeRunner struct {
	summary *syncs.Summary
	err     error
}

func (f *fakeRunner) Run(ctx context.Context) (*syncs.Summary, error) {
	return f.summary, f.err
}

func newTestRouter(runner Runner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterHandler(r, runner)
	return r
}

func TestRunSuccess(t *testing.T) {
	movieID := int64(968)
	runner := &fakeRunner{
		summary: &syncs.Summary{
			TotalScanned:      3,
			NewVideosAdded:    1,
			DuplicatesSkipped: 2,
			NewVideos: []syncs.NewVideo{
				{Identifier: "night-1968", Title: "Night of the Living Dead", MovieID: &movieID},
			},
			Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}
	r := newTestRouter(runner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/sync", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %v", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["success"] != true {
		t.Errorf("expected success true, got %v", body["success"])
	}
	if body["totalScanned"] != float64(3) || body["newVideosAdded"] != float64(1) || body["duplicatesSkipped"] != float64(2) {
		t.Errorf("unexpected counters: %v", body)
	}
	videos, ok := body["newVideos"].([]any)
	if !ok || len(videos) != 1 {
		t.Fatalf("unexpected newVideos: %v", body["newVideos"])
	}
	nv := videos[0].(map[string]any)
	if nv["identifier"] != "night-1968" || nv["movieId"] != float64(968) {
		t.Errorf("unexpected new video: %v", nv)
	}
	if nv["posterUrl"] != nil {
		t.Errorf("expected null posterUrl, got %v", nv["posterUrl"])
	}
	if _, ok := body["timestamp"].(string); !ok {
		t.Errorf("expected timestamp string, got %v", body["timestamp"])
	}
}

func TestRunFailure(t *testing.T) {
	runner := &fakeRunner{
		err: errors.New("failed to fetch archive inventory"),
	}
	r := newTestRouter(runner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/sync", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["success"] != false {
		t.Errorf("expected success false, got %v", body["success"])
	}
	if body["error"] != "failed to fetch archive inventory" {
		t.Errorf("unexpected error message: %v", body["error"])
	}
}

func TestRunPreflight(t *testing.T) {
	runner := &fakeRunner{
		summary: &syncs.Summary{},
	}
	r := newTestRouter(runner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/sync", nil)
	req.Header.Set("Origin", "https://movieverse.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %v", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}
