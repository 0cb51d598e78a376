package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lyricsync-go/player"
	"lyricsync-go/scheduler"
	"lyricsync-go/services/resolver"
)

// stoppedFeed reports no playback position, keeping the scheduler idle.
type stoppedFeed struct{}

func (stoppedFeed) PositionMs() (float64, bool) { return 0, false }

func setupTestDaemon(t *testing.T) {
	t.Helper()
	resolv = resolver.New(nil, nil, nil, nil)
	sched = scheduler.New(stoppedFeed{}, eventSink{})
	setCurrentTrack(player.Track{})
}

func TestHelpHandler(t *testing.T) {
	setupTestDaemon(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	helpHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "endpoints") {
		t.Error("Expected help body to list endpoints")
	}
}

func TestGetResolve_MissingParams(t *testing.T) {
	setupTestDaemon(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/resolve", nil)
	getResolve(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for missing params, got %d", w.Code)
	}
}

func TestGetCandidates_NonePending(t *testing.T) {
	setupTestDaemon(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/candidates", nil)
	getCandidates(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp CandidatesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("Expected 0 candidates, got %d", resp.Count)
	}
	if resp.Candidates == nil {
		t.Error("Expected empty list, got null")
	}
}

func TestSelectCandidate_NoPending(t *testing.T) {
	setupTestDaemon(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/candidates/select",
		strings.NewReader(`{"source":"qq","id":"123"}`))
	selectCandidate(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 with no selection pending, got %d", w.Code)
	}
}

func TestSelectCandidate_BadSource(t *testing.T) {
	setupTestDaemon(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/candidates/select",
		strings.NewReader(`{"source":"spotify","id":"123"}`))
	selectCandidate(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for unknown source, got %d", w.Code)
	}
}

func TestSelectCandidate_QueryParams(t *testing.T) {
	setupTestDaemon(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/candidates/select?source=netease&id=42", nil)
	selectCandidate(w, r)

	// No body, falls back to query params; no pending selection
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestGetNowPlaying_Idle(t *testing.T) {
	setupTestDaemon(t)
	setCurrentTrack(player.Track{ID: "/track/1", Title: "Song", Artist: "Artist"})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/nowplaying", nil)
	getNowPlaying(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp NowPlayingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if resp.Track.Title != "Song" {
		t.Errorf("Expected tracked title, got %q", resp.Track.Title)
	}
	if resp.ActiveIndex != -1 {
		t.Errorf("Expected idle index -1, got %d", resp.ActiveIndex)
	}
}

func TestGetArtwork_MissingRef(t *testing.T) {
	setupTestDaemon(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/artwork", nil)
	getArtwork(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for missing ref, got %d", w.Code)
	}
}

func TestGetHealthStatus(t *testing.T) {
	setupTestDaemon(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)
	getHealthStatus(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", resp["status"])
	}
	if _, ok := resp["circuit_breakers"]; !ok {
		t.Error("Expected circuit breaker states in health response")
	}
}

func TestGetStats(t *testing.T) {
	setupTestDaemon(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/stats", nil)
	getStats(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	for _, section := range []string{"requests", "store", "resolution", "playback"} {
		if _, ok := resp[section]; !ok {
			t.Errorf("Expected %q section in stats response", section)
		}
	}
}
