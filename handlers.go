package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"lyricsync-go/cache"
	"lyricsync-go/logcolors"
	"lyricsync-go/player"
	"lyricsync-go/scheduler"
	"lyricsync-go/services/notifier"
	"lyricsync-go/services/providers"
	"lyricsync-go/services/resolver"
	"lyricsync-go/stats"

	log "github.com/sirupsen/logrus"
)

var (
	resolv     *resolver.Resolver
	sched      *scheduler.Scheduler
	lyricStore *cache.Store

	trackMu      sync.RWMutex
	currentTrack player.Track
)

func setCurrentTrack(t player.Track) {
	trackMu.Lock()
	currentTrack = t
	trackMu.Unlock()
}

func getCurrentTrack() player.Track {
	trackMu.RLock()
	defer trackMu.RUnlock()
	return currentTrack
}

// getResolve resolves lyrics for the requested track and hands the
// result to the scheduler. The call blocks through the manual-selection
// window when no candidate matches outright.
func getResolve(w http.ResponseWriter, r *http.Request) {
	track := r.URL.Query().Get("track") + r.URL.Query().Get("s")
	artist := r.URL.Query().Get("artist") + r.URL.Query().Get("a")
	album := r.URL.Query().Get("album") + r.URL.Query().Get("al")
	trackID := r.URL.Query().Get("trackId")
	genre := r.URL.Query().Get("genre")

	if track == "" && artist == "" {
		Respond(w, r).Error(http.StatusUnprocessableEntity,
			ErrorResponse{Error: "Track name or artist name not provided"})
		return
	}

	req := resolver.Request{
		TrackID: trackID,
		Track:   track,
		Artist:  artist,
		Album:   album,
		Genre:   genre,
	}

	seq, err := resolv.Resolve(r.Context(), req)
	if err != nil {
		log.Errorf("%s Resolution failed for %q: %v", logcolors.LogResolve, track, err)
		Respond(w, r).Error(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	if len(seq) == 0 {
		Respond(w, r).Error(http.StatusNotFound,
			ErrorResponse{Error: "Lyrics not available for this track"})
		return
	}

	sched.Load(seq)
	stats.Get().RecordTrackScheduled()

	Respond(w, r).JSON(ResolveResponse{
		TrackID: trackID,
		Track:   track,
		Count:   len(seq),
		Lines:   seq,
	})
}

// getCandidates returns the candidate list of a resolution currently
// blocked on manual selection, or an empty list.
func getCandidates(w http.ResponseWriter, r *http.Request) {
	candidates := resolv.Candidates()
	if candidates == nil {
		candidates = []providers.Song{}
	}
	Respond(w, r).JSON(CandidatesResponse{Count: len(candidates), Candidates: candidates})
}

// selectCandidate settles a pending manual selection.
func selectCandidate(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Source = r.URL.Query().Get("source")
		req.ID = r.URL.Query().Get("id")
	}

	source, ok := providers.ParseSource(req.Source)
	if !ok || req.ID == "" {
		Respond(w, r).Error(http.StatusUnprocessableEntity,
			ErrorResponse{Error: "source and id are required"})
		return
	}

	err := resolv.Select(source, req.ID)
	switch {
	case err == nil:
		Respond(w, r).JSON(map[string]string{"status": "selected"})
	case errors.Is(err, resolver.ErrNoSelectionPending):
		Respond(w, r).Error(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, resolver.ErrSelectionSettled):
		Respond(w, r).Error(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, resolver.ErrUnknownCandidate):
		Respond(w, r).Error(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	default:
		Respond(w, r).Error(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// getNowPlaying reports the tracked playback state and the active line.
func getNowPlaying(w http.ResponseWriter, r *http.Request) {
	seq := sched.Sequence()
	idx := sched.CurrentIndex()

	resp := NowPlayingResponse{
		Track:       getCurrentTrack(),
		ActiveIndex: idx,
		LineCount:   len(seq),
	}
	if idx >= 0 && idx < len(seq) {
		resp.ActiveLine = seq[idx].Text
	}
	Respond(w, r).JSON(resp)
}

// getArtwork streams cached cover-art bytes for an opaque reference.
func getArtwork(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		Respond(w, r).Error(http.StatusUnprocessableEntity,
			ErrorResponse{Error: "Artwork reference not provided"})
		return
	}

	data, err := resolv.Artwork(r.Context(), ref)
	if err != nil {
		log.Warnf("%s Artwork fetch failed for %s: %v", logcolors.LogArtwork, ref, err)
		Respond(w, r).Error(http.StatusBadGateway, ErrorResponse{Error: "Artwork unavailable"})
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}

// getCacheStats reports resident sizes of the lyric store and the
// in-memory caches.
func getCacheStats(w http.ResponseWriter, r *http.Request) {
	numKeys, sizeKB := lyricStore.Stats()
	identityEntries, artworkBytes := resolv.CacheStats()

	Respond(w, r).JSON(CacheStatsResponse{
		StoredTracks:    numKeys,
		StoreSizeKB:     sizeKB,
		IdentityEntries: identityEntries,
		ArtworkBytes:    artworkBytes,
	})
}

// clearCache drops every stored lyric record. Guarded by the access
// token middleware.
func clearCache(w http.ResponseWriter, r *http.Request) {
	if err := lyricStore.Clear(); err != nil {
		Respond(w, r).Error(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	log.Infof("%s Lyric store cleared via API", logcolors.LogStore)
	notifier.PublishCacheCleared()
	Respond(w, r).JSON(map[string]string{"status": "cleared"})
}

// getStats returns the daemon statistics snapshot.
func getStats(w http.ResponseWriter, r *http.Request) {
	snapshot := stats.Get().Snapshot()
	snapshot["circuit_breakers"] = resolv.BreakerStats()
	Respond(w, r).JSON(snapshot)
}

// getHealthStatus reports liveness plus provider breaker states.
func getHealthStatus(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"status":           "ok",
		"uptime":           stats.Get().Uptime().String(),
		"circuit_breakers": resolv.BreakerStats(),
		"scheduler_active": sched.CurrentIndex() >= 0,
	})
}

// helpHandler documents the API surface.
func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"service": "lyricsync",
		"endpoints": map[string]string{
			"GET /resolve":            "Resolve lyrics for a track. Params: track (s), artist (a), album (al), trackId, genre",
			"GET /candidates":         "List candidates awaiting manual selection",
			"POST /candidates/select": "Settle a pending selection. Body: {source, id}",
			"GET /nowplaying":         "Current track and active lyric line",
			"GET /artwork":            "Cover art bytes. Params: ref",
			"GET /cache":              "Lyric store and cache statistics",
			"DELETE /cache":           "Clear the lyric store (requires X-Access-Token)",
			"GET /stats":              "Daemon statistics",
			"GET /health":             "Health check",
		},
	})
}
