package main

import (
	"lyricsync-go/lyric"
	"lyricsync-go/player"
	"lyricsync-go/services/providers"
)

// ResolveResponse is the payload for a successful /resolve call.
type ResolveResponse struct {
	TrackID string         `json:"trackId,omitempty"`
	Track   string         `json:"track"`
	Source  string         `json:"source,omitempty"`
	Count   int            `json:"count"`
	Lines   lyric.Sequence `json:"lines"`
}

// CandidatesResponse lists songs awaiting manual selection.
type CandidatesResponse struct {
	Count      int              `json:"count"`
	Candidates []providers.Song `json:"candidates"`
}

// SelectRequest identifies the candidate picked by the user.
type SelectRequest struct {
	Source string `json:"source"`
	ID     string `json:"id"`
}

// NowPlayingResponse reports the playback state the daemon is tracking.
type NowPlayingResponse struct {
	Track       player.Track `json:"track"`
	ActiveIndex int          `json:"activeIndex"`
	ActiveLine  string       `json:"activeLine,omitempty"`
	LineCount   int          `json:"lineCount"`
}

// CacheStatsResponse is the payload for GET /cache.
type CacheStatsResponse struct {
	StoredTracks    int `json:"stored_tracks"`
	StoreSizeKB     int `json:"store_size_kb"`
	IdentityEntries int `json:"identity_entries"`
	ArtworkBytes    int `json:"artwork_bytes"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
