package main

import (
	"lyricsync-go/middleware"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the daemon
func setupRoutes(router *mux.Router) {
	// Resolution
	router.HandleFunc("/resolve", getResolve).Methods("GET", "POST")

	// Manual candidate selection
	router.HandleFunc("/candidates", getCandidates).Methods("GET")
	router.HandleFunc("/candidates/select", selectCandidate).Methods("POST")

	// Playback state
	router.HandleFunc("/nowplaying", getNowPlaying).Methods("GET")

	// Cover art
	router.HandleFunc("/artwork", getArtwork).Methods("GET")

	// Cache management
	router.HandleFunc("/cache", getCacheStats).Methods("GET")
	router.HandleFunc("/cache",
		middleware.RequireAccessToken(conf.Configuration.CacheAccessToken, clearCache)).Methods("DELETE")

	// Health and stats
	router.HandleFunc("/health", getHealthStatus).Methods("GET")
	router.HandleFunc("/stats", getStats).Methods("GET")

	// Help endpoint
	router.HandleFunc("/", helpHandler)
}
