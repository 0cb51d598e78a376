package middleware

import (
	"net/http"

	"lyricsync-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// RequireAccessToken guards destructive endpoints with a shared token
// passed in X-Access-Token. An empty configured token disables the
// endpoint entirely rather than leaving it open.
func RequireAccessToken(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			log.Warnf("%s Rejected %s %s: no access token configured", logcolors.LogServer, r.Method, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"Endpoint disabled","message":"No access token configured"}`))
			return
		}

		if r.Header.Get("X-Access-Token") != token {
			log.Warnf("%s Rejected %s %s: invalid access token from %s", logcolors.LogServer, r.Method, r.URL.Path, r.RemoteAddr)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized","message":"Invalid access token"}`))
			return
		}

		next(w, r)
	}
}
