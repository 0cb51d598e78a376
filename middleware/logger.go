package middleware

import (
	"net/http"
	"time"

	"lyricsync-go/logcolors"
	"lyricsync-go/stats"

	log "github.com/sirupsen/logrus"
)

// ResponseRecorder wraps http.ResponseWriter to capture the status
// code and body size for logging and stats.
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode int
	BodySize   int
}

// NewResponseRecorder creates a recorder defaulting to 200 OK.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

func (r *ResponseRecorder) WriteHeader(statusCode int) {
	r.StatusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *ResponseRecorder) Write(data []byte) (int, error) {
	n, err := r.ResponseWriter.Write(data)
	r.BodySize += n
	return n, err
}

// getStatusColor returns the ANSI color for a status code class.
func getStatusColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return logcolors.Green
	case statusCode >= 300 && statusCode < 400:
		return logcolors.Cyan
	case statusCode >= 400 && statusCode < 500:
		return logcolors.Yellow
	case statusCode >= 500:
		return logcolors.Red
	default:
		return logcolors.Reset
	}
}

// LoggingMiddleware logs each request with its status, size and
// duration, and feeds the request counters.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewResponseRecorder(w)

		next.ServeHTTP(rec, r)

		duration := time.Since(start)

		st := stats.Get()
		st.RecordRequest(r.URL.Path)
		st.RecordStatusCode(rec.StatusCode)
		st.RecordResponseTime(duration, r.URL.Path)

		log.Infof("%s %s %s %s%d%s %dB %v",
			logcolors.LogServer,
			r.Method,
			r.URL.Path,
			getStatusColor(rec.StatusCode),
			rec.StatusCode,
			logcolors.Reset,
			rec.BodySize,
			duration,
		)
	})
}
