package stats

import (
	"sync/atomic"
	"time"
)

// Stats holds all daemon statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests   atomic.Int64
	ResolveRequests atomic.Int64
	ArtworkRequests atomic.Int64
	CacheRequests   atomic.Int64
	StatsRequests   atomic.Int64
	HealthRequests  atomic.Int64
	OtherRequests   atomic.Int64

	// Lyric store performance
	StoreHits   atomic.Int64
	StoreMisses atomic.Int64

	// Resolution outcomes
	ResolvedMatched  atomic.Int64 // automatic fuzzy match
	ResolvedSelected atomic.Int64 // manual candidate selection
	ResolvedEmpty    atomic.Int64 // no candidates, or selection timed out
	SelectionTimeout atomic.Int64
	ProviderFailures atomic.Int64

	// Playback
	IndexNotifications atomic.Int64
	TracksScheduled    atomic.Int64

	// Rate limiting
	RateLimitExceeded atomic.Int64 // Requests rejected (429)

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response time tracking (in microseconds for precision)
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64

	// Resolve endpoint response times (microseconds)
	resolveResponseTime  atomic.Int64
	resolveResponseCount atomic.Int64
}

// Global stats instance
var global = &Stats{
	StartTime: time.Now(),
}

func init() {
	// Initialize min to a high value
	global.minResponseTime.Store(int64(^uint64(0) >> 1)) // Max int64
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// RecordRequest records a request to a specific endpoint
func (s *Stats) RecordRequest(endpoint string) {
	s.TotalRequests.Add(1)
	switch endpoint {
	case "/resolve":
		s.ResolveRequests.Add(1)
	case "/artwork":
		s.ArtworkRequests.Add(1)
	case "/cache":
		s.CacheRequests.Add(1)
	case "/stats":
		s.StatsRequests.Add(1)
	case "/health":
		s.HealthRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordStoreHit records a lyric store hit
func (s *Stats) RecordStoreHit() {
	s.StoreHits.Add(1)
}

// RecordStoreMiss records a lyric store miss
func (s *Stats) RecordStoreMiss() {
	s.StoreMisses.Add(1)
}

// RecordResolution records the outcome of one resolution call
func (s *Stats) RecordResolution(outcome string) {
	switch outcome {
	case "matched":
		s.ResolvedMatched.Add(1)
	case "selected":
		s.ResolvedSelected.Add(1)
	case "empty":
		s.ResolvedEmpty.Add(1)
	}
}

// RecordSelectionTimeout records an expired manual-selection window
func (s *Stats) RecordSelectionTimeout() {
	s.SelectionTimeout.Add(1)
}

// RecordProviderFailure records a failed provider round trip
func (s *Stats) RecordProviderFailure() {
	s.ProviderFailures.Add(1)
}

// RecordIndexNotification records one scheduler index-changed event
func (s *Stats) RecordIndexNotification() {
	s.IndexNotifications.Add(1)
}

// RecordTrackScheduled records a sequence handed to the scheduler
func (s *Stats) RecordTrackScheduled() {
	s.TracksScheduled.Add(1)
}

// RecordRateLimitExceeded records a rejected request
func (s *Stats) RecordRateLimitExceeded() {
	s.RateLimitExceeded.Add(1)
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time
func (s *Stats) RecordResponseTime(duration time.Duration, endpoint string) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	// Update min/max atomically
	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}

	// Track resolve-specific response times
	if endpoint == "/resolve" {
		s.resolveResponseTime.Add(us)
		s.resolveResponseCount.Add(1)
	}
}

// Uptime returns the daemon uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// StoreHitRate returns the lyric store hit rate as a percentage
func (s *Stats) StoreHitRate() float64 {
	hits := s.StoreHits.Load()
	misses := s.StoreMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == int64(^uint64(0)>>1) {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// AvgResolveResponseTime returns the average response time for resolve requests
func (s *Stats) AvgResolveResponseTime() time.Duration {
	count := s.resolveResponseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.resolveResponseTime.Load()/count) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":   s.TotalRequests.Load(),
			"resolve": s.ResolveRequests.Load(),
			"artwork": s.ArtworkRequests.Load(),
			"cache":   s.CacheRequests.Load(),
			"stats":   s.StatsRequests.Load(),
			"health":  s.HealthRequests.Load(),
			"other":   s.OtherRequests.Load(),
		},
		"store": map[string]interface{}{
			"hits":     s.StoreHits.Load(),
			"misses":   s.StoreMisses.Load(),
			"hit_rate": s.StoreHitRate(),
		},
		"resolution": map[string]interface{}{
			"matched":            s.ResolvedMatched.Load(),
			"selected":           s.ResolvedSelected.Load(),
			"empty":              s.ResolvedEmpty.Load(),
			"selection_timeouts": s.SelectionTimeout.Load(),
			"provider_failures":  s.ProviderFailures.Load(),
		},
		"playback": map[string]interface{}{
			"tracks_scheduled":    s.TracksScheduled.Load(),
			"index_notifications": s.IndexNotifications.Load(),
		},
		"rate_limiting": map[string]interface{}{
			"exceeded": s.RateLimitExceeded.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg":         s.AvgResponseTime().String(),
			"min":         s.MinResponseTime().String(),
			"max":         s.MaxResponseTime().String(),
			"avg_resolve": s.AvgResolveResponseTime().String(),
		},
	}
}
