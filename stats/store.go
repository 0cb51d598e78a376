package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lyricsync-go/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	statsBucketName = "stats"
	statsKey        = "daemon_stats"
)

// Store handles persistent storage for stats
type Store struct {
	db       *bolt.DB
	dbPath   string
	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// PersistedStats represents the stats data that gets persisted to disk
type PersistedStats struct {
	// Cumulative counters (these accumulate across restarts)
	TotalRequests      int64 `json:"total_requests"`
	ResolveRequests    int64 `json:"resolve_requests"`
	ArtworkRequests    int64 `json:"artwork_requests"`
	CacheRequests      int64 `json:"cache_requests"`
	StatsRequests      int64 `json:"stats_requests"`
	HealthRequests     int64 `json:"health_requests"`
	OtherRequests      int64 `json:"other_requests"`
	StoreHits          int64 `json:"store_hits"`
	StoreMisses        int64 `json:"store_misses"`
	ResolvedMatched    int64 `json:"resolved_matched"`
	ResolvedSelected   int64 `json:"resolved_selected"`
	ResolvedEmpty      int64 `json:"resolved_empty"`
	SelectionTimeout   int64 `json:"selection_timeouts"`
	ProviderFailures   int64 `json:"provider_failures"`
	IndexNotifications int64 `json:"index_notifications"`
	TracksScheduled    int64 `json:"tracks_scheduled"`
	RateLimitExceeded  int64 `json:"rate_limit_exceeded"`
	Status2xx          int64 `json:"status_2xx"`
	Status4xx          int64 `json:"status_4xx"`
	Status5xx          int64 `json:"status_5xx"`

	// Response time tracking
	TotalResponseTime    int64 `json:"total_response_time"`
	ResponseCount        int64 `json:"response_count"`
	MinResponseTime      int64 `json:"min_response_time"`
	MaxResponseTime      int64 `json:"max_response_time"`
	ResolveResponseTime  int64 `json:"resolve_response_time"`
	ResolveResponseCount int64 `json:"resolve_response_count"`

	// Metadata
	LastSaved    time.Time `json:"last_saved"`
	FirstStarted time.Time `json:"first_started"`
}

// NewStore creates a new stats store with a dedicated BoltDB file
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %v", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(statsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stats bucket: %v", err)
	}

	store := &Store{
		db:       db,
		dbPath:   dbPath,
		stopChan: make(chan struct{}),
	}

	log.Infof("%s Stats store initialized at %s", logcolors.LogStats, dbPath)
	return store, nil
}

// Load reads persisted stats from disk and applies them to the global stats
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var persisted PersistedStats
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return nil
		}

		data := b.Get([]byte(statsKey))
		if data == nil {
			return nil // No persisted stats yet
		}

		return json.Unmarshal(data, &persisted)
	})

	if err != nil {
		return fmt.Errorf("failed to load stats: %v", err)
	}

	// Apply persisted values to global stats
	stats := Get()

	stats.TotalRequests.Store(persisted.TotalRequests)
	stats.ResolveRequests.Store(persisted.ResolveRequests)
	stats.ArtworkRequests.Store(persisted.ArtworkRequests)
	stats.CacheRequests.Store(persisted.CacheRequests)
	stats.StatsRequests.Store(persisted.StatsRequests)
	stats.HealthRequests.Store(persisted.HealthRequests)
	stats.OtherRequests.Store(persisted.OtherRequests)
	stats.StoreHits.Store(persisted.StoreHits)
	stats.StoreMisses.Store(persisted.StoreMisses)
	stats.ResolvedMatched.Store(persisted.ResolvedMatched)
	stats.ResolvedSelected.Store(persisted.ResolvedSelected)
	stats.ResolvedEmpty.Store(persisted.ResolvedEmpty)
	stats.SelectionTimeout.Store(persisted.SelectionTimeout)
	stats.ProviderFailures.Store(persisted.ProviderFailures)
	stats.IndexNotifications.Store(persisted.IndexNotifications)
	stats.TracksScheduled.Store(persisted.TracksScheduled)
	stats.RateLimitExceeded.Store(persisted.RateLimitExceeded)
	stats.Status2xx.Store(persisted.Status2xx)
	stats.Status4xx.Store(persisted.Status4xx)
	stats.Status5xx.Store(persisted.Status5xx)
	stats.totalResponseTime.Store(persisted.TotalResponseTime)
	stats.responseCount.Store(persisted.ResponseCount)
	stats.resolveResponseTime.Store(persisted.ResolveResponseTime)
	stats.resolveResponseCount.Store(persisted.ResolveResponseCount)

	// Only update min/max if we have valid persisted values
	if persisted.MinResponseTime > 0 && persisted.MinResponseTime < int64(^uint64(0)>>1) {
		stats.minResponseTime.Store(persisted.MinResponseTime)
	}
	if persisted.MaxResponseTime > 0 {
		stats.maxResponseTime.Store(persisted.MaxResponseTime)
	}

	// Preserve the original first start time if available
	if !persisted.FirstStarted.IsZero() {
		stats.StartTime = persisted.FirstStarted
	}

	log.Infof("%s Loaded persisted stats (total requests: %d, first started: %s)",
		logcolors.LogStats, persisted.TotalRequests, persisted.FirstStarted.Format(time.RFC3339))

	return nil
}

// Save persists current stats to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Get()

	persisted := PersistedStats{
		TotalRequests:        stats.TotalRequests.Load(),
		ResolveRequests:      stats.ResolveRequests.Load(),
		ArtworkRequests:      stats.ArtworkRequests.Load(),
		CacheRequests:        stats.CacheRequests.Load(),
		StatsRequests:        stats.StatsRequests.Load(),
		HealthRequests:       stats.HealthRequests.Load(),
		OtherRequests:        stats.OtherRequests.Load(),
		StoreHits:            stats.StoreHits.Load(),
		StoreMisses:          stats.StoreMisses.Load(),
		ResolvedMatched:      stats.ResolvedMatched.Load(),
		ResolvedSelected:     stats.ResolvedSelected.Load(),
		ResolvedEmpty:        stats.ResolvedEmpty.Load(),
		SelectionTimeout:     stats.SelectionTimeout.Load(),
		ProviderFailures:     stats.ProviderFailures.Load(),
		IndexNotifications:   stats.IndexNotifications.Load(),
		TracksScheduled:      stats.TracksScheduled.Load(),
		RateLimitExceeded:    stats.RateLimitExceeded.Load(),
		Status2xx:            stats.Status2xx.Load(),
		Status4xx:            stats.Status4xx.Load(),
		Status5xx:            stats.Status5xx.Load(),
		TotalResponseTime:    stats.totalResponseTime.Load(),
		ResponseCount:        stats.responseCount.Load(),
		MinResponseTime:      stats.minResponseTime.Load(),
		MaxResponseTime:      stats.maxResponseTime.Load(),
		ResolveResponseTime:  stats.resolveResponseTime.Load(),
		ResolveResponseCount: stats.resolveResponseCount.Load(),
		LastSaved:            time.Now(),
		FirstStarted:         stats.StartTime,
	}

	data, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %v", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return fmt.Errorf("stats bucket not found")
		}
		return b.Put([]byte(statsKey), data)
	})

	if err != nil {
		return fmt.Errorf("failed to save stats: %v", err)
	}

	return nil
}

// StartAutoSave begins periodic saving of stats
func (s *Store) StartAutoSave(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Save(); err != nil {
					log.Warnf("%s Failed to auto-save stats: %v", logcolors.LogStats, err)
				}
			case <-s.stopChan:
				return
			}
		}
	}()
	log.Infof("%s Started auto-save with interval %v", logcolors.LogStats, interval)
}

// Close saves stats and closes the database
func (s *Store) Close() error {
	// Signal auto-save goroutine to stop
	close(s.stopChan)
	s.wg.Wait()

	// Final save before closing
	if err := s.Save(); err != nil {
		log.Warnf("%s Failed to save stats on close: %v", logcolors.LogStats, err)
	} else {
		log.Infof("%s Stats saved on shutdown", logcolors.LogStats)
	}

	return s.db.Close()
}
