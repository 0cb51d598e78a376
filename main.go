package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lyricsync-go/cache"
	"lyricsync-go/config"
	"lyricsync-go/logcolors"
	"lyricsync-go/middleware"
	"lyricsync-go/player"
	"lyricsync-go/scheduler"
	"lyricsync-go/services/notifier"
	"lyricsync-go/services/providers/netease"
	"lyricsync-go/services/providers/qq"
	"lyricsync-go/services/resolver"
	"lyricsync-go/stats"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var conf = config.Get()

// resolveBudget caps one background resolution, covering provider round
// trips plus the full manual-selection window.
const resolveBudget = 60 * time.Second

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

func main() {
	var err error
	lyricStore, err = cache.NewStore(conf.Configuration.StoreDBPath, conf.FeatureFlags.CacheCompression)
	if err != nil {
		log.Fatalf("%s Failed to open lyric store: %v", logcolors.LogStore, err)
	}

	statsPath := filepath.Join(filepath.Dir(conf.Configuration.StoreDBPath), "stats.db")
	statsStore, err := stats.NewStore(statsPath)
	if err != nil {
		log.Fatalf("%s Failed to open stats store: %v", logcolors.LogStats, err)
	}
	if err := statsStore.Load(); err != nil {
		log.Warnf("%s Failed to load persisted stats: %v", logcolors.LogStats, err)
	}
	statsStore.StartAutoSave(5 * time.Minute)

	resolv = resolver.New(qq.NewClient(), netease.NewClient(), lyricStore, nil)
	sched = scheduler.New(&player.Feed{}, eventSink{})

	pollInterval := time.Duration(conf.Configuration.PollIntervalMs) * time.Millisecond
	watcher := player.NewWatcher(pollInterval, onTrackChange)
	watcher.Start()

	startAlerts()

	router := mux.NewRouter()
	setupRoutes(router)

	limiter := middleware.NewIPRateLimiter(
		rate.Limit(conf.Configuration.RateLimitPerSecond),
		conf.Configuration.RateLimitBurstLimit,
		rate.Limit(conf.Configuration.StatusRateLimitPerSecond),
		conf.Configuration.StatusRateLimitBurstLimit,
	)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type", "X-Access-Token"},
	})

	handler := middleware.RateLimitMiddleware(limiter)(
		c.Handler(middleware.LoggingMiddleware(router)))

	port := conf.Configuration.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	go func() {
		log.Infof("%s Listening on port %s", logcolors.LogServer, port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("%s Server failed: %v", logcolors.LogServer, err)
		}
	}()
	notifier.PublishServerStarted(port)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Infof("%s Shutting down", logcolors.LogServer)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("%s Shutdown error: %v", logcolors.LogServer, err)
	}

	watcher.Stop()
	sched.Stop()
	if err := statsStore.Close(); err != nil {
		log.Warnf("%s Failed to close stats store: %v", logcolors.LogStats, err)
	}
	if err := lyricStore.Close(); err != nil {
		log.Warnf("%s Failed to close lyric store: %v", logcolors.LogStore, err)
	}
}

// onTrackChange resolves lyrics for the new track in the background and
// loads the result into the scheduler. A failed or empty resolution
// leaves the scheduler idle.
func onTrackChange(track player.Track) {
	setCurrentTrack(track)
	notifier.PublishTrackChanged(track.Title, track.Artist)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), resolveBudget)
		defer cancel()

		seq, err := resolv.Resolve(ctx, resolver.Request{
			TrackID: track.ID,
			Track:   track.Title,
			Artist:  track.Artist,
			Album:   track.Album,
			Genre:   track.Genre,
		})
		if err != nil {
			log.Errorf("%s Resolution failed for %q: %v", logcolors.LogResolve, track.Title, err)
			sched.Stop()
			return
		}
		if len(seq) == 0 {
			sched.Stop()
			return
		}

		sched.Load(seq)
		stats.Get().RecordTrackScheduled()
	}()
}
