package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port string `envconfig:"PORT" default:"8080"`

		// Control-surface rate limiting. Resolve requests fan out to
		// providers and get the tight budget; status reads get the
		// loose one.
		RateLimitPerSecond        int `envconfig:"RATE_LIMIT_PER_SECOND" default:"5"`
		RateLimitBurstLimit       int `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"10"`
		StatusRateLimitPerSecond  int `envconfig:"STATUS_RATE_LIMIT_PER_SECOND" default:"20"`
		StatusRateLimitBurstLimit int `envconfig:"STATUS_RATE_LIMIT_BURST_LIMIT" default:"40"`

		// Outbound provider pacing
		ProviderRatePerSecond    int `envconfig:"PROVIDER_RATE_PER_SECOND" default:"2"`
		ProviderBurstLimit       int `envconfig:"PROVIDER_BURST_LIMIT" default:"4"`
		ProviderTimeoutInSeconds int `envconfig:"PROVIDER_TIMEOUT_IN_SECONDS" default:"10"`

		// Lyric timeline tuning
		MergeThresholdMs float64 `envconfig:"MERGE_THRESHOLD_MS" default:"20"`  // translation/original timestamp pairing window
		LookaheadMs      float64 `envconfig:"LOOKAHEAD_MS" default:"400"`       // forward correction applied to every observed position
		PollIntervalMs   int     `envconfig:"POLL_INTERVAL_MS" default:"1000"`  // player track-change poll cadence

		// Manual selection
		SelectionTimeoutInSeconds int `envconfig:"SELECTION_TIMEOUT_IN_SECONDS" default:"20"`

		// Caches
		ArtworkCacheBudgetBytes int    `envconfig:"ARTWORK_CACHE_BUDGET_BYTES" default:"104857600"` // ~100 MB
		IdentityCacheEntries    int    `envconfig:"IDENTITY_CACHE_ENTRIES" default:"30"`
		StoreDBPath             string `envconfig:"STORE_DB_PATH" default:"data/lyrics.db"`
		CacheAccessToken        string `envconfig:"CACHE_ACCESS_TOKEN" default:""`

		// Genres whose track names need an original-language correction
		// before any provider search (comma separated, lowercase)
		OriginalNameGenres string `envconfig:"ORIGINAL_NAME_GENRES" default:"anime,j-pop,k-pop"`

		// Circuit breaker around provider clients
		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"`
	}

	FeatureFlags struct {
		CacheCompression bool `envconfig:"FF_CACHE_COMPRESSION" default:"true"`
	}
}

// OriginalNameGenreSet returns the configured genre list as a lookup set.
func (c Config) OriginalNameGenreSet() map[string]bool {
	set := make(map[string]bool)
	for _, genre := range strings.Split(c.Configuration.OriginalNameGenres, ",") {
		genre = strings.ToLower(strings.TrimSpace(genre))
		if genre != "" {
			set[genre] = true
		}
	}
	return set
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
