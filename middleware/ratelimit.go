package middleware

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"

	"lyricsync-go/logcolors"
	"lyricsync-go/stats"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// LimiterPair holds both resolve and status tier limiters for an IP.
// Resolve requests fan out to providers and get the tight budget;
// status reads (/nowplaying, /candidates, /stats) get the loose one.
type LimiterPair struct {
	Resolve *rate.Limiter
	Status  *rate.Limiter
}

// GetResolveTokens returns the number of tokens available in the resolve tier
func (lp *LimiterPair) GetResolveTokens() int {
	return int(math.Floor(lp.Resolve.Tokens()))
}

// GetStatusTokens returns the number of tokens available in the status tier
func (lp *LimiterPair) GetStatusTokens() int {
	return int(math.Floor(lp.Status.Tokens()))
}

// IPRateLimiter manages two-tier rate limiting per IP
type IPRateLimiter struct {
	ips          map[string]*LimiterPair
	mu           *sync.RWMutex
	resolveRate  rate.Limit
	resolveBurst int
	statusRate   rate.Limit
	statusBurst  int
}

// GetResolveLimit returns the resolve tier burst limit
func (i *IPRateLimiter) GetResolveLimit() int {
	return i.resolveBurst
}

// GetStatusLimit returns the status tier burst limit
func (i *IPRateLimiter) GetStatusLimit() int {
	return i.statusBurst
}

// NewIPRateLimiter creates a new two-tier rate limiter
func NewIPRateLimiter(resolveRate rate.Limit, resolveBurst int, statusRate rate.Limit, statusBurst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:          make(map[string]*LimiterPair),
		mu:           &sync.RWMutex{},
		resolveRate:  resolveRate,
		resolveBurst: resolveBurst,
		statusRate:   statusRate,
		statusBurst:  statusBurst,
	}
}

func (i *IPRateLimiter) AddIP(ip string) *LimiterPair {
	i.mu.Lock()
	defer i.mu.Unlock()

	pair := &LimiterPair{
		Resolve: rate.NewLimiter(i.resolveRate, i.resolveBurst),
		Status:  rate.NewLimiter(i.statusRate, i.statusBurst),
	}

	i.ips[ip] = pair

	return pair
}

func (i *IPRateLimiter) GetLimiter(ip string) *LimiterPair {
	i.mu.Lock()
	limiter, exists := i.ips[ip]

	if !exists {
		i.mu.Unlock()
		return i.AddIP(ip)
	}

	i.mu.Unlock()

	return limiter
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects requests that exceed their tier's
// budget. Paths under /resolve draw from the resolve tier, everything
// else from the status tier.
func RateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pair := limiter.GetLimiter(clientIP(r))

			tier := pair.Status
			if strings.HasPrefix(r.URL.Path, "/resolve") {
				tier = pair.Resolve
			}

			if !tier.Allow() {
				stats.Get().RecordRateLimitExceeded()
				log.Warnf("%s Rate limit exceeded for %s on %s", logcolors.LogRateLimit, r.RemoteAddr, r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Rate limit exceeded","message":"Too many requests, slow down"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
