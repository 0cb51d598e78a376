// Package resolver sequences provider lookups for a playing track:
// local store first, then QQ Music, then NetEase, with fuzzy matching
// against the requested metadata and a manual-selection fallback when
// nothing matches outright.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"lyricsync-go/cache"
	"lyricsync-go/circuitbreaker"
	"lyricsync-go/config"
	"lyricsync-go/logcolors"
	"lyricsync-go/lyric"
	"lyricsync-go/services/notifier"
	"lyricsync-go/services/providers"
	"lyricsync-go/stats"

	log "github.com/sirupsen/logrus"
)

// NameFixer is the external collaborator that recovers the
// original-language (track, artist, album) triple for tracks whose
// metadata is romanized. Empty returned strings mean "no correction".
type NameFixer interface {
	FixName(ctx context.Context, track, artist, album string) (string, string, string, error)
}

// Request identifies one track to resolve lyrics for.
type Request struct {
	TrackID string `json:"trackId"`
	Track   string `json:"track"`
	Artist  string `json:"artist"`
	Album   string `json:"album"`
	Genre   string `json:"genre,omitempty"`
}

// Resolver runs the resolution pipeline. All cross-call mutable state
// (caches, pending selection) is owned here and mutex- or
// cache-contract-guarded.
type Resolver struct {
	qq        providers.Client
	netease   providers.Client
	nameFixer NameFixer
	store     *cache.Store

	// identity memoizes fingerprint -> matched provider song, so a
	// replayed track skips the search round trips
	identity *cache.LRU[string, providers.Song]

	// artwork holds fetched cover-art bytes under a byte budget
	artwork *cache.LRU[string, []byte]

	breakers map[providers.Source]*circuitbreaker.CircuitBreaker

	originalNameGenres map[string]bool
	selectionTimeout   time.Duration
	mergeThresholdMs   float64
	artworkClient      *http.Client

	mu      sync.Mutex
	pending *pendingSelection
}

// New creates a resolver over the two provider clients. store and
// fixer may be nil: without a store every resolution goes to the
// network, without a fixer the original-language correction step is
// skipped.
func New(qq, netease providers.Client, store *cache.Store, fixer NameFixer) *Resolver {
	conf := config.Get()
	cooldown := time.Duration(conf.Configuration.CircuitBreakerCooldownSecs) * time.Second

	return &Resolver{
		qq:        qq,
		netease:   netease,
		nameFixer: fixer,
		store:     store,
		identity: cache.NewLRU[string, providers.Song](
			conf.Configuration.IdentityCacheEntries, cache.UnitCost[providers.Song]),
		artwork: cache.NewLRU[string, []byte](
			conf.Configuration.ArtworkCacheBudgetBytes, cache.ByteCost),
		breakers: map[providers.Source]*circuitbreaker.CircuitBreaker{
			providers.SourceQQ: circuitbreaker.New(circuitbreaker.Config{
				Name:      providers.SourceQQ.String(),
				Threshold: conf.Configuration.CircuitBreakerThreshold,
				Cooldown:  cooldown,
			}),
			providers.SourceNetEase: circuitbreaker.New(circuitbreaker.Config{
				Name:      providers.SourceNetEase.String(),
				Threshold: conf.Configuration.CircuitBreakerThreshold,
				Cooldown:  cooldown,
			}),
		},
		originalNameGenres: conf.OriginalNameGenreSet(),
		selectionTimeout:   time.Duration(conf.Configuration.SelectionTimeoutInSeconds) * time.Second,
		mergeThresholdMs:   conf.Configuration.MergeThresholdMs,
		artworkClient: &http.Client{
			Timeout: time.Duration(conf.Configuration.ProviderTimeoutInSeconds) * time.Second,
		},
	}
}

// resolveOrder is the fixed provider sequence: QQ first, NetEase only
// when QQ produced no match.
var resolveOrder = []providers.Source{providers.SourceQQ, providers.SourceNetEase}

// errNoMatch settles a coalesced search that found no matching song.
var errNoMatch = errors.New("no matching song")

// Resolve runs the full pipeline for one track. An empty sequence with
// a nil error means "lyrics unavailable"; the only hard error is a
// failed original-language correction.
func (r *Resolver) Resolve(ctx context.Context, req Request) (lyric.Sequence, error) {
	st := stats.Get()
	r.clearPending()

	// Local store fast path
	if r.store != nil && req.TrackID != "" {
		if seq, ok := r.store.LoadLyrics(req.TrackID); ok {
			st.RecordStoreHit()
			log.Debugf("%s Store hit for track %s", logcolors.LogResolve, req.TrackID)
			return seq, nil
		}
		st.RecordStoreMiss()
	}

	track, artist, album, err := r.correctedTriple(ctx, req)
	if err != nil {
		return nil, err
	}

	// Concurrent resolutions of the same fingerprint share one search
	// round trip: the first caller runs the providers, everyone else
	// reuses its matched identity. A fingerprint resolved earlier skips
	// the search the same way.
	fp := Fingerprint(track, artist, album)

	var matchedSeq lyric.Sequence
	var candidates []providers.Song
	song, err := r.identity.GetOrCompute(fp, func() (providers.Song, error) {
		s, seq, cands := r.searchAndMatch(ctx, track, artist, album)
		candidates = cands
		if seq == nil {
			return providers.Song{}, errNoMatch
		}
		matchedSeq = seq
		return s, nil
	})

	if err == nil && matchedSeq == nil {
		// Memoized identity: refetch by id without searching. A stale
		// entry whose refetch fails is dropped and searched fresh.
		log.Debugf("%s Identity cache hit for %q", logcolors.LogResolve, track)
		seq, ferr := r.fetchSequence(ctx, song)
		if ferr == nil {
			r.saveResolved(req, seq)
			return seq, nil
		}
		st.RecordProviderFailure()
		log.Warnf("%s Cached identity refetch failed for %q: %v", logcolors.LogResolve, track, ferr)
		r.identity.Delete(fp)

		s, fresh, cands := r.searchAndMatch(ctx, track, artist, album)
		candidates = cands
		if fresh != nil {
			r.identity.Set(fp, s)
			song, matchedSeq = s, fresh
		}
	}

	if matchedSeq != nil {
		r.saveResolved(req, matchedSeq)
		st.RecordResolution("matched")
		notifier.PublishLyricsResolved(track, song.Source.String(), len(matchedSeq))
		log.Infof("%s Matched %q on %s (%d lines)",
			logcolors.LogMatch, track, song.Source, len(matchedSeq))
		return matchedSeq, nil
	}

	if len(candidates) == 0 {
		st.RecordResolution("empty")
		notifier.PublishLyricsUnavailable(track)
		return lyric.Sequence{}, nil
	}

	r.enrichCoverRefs(ctx, candidates)

	song, ok := r.awaitSelection(ctx, track, candidates)
	if !ok {
		st.RecordResolution("empty")
		return lyric.Sequence{}, nil
	}

	seq, err := r.fetchSequence(ctx, song)
	if err != nil {
		st.RecordProviderFailure()
		st.RecordResolution("empty")
		log.Warnf("%s Lyric fetch failed for selected candidate %s: %v", logcolors.LogResolve, song.ID, err)
		return lyric.Sequence{}, nil
	}

	r.identity.Set(fp, song)
	r.saveResolved(req, seq)
	st.RecordResolution("selected")
	notifier.PublishLyricsResolved(track, song.Source.String(), len(seq))
	return seq, nil
}

// Artwork returns the cover-art bytes for an opaque reference,
// memoized under the byte budget with concurrent fetches for the same
// reference coalesced.
func (r *Resolver) Artwork(ctx context.Context, ref string) ([]byte, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty artwork reference")
	}
	return r.artwork.GetOrCompute(ref, func() ([]byte, error) {
		log.Debugf("%s Fetching artwork: %s", logcolors.LogArtwork, ref)
		req, err := http.NewRequestWithContext(ctx, "GET", ref, nil)
		if err != nil {
			return nil, err
		}
		resp, err := r.artworkClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
}

// CacheStats reports resident sizes of the in-memory caches.
func (r *Resolver) CacheStats() (identityEntries int, artworkBytes int) {
	return r.identity.Len(), r.artwork.Size()
}

// BreakerStats reports the circuit breaker state per provider.
func (r *Resolver) BreakerStats() map[string]string {
	out := make(map[string]string, len(r.breakers))
	for source, cb := range r.breakers {
		out[source.String()] = cb.State().String()
	}
	return out
}

// correctedTriple applies the original-language correction when the
// track's genre is configured for it. Failure here fails the whole
// resolution.
func (r *Resolver) correctedTriple(ctx context.Context, req Request) (string, string, string, error) {
	track, artist, album := req.Track, req.Artist, req.Album

	if r.nameFixer == nil || !r.originalNameGenres[strings.ToLower(strings.TrimSpace(req.Genre))] {
		return track, artist, album, nil
	}

	fixedTrack, fixedArtist, fixedAlbum, err := r.nameFixer.FixName(ctx, track, artist, album)
	if err != nil {
		return "", "", "", fmt.Errorf("original-name correction failed: %w", err)
	}

	if fixedTrack != "" {
		log.Infof("%s Corrected %q -> %q", logcolors.LogNameFix, track, fixedTrack)
		track = fixedTrack
	}
	if fixedArtist != "" {
		artist = fixedArtist
	}
	if fixedAlbum != "" {
		album = fixedAlbum
	}
	return track, artist, album, nil
}

// searchAndMatch walks the provider order once: search each source and
// return the first match whose lyrics fetch cleanly, collecting every
// other result as a selection candidate (deduplicated by source and
// id). A nil sequence means no usable match.
func (r *Resolver) searchAndMatch(ctx context.Context, track, artist, album string) (providers.Song, lyric.Sequence, []providers.Song) {
	st := stats.Get()
	var candidates []providers.Song
	seen := make(map[string]bool)

	for _, source := range resolveOrder {
		songs, err := r.search(ctx, source, track, artist)
		if err != nil {
			// Search failure means "no match here", not a fatal abort
			st.RecordProviderFailure()
			log.Warnf("%s %s search failed: %v", logcolors.LogResolve, logcolors.Provider(source.String()), err)
			continue
		}

		if song, ok := findMatch(songs, track, artist, album); ok {
			seq, err := r.fetchSequence(ctx, song)
			if err == nil {
				return song, seq, candidates
			}
			st.RecordProviderFailure()
			log.Warnf("%s Lyric fetch failed for matched song %s: %v", logcolors.LogResolve, song.ID, err)
		}

		for _, s := range songs {
			key := s.Source.String() + ":" + s.ID
			if !seen[key] {
				seen[key] = true
				candidates = append(candidates, s)
			}
		}
	}
	return providers.Song{}, nil, candidates
}

// search runs one provider search behind its circuit breaker.
func (r *Resolver) search(ctx context.Context, source providers.Source, track, artist string) ([]providers.Song, error) {
	cb := r.breakers[source]
	if !cb.Allow() {
		return nil, circuitbreaker.ErrCircuitOpen
	}

	songs, err := r.clientFor(source).Search(ctx, track, artist)
	if err != nil {
		cb.RecordFailure()
		return nil, err
	}
	cb.RecordSuccess()
	return songs, nil
}

// clientFor maps a source to its client.
func (r *Resolver) clientFor(source providers.Source) providers.Client {
	switch source {
	case providers.SourceQQ:
		return r.qq
	case providers.SourceNetEase:
		return r.netease
	default:
		return nil
	}
}

// findMatch returns the first song satisfying the fuzzy-match
// criterion.
func findMatch(songs []providers.Song, track, artist, album string) (providers.Song, bool) {
	for _, song := range songs {
		if songMatches(song, track, artist, album) {
			return song, true
		}
	}
	return providers.Song{}, false
}

// fetchSequence pulls the lyric payload for a song and runs it through
// the dialect parser and merge path for its source.
func (r *Resolver) fetchSequence(ctx context.Context, song providers.Song) (lyric.Sequence, error) {
	client := r.clientFor(song.Source)
	if client == nil {
		return nil, fmt.Errorf("no client for source %v", song.Source)
	}

	payload, err := client.FetchLyrics(ctx, song.ID)
	if err != nil {
		return nil, err
	}

	var seq lyric.Sequence
	switch song.Source {
	case providers.SourceQQ:
		seq = lyric.ParseQQ(payload.Raw)
	case providers.SourceNetEase:
		seq = lyric.ParseLRC(payload.Raw)
	default:
		return nil, fmt.Errorf("no parser for source %v", song.Source)
	}

	if payload.Translation != "" {
		trans := lyric.ParseLRC(payload.Translation)
		seq = lyric.Merge(seq, trans, r.mergeThresholdMs)
	}

	if len(seq) == 0 {
		return nil, providers.NewProviderError(song.Source.String(), "no parsable lyric lines", nil)
	}
	return lyric.Finalize(seq), nil
}

// enrichCoverRefs fills missing cover references with a concurrent
// fan-out over the candidates, joined before the selection window
// opens. Lookup failures leave the reference empty.
func (r *Resolver) enrichCoverRefs(ctx context.Context, candidates []providers.Song) {
	var wg sync.WaitGroup
	for i := range candidates {
		if candidates[i].CoverRef != "" || candidates[i].AlbumID == "" {
			continue
		}
		wg.Add(1)
		go func(c *providers.Song) {
			defer wg.Done()
			ref, err := r.clientFor(c.Source).FetchCoverRef(ctx, c.AlbumID)
			if err != nil {
				log.Debugf("%s Cover lookup failed for album %s: %v", logcolors.LogCandidates, c.AlbumID, err)
				return
			}
			c.CoverRef = ref
		}(&candidates[i])
	}
	wg.Wait()
}

// saveResolved persists a resolved sequence to the local store.
func (r *Resolver) saveResolved(req Request, seq lyric.Sequence) {
	if r.store == nil || req.TrackID == "" || len(seq) == 0 {
		return
	}
	if err := r.store.SaveLyrics(req.TrackID, req.Track, seq); err != nil {
		log.Warnf("%s Failed to persist lyrics for %q: %v", logcolors.LogStore, req.Track, err)
	}
}
