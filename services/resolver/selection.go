package resolver

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"lyricsync-go/logcolors"
	"lyricsync-go/services/notifier"
	"lyricsync-go/services/providers"
	"lyricsync-go/stats"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrNoSelectionPending is returned by Select when no resolution is
	// waiting on a manual pick.
	ErrNoSelectionPending = errors.New("no candidate selection pending")

	// ErrSelectionSettled is returned when a selection window already
	// received a pick or timed out.
	ErrSelectionSettled = errors.New("selection already settled")

	// ErrUnknownCandidate is returned when the picked id is not in the
	// current candidate list.
	ErrUnknownCandidate = errors.New("unknown candidate")
)

// pendingSelection is the one-shot rendezvous between a blocked
// resolution and the external picker. Exactly one of {selection,
// timeout, cancellation} settles it; the settled flag keeps the losers
// inert.
type pendingSelection struct {
	candidates []providers.Song
	ch         chan providers.Song
	settled    atomic.Bool
}

// Candidates returns a snapshot of the candidate list awaiting manual
// selection, or nil when no resolution is blocked.
func (r *Resolver) Candidates() []providers.Song {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return nil
	}
	out := make([]providers.Song, len(r.pending.candidates))
	copy(out, r.pending.candidates)
	return out
}

// Select resolves the pending manual selection with the candidate
// identified by source and id. At most one Select per resolution call
// takes effect.
func (r *Resolver) Select(source providers.Source, id string) error {
	r.mu.Lock()
	p := r.pending
	r.mu.Unlock()

	if p == nil {
		return ErrNoSelectionPending
	}

	for _, c := range p.candidates {
		if c.Source == source && c.ID == id {
			if !p.settled.CompareAndSwap(false, true) {
				return ErrSelectionSettled
			}
			p.ch <- c
			log.Infof("%s Candidate selected: %s - %s [%s]",
				logcolors.LogSelection, c.Name, c.Album, c.Source)
			return nil
		}
	}
	return ErrUnknownCandidate
}

// awaitSelection parks the resolution until a selection arrives or the
// window expires. The bool result is false when the window closed
// without a pick.
func (r *Resolver) awaitSelection(ctx context.Context, track string, candidates []providers.Song) (providers.Song, bool) {
	p := &pendingSelection{
		candidates: candidates,
		ch:         make(chan providers.Song, 1),
	}
	r.mu.Lock()
	r.pending = p
	r.mu.Unlock()
	defer r.releasePending(p)

	notifier.PublishCandidatesReady(track, len(candidates))
	log.Infof("%s %d candidates ready for %q, waiting up to %v",
		logcolors.LogCandidates, len(candidates), track, r.selectionTimeout)

	timer := time.NewTimer(r.selectionTimeout)
	defer timer.Stop()

	select {
	case song := <-p.ch:
		return song, true

	case <-timer.C:
		if !p.settled.CompareAndSwap(false, true) {
			// A selection raced the timer and won; honor it.
			return <-p.ch, true
		}
		stats.Get().RecordSelectionTimeout()
		notifier.PublishSelectionTimeout(track)
		log.Infof("%s Selection window expired for %q", logcolors.LogSelection, track)
		return providers.Song{}, false

	case <-ctx.Done():
		p.settled.Store(true)
		return providers.Song{}, false
	}
}

// releasePending clears the pending slot only if it still belongs to
// p. A newer resolution may already have installed its own selection;
// an expiring window must not wipe that one out.
func (r *Resolver) releasePending(p *pendingSelection) {
	r.mu.Lock()
	if r.pending == p {
		r.pending = nil
	}
	r.mu.Unlock()
}

// clearPending drops any residual candidate list. Called at the start
// of every resolution.
func (r *Resolver) clearPending() {
	r.mu.Lock()
	r.pending = nil
	r.mu.Unlock()
}
