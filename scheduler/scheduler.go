// Package scheduler advances the active lyric line in step with a live
// playback position. One timer-driven loop runs per loaded sequence;
// loading a new sequence cancels the previous loop before the next one
// starts.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"lyricsync-go/config"
	"lyricsync-go/logcolors"
	"lyricsync-go/lyric"

	log "github.com/sirupsen/logrus"
)

// PositionFeed reports the current playback position in milliseconds.
// ok is false when no position is available (playback stopped).
type PositionFeed interface {
	PositionMs() (float64, bool)
}

// Sink consumes active-index notifications from the loop.
type Sink interface {
	IndexChanged(index int, seq lyric.Sequence)
	Cleared()
}

// Scheduler owns the loop state. currentIndex is written only by the
// running loop; readers see it through CurrentIndex or the sink.
type Scheduler struct {
	feed        PositionFeed
	sink        Sink
	lookaheadMs float64

	mu     sync.Mutex // serializes Load/Stop
	cancel context.CancelFunc
	done   chan struct{}
	seq    lyric.Sequence

	current atomic.Int64 // -1 when no line is active
}

// New creates a scheduler over a position feed and a notification sink.
func New(feed PositionFeed, sink Sink) *Scheduler {
	conf := config.Get()
	s := &Scheduler{
		feed:        feed,
		sink:        sink,
		lookaheadMs: conf.Configuration.LookaheadMs,
	}
	s.current.Store(-1)
	return s
}

// Load replaces the active sequence and starts a fresh loop. The
// superseded loop is cancelled and fully drained first, so two loops
// never race on the active index. An empty sequence just stops.
func (s *Scheduler) Load(seq lyric.Sequence) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.seq = seq
	s.current.Store(-1)

	if len(seq) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	log.Infof("%s Scheduling %d lines (lookahead %.0fms)", logcolors.LogScheduler, len(seq), s.lookaheadMs)
	go s.run(ctx, seq, done)
}

// Stop cancels the active loop and clears the index.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancelLocked()
	s.seq = nil
	s.current.Store(-1)
	s.mu.Unlock()

	s.sink.Cleared()
}

// CurrentIndex returns the active line index, or -1 when idle.
func (s *Scheduler) CurrentIndex() int {
	return int(s.current.Load())
}

// Sequence returns the loaded sequence, or nil when idle.
func (s *Scheduler) Sequence() lyric.Sequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// cancelLocked stops the running loop and waits for it to exit. The
// loop never takes s.mu, so waiting under the lock cannot deadlock.
func (s *Scheduler) cancelLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	<-s.done
	s.done = nil
}

// run is the timer loop. Each cycle observes a fresh position, applies
// the lookahead, finds the upcoming line, sleeps until its start time,
// then advances and notifies. Cancellation during the sleep emits
// nothing.
func (s *Scheduler) run(ctx context.Context, seq lyric.Sequence, done chan struct{}) {
	defer close(done)
	current := -1

	for {
		pos, ok := s.feed.PositionMs()
		if !ok {
			log.Debugf("%s Position unavailable, going idle", logcolors.LogScheduler)
			s.goIdle()
			return
		}
		pos += s.lookaheadMs

		upcoming, ok := nextIndex(seq, current, pos)
		if !ok {
			log.Debugf("%s Sequence exhausted at %.0fms", logcolors.LogScheduler, pos)
			s.goIdle()
			return
		}

		// Fresh start mid-song: the previous line is the best guess
		// for what is on screen right now.
		if current < 0 && upcoming > 0 {
			current = upcoming - 1
			s.current.Store(int64(current))
			s.sink.IndexChanged(current, seq)
		}

		delayMs := seq[upcoming].StartTimeMs - pos
		if delayMs < 0 {
			delayMs = 0
		}

		timer := time.NewTimer(time.Duration(delayMs * float64(time.Millisecond)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if upcoming >= len(seq) {
			current = -1
			s.current.Store(-1)
			continue
		}
		current = upcoming
		s.current.Store(int64(current))
		s.sink.IndexChanged(current, seq)
	}
}

func (s *Scheduler) goIdle() {
	s.current.Store(-1)
	s.sink.Cleared()
}

// nextIndex computes the next line to arm a timer for. The fast path
// covers the common case of the position sitting inside the current
// line; everything else (fresh start, scrub, rewind past the end)
// falls back to a linear search for the first line starting after pos.
// ok is false when the position is past every timestamp.
func nextIndex(seq lyric.Sequence, current int, pos float64) (int, bool) {
	if current >= 0 {
		next := current + 1
		if next < len(seq) {
			if pos >= seq[current].StartTimeMs && pos < seq[next].StartTimeMs {
				return next, true
			}
			// miss: scrub during the sleep, fall through to search
		} else {
			if pos >= seq[current].StartTimeMs {
				return 0, false // exhausted
			}
			// rewound below the final line, fall through to search
		}
	}

	for i := range seq {
		if seq[i].StartTimeMs > pos {
			return i, true
		}
	}
	return 0, false
}
