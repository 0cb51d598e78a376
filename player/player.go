// Package player reads playback state from the desktop media player
// via playerctl (MPRIS).
package player

import (
	"os/exec"
	"strconv"
	"strings"
	"time"

	"lyricsync-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// Track is the currently playing track's metadata.
type Track struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Genre  string `json:"genre,omitempty"`
}

// metadataFormat asks playerctl for tab-separated fields in one call
const metadataFormat = "{{mpris:trackid}}\t{{title}}\t{{artist}}\t{{album}}"

// Feed is a pull-based position accessor backed by playerctl.
type Feed struct{}

// PositionMs returns the playback position in milliseconds. ok is
// false when no player is running or the position cannot be read.
func (f *Feed) PositionMs() (float64, bool) {
	out, err := exec.Command("playerctl", "position").Output()
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, false
	}
	return seconds * 1000, true
}

// CurrentTrack returns the metadata of the playing track.
func CurrentTrack() (Track, error) {
	out, err := exec.Command("playerctl", "metadata", "--format", metadataFormat).Output()
	if err != nil {
		return Track{}, err
	}
	return parseMetadata(string(out)), nil
}

// parseMetadata splits one tab-separated playerctl metadata line.
func parseMetadata(line string) Track {
	fields := strings.Split(strings.TrimRight(line, "\n"), "\t")
	t := Track{}
	if len(fields) > 0 {
		t.ID = strings.TrimSpace(fields[0])
	}
	if len(fields) > 1 {
		t.Title = strings.TrimSpace(fields[1])
	}
	if len(fields) > 2 {
		t.Artist = strings.TrimSpace(fields[2])
	}
	if len(fields) > 3 {
		t.Album = strings.TrimSpace(fields[3])
	}
	return t
}

// Watcher polls playerctl for track changes and invokes the callback
// once per change.
type Watcher struct {
	interval time.Duration
	onChange func(Track)
	stop     chan struct{}
}

// NewWatcher creates a watcher that polls at the given interval.
func NewWatcher(interval time.Duration, onChange func(Track)) *Watcher {
	return &Watcher{
		interval: interval,
		onChange: onChange,
		stop:     make(chan struct{}),
	}
}

// Start begins polling in a background goroutine.
func (w *Watcher) Start() {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		var last Track
		for {
			select {
			case <-ticker.C:
				track, err := CurrentTrack()
				if err != nil {
					// no player running is routine, not an error
					continue
				}
				if track == last || track.Title == "" {
					continue
				}
				last = track
				log.Infof("%s Track changed: %s - %s", logcolors.LogPlayer, track.Artist, track.Title)
				w.onChange(track)
			case <-w.stop:
				return
			}
		}
	}()
	log.Infof("%s Watching for track changes every %v", logcolors.LogPlayer, w.interval)
}

// Stop ends the polling loop.
func (w *Watcher) Stop() {
	close(w.stop)
}
