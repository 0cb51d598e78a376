// Package lyric contains the timeline model shared by the parsers, the
// merger and the playback scheduler: an ordered sequence of timestamped
// lyric lines with optional per-line translations.
package lyric

import "sort"

// EndSentinelGapMs is the gap between the last real lyric line and the
// synthetic end-of-song line appended by Finalize.
const EndSentinelGapMs = 5000

// Line is a single timestamped lyric line. Translation is empty when the
// line has no attached translation.
type Line struct {
	StartTimeMs float64 `json:"startTimeMs"`
	Text        string  `json:"text"`
	Translation string  `json:"translation,omitempty"`
}

// Sequence is an ordered list of lyric lines. After parsing, StartTimeMs is
// non-decreasing.
type Sequence []Line

// sortByStartTime stable-sorts lines ascending by start time. Stability
// keeps the relative order of lines expanded from the same multi-tag source
// line.
func sortByStartTime(lines Sequence) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].StartTimeMs < lines[j].StartTimeMs
	})
}

// Finalize appends the synthetic end-of-song sentinel (empty text, last
// start time + 5s) so the scheduler has a line to retire into. Calling it on
// an already finalized sequence is a no-op.
func Finalize(seq Sequence) Sequence {
	if len(seq) == 0 {
		return seq
	}
	last := seq[len(seq)-1]
	if last.Text == "" && last.Translation == "" {
		return seq
	}
	return append(seq, Line{StartTimeMs: last.StartTimeMs + EndSentinelGapMs})
}
