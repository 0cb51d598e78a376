package lyric

import "math"

// DefaultMergeThresholdMs is the maximum timestamp distance at which a
// translation line is considered to belong to an original line.
const DefaultMergeThresholdMs = 20

// Merge attaches translation lines to original lines by approximate
// timestamp equality. Both inputs must already be sorted by start time.
// The output has exactly the original lines, in order; translation lines
// without a match inside thresholdMs are dropped. A non-positive threshold
// falls back to the default.
func Merge(orig, trans Sequence, thresholdMs float64) Sequence {
	if thresholdMs <= 0 {
		thresholdMs = DefaultMergeThresholdMs
	}

	merged := make(Sequence, 0, len(orig))
	i, j := 0, 0
	for i < len(orig) && j < len(trans) {
		o, t := orig[i], trans[j]
		switch {
		case math.Abs(o.StartTimeMs-t.StartTimeMs) < thresholdMs:
			o.Translation = t.Text
			merged = append(merged, o)
			i++
			j++
		case o.StartTimeMs < t.StartTimeMs:
			merged = append(merged, o)
			i++
		default:
			// Unmatched translation line, drop it.
			j++
		}
	}
	merged = append(merged, orig[i:]...)
	return merged
}
