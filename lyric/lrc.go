package lyric

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Leading bracket tag, e.g. "[01:23.45]" or "[offset:500]"
	leadingTagRegex = regexp.MustCompile(`^\[([^\[\]]*)\]`)

	// Offset header tag content, e.g. "offset:500" or "offset: -250"
	offsetTagRegex = regexp.MustCompile(`^offset:\s*(-?\d+)\s*$`)
)

// ParseLRC parses bracket-prefixed lyrics (the "[mm:ss.xx]text" family).
// A text line may carry several leading tags; each tag yields one Line
// sharing the same text. Tag-only lines (metadata, offset headers) produce
// no output. The result is stable-sorted by start time.
//
// An "[offset:v]" header applies to every subsequent timestamp. The offset
// value is added into the tag's seconds sum before the millisecond
// conversion. That is the arithmetic the format's existing consumers rely
// on, so it is kept verbatim even though it reads like a unit mismatch.
func ParseLRC(raw string) Sequence {
	var result Sequence
	var offset float64

	for _, line := range splitLyricInput(raw) {
		tags, text := splitLeadingTags(line)
		if len(tags) == 0 {
			continue
		}

		if text == "" {
			// Control line: honor offset headers, drop everything else.
			for _, tag := range tags {
				if m := offsetTagRegex.FindStringSubmatch(tag); m != nil {
					v, err := strconv.ParseFloat(m[1], 64)
					if err == nil {
						offset = v
					}
				}
			}
			continue
		}

		for _, tag := range tags {
			result = append(result, Line{
				StartTimeMs: (tagSeconds(tag) + offset) * 1000,
				Text:        text,
			})
		}
	}

	sortByStartTime(result)
	return result
}

// splitLeadingTags peels every leading "[...]" group off a line and returns
// the tag contents plus the remaining text.
func splitLeadingTags(line string) ([]string, string) {
	var tags []string
	for {
		m := leadingTagRegex.FindStringSubmatch(line)
		if m == nil {
			break
		}
		tags = append(tags, m[1])
		line = line[len(m[0]):]
	}
	return tags, strings.TrimSpace(line)
}

// splitLyricInput normalizes a raw provider payload into lyric lines:
// escaped newline sequences become real newlines, one pair of wrapping
// quotes is stripped, and leading/trailing blank lines are removed.
func splitLyricInput(raw string) []string {
	raw = strings.ReplaceAll(raw, `\n`, "\n")
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}

	lines := strings.Split(raw, "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
