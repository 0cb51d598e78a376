package lyric

import (
	"regexp"
	"strings"
)

var (
	// One or more inline timestamp tags at the start of a line,
	// e.g. "[12:34.56][-0:05]"
	qqTagGroupRegex = regexp.MustCompile(`^(?:\[-?\d+:\d+(?:\.\d+)?\])+`)

	// Individual tag inside the group
	qqTagRegex = regexp.MustCompile(`\[(-?\d+:\d+(?:\.\d+)?)\]`)

	// Optional trailing translation, e.g. "【你好】"
	qqTranslationRegex = regexp.MustCompile(`【([^【】]*)】\s*$`)
)

// ParseQQ parses inline-bracket lyrics: each line is one or more "[min:sec]"
// tags, the lyric text, and an optional "【translation】" suffix. Every tag
// yields one Line; a non-empty translation attaches to each line expanded
// from that tag group. The result is stable-sorted by start time.
func ParseQQ(raw string) Sequence {
	var result Sequence

	for _, line := range splitLyricInput(raw) {
		group := qqTagGroupRegex.FindString(line)
		if group == "" {
			continue
		}
		rest := line[len(group):]

		translation := ""
		if m := qqTranslationRegex.FindStringSubmatch(rest); m != nil {
			translation = strings.TrimSpace(m[1])
			rest = rest[:len(rest)-len(m[0])]
		}
		text := strings.TrimSpace(rest)

		for _, tag := range qqTagRegex.FindAllStringSubmatch(group, -1) {
			result = append(result, Line{
				StartTimeMs: TagMilliseconds(tag[1]),
				Text:        text,
				Translation: translation,
			})
		}
	}

	sortByStartTime(result)
	return result
}
