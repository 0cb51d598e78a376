package lyric

import (
	"strconv"
	"strings"
)

// tagSeconds converts the inside of one bracket tag ("mm:ss.xx", optionally
// "h:mm:ss.xx") to seconds. Segments are read right to left as seconds,
// minutes, hours. A non-numeric segment counts as zero rather than failing
// the whole parse.
func tagSeconds(tag string) float64 {
	parts := strings.Split(tag, ":")
	var total float64
	scale := 1.0
	for i := len(parts) - 1; i >= 0; i-- {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			v = 0
		}
		total += v * scale
		scale *= 60
	}
	return total
}

// TagMilliseconds resolves a single timestamp tag (without the surrounding
// brackets) to milliseconds.
func TagMilliseconds(tag string) float64 {
	return tagSeconds(tag) * 1000
}
