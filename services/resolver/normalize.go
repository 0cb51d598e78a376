package resolver

import (
	"strings"

	"lyricsync-go/services/providers"
)

// punctFolder maps common full-width punctuation variants to their
// ASCII forms so provider metadata in mixed scripts compares equal.
var punctFolder = strings.NewReplacer(
	"（", "(", "）", ")",
	"［", "[", "］", "]",
	"｛", "{", "｝", "}",
	"【", "[", "】", "]",
	"「", "\"", "」", "\"",
	"『", "\"", "』", "\"",
	"“", "\"", "”", "\"",
	"‘", "'", "’", "'",
	"，", ",", "：", ":", "；", ";",
	"！", "!", "？", "?",
	"～", "~", "－", "-", "．", ".",
)

// Normalize folds punctuation variants, lowercases, and collapses
// whitespace runs to single spaces.
func Normalize(s string) string {
	s = punctFolder.Replace(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Fingerprint derives the cache key for a (track, artist, album)
// triple.
func Fingerprint(track, artist, album string) string {
	return Normalize(track) + "|" + Normalize(artist) + "|" + Normalize(album)
}

// songMatches reports whether a provider result matches the requested
// triple: equal track name, at least one equal artist, and an album
// that is equal or contains/is contained by the requested one. The
// containment rule is deliberately loose to keep matching retitled
// regional releases.
func songMatches(song providers.Song, track, artist, album string) bool {
	if Normalize(song.Name) != Normalize(track) {
		return false
	}

	wantArtist := Normalize(artist)
	artistMatched := false
	for _, a := range song.Artists {
		if Normalize(a) == wantArtist {
			artistMatched = true
			break
		}
	}
	if !artistMatched {
		return false
	}

	wantAlbum := Normalize(album)
	gotAlbum := Normalize(song.Album)
	return wantAlbum == gotAlbum ||
		strings.Contains(wantAlbum, gotAlbum) ||
		strings.Contains(gotAlbum, wantAlbum)
}
