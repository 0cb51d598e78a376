package providers

import (
	"context"
	"encoding/json"
	"fmt"
)

// Source identifies which external lyric service a record came from.
// The set is closed: resolution order and by-id refetch both switch on
// it, so adding a service means adding a variant and its call sites.
type Source int

const (
	SourceQQ Source = iota
	SourceNetEase
)

func (s Source) String() string {
	switch s {
	case SourceQQ:
		return "qq"
	case SourceNetEase:
		return "netease"
	default:
		return "unknown"
	}
}

// ParseSource maps a wire name back to its Source.
func ParseSource(name string) (Source, bool) {
	switch name {
	case "qq":
		return SourceQQ, true
	case "netease":
		return SourceNetEase, true
	default:
		return 0, false
	}
}

// MarshalJSON encodes a Source as its wire name.
func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a wire name into a Source.
func (s *Source) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, ok := ParseSource(name)
	if !ok {
		return fmt.Errorf("unknown source %q", name)
	}
	*s = parsed
	return nil
}

// Song is one provider-native search result, normalized to the common
// shape the resolver matches against.
type Song struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Artists  []string `json:"artists"`
	Album    string   `json:"album"`
	AlbumID  string   `json:"albumId"`
	CoverRef string   `json:"albumCoverRef"`
	Source   Source   `json:"source"`
}

// LyricPayload is the raw dialect-tagged lyric text for one song. Raw
// carries the original-language lines; Translation, when present, is a
// separate timeline in the same dialect.
type LyricPayload struct {
	Raw         string `json:"raw"`
	Translation string `json:"translation,omitempty"`
}

// Client is the fetch surface each source exposes. The resolver treats
// these as black boxes: only the result shapes matter.
type Client interface {
	// Search returns the provider's raw result list for a track/artist
	// query, without any match filtering.
	Search(ctx context.Context, track, artist string) ([]Song, error)

	// FetchLyrics returns the lyric payload for a provider song id.
	FetchLyrics(ctx context.Context, songID string) (LyricPayload, error)

	// FetchCoverRef returns an opaque cover-art reference for a
	// provider album id.
	FetchCoverRef(ctx context.Context, albumID string) (string, error)
}

// ProviderError represents an error from a provider with additional context
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}
