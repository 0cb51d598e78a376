package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"lyricsync-go/config"
	"lyricsync-go/logcolors"
	"lyricsync-go/services/providers"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// ProviderName is the identifier for the NetEase Cloud Music provider
	ProviderName = "netease"

	// API endpoints
	defaultSearchURL = "https://music.163.com/api/search/get/web"
	defaultLyricURL  = "https://music.163.com/api/song/lyric"
	defaultAlbumURL  = "https://music.163.com/api/album"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// searchResponse is the shape of the NetEase search API result
type searchResponse struct {
	Result struct {
		Songs []struct {
			ID      int    `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				ID     int    `json:"id"`
				Name   string `json:"name"`
				PicURL string `json:"picUrl"`
			} `json:"album"`
		} `json:"songs"`
	} `json:"result"`
	Code int `json:"code"`
}

// lyricResponse carries original and translated timelines as separate
// LRC documents
type lyricResponse struct {
	Lrc struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
	Tlyric struct {
		Lyric string `json:"lyric"`
	} `json:"tlyric"`
	Code int `json:"code"`
}

// albumResponse is the shape of the NetEase album detail result
type albumResponse struct {
	Album struct {
		PicURL string `json:"picUrl"`
	} `json:"album"`
	Code int `json:"code"`
}

// Client fetches search results and lyric payloads from NetEase Cloud
// Music
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	searchURL  string
	lyricURL   string
	albumURL   string
}

// NewClient creates a NetEase client with the configured timeout and
// outbound pacing
func NewClient() *Client {
	conf := config.Get()
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(conf.Configuration.ProviderTimeoutInSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(
			rate.Limit(conf.Configuration.ProviderRatePerSecond),
			conf.Configuration.ProviderBurstLimit,
		),
		searchURL: defaultSearchURL,
		lyricURL:  defaultLyricURL,
		albumURL:  defaultAlbumURL,
	}
}

// Search queries NetEase for track+artist and returns the raw result
// list, unfiltered. Search results usually omit the album picture, so
// cover refs stay empty until a secondary FetchCoverRef lookup.
func (c *Client) Search(ctx context.Context, track, artist string) ([]providers.Song, error) {
	keyword := track
	if artist != "" {
		keyword = track + " " + artist
	}

	params := url.Values{}
	params.Set("s", keyword)
	params.Set("type", "1")
	params.Set("limit", "20")
	params.Set("csrf_token", "")

	log.Debugf("%s %s Searching: %s", logcolors.LogSearch, logcolors.Provider(ProviderName), keyword)

	body, err := c.get(ctx, c.searchURL+"?"+params.Encode())
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "search request failed", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, providers.NewProviderError(ProviderName, "failed to parse search response", err)
	}

	songs := make([]providers.Song, 0, len(resp.Result.Songs))
	for _, item := range resp.Result.Songs {
		artists := make([]string, 0, len(item.Artists))
		for _, a := range item.Artists {
			artists = append(artists, a.Name)
		}
		songs = append(songs, providers.Song{
			ID:       strconv.Itoa(item.ID),
			Name:     item.Name,
			Artists:  artists,
			Album:    item.Album.Name,
			AlbumID:  strconv.Itoa(item.Album.ID),
			CoverRef: item.Album.PicURL,
			Source:   providers.SourceNetEase,
		})
	}

	log.Debugf("%s %s %d results for: %s", logcolors.LogSearch, logcolors.Provider(ProviderName), len(songs), keyword)
	return songs, nil
}

// FetchLyrics returns the original LRC text and, when the track has
// one, the translated LRC timeline.
func (c *Client) FetchLyrics(ctx context.Context, songID string) (providers.LyricPayload, error) {
	params := url.Values{}
	params.Set("os", "pc")
	params.Set("id", songID)
	params.Set("lv", "-1")
	params.Set("kv", "-1")
	params.Set("tv", "-1")

	body, err := c.get(ctx, c.lyricURL+"?"+params.Encode())
	if err != nil {
		return providers.LyricPayload{}, providers.NewProviderError(ProviderName, "lyric request failed", err)
	}

	var resp lyricResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return providers.LyricPayload{}, providers.NewProviderError(ProviderName, "failed to parse lyric response", err)
	}
	if resp.Lrc.Lyric == "" {
		return providers.LyricPayload{}, providers.NewProviderError(ProviderName, "lyric content is empty", nil)
	}

	return providers.LyricPayload{
		Raw:         resp.Lrc.Lyric,
		Translation: resp.Tlyric.Lyric,
	}, nil
}

// FetchCoverRef looks up the album detail record and returns its cover
// picture URL.
func (c *Client) FetchCoverRef(ctx context.Context, albumID string) (string, error) {
	if albumID == "" {
		return "", providers.NewProviderError(ProviderName, "album id is empty", nil)
	}

	body, err := c.get(ctx, c.albumURL+"/"+albumID)
	if err != nil {
		return "", providers.NewProviderError(ProviderName, "album request failed", err)
	}

	var resp albumResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", providers.NewProviderError(ProviderName, "failed to parse album response", err)
	}
	if resp.Album.PicURL == "" {
		return "", providers.NewProviderError(ProviderName, "album has no cover picture", nil)
	}

	return resp.Album.PicURL, nil
}

func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
