package qq

import (
	"context"
	"encoding/base64"
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
	// ProviderName is the identifier for the QQ Music provider
	ProviderName = "qq"

	// API endpoints
	defaultSearchURL = "https://c.y.qq.com/soso/fcgi-bin/client_search_cp"
	defaultLyricURL  = "https://c.y.qq.com/lyric/fcgi-bin/fcg_query_lyric_new.fcg"

	// The lyric endpoint rejects requests without a QQ Music referer
	refererHeader = "https://y.qq.com/"
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// searchResponse is the shape of the QQ Music search API result
type searchResponse struct {
	Code int `json:"code"`
	Data struct {
		Song struct {
			List []struct {
				SongMid   string `json:"songmid"`
				SongName  string `json:"songname"`
				AlbumMid  string `json:"albummid"`
				AlbumName string `json:"albumname"`
				Interval  int    `json:"interval"`
				Singer    []struct {
					Name string `json:"name"`
				} `json:"singer"`
			} `json:"list"`
		} `json:"song"`
	} `json:"data"`
}

// lyricResponse is the shape of the QQ Music lyric API result.
// Lyric and Trans are base64-encoded dialect text.
type lyricResponse struct {
	Retcode int    `json:"retcode"`
	Lyric   string `json:"lyric"`
	Trans   string `json:"trans"`
}

// Client fetches search results and lyric payloads from QQ Music
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	searchURL  string
	lyricURL   string
}

// NewClient creates a QQ Music client with the configured timeout and
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
	}
}

// Search queries QQ Music for track+artist and returns the raw result
// list, unfiltered
func (c *Client) Search(ctx context.Context, track, artist string) ([]providers.Song, error) {
	keyword := track
	if artist != "" {
		keyword = track + " " + artist
	}

	params := url.Values{}
	params.Set("w", keyword)
	params.Set("format", "json")
	params.Set("p", "1")
	params.Set("n", "20")
	params.Set("cr", "1")
	params.Set("aggr", "0")

	log.Debugf("%s %s Searching: %s", logcolors.LogSearch, logcolors.Provider(ProviderName), keyword)

	body, err := c.get(ctx, c.searchURL+"?"+params.Encode())
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "search request failed", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, providers.NewProviderError(ProviderName, "failed to parse search response", err)
	}
	if resp.Code != 0 {
		return nil, providers.NewProviderError(ProviderName, fmt.Sprintf("search API returned code %d", resp.Code), nil)
	}

	songs := make([]providers.Song, 0, len(resp.Data.Song.List))
	for _, item := range resp.Data.Song.List {
		artists := make([]string, 0, len(item.Singer))
		for _, s := range item.Singer {
			artists = append(artists, s.Name)
		}
		songs = append(songs, providers.Song{
			ID:       item.SongMid,
			Name:     item.SongName,
			Artists:  artists,
			Album:    item.AlbumName,
			AlbumID:  item.AlbumMid,
			CoverRef: coverURL(item.AlbumMid),
			Source:   providers.SourceQQ,
		})
	}

	log.Debugf("%s %s %d results for: %s", logcolors.LogSearch, logcolors.Provider(ProviderName), len(songs), keyword)
	return songs, nil
}

// FetchLyrics downloads and decodes the lyric payload for a song mid.
// The original text uses inline 【】 translation markers when the track
// ships a translated line set; Trans, when present, is a separate
// timeline.
func (c *Client) FetchLyrics(ctx context.Context, songID string) (providers.LyricPayload, error) {
	params := url.Values{}
	params.Set("songmid", songID)
	params.Set("format", "json")
	params.Set("g_tk", "5381")

	body, err := c.get(ctx, c.lyricURL+"?"+params.Encode())
	if err != nil {
		return providers.LyricPayload{}, providers.NewProviderError(ProviderName, "lyric request failed", err)
	}

	var resp lyricResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return providers.LyricPayload{}, providers.NewProviderError(ProviderName, "failed to parse lyric response", err)
	}
	if resp.Retcode != 0 {
		return providers.LyricPayload{}, providers.NewProviderError(ProviderName, "lyric API returned retcode "+strconv.Itoa(resp.Retcode), nil)
	}
	if resp.Lyric == "" {
		return providers.LyricPayload{}, providers.NewProviderError(ProviderName, "lyric content is empty", nil)
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Lyric)
	if err != nil {
		return providers.LyricPayload{}, providers.NewProviderError(ProviderName, "failed to decode lyric content", err)
	}

	payload := providers.LyricPayload{Raw: string(raw)}
	if resp.Trans != "" {
		trans, err := base64.StdEncoding.DecodeString(resp.Trans)
		if err != nil {
			log.Warnf("%s %s Dropping undecodable translation for %s: %v",
				logcolors.LogSearch, logcolors.Provider(ProviderName), songID, err)
		} else {
			payload.Translation = string(trans)
		}
	}

	return payload, nil
}

// FetchCoverRef returns the cover-art URL for an album mid. QQ cover
// URLs are derivable from the mid, so no request is made.
func (c *Client) FetchCoverRef(ctx context.Context, albumID string) (string, error) {
	if albumID == "" {
		return "", providers.NewProviderError(ProviderName, "album id is empty", nil)
	}
	return coverURL(albumID), nil
}

func coverURL(albumMid string) string {
	if albumMid == "" {
		return ""
	}
	return "https://y.qq.com/music/photo_new/T002R300x300M000" + albumMid + ".jpg"
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
	req.Header.Set("Referer", refererHeader)

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
