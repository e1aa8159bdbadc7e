// Lyrics sources: LRCLIB, NetEase Cloud Music, and Genius.
//
// LRCLIB and NetEase can return synced (LRC) lyrics; Genius only has
// plain text scraped from song pages.
package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/audiotag/internal/shared"
	"golang.org/x/oauth2"
)

const (
	lrclibBaseURL  = "https://lrclib.net/api"
	neteaseBaseURL = "https://music.163.com/api"
	geniusBaseURL  = "https://api.genius.com"
)

// LRCLibService implements [LyricsSource] against lrclib.net.
type LRCLibService struct {
	client  *client
	baseURL string
}

// NewLRCLibService creates an LRCLIB client. httpClient may be nil.
func NewLRCLibService(cfg shared.ProvidersConfig, httpClient *http.Client) *LRCLibService {
	return &LRCLibService{client: newClient(cfg, httpClient), baseURL: lrclibBaseURL}
}

func (s *LRCLibService) Name() string { return "lrclib" }

type lrclibResponse struct {
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// Lyrics fetches lyrics by exact track, artist, and duration match.
func (s *LRCLibService) Lyrics(ctx context.Context, q LyricsQuery) (*LyricsResult, error) {
	params := url.Values{}
	params.Set("track_name", q.Title)
	params.Set("artist_name", q.Artist)
	if q.Album != "" {
		params.Set("album_name", q.Album)
	}
	if q.Duration > 0 {
		params.Set("duration", strconv.Itoa(q.Duration))
	}

	var resp lrclibResponse
	endpoint := s.baseURL + "/get?" + params.Encode()
	if err := s.client.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	if resp.PlainLyrics == "" && resp.SyncedLyrics == "" {
		return nil, fmt.Errorf("%w: lrclib has no lyrics for %q", shared.ErrNoMatch, q.Title)
	}

	return &LyricsResult{Plain: resp.PlainLyrics, Synced: resp.SyncedLyrics, Source: s.Name()}, nil
}

// NetEaseService implements [LyricsSource] against NetEase Cloud Music.
type NetEaseService struct {
	client  *client
	baseURL string
}

// NewNetEaseService creates a NetEase client. httpClient may be nil.
func NewNetEaseService(cfg shared.ProvidersConfig, httpClient *http.Client) *NetEaseService {
	return &NetEaseService{client: newClient(cfg, httpClient), baseURL: neteaseBaseURL}
}

func (s *NetEaseService) Name() string { return "netease" }

type neteaseSearchResponse struct {
	Result struct {
		Songs []struct {
			ID      int    `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"songs"`
	} `json:"result"`
}

type neteaseLyricResponse struct {
	Lrc struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
}

// Lyrics searches for the track and fetches its LRC lyric body. LRC
// text doubles as the plain lyrics with timestamps stripped.
func (s *NetEaseService) Lyrics(ctx context.Context, q LyricsQuery) (*LyricsResult, error) {
	params := url.Values{}
	params.Set("s", q.Artist+" "+q.Title)
	params.Set("type", "1")
	params.Set("limit", "5")

	var search neteaseSearchResponse
	endpoint := s.baseURL + "/search/get?" + params.Encode()
	if err := s.client.getJSON(ctx, endpoint, nil, &search); err != nil {
		return nil, err
	}

	songID := 0
	for _, song := range search.Result.Songs {
		if similarity(q.Title, song.Name) >= 0.6 {
			songID = song.ID
			break
		}
	}
	if songID == 0 {
		return nil, fmt.Errorf("%w: netease has no match for %q", shared.ErrNoMatch, q.Title)
	}

	lyricParams := url.Values{}
	lyricParams.Set("id", strconv.Itoa(songID))
	lyricParams.Set("lv", "1")

	var lyric neteaseLyricResponse
	endpoint = s.baseURL + "/song/lyric?" + lyricParams.Encode()
	if err := s.client.getJSON(ctx, endpoint, nil, &lyric); err != nil {
		return nil, err
	}

	lrc := strings.TrimSpace(lyric.Lrc.Lyric)
	if lrc == "" {
		return nil, fmt.Errorf("%w: netease has no lyrics for %q", shared.ErrNoMatch, q.Title)
	}

	return &LyricsResult{Plain: stripTimestamps(lrc), Synced: lrc, Source: s.Name()}, nil
}

// stripTimestamps removes leading [mm:ss.xx] tags from each LRC line.
func stripTimestamps(lrc string) string {
	lines := strings.Split(lrc, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		for strings.HasPrefix(line, "[") {
			end := strings.IndexByte(line, ']')
			if end < 0 {
				break
			}
			line = line[end+1:]
		}

		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}

// GeniusService implements [LyricsSource] against the Genius API,
// scraping the song page for the lyric text itself.
type GeniusService struct {
	api     *client
	pages   *client
	baseURL string
	token   string
}

// NewGeniusService creates a Genius client authorized via a static
// OAuth2 access token.
func NewGeniusService(cfg shared.ProvidersConfig) *GeniusService {
	var apiHTTP *http.Client
	if cfg.GeniusAPIKey != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GeniusAPIKey})
		apiHTTP = oauth2.NewClient(context.Background(), src)
	}

	return &GeniusService{
		api:     newClient(cfg, apiHTTP),
		pages:   newClient(cfg, nil),
		baseURL: geniusBaseURL,
		token:   cfg.GeniusAPIKey,
	}
}

func (s *GeniusService) Name() string { return "genius" }

type geniusSearchResponse struct {
	Response struct {
		Hits []struct {
			Result struct {
				Title  string `json:"title"`
				URL    string `json:"url"`
				Artist struct {
					Name string `json:"name"`
				} `json:"primary_artist"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// Lyrics searches Genius and scrapes the best hit's song page.
func (s *GeniusService) Lyrics(ctx context.Context, q LyricsQuery) (*LyricsResult, error) {
	if s.token == "" {
		return nil, fmt.Errorf("%w: genius api key", shared.ErrMissingCredentials)
	}

	params := url.Values{}
	params.Set("q", q.Artist+" "+q.Title)

	var search geniusSearchResponse
	endpoint := s.baseURL + "/search?" + params.Encode()
	if err := s.api.getJSON(ctx, endpoint, nil, &search); err != nil {
		return nil, err
	}

	pageURL := ""
	for _, hit := range search.Response.Hits {
		if similarity(q.Title, hit.Result.Title) >= 0.6 {
			pageURL = hit.Result.URL
			break
		}
	}
	if pageURL == "" {
		return nil, fmt.Errorf("%w: genius has no match for %q", shared.ErrNoMatch, q.Title)
	}

	page, _, err := s.pages.do(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	plain := extractGeniusLyrics(string(page))
	if plain == "" {
		return nil, fmt.Errorf("%w: could not extract lyrics from %s", shared.ErrNoMatch, pageURL)
	}

	return &LyricsResult{Plain: plain, Source: s.Name()}, nil
}

// extractGeniusLyrics pulls the text out of the page's
// data-lyrics-container blocks, turning <br> into newlines and
// dropping all other markup.
func extractGeniusLyrics(page string) string {
	const marker = `data-lyrics-container="true"`

	var blocks []string
	rest := page

	for {
		at := strings.Index(rest, marker)
		if at < 0 {
			break
		}

		rest = rest[at+len(marker):]
		open := strings.IndexByte(rest, '>')
		if open < 0 {
			break
		}

		block, consumed := untilContainerEnd(rest[open+1:])
		blocks = append(blocks, block)
		rest = rest[open+1+consumed:]
	}

	text := strings.Join(blocks, "\n")
	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = stripHTMLTags(text)
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&#x27;", "'")
	text = strings.ReplaceAll(text, "&quot;", `"`)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

// untilContainerEnd returns the contents of a div, tracking nesting,
// plus the number of bytes consumed.
func untilContainerEnd(s string) (string, int) {
	depth := 1
	i := 0

	for i < len(s) {
		if strings.HasPrefix(s[i:], "<div") {
			depth++
		} else if strings.HasPrefix(s[i:], "</div>") {
			depth--
			if depth == 0 {
				return s[:i], i + len("</div>")
			}
		}
		i++
	}

	return s, len(s)
}

func stripHTMLTags(s string) string {
	var b strings.Builder
	inTag := false

	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	return b.String()
}
