// package providers implements the external services the pipeline
// consults: chromaprint fingerprinting, AcoustID lookup, MusicBrainz
// metadata, Cover Art Archive images, and the lyrics sources.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/audiotag/internal/shared"
	"golang.org/x/time/rate"
)

// Fingerprinter computes an acoustic fingerprint for a local file.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, path string) (*Fingerprint, error)
}

// Identifier resolves a fingerprint or textual tags to a recording ID.
type Identifier interface {
	Identify(ctx context.Context, fp *Fingerprint) (*Identification, error)
}

// MetadataSource fetches canonical recording metadata by ID and
// searches recordings by title and artist text.
type MetadataSource interface {
	Recording(ctx context.Context, recordingID string) (*Recording, error)
	SearchRecording(ctx context.Context, title, artist string) ([]Recording, error)
}

// CoverSource fetches front cover artwork for a release.
type CoverSource interface {
	FrontCover(ctx context.Context, releaseID string) ([]byte, error)
}

// LyricsSource fetches lyrics for a track. Sources that cannot supply
// synced lyrics leave Synced empty.
type LyricsSource interface {
	Name() string
	Lyrics(ctx context.Context, q LyricsQuery) (*LyricsResult, error)
}

// Fingerprint is the chromaprint output for one file.
type Fingerprint struct {
	Value    string
	Duration int // seconds
}

// Identification is a resolved AcoustID match.
type Identification struct {
	AcoustID    string
	RecordingID string
	Score       float64
	Title       string
	Artist      string
}

// Recording is canonical track metadata from MusicBrainz.
type Recording struct {
	ID       string
	Title    string
	Artist   string
	ArtistID string
	Length   int // milliseconds
	Release  *Release
}

// Release is the album a recording appears on.
type Release struct {
	ID          string
	Title       string
	Date        string
	Country     string
	Status      string
	TrackNumber int
	DiscNumber  int
	TrackCount  int
}

// LyricsQuery carries the fields lyrics sources search by.
type LyricsQuery struct {
	Title    string
	Artist   string
	Album    string
	Duration int // seconds, 0 when unknown
}

// LyricsResult is plain and, when available, synced lyric text.
type LyricsResult struct {
	Plain  string
	Synced string
	Source string
}

// client wraps an http.Client with the retry, timeout, and rate-limit
// policy every provider shares.
type client struct {
	http     *http.Client
	limiter  *rate.Limiter
	attempts int
	backoff  time.Duration
}

func newClient(cfg shared.ProvidersConfig, httpClient *http.Client) *client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &client{
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, 1),
		attempts: attempts,
		backoff:  500 * time.Millisecond,
	}
}

// getJSON fetches url and decodes the JSON body into result. Server
// errors and 429s are retried with exponential backoff; 4xx responses
// other than 429 fail immediately.
func (c *client) getJSON(ctx context.Context, url string, header http.Header, result any) error {
	body, _, err := c.do(ctx, http.MethodGet, url, header)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", shared.ErrProviderRequest, url, err)
	}

	return nil
}

func (c *client) do(ctx context.Context, method, url string, header http.Header) ([]byte, int, error) {
	var lastErr error

	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}

		body, status, err := c.once(ctx, method, url, header)
		if err == nil && status < http.StatusInternalServerError && status != http.StatusTooManyRequests {
			if status >= http.StatusBadRequest {
				return body, status, fmt.Errorf("%w: %s returned %d", shared.ErrProviderRequest, url, status)
			}
			return body, status, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("%w: %s returned %d", shared.ErrProviderRequest, url, status)
		}

		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
	}

	return nil, 0, fmt.Errorf("request failed after %d attempts: %w", c.attempts, lastErr)
}

func (c *client) once(ctx context.Context, method, url string, header http.Header) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrProviderRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
