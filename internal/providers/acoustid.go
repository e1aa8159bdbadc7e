// AcoustID implementation of [Identifier]
//
// API reference: https://acoustid.org/webservice
package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/audiotag/internal/shared"
)

const acoustidBaseURL = "https://api.acoustid.org/v2"

// AcoustIDService resolves chromaprint fingerprints to MusicBrainz
// recording IDs via the AcoustID web service.
type AcoustIDService struct {
	client  *client
	baseURL string
	apiKey  string
}

// NewAcoustIDService creates an AcoustID client. httpClient may be nil.
func NewAcoustIDService(cfg shared.ProvidersConfig, httpClient *http.Client) *AcoustIDService {
	return &AcoustIDService{
		client:  newClient(cfg, httpClient),
		baseURL: acoustidBaseURL,
		apiKey:  cfg.AcoustIDAPIKey,
	}
}

type acoustidResponse struct {
	Status string `json:"status"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Results []struct {
		ID         string  `json:"id"`
		Score      float64 `json:"score"`
		Recordings []struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"recordings"`
	} `json:"results"`
}

// Identify looks up a fingerprint and returns the best-scoring match
// that carries a recording ID. Results without recordings are skipped.
func (s *AcoustIDService) Identify(ctx context.Context, fp *Fingerprint) (*Identification, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: acoustid api key", shared.ErrMissingCredentials)
	}

	params := url.Values{}
	params.Set("client", s.apiKey)
	params.Set("meta", "recordings")
	params.Set("duration", strconv.Itoa(fp.Duration))
	params.Set("fingerprint", fp.Value)

	var resp acoustidResponse
	endpoint := s.baseURL + "/lookup?" + params.Encode()
	if err := s.client.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "ok" {
		return nil, fmt.Errorf("%w: acoustid status %q: %s", shared.ErrProviderRequest, resp.Status, resp.Error.Message)
	}

	var best *Identification
	for _, result := range resp.Results {
		if len(result.Recordings) == 0 {
			continue
		}
		if best != nil && result.Score <= best.Score {
			continue
		}

		rec := result.Recordings[0]
		id := &Identification{
			AcoustID:    result.ID,
			RecordingID: rec.ID,
			Score:       result.Score,
			Title:       rec.Title,
		}
		if len(rec.Artists) > 0 {
			id.Artist = rec.Artists[0].Name
		}
		best = id
	}

	if best == nil {
		return nil, fmt.Errorf("%w: no acoustid results", shared.ErrNoMatch)
	}

	return best, nil
}
