// Cover Art Archive implementation of [CoverSource]
package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/audiotag/internal/shared"
)

const coverartBaseURL = "https://coverartarchive.org"

// CoverArtService fetches release artwork from the Cover Art Archive.
type CoverArtService struct {
	client  *client
	baseURL string
}

// NewCoverArtService creates a Cover Art Archive client. httpClient may be nil.
func NewCoverArtService(cfg shared.ProvidersConfig, httpClient *http.Client) *CoverArtService {
	return &CoverArtService{
		client:  newClient(cfg, httpClient),
		baseURL: coverartBaseURL,
	}
}

// FrontCover downloads the front image for a release. A 404 from the
// archive means the release has no artwork and maps to ErrNoMatch.
func (s *CoverArtService) FrontCover(ctx context.Context, releaseID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/release/%s/front", s.baseURL, url.PathEscape(releaseID))

	body, status, err := s.client.do(ctx, http.MethodGet, endpoint, nil)
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: no cover art for release %s", shared.ErrNoMatch, releaseID)
	}
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty cover art response", shared.ErrProviderRequest)
	}

	return body, nil
}
