// MusicBrainz implementation of [MetadataSource]
//
// API reference: https://musicbrainz.org/doc/MusicBrainz_API
package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/desertthunder/audiotag/internal/shared"
)

const (
	musicbrainzBaseURL   = "https://musicbrainz.org/ws/2"
	musicbrainzUserAgent = "audiotag/1.0 (https://github.com/desertthunder/audiotag)"

	// searchScoreFloor is the minimum combined title/artist similarity
	// a search hit needs to count as a match.
	searchScoreFloor = 0.5
)

// MusicBrainzService fetches canonical recording and release metadata.
type MusicBrainzService struct {
	client   *client
	baseURL  string
	minScore float64
}

// NewMusicBrainzService creates a MusicBrainz client. httpClient may be nil.
func NewMusicBrainzService(cfg shared.ProvidersConfig, minScore float64, httpClient *http.Client) *MusicBrainzService {
	if minScore <= 0 {
		minScore = searchScoreFloor
	}

	return &MusicBrainzService{
		client:   newClient(cfg, httpClient),
		baseURL:  musicbrainzBaseURL,
		minScore: minScore,
	}
}

type mbArtistCredit struct {
	Name   string `json:"name"`
	Artist struct {
		ID string `json:"id"`
	} `json:"artist"`
}

type mbTrack struct {
	Number   string `json:"number"`
	Position int    `json:"position"`
}

type mbMedia struct {
	Position   int       `json:"position"`
	TrackCount int       `json:"track-count"`
	Tracks     []mbTrack `json:"track"`
}

type mbRelease struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Status  string    `json:"status"`
	Date    string    `json:"date"`
	Country string    `json:"country"`
	Media   []mbMedia `json:"media"`
	TextRepresentation struct {
		Language string `json:"language"`
	} `json:"text-representation"`
}

type mbRecording struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Length       int              `json:"length"`
	ArtistCredit []mbArtistCredit `json:"artist-credit"`
	Releases     []mbRelease      `json:"releases"`
}

type mbSearchResponse struct {
	Recordings []mbRecording `json:"recordings"`
}

func (s *MusicBrainzService) header() http.Header {
	h := http.Header{}
	h.Set("User-Agent", musicbrainzUserAgent)
	h.Set("Accept", "application/json")
	return h
}

// Recording fetches a recording by MBID, including artist credits and
// releases so callers can pick an album.
func (s *MusicBrainzService) Recording(ctx context.Context, recordingID string) (*Recording, error) {
	endpoint := fmt.Sprintf("%s/recording/%s?inc=artists+releases+media&fmt=json", s.baseURL, url.PathEscape(recordingID))

	var rec mbRecording
	if err := s.client.getJSON(ctx, endpoint, s.header(), &rec); err != nil {
		return nil, err
	}

	if rec.ID == "" {
		return nil, fmt.Errorf("%w: recording %s", shared.ErrNoMatch, recordingID)
	}

	return s.convert(rec), nil
}

// SearchRecording queries recordings by title and artist text, filters
// hits below the similarity floor, and returns them best first.
func (s *MusicBrainzService) SearchRecording(ctx context.Context, title, artist string) ([]Recording, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: search requires a title", shared.ErrInvalidInput)
	}

	query := fmt.Sprintf(`recording:%q`, title)
	if artist != "" {
		query += fmt.Sprintf(` AND artist:%q`, artist)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", "10")
	params.Set("fmt", "json")

	var resp mbSearchResponse
	endpoint := s.baseURL + "/recording?" + params.Encode()
	if err := s.client.getJSON(ctx, endpoint, s.header(), &resp); err != nil {
		return nil, err
	}

	type scored struct {
		rec   Recording
		score float64
		order int
	}

	var hits []scored
	for i, raw := range resp.Recordings {
		rec := s.convert(raw)
		score := MatchScore(title, artist, rec.Title, rec.Artist)
		if score < s.minScore {
			continue
		}
		hits = append(hits, scored{rec: *rec, score: score, order: i})
	}

	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: no recording matched %q / %q", shared.ErrNoMatch, title, artist)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})

	out := make([]Recording, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}

	return out, nil
}

func (s *MusicBrainzService) convert(raw mbRecording) *Recording {
	rec := &Recording{
		ID:     raw.ID,
		Title:  raw.Title,
		Length: raw.Length,
	}

	if len(raw.ArtistCredit) > 0 {
		rec.Artist = raw.ArtistCredit[0].Name
		rec.ArtistID = raw.ArtistCredit[0].Artist.ID
	}

	if best := pickRelease(raw.Releases); best != nil {
		rec.Release = best
	}

	return rec
}

// pickRelease chooses the release to tag against: official releases
// beat others, English releases beat other languages, and dated
// releases beat undated ones, earliest first.
func pickRelease(releases []mbRelease) *Release {
	if len(releases) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(releases); i++ {
		if releaseRank(releases[i]) < releaseRank(releases[best]) {
			best = i
		}
	}

	return convertRelease(releases[best])
}

func releaseRank(r mbRelease) string {
	official := "1"
	if strings.EqualFold(r.Status, "Official") {
		official = "0"
	}

	english := "1"
	lang := r.TextRepresentation.Language
	if strings.EqualFold(lang, "eng") || lang == "" {
		english = "0"
	}

	date := r.Date
	if date == "" {
		date = "9999"
	}

	return official + english + date
}

func convertRelease(r mbRelease) *Release {
	out := &Release{
		ID:      r.ID,
		Title:   r.Title,
		Date:    r.Date,
		Country: r.Country,
		Status:  r.Status,
	}

	for _, media := range r.Media {
		out.TrackCount += media.TrackCount
		if len(media.Tracks) > 0 {
			out.TrackNumber = media.Tracks[0].Position
			out.DiscNumber = media.Position
		}
	}

	return out
}

// MatchScore combines title and artist similarity, weighting the title
// more heavily.
func MatchScore(wantTitle, wantArtist, gotTitle, gotArtist string) float64 {
	score := 0.6 * similarity(wantTitle, gotTitle)
	if wantArtist == "" {
		score += 0.4
	} else {
		score += 0.4 * similarity(wantArtist, gotArtist)
	}
	return score
}

// similarity is a normalized edit-distance ratio over lowercased text.
func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	dist := levenshtein(a, b)
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}

	return 1 - float64(dist)/float64(longest)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
