// Spotify Web API client for the new-releases probe
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/lastchart/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Max limit accepted by /browse/new-releases
	spotifyMaxLimit = 50
)

// SpotifyArtist represents a Spotify artist reference.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	URI         string          `json:"uri"`
}

type albumPage struct {
	Items []SpotifyAlbum `json:"items"`
	Total int            `json:"total"`
	Next  *string        `json:"next"`
}

type newReleasesResponse struct {
	Albums albumPage `json:"albums"`
}

// NewReleasesResult carries one page of new releases plus the response ETag
// used as a cheap change marker.
type NewReleasesResult struct {
	Albums []SpotifyAlbum
	Total  int
	ETag   string
}

// SpotifyService accesses the Spotify Web API with the OAuth2
// client-credentials grant. Token acquisition and refresh are handled by
// [clientcredentials.Config].
type SpotifyService struct {
	config     *clientcredentials.Config
	baseURL    string
	httpClient *http.Client
}

// SpotifyOpts contains optional settings for [NewSpotifyService].
type SpotifyOpts struct {
	BaseURL  string       // Override API base URL (tests)
	TokenURL string       // Override token endpoint (tests)
	Client   *http.Client // Underlying HTTP client for token and API calls
}

// NewSpotifyService creates a new Spotify client with the given client credentials.
func NewSpotifyService(clientID, clientSecret string, opts SpotifyOpts) (*SpotifyService, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}

	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     opts.TokenURL,
	}

	return &SpotifyService{
		config:     config,
		baseURL:    opts.BaseURL,
		httpClient: opts.Client,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// client returns an HTTP client that injects bearer tokens from the
// client-credentials flow.
func (s *SpotifyService) client(ctx context.Context) *http.Client {
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	return s.config.Client(ctx)
}

// NewReleases fetches the first page of newly released albums along with the
// response ETag. Pagination is deliberately not followed; the probe only
// needs a change marker per tick.
func (s *SpotifyService) NewReleases(ctx context.Context) (*NewReleasesResult, error) {
	endpoint := fmt.Sprintf("%s/browse/new-releases?limit=%d", s.baseURL, spotifyMaxLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client(ctx).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}

	var payload newReleasesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	return &NewReleasesResult{
		Albums: payload.Albums.Items,
		Total:  payload.Albums.Total,
		ETag:   strings.Trim(resp.Header.Get("ETag"), `"`),
	}, nil
}
