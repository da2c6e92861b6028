// Last.fm implementation of [ChartService]
//
// Response types based on https://www.last.fm/api/show/chart.getTopTracks
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/lastchart/internal/models"
	"github.com/desertthunder/lastchart/internal/shared"
	"golang.org/x/time/rate"
)

const (
	lastfmBaseURL = "https://ws.audioscrobbler.com/2.0/"

	// Max limit accepted by chart.gettoptracks
	lastfmMaxLimit = 1000
)

// Last.fm API error codes that are worth retrying.
// 16: temporarily unavailable, 29: rate limit exceeded.
const (
	lastfmErrTemporary = 16
	lastfmErrRateLimit = 29
)

type lastfmArtist struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type lastfmTrackAttr struct {
	Rank string `json:"rank"`
}

// lastfmTrack mirrors one chart entry. Numeric fields arrive as JSON strings.
type lastfmTrack struct {
	Name      string          `json:"name"`
	URL       string          `json:"url"`
	PlayCount string          `json:"playcount"`
	Listeners string          `json:"listeners"`
	Artist    lastfmArtist    `json:"artist"`
	Attr      lastfmTrackAttr `json:"@attr"`
}

type lastfmChart struct {
	Track []lastfmTrack `json:"track"`
}

type lastfmChartResponse struct {
	Tracks  lastfmChart `json:"tracks"`
	Error   int         `json:"error"`
	Message string      `json:"message"`
}

// LastFMService implements [ChartService] against the Last.fm web API.
//
// Requests are paced by a [rate.Limiter] and transient failures are retried
// with exponential backoff up to MaxRetries before the cycle is abandoned.
type LastFMService struct {
	baseURL    string
	apiKey     string
	limit      int
	maxRetries int
	httpClient *http.Client
	limiter    *rate.Limiter

	// backoffUnit scales retry delays; tests shrink it
	backoffUnit time.Duration
}

// LastFMOpts contains optional settings for [NewLastFMService].
type LastFMOpts struct {
	BaseURL    string       // Override API base URL (tests)
	Limit      int          // Chart entries per fetch, capped at 1000
	MaxRetries int          // Bounded retry count for transient errors
	RateLimit  float64      // Requests per second
	Client     *http.Client // Override HTTP client
}

// NewLastFMService creates a new Last.fm chart client.
func NewLastFMService(apiKey string, opts LastFMOpts) (*LastFMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: lastfm api_key", shared.ErrMissingCredentials)
	}

	if opts.BaseURL == "" {
		opts.BaseURL = lastfmBaseURL
	}
	if opts.Limit <= 0 || opts.Limit > lastfmMaxLimit {
		opts.Limit = lastfmMaxLimit
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	return &LastFMService{
		baseURL:     opts.BaseURL,
		apiKey:      apiKey,
		limit:       opts.Limit,
		maxRetries:  opts.MaxRetries,
		httpClient:  opts.Client,
		limiter:     rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		backoffUnit: time.Second,
	}, nil
}

func (s *LastFMService) Name() string {
	return "Last.fm"
}

// TopTracks retrieves the current ranked top-tracks chart.
//
// Transport failures and 5xx/429 responses are retried with backoff.
// A payload that parses but is missing required fields fails immediately
// with [shared.ErrMalformedResponse].
func (s *LastFMService) TopTracks(ctx context.Context) ([]models.ChartEntry, error) {
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff(attempt, s.backoffUnit)); err != nil {
				return nil, err
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		entries, retryable, err := s.fetchChart(ctx)
		if err == nil {
			return entries, nil
		}
		if !retryable {
			return nil, err
		}

		lastErr = err
	}

	return nil, fmt.Errorf("%w: chart.gettoptracks: %v", shared.ErrRetriesExhausted, lastErr)
}

// fetchChart performs a single chart.gettoptracks request.
// The second return value reports whether the failure is worth retrying.
func (s *LastFMService) fetchChart(ctx context.Context) ([]models.ChartEntry, bool, error) {
	query := url.Values{}
	query.Set("method", "chart.gettoptracks")
	query.Set("api_key", s.apiKey)
	query.Set("format", "json")
	query.Set("limit", strconv.Itoa(s.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("%w: status %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%w: status %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}

	var payload lastfmChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	// Last.fm reports API-level errors inside a 200 response
	if payload.Error != 0 {
		retryable := payload.Error == lastfmErrTemporary || payload.Error == lastfmErrRateLimit
		return nil, retryable, fmt.Errorf("%w: api error %d: %s", shared.ErrProviderUnavailable, payload.Error, payload.Message)
	}

	if len(payload.Tracks.Track) == 0 {
		return nil, false, fmt.Errorf("%w: empty chart", shared.ErrMalformedResponse)
	}

	entries := make([]models.ChartEntry, 0, len(payload.Tracks.Track))
	for i, track := range payload.Tracks.Track {
		entry, err := track.toEntry()
		if err != nil {
			return nil, false, fmt.Errorf("%w: entry %d: %v", shared.ErrMalformedResponse, i, err)
		}
		entries = append(entries, entry)
	}

	return entries, false, nil
}

// toEntry converts a raw payload track into a [models.ChartEntry], parsing
// the provider's string-typed numeric fields.
func (t lastfmTrack) toEntry() (models.ChartEntry, error) {
	var entry models.ChartEntry

	playCount, err := strconv.Atoi(t.PlayCount)
	if err != nil {
		return entry, fmt.Errorf("playcount %q: %v", t.PlayCount, err)
	}

	listeners, err := strconv.Atoi(t.Listeners)
	if err != nil {
		return entry, fmt.Errorf("listeners %q: %v", t.Listeners, err)
	}

	if t.Attr.Rank == "" {
		return entry, fmt.Errorf("missing rank for track %q", t.Name)
	}
	rank, err := strconv.Atoi(t.Attr.Rank)
	if err != nil {
		return entry, fmt.Errorf("rank %q: %v", t.Attr.Rank, err)
	}

	entry = models.ChartEntry{
		Name:       t.Name,
		URL:        t.URL,
		ArtistName: t.Artist.Name,
		ArtistURL:  t.Artist.URL,
		PlayCount:  playCount,
		Listeners:  listeners,
		Rank:       rank,
	}

	if err := entry.Validate(); err != nil {
		return entry, err
	}

	return entry, nil
}
