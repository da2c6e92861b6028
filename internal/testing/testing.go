// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/lastchart/internal/models"
)

// MockChartService is a test double for [services.ChartService]
type MockChartService struct {
	Entries []models.ChartEntry
	Err     error
	Calls   int
}

func (m *MockChartService) TopTracks(ctx context.Context) ([]models.ChartEntry, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Entries, nil
}

func (m *MockChartService) Name() string { return "mock" }

// MockNotifier records delivered messages for [services.Notifier]
type MockNotifier struct {
	mu       sync.Mutex
	Messages []string
	Err      error
}

func (m *MockNotifier) Notify(ctx context.Context, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, message)
	return nil
}

// Sent returns a copy of delivered messages.
func (m *MockNotifier) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Messages...)
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// ChartEntries builds n valid chart entries for tests.
func ChartEntries(n int) []models.ChartEntry {
	entries := make([]models.ChartEntry, 0, n)
	for i := 0; i < n; i++ {
		artist := fmt.Sprintf("Artist%02d", i)
		track := fmt.Sprintf("Track%02d", i)
		entries = append(entries, models.ChartEntry{
			Name:       track,
			URL:        fmt.Sprintf("https://www.last.fm/music/%s/_/%s", artist, track),
			ArtistName: artist,
			ArtistURL:  fmt.Sprintf("https://www.last.fm/music/%s", artist),
			PlayCount:  1000 + i,
			Listeners:  100 + i,
			Rank:       i + 1,
		})
	}
	return entries
}
