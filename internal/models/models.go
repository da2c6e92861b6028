// package models defines the data model for the chart ingestion job
package models

import (
	"fmt"
	"time"
)

// ChartEntry represents one ranked row of a provider chart snapshot.
type ChartEntry struct {
	Name       string // Track display name
	URL        string // Stable track URL, the natural key
	ArtistName string
	ArtistURL  string // Stable artist URL, the natural key
	PlayCount  int
	Listeners  int
	Rank       int // 1-based position in the chart
}

// Validate checks that the entry carries everything the schema requires.
func (e ChartEntry) Validate() error {
	if e.Name == "" || e.URL == "" {
		return fmt.Errorf("chart entry missing track name or url")
	}
	if e.ArtistName == "" || e.ArtistURL == "" {
		return fmt.Errorf("chart entry %q missing artist name or url", e.Name)
	}
	if e.PlayCount < 0 {
		return fmt.Errorf("chart entry %q has negative playcount", e.Name)
	}
	if e.Listeners < 0 {
		return fmt.Errorf("chart entry %q has negative listener count", e.Name)
	}
	if e.Rank < 1 {
		return fmt.Errorf("chart entry %q has invalid rank %d", e.Name, e.Rank)
	}
	return nil
}

// Artist is a persisted artist row, deduplicated by LastFMURL.
type Artist struct {
	ID        int64
	Name      string
	LastFMURL string
	CreatedAt time.Time
}

func (a Artist) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("artist name is required")
	}
	if a.LastFMURL == "" {
		return fmt.Errorf("artist lastfm_url is required")
	}
	return nil
}

// Track is a persisted track row owned by exactly one artist.
type Track struct {
	ID        int64
	Name      string
	ArtistID  int64
	LastFMURL string
	CreatedAt time.Time
}

func (t Track) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("track name is required")
	}
	if t.LastFMURL == "" {
		return fmt.Errorf("track lastfm_url is required")
	}
	if t.ArtistID == 0 {
		return fmt.Errorf("track %q has no owning artist", t.Name)
	}
	return nil
}

// ChartHistory is one chart observation for a track at a chart date.
// A (TrackID, ChartDate) pair is unique; re-ingesting the same date updates
// the metrics in place instead of adding a second row.
type ChartHistory struct {
	ID        int64
	TrackID   int64
	PlayCount int
	Listeners int
	ChartDate time.Time
	Rank      int
	CreatedAt time.Time
}

func (h ChartHistory) Validate() error {
	if h.TrackID == 0 {
		return fmt.Errorf("chart history has no track")
	}
	if h.PlayCount < 0 || h.Listeners < 0 {
		return fmt.Errorf("chart history metrics must be non-negative")
	}
	if h.Rank < 1 {
		return fmt.Errorf("chart history rank must be positive, got %d", h.Rank)
	}
	if h.ChartDate.IsZero() {
		return fmt.Errorf("chart history chart_date is required")
	}
	return nil
}

// Run statuses for [IngestRun].
const (
	RunPending   = "pending"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// IngestRun records one job invocation for operator visibility.
type IngestRun struct {
	ID             string     `json:"id"` // uuid
	Job            string     `json:"job"`
	ChartDate      *time.Time `json:"chart_date,omitempty"` // nil for jobs without a chart window
	Status         string     `json:"status"`
	EntriesCreated int        `json:"entries_created"`
	EntriesUpdated int        `json:"entries_updated"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

func (r IngestRun) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("ingest run id is required")
	}
	if r.Job == "" {
		return fmt.Errorf("ingest run job name is required")
	}
	switch r.Status {
	case RunPending, RunCompleted, RunFailed:
	default:
		return fmt.Errorf("invalid ingest run status %q", r.Status)
	}
	return nil
}
