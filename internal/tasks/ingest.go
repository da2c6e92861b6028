package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lastchart/internal/models"
	"github.com/desertthunder/lastchart/internal/repositories"
	"github.com/desertthunder/lastchart/internal/services"
	"github.com/desertthunder/lastchart/internal/shared"
)

// IngestResult contains the outcome of one completed ingestion cycle.
type IngestResult struct {
	RunID          string    `json:"run_id"`
	ChartDate      time.Time `json:"chart_date"`
	Total          int       `json:"total"`           // Chart entries processed
	ArtistsCreated int       `json:"artists_created"` // First-sighting artist rows
	TracksCreated  int       `json:"tracks_created"`  // First-sighting track rows
	EntriesCreated int       `json:"entries_created"` // New chart-history rows
	EntriesUpdated int       `json:"entries_updated"` // Re-ingested chart-history rows
}

// IngestEngine performs fetch-and-upsert cycles against the chart provider.
type IngestEngine struct {
	chart  services.ChartService
	db     *sql.DB
	logger *log.Logger
}

// NewIngestEngine creates an IngestEngine over the given provider and database.
func NewIngestEngine(chart services.ChartService, db *sql.DB, logger *log.Logger) *IngestEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &IngestEngine{chart: chart, db: db, logger: logger}
}

// IngestTopTracks runs one ingestion cycle for the chart snapshot at asOf.
//
// The zero time means "now". The chart date is truncated to the minute so a
// retried tick lands on the same history rows. Every write of the cycle runs
// on one transaction: either the whole snapshot commits or none of it does.
func (e *IngestEngine) IngestTopTracks(ctx context.Context, asOf time.Time) (*IngestResult, error) {
	if e.chart == nil {
		return nil, fmt.Errorf("%w: chart service not initialized", shared.ErrInvalidConfig)
	}

	if asOf.IsZero() {
		asOf = time.Now()
	}
	chartDate := asOf.UTC().Truncate(time.Minute)

	// Run bookkeeping lives outside the ingestion transaction so failed runs
	// keep their record.
	runs := repositories.NewRunRepository(e.db)
	run := &models.IngestRun{Job: "get_top_tracks", ChartDate: &chartDate}
	if err := runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to record ingest run: %w", err)
	}

	result, err := e.ingest(ctx, chartDate)
	if err != nil {
		if markErr := runs.MarkFailed(run.ID, err); markErr != nil {
			e.logger.Error("failed to finalize run record", "run", run.ID, "error", markErr)
		}
		return nil, err
	}

	result.RunID = run.ID
	if err := runs.MarkCompleted(run.ID, result.EntriesCreated, result.EntriesUpdated); err != nil {
		e.logger.Error("failed to finalize run record", "run", run.ID, "error", err)
	}

	return result, nil
}

func (e *IngestEngine) ingest(ctx context.Context, chartDate time.Time) (*IngestResult, error) {
	logger := e.logger.With("provider", e.chart.Name(), "chart_date", chartDate.Format(time.RFC3339))

	logger.Info("fetching top tracks chart")
	entries, err := e.chart.TopTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart: %w", err)
	}

	// Validate the whole snapshot before touching the database; a malformed
	// entry aborts the cycle with zero rows written.
	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", shared.ErrMalformedResponse, i, err)
		}
	}

	logger.Info("persisting chart snapshot", "entries", len(entries))

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	artists := repositories.NewArtistRepository(tx)
	tracks := repositories.NewTrackRepository(tx)
	histories := repositories.NewChartHistoryRepository(tx)

	result := &IngestResult{ChartDate: chartDate, Total: len(entries)}

	// Charts repeat artists; resolve each URL once per cycle.
	artistIDs := make(map[string]int64)

	for _, entry := range entries {
		artistID, ok := artistIDs[entry.ArtistURL]
		if !ok {
			artist, created, err := artists.Ensure(entry.ArtistName, entry.ArtistURL)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve artist %q: %w", entry.ArtistName, err)
			}
			if created {
				result.ArtistsCreated++
			}
			artistID = artist.ID
			artistIDs[entry.ArtistURL] = artistID
		}

		track, created, err := tracks.Ensure(entry.Name, entry.URL, artistID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve track %q: %w", entry.Name, err)
		}
		if created {
			result.TracksCreated++
		}

		inserted, err := histories.Upsert(&models.ChartHistory{
			TrackID:   track.ID,
			PlayCount: entry.PlayCount,
			Listeners: entry.Listeners,
			ChartDate: chartDate,
			Rank:      entry.Rank,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record chart history for %q: %w", entry.Name, err)
		}
		if inserted {
			result.EntriesCreated++
		} else {
			result.EntriesUpdated++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ingestion: %w", err)
	}

	logger.Info("chart snapshot committed",
		"artists_created", result.ArtistsCreated,
		"tracks_created", result.TracksCreated,
		"entries_created", result.EntriesCreated,
		"entries_updated", result.EntriesUpdated,
	)

	return result, nil
}
