package tasks

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/lastchart/internal/models"
	"github.com/desertthunder/lastchart/internal/repositories"
	"github.com/desertthunder/lastchart/internal/shared"
	internaltesting "github.com/desertthunder/lastchart/internal/testing"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newTestEngine(t *testing.T, chart *internaltesting.MockChartService) (*IngestEngine, *sql.DB) {
	t.Helper()

	db := setupTestDB(t)
	return NewIngestEngine(chart, db, shared.NewLogger(&internaltesting.FWriter{})), db
}

func TestIngestTopTracks(t *testing.T) {
	asOf := time.Date(2024, 1, 1, 0, 0, 30, 0, time.UTC)
	chartDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("New Artist And Track", func(t *testing.T) {
		chart := &internaltesting.MockChartService{Entries: []models.ChartEntry{{
			Name:       "NewTrack",
			URL:        "https://www.last.fm/music/NewArtist/_/NewTrack",
			ArtistName: "NewArtist",
			ArtistURL:  "https://www.last.fm/music/NewArtist",
			PlayCount:  42,
			Listeners:  10,
			Rank:       1,
		}}}
		engine, db := newTestEngine(t, chart)

		result, err := engine.IngestTopTracks(context.Background(), asOf)
		if err != nil {
			t.Fatalf("ingestion failed: %v", err)
		}

		if !result.ChartDate.Equal(chartDate) {
			t.Errorf("expected chart date truncated to %v, got %v", chartDate, result.ChartDate)
		}
		if result.ArtistsCreated != 1 || result.TracksCreated != 1 || result.EntriesCreated != 1 {
			t.Errorf("expected 1/1/1 created, got %d/%d/%d",
				result.ArtistsCreated, result.TracksCreated, result.EntriesCreated)
		}

		artist, err := repositories.NewArtistRepository(db).GetByURL("https://www.last.fm/music/NewArtist")
		if err != nil {
			t.Fatalf("expected artist row: %v", err)
		}

		track, err := repositories.NewTrackRepository(db).GetByURL("https://www.last.fm/music/NewArtist/_/NewTrack")
		if err != nil {
			t.Fatalf("expected track row: %v", err)
		}
		if track.ArtistID != artist.ID {
			t.Errorf("expected track linked to artist %d, got %d", artist.ID, track.ArtistID)
		}

		history, err := repositories.NewChartHistoryRepository(db).GetByTrackAndDate(track.ID, chartDate)
		if err != nil {
			t.Fatalf("expected chart history row: %v", err)
		}
		if history.PlayCount != 42 || history.Listeners != 10 || history.Rank != 1 {
			t.Errorf("unexpected history metrics: %+v", history)
		}
	})

	t.Run("Existing Artist New Track", func(t *testing.T) {
		chart := &internaltesting.MockChartService{Entries: []models.ChartEntry{{
			Name:       "OldTrack",
			URL:        "https://www.last.fm/music/Known/_/OldTrack",
			ArtistName: "Known",
			ArtistURL:  "https://www.last.fm/music/Known",
			PlayCount:  5, Listeners: 2, Rank: 1,
		}}}
		engine, db := newTestEngine(t, chart)

		if _, err := engine.IngestTopTracks(context.Background(), asOf); err != nil {
			t.Fatalf("first ingestion failed: %v", err)
		}

		chart.Entries = []models.ChartEntry{{
			Name:       "SecondTrack",
			URL:        "https://www.last.fm/music/Known/_/SecondTrack",
			ArtistName: "Known",
			ArtistURL:  "https://www.last.fm/music/Known",
			PlayCount:  8, Listeners: 3, Rank: 1,
		}}

		result, err := engine.IngestTopTracks(context.Background(), asOf.Add(24*time.Hour))
		if err != nil {
			t.Fatalf("second ingestion failed: %v", err)
		}

		if result.ArtistsCreated != 0 {
			t.Errorf("expected no new artist, got %d", result.ArtistsCreated)
		}
		if result.TracksCreated != 1 {
			t.Errorf("expected 1 new track, got %d", result.TracksCreated)
		}

		if count, _ := repositories.NewArtistRepository(db).Count(); count != 1 {
			t.Errorf("expected a single artist row, got %d", count)
		}
		if count, _ := repositories.NewTrackRepository(db).Count(); count != 2 {
			t.Errorf("expected 2 track rows, got %d", count)
		}
	})

	t.Run("Rerun Same Day Updates In Place", func(t *testing.T) {
		entry := models.ChartEntry{
			Name:       "Song",
			URL:        "https://www.last.fm/music/Artist/_/Song",
			ArtistName: "Artist",
			ArtistURL:  "https://www.last.fm/music/Artist",
			PlayCount:  42, Listeners: 10, Rank: 1,
		}
		chart := &internaltesting.MockChartService{Entries: []models.ChartEntry{entry}}
		engine, db := newTestEngine(t, chart)

		if _, err := engine.IngestTopTracks(context.Background(), asOf); err != nil {
			t.Fatalf("first ingestion failed: %v", err)
		}

		entry.PlayCount = 50
		chart.Entries = []models.ChartEntry{entry}

		result, err := engine.IngestTopTracks(context.Background(), asOf)
		if err != nil {
			t.Fatalf("re-ingestion failed: %v", err)
		}

		if result.EntriesCreated != 0 || result.EntriesUpdated != 1 {
			t.Errorf("expected 0 created / 1 updated, got %d/%d", result.EntriesCreated, result.EntriesUpdated)
		}

		histories := repositories.NewChartHistoryRepository(db)
		if count, _ := histories.CountForDate(chartDate); count != 1 {
			t.Errorf("expected a single history row, got %d", count)
		}

		track, err := repositories.NewTrackRepository(db).GetByURL(entry.URL)
		if err != nil {
			t.Fatalf("expected track row: %v", err)
		}
		history, err := histories.GetByTrackAndDate(track.ID, chartDate)
		if err != nil {
			t.Fatalf("expected history row: %v", err)
		}
		if history.PlayCount != 50 {
			t.Errorf("expected playcount updated to 50, got %d", history.PlayCount)
		}
	})

	t.Run("Full Snapshot Commits Atomically", func(t *testing.T) {
		chart := &internaltesting.MockChartService{Entries: internaltesting.ChartEntries(25)}
		engine, db := newTestEngine(t, chart)

		result, err := engine.IngestTopTracks(context.Background(), asOf)
		if err != nil {
			t.Fatalf("ingestion failed: %v", err)
		}

		if result.Total != 25 || result.EntriesCreated != 25 {
			t.Errorf("expected 25 entries created, got total=%d created=%d", result.Total, result.EntriesCreated)
		}
		if count, _ := repositories.NewChartHistoryRepository(db).CountForDate(chartDate); count != 25 {
			t.Errorf("expected 25 history rows, got %d", count)
		}
	})

	t.Run("Malformed Entry Aborts With Zero Rows", func(t *testing.T) {
		entries := internaltesting.ChartEntries(5)
		entries[3].Rank = 0
		chart := &internaltesting.MockChartService{Entries: entries}
		engine, db := newTestEngine(t, chart)

		_, err := engine.IngestTopTracks(context.Background(), asOf)
		if !errors.Is(err, shared.ErrMalformedResponse) {
			t.Fatalf("expected ErrMalformedResponse, got %v", err)
		}

		if count, _ := repositories.NewArtistRepository(db).Count(); count != 0 {
			t.Errorf("expected no artist rows after abort, got %d", count)
		}
		if count, _ := repositories.NewChartHistoryRepository(db).CountForDate(chartDate); count != 0 {
			t.Errorf("expected no history rows after abort, got %d", count)
		}
	})

	t.Run("Provider Failure Records Failed Run", func(t *testing.T) {
		chart := &internaltesting.MockChartService{Err: shared.ErrProviderUnavailable}
		engine, db := newTestEngine(t, chart)

		_, err := engine.IngestTopTracks(context.Background(), asOf)
		if !errors.Is(err, shared.ErrProviderUnavailable) {
			t.Fatalf("expected ErrProviderUnavailable, got %v", err)
		}

		runs, err := repositories.NewRunRepository(db).List(10)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run record, got %d", len(runs))
		}
		if runs[0].Status != models.RunFailed {
			t.Errorf("expected failed status, got %s", runs[0].Status)
		}
		if runs[0].Error == "" {
			t.Error("expected run error text to be recorded")
		}
	})

	t.Run("Successful Run Records Counts", func(t *testing.T) {
		chart := &internaltesting.MockChartService{Entries: internaltesting.ChartEntries(3)}
		engine, db := newTestEngine(t, chart)

		result, err := engine.IngestTopTracks(context.Background(), asOf)
		if err != nil {
			t.Fatalf("ingestion failed: %v", err)
		}

		run, err := repositories.NewRunRepository(db).Get(result.RunID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if run.Status != models.RunCompleted {
			t.Errorf("expected completed status, got %s", run.Status)
		}
		if run.EntriesCreated != 3 {
			t.Errorf("expected 3 entries created on record, got %d", run.EntriesCreated)
		}
		if run.ChartDate == nil || !run.ChartDate.Equal(chartDate) {
			t.Errorf("expected chart date %v on record, got %v", chartDate, run.ChartDate)
		}
	})

	t.Run("Nil Chart Service", func(t *testing.T) {
		engine := NewIngestEngine(nil, setupTestDB(t), shared.NewLogger(&internaltesting.FWriter{}))

		_, err := engine.IngestTopTracks(context.Background(), asOf)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
