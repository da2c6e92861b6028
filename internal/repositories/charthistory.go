package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/lastchart/internal/models"
	"github.com/desertthunder/lastchart/internal/shared"
)

// ChartHistoryRepository handles persistence for [models.ChartHistory].
//
// A (track_id, chart_date) pair is unique. Re-ingesting an already recorded
// date updates the metrics in place, so a re-run can never duplicate history.
type ChartHistoryRepository struct {
	db DBTX
}

// NewChartHistoryRepository creates a new ChartHistoryRepository with the given database handle
func NewChartHistoryRepository(db DBTX) *ChartHistoryRepository {
	return &ChartHistoryRepository{db: db}
}

// GetByTrackAndDate retrieves the chart observation for a track at a chart date.
func (r *ChartHistoryRepository) GetByTrackAndDate(trackID int64, chartDate time.Time) (*models.ChartHistory, error) {
	query := `
		SELECT id, track_id, playcount, listener, chart_date, rank, created_at
		FROM chart_histories
		WHERE track_id = ? AND chart_date = ?
	`

	var h models.ChartHistory
	err := r.db.QueryRow(query, trackID, chartDate).Scan(
		&h.ID, &h.TrackID, &h.PlayCount, &h.Listeners, &h.ChartDate, &h.Rank, &h.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: chart history for track %d at %s", shared.ErrNotFound, trackID, chartDate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan chart history: %w", err)
	}

	return &h, nil
}

// Upsert writes the chart observation for (entry.TrackID, entry.ChartDate).
// Reports whether a new row was created; an existing row for the pair is
// updated in place.
func (r *ChartHistoryRepository) Upsert(entry *models.ChartHistory) (bool, error) {
	if err := entry.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	if existing, err := r.GetByTrackAndDate(entry.TrackID, entry.ChartDate); err == nil {
		entry.ID = existing.ID
		return false, r.update(entry)
	}

	result, err := r.db.Exec(
		"INSERT INTO chart_histories (track_id, playcount, listener, chart_date, rank) VALUES (?, ?, ?, ?, ?)",
		entry.TrackID, entry.PlayCount, entry.Listeners, entry.ChartDate, entry.Rank,
	)
	if err != nil {
		// Lost an insert race for the same (track, date); the update path
		// keeps the run idempotent.
		if isUniqueViolation(err) {
			existing, getErr := r.GetByTrackAndDate(entry.TrackID, entry.ChartDate)
			if getErr != nil {
				return false, fmt.Errorf("failed to resolve chart history after conflict: %w", getErr)
			}
			entry.ID = existing.ID
			return false, r.update(entry)
		}
		return false, fmt.Errorf("failed to insert chart history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to read chart history id: %w", err)
	}
	entry.ID = id

	return true, nil
}

func (r *ChartHistoryRepository) update(entry *models.ChartHistory) error {
	_, err := r.db.Exec(
		"UPDATE chart_histories SET playcount = ?, listener = ?, rank = ? WHERE id = ?",
		entry.PlayCount, entry.Listeners, entry.Rank, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update chart history: %w", err)
	}
	return nil
}

// CountForDate returns the number of observations recorded for a chart date.
func (r *ChartHistoryRepository) CountForDate(chartDate time.Time) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM chart_histories WHERE chart_date = ?", chartDate).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chart histories: %w", err)
	}
	return count, nil
}

// ListByTrack retrieves all observations for a track ordered by chart date.
func (r *ChartHistoryRepository) ListByTrack(trackID int64) ([]*models.ChartHistory, error) {
	query := `
		SELECT id, track_id, playcount, listener, chart_date, rank, created_at
		FROM chart_histories
		WHERE track_id = ?
		ORDER BY chart_date ASC
	`

	rows, err := r.db.Query(query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chart histories: %w", err)
	}
	defer rows.Close()

	var histories []*models.ChartHistory
	for rows.Next() {
		var h models.ChartHistory
		if err := rows.Scan(&h.ID, &h.TrackID, &h.PlayCount, &h.Listeners, &h.ChartDate, &h.Rank, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chart history: %w", err)
		}
		histories = append(histories, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return histories, nil
}
