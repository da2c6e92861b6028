package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/lastchart/internal/models"
	"github.com/desertthunder/lastchart/internal/shared"
)

// RunRepository handles persistence for [models.IngestRun].
//
// Runs are written on the bare connection, outside the ingestion transaction,
// so a failed run still leaves its record behind for operators.
type RunRepository struct {
	db DBTX
}

// NewRunRepository creates a new RunRepository with the given database handle
func NewRunRepository(db DBTX) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a pending run record with a generated ID and start timestamp.
func (r *RunRepository) Create(run *models.IngestRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.Status == "" {
		run.Status = models.RunPending
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.Exec(
		"INSERT INTO ingest_runs (id, job, chart_date, status, started_at) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.Job, run.ChartDate, run.Status, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ingest run: %w", err)
	}

	return nil
}

// MarkCompleted finalizes a run as completed with its row counts.
func (r *RunRepository) MarkCompleted(id string, created, updated int) error {
	return r.finish(id, models.RunCompleted, created, updated, "")
}

// MarkFailed finalizes a run as failed with the error text.
func (r *RunRepository) MarkFailed(id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.finish(id, models.RunFailed, 0, 0, msg)
}

func (r *RunRepository) finish(id, status string, created, updated int, errMsg string) error {
	result, err := r.db.Exec(
		"UPDATE ingest_runs SET status = ?, entries_created = ?, entries_updated = ?, error = ?, finished_at = ? WHERE id = ?",
		status, created, updated, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update ingest run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: ingest run %s", shared.ErrNotFound, id)
	}

	return nil
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(id string) (*models.IngestRun, error) {
	query := `
		SELECT id, job, chart_date, status, entries_created, entries_updated, error, started_at, finished_at
		FROM ingest_runs
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// List retrieves the most recent runs, newest first.
func (r *RunRepository) List(limit int) ([]*models.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, job, chart_date, status, entries_created, entries_updated, error, started_at, finished_at
		FROM ingest_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.IngestRun
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

func (r *RunRepository) scanOne(row *sql.Row) (*models.IngestRun, error) {
	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: ingest run", shared.ErrNotFound)
	}
	return run, err
}

// scanRun reads one ingest_runs row through the given scan function.
func scanRun(scan func(dest ...any) error) (*models.IngestRun, error) {
	var (
		run        models.IngestRun
		chartDate  sql.NullTime
		errMsg     sql.NullString
		finishedAt sql.NullTime
	)

	err := scan(&run.ID, &run.Job, &chartDate, &run.Status, &run.EntriesCreated, &run.EntriesUpdated, &errMsg, &run.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ingest run: %w", err)
	}

	if chartDate.Valid {
		run.ChartDate = &chartDate.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	return &run, nil
}
