package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/lastchart/internal/models"
	"github.com/desertthunder/lastchart/internal/shared"
)

// TrackRepository handles persistence for [models.Track].
//
// Tracks are deduplicated by their Last.fm URL and owned by exactly one
// artist; deleting the artist cascades to its tracks.
type TrackRepository struct {
	db DBTX
}

// NewTrackRepository creates a new TrackRepository with the given database handle
func NewTrackRepository(db DBTX) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new track row and populates its generated ID.
func (r *TrackRepository) Create(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result, err := r.db.Exec(
		"INSERT INTO tracks (name, artist_id, lastfm_url) VALUES (?, ?, ?)",
		track.Name, track.ArtistID, track.LastFMURL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read track id: %w", err)
	}
	track.ID = id

	return nil
}

// GetByURL retrieves a track by its Last.fm URL.
func (r *TrackRepository) GetByURL(url string) (*models.Track, error) {
	query := `
		SELECT id, name, artist_id, lastfm_url, created_at
		FROM tracks
		WHERE lastfm_url = ?
	`

	var track models.Track
	err := r.db.QueryRow(query, url).Scan(&track.ID, &track.Name, &track.ArtistID, &track.LastFMURL, &track.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: track %s", shared.ErrNotFound, url)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	return &track, nil
}

// Ensure resolves the track for the given URL, inserting it under artistID
// when absent. An existing row wins and is left unchanged. Insert races on
// the unique URL key resolve by re-reading the winning row.
func (r *TrackRepository) Ensure(name, url string, artistID int64) (*models.Track, bool, error) {
	if track, err := r.GetByURL(url); err == nil {
		return track, false, nil
	}

	track := &models.Track{Name: name, ArtistID: artistID, LastFMURL: url}
	err := r.Create(track)
	if err == nil {
		return track, true, nil
	}

	if isUniqueViolation(err) {
		existing, getErr := r.GetByURL(url)
		if getErr != nil {
			return nil, false, fmt.Errorf("failed to resolve track after conflict: %w", getErr)
		}
		return existing, false, nil
	}

	return nil, false, err
}

// ListByArtist retrieves all tracks owned by the given artist.
func (r *TrackRepository) ListByArtist(artistID int64) ([]*models.Track, error) {
	query := `
		SELECT id, name, artist_id, lastfm_url, created_at
		FROM tracks
		WHERE artist_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		var track models.Track
		if err := rows.Scan(&track.ID, &track.Name, &track.ArtistID, &track.LastFMURL, &track.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, &track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// Count returns the number of track rows.
func (r *TrackRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}
