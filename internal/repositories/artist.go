package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/lastchart/internal/models"
	"github.com/desertthunder/lastchart/internal/shared"
)

// ArtistRepository handles persistence for [models.Artist].
//
// Artists are deduplicated by their Last.fm URL; the display name recorded on
// first sighting is never re-synced.
type ArtistRepository struct {
	db DBTX
}

// NewArtistRepository creates a new ArtistRepository with the given database handle
func NewArtistRepository(db DBTX) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// Create inserts a new artist row and populates its generated ID.
func (r *ArtistRepository) Create(artist *models.Artist) error {
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result, err := r.db.Exec(
		"INSERT INTO artists (name, lastfm_url) VALUES (?, ?)",
		artist.Name, artist.LastFMURL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert artist: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read artist id: %w", err)
	}
	artist.ID = id

	return nil
}

// GetByURL retrieves an artist by its Last.fm URL.
func (r *ArtistRepository) GetByURL(url string) (*models.Artist, error) {
	query := `
		SELECT id, name, lastfm_url, created_at
		FROM artists
		WHERE lastfm_url = ?
	`

	var artist models.Artist
	err := r.db.QueryRow(query, url).Scan(&artist.ID, &artist.Name, &artist.LastFMURL, &artist.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: artist %s", shared.ErrNotFound, url)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}

	return &artist, nil
}

// Ensure resolves the artist for the given URL, inserting it with the given
// name when absent. An existing row wins; its name is left unchanged. Insert
// races on the unique URL key resolve by re-reading the winning row.
func (r *ArtistRepository) Ensure(name, url string) (*models.Artist, bool, error) {
	if artist, err := r.GetByURL(url); err == nil {
		return artist, false, nil
	}

	artist := &models.Artist{Name: name, LastFMURL: url}
	err := r.Create(artist)
	if err == nil {
		return artist, true, nil
	}

	if isUniqueViolation(err) {
		existing, getErr := r.GetByURL(url)
		if getErr != nil {
			return nil, false, fmt.Errorf("failed to resolve artist after conflict: %w", getErr)
		}
		return existing, false, nil
	}

	return nil, false, err
}

// Delete removes an artist. Tracks and their chart histories cascade.
func (r *ArtistRepository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM artists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: artist %d", shared.ErrNotFound, id)
	}

	return nil
}

// Count returns the number of artist rows.
func (r *ArtistRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM artists").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count artists: %w", err)
	}
	return count, nil
}
