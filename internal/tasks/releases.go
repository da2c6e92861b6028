package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lastchart/internal/services"
	"github.com/desertthunder/lastchart/internal/shared"
)

// ProbeResult contains the outcome of one new-releases probe.
type ProbeResult struct {
	ETag       string `json:"etag"`
	AlbumCount int    `json:"album_count"`
	Notified   bool   `json:"notified"`
}

// ReleaseProbe fetches the current Spotify new-releases page and pushes its
// ETag to the alert webhook as a change marker.
type ReleaseProbe struct {
	spotify  *services.SpotifyService
	notifier services.Notifier
	logger   *log.Logger
}

// NewReleaseProbe creates a ReleaseProbe. The notifier may be nil, in which
// case the ETag is only logged.
func NewReleaseProbe(spotify *services.SpotifyService, notifier services.Notifier, logger *log.Logger) *ReleaseProbe {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ReleaseProbe{spotify: spotify, notifier: notifier, logger: logger}
}

// Run performs one probe cycle.
func (p *ReleaseProbe) Run(ctx context.Context) (*ProbeResult, error) {
	if p.spotify == nil {
		return nil, fmt.Errorf("%w: spotify service not initialized", shared.ErrInvalidConfig)
	}

	releases, err := p.spotify.NewReleases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch new releases: %w", err)
	}

	result := &ProbeResult{ETag: releases.ETag, AlbumCount: len(releases.Albums)}
	p.logger.Info("fetched new releases", "albums", result.AlbumCount, "etag", result.ETag)

	if p.notifier == nil || releases.ETag == "" {
		return result, nil
	}

	// Alert delivery is best effort; a dead webhook must not fail the tick.
	if err := p.notifier.Notify(ctx, releases.ETag); err != nil {
		p.logger.Error("failed to deliver new-releases alert", "error", err)
		return result, nil
	}

	result.Notified = true
	return result, nil
}
