// package services defines clients for external provider HTTP APIs
//
// Last.fm (charts), Spotify (new releases), Discord (alerts)
package services

import (
	"context"
	"time"

	"github.com/desertthunder/lastchart/internal/models"
)

// DefaultMaxRetries bounds retry loops against provider APIs.
// Matches the scheduler-facing contract: exhaust retries, fail the tick,
// let the next tick try again.
const DefaultMaxRetries = 5

// ChartService defines the interface for chart snapshot providers.
type ChartService interface {
	// TopTracks retrieves the current ranked top-tracks chart.
	TopTracks(ctx context.Context) ([]models.ChartEntry, error)

	// Name returns the name of the provider (e.g., "Last.fm")
	Name() string
}

// Notifier defines the interface for operator alert sinks.
type Notifier interface {
	// Notify delivers a single alert message.
	Notify(ctx context.Context, message string) error
}

// backoff returns the delay before retry attempt n (1-based) in units of
// unit: 2, 4, 8, 16... Production callers pass [time.Second].
func backoff(attempt int, unit time.Duration) time.Duration {
	return time.Duration(1<<attempt) * unit
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
