package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/lastchart/internal/services"
	"github.com/desertthunder/lastchart/internal/shared"
	internaltesting "github.com/desertthunder/lastchart/internal/testing"
)

// newSpotifyService wires a SpotifyService against stub token and API servers.
func newSpotifyService(t *testing.T, etag string) *services.SpotifyService {
	t.Helper()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "test-token", "token_type": "Bearer", "expires_in": 3600}`)
	}))
	t.Cleanup(tokenServer.Close)

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if etag != "" {
			w.Header().Set("ETag", `"`+etag+`"`)
		}
		fmt.Fprint(w, `{"albums": {"items": [{"id": "a1", "name": "Album"}], "total": 1}}`)
	}))
	t.Cleanup(apiServer.Close)

	svc, err := services.NewSpotifyService("id", "secret", services.SpotifyOpts{
		BaseURL:  apiServer.URL,
		TokenURL: tokenServer.URL,
	})
	if err != nil {
		t.Fatalf("failed to create spotify service: %v", err)
	}

	return svc
}

func TestReleaseProbe(t *testing.T) {
	logger := shared.NewLogger(&internaltesting.FWriter{})

	t.Run("Notifies ETag", func(t *testing.T) {
		notifier := &internaltesting.MockNotifier{}
		probe := NewReleaseProbe(newSpotifyService(t, "etag-1"), notifier, logger)

		result, err := probe.Run(context.Background())
		if err != nil {
			t.Fatalf("probe failed: %v", err)
		}

		if result.ETag != "etag-1" || result.AlbumCount != 1 {
			t.Errorf("unexpected result: %+v", result)
		}
		if !result.Notified {
			t.Error("expected alert delivery")
		}
		if sent := notifier.Sent(); len(sent) != 1 || sent[0] != "etag-1" {
			t.Errorf("expected etag alert, got %v", sent)
		}
	})

	t.Run("Nil Notifier Only Logs", func(t *testing.T) {
		probe := NewReleaseProbe(newSpotifyService(t, "etag-2"), nil, logger)

		result, err := probe.Run(context.Background())
		if err != nil {
			t.Fatalf("probe failed: %v", err)
		}
		if result.Notified {
			t.Error("expected no alert delivery without a notifier")
		}
	})

	t.Run("Missing ETag Skips Alert", func(t *testing.T) {
		notifier := &internaltesting.MockNotifier{}
		probe := NewReleaseProbe(newSpotifyService(t, ""), notifier, logger)

		result, err := probe.Run(context.Background())
		if err != nil {
			t.Fatalf("probe failed: %v", err)
		}
		if result.Notified || len(notifier.Sent()) != 0 {
			t.Error("expected no alert for missing etag")
		}
	})

	t.Run("Notifier Failure Is Best Effort", func(t *testing.T) {
		notifier := &internaltesting.MockNotifier{Err: errors.New("webhook down")}
		probe := NewReleaseProbe(newSpotifyService(t, "etag-3"), notifier, logger)

		result, err := probe.Run(context.Background())
		if err != nil {
			t.Fatalf("expected probe to survive notifier failure, got %v", err)
		}
		if result.Notified {
			t.Error("expected notified=false when delivery fails")
		}
	})

	t.Run("Nil Spotify Service", func(t *testing.T) {
		probe := NewReleaseProbe(nil, nil, logger)

		if _, err := probe.Run(context.Background()); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
