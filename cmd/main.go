package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/desertthunder/lastchart/internal/services"
	"github.com/desertthunder/lastchart/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	// Secrets arrive through the environment; an optional .env file covers
	// local runs outside the scheduler.
	if err := shared.LoadEnvFile(".env"); err != nil {
		logger.Warn("failed to load env file", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}
	config.ApplyEnv()

	httpClient := &http.Client{Timeout: time.Duration(config.Ingest.RequestTimeout) * time.Second}

	var chartService services.ChartService
	if config.Credentials.LastFM.APIKey != "" {
		if svc, err := services.NewLastFMService(config.Credentials.LastFM.APIKey, services.LastFMOpts{
			Limit:      config.Ingest.ChartLimit,
			MaxRetries: config.Ingest.MaxRetries,
			RateLimit:  config.Ingest.RateLimit,
			Client:     httpClient,
		}); err == nil {
			chartService = svc
		}
	}

	var spotifyService *services.SpotifyService
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.ClientID, config.Credentials.Spotify.ClientSecret, services.SpotifyOpts{
			Client: httpClient,
		}); err == nil {
			spotifyService = svc
		}
	}

	var notifier services.Notifier
	if config.Alerts.Discord.WebhookID != "" && config.Alerts.Discord.WebhookToken != "" {
		if n, err := services.NewDiscordNotifier(config.Alerts.Discord.WebhookID, config.Alerts.Discord.WebhookToken, services.DiscordOpts{
			Client: httpClient,
		}); err == nil {
			notifier = n
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Chart:    chartService,
		Spotify:  spotifyService,
		Notifier: notifier,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "lastchart",
		Usage:    "Scheduled ingestion of Last.fm chart data",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("job failed: %v", err)
	}
}
