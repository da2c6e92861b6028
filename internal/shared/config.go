package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file
// with optional environment variable overrides applied at process start.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Alerts      AlertsConfig      `toml:"alerts"`
	Database    DatabaseConfig    `toml:"database"`
	Ingest      IngestConfig      `toml:"ingest"`
}

// CredentialsConfig contains provider-specific credentials.
type CredentialsConfig struct {
	LastFM  LastFMConfig  `toml:"lastfm"`
	Spotify SpotifyConfig `toml:"spotify"`
}

// LastFMConfig contains Last.fm API credentials.
type LastFMConfig struct {
	APIKey string `toml:"api_key"`
}

// SpotifyConfig contains Spotify client-credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// AlertsConfig contains alerting settings.
type AlertsConfig struct {
	Discord DiscordConfig `toml:"discord"`
}

// DiscordConfig contains Discord webhook coordinates for operator alerts.
type DiscordConfig struct {
	WebhookID    string `toml:"webhook_id"`
	WebhookToken string `toml:"webhook_token"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// IngestConfig contains chart ingestion settings.
type IngestConfig struct {
	ChartLimit     int     `toml:"chart_limit"`
	MaxRetries     int     `toml:"max_retries"`
	RequestTimeout int     `toml:"request_timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnvFile loads an environment file into the process environment.
//
// Missing files are not an error so a scheduler can rely on its own
// environment injection instead.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides configuration values from environment variables.
// Called once at process start, after [LoadEnvFile].
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.Credentials.LastFM.APIKey = v
	}
	if v := os.Getenv("SPTFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPTFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("DSCRD_WEBHOOK_ID"); v != "" {
		c.Alerts.Discord.WebhookID = v
	}
	if v := os.Getenv("DSCRD_WEBHOOK_TOKEN"); v != "" {
		c.Alerts.Discord.WebhookToken = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("CHART_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			c.Ingest.ChartLimit = limit
		}
	}
}
