package app

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the main console configuration.
type Config struct {
	Settings Settings      `yaml:"settings"`
	Storage  StorageConfig `yaml:"storage"`
}

// Settings represents global console settings.
type Settings struct {
	LogLevel  string `yaml:"logLevel" env:"CONSOLE_LOG_LEVEL"`
	ServerURL string `yaml:"serverURL" env:"CONSOLE_SERVER_URL"`
}

// StorageConfig represents session recording settings.
type StorageConfig struct {
	Enabled       bool   `yaml:"enabled" env:"CONSOLE_STORAGE_ENABLED"`
	DataDirectory string `yaml:"dataDirectory" env:"CONSOLE_STORAGE_DIR"`
}

// LoadConfig reads the YAML configuration file and applies environment
// variable overrides on top of it.
func LoadConfig(path string) (*Config, error) {
	config := Config{
		Settings: Settings{LogLevel: "info"},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err = yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	serverURL, err := normalizeServerURL(config.Settings.ServerURL)
	if err != nil {
		return nil, err
	}
	config.Settings.ServerURL = serverURL

	return &config, nil
}

// Level parses the configured log level, falling back to info.
func (s Settings) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// normalizeServerURL validates the serving-side URL and defaults the
// endpoint path to /ws. Plain http(s) schemes are mapped to their
// WebSocket equivalents.
func normalizeServerURL(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("server URL is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing server URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server URL scheme '%s'", u.Scheme)
	}

	if u.Host == "" {
		return "", fmt.Errorf("server URL has no host")
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	return u.String(), nil
}
