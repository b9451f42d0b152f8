package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeServerURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"ws passes through", "ws://console.local:8080/ws", "ws://console.local:8080/ws", false},
		{"wss passes through", "wss://console.local/ws", "wss://console.local/ws", false},
		{"http maps to ws", "http://console.local:8080", "ws://console.local:8080/ws", false},
		{"https maps to wss", "https://console.local", "wss://console.local/ws", false},
		{"root path defaults", "ws://console.local/", "ws://console.local/ws", false},
		{"custom path kept", "ws://console.local/socket", "ws://console.local/socket", false},
		{"empty", "", "", true},
		{"no host", "ws://", "", true},
		{"unsupported scheme", "ftp://console.local", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeServerURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("normalizeServerURL(%q) = %q, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeServerURL(%q) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("normalizeServerURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`settings:
  logLevel: debug
  serverURL: http://console.local:8080
storage:
  enabled: true
  dataDirectory: recordings
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Settings.ServerURL != "ws://console.local:8080/ws" {
		t.Errorf("ServerURL = %q, want normalized ws URL", config.Settings.ServerURL)
	}
	if config.Settings.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", config.Settings.Level())
	}
	if !config.Storage.Enabled || config.Storage.DataDirectory != "recordings" {
		t.Errorf("storage config = %+v", config.Storage)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`settings:
  logLevel: info
  serverURL: ws://console.local/ws
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONSOLE_LOG_LEVEL", "warn")
	t.Setenv("CONSOLE_SERVER_URL", "wss://other.local/ws")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Settings.Level() != slog.LevelWarn {
		t.Errorf("Level() = %v, want warn from environment", config.Settings.Level())
	}
	if config.Settings.ServerURL != "wss://other.local/ws" {
		t.Errorf("ServerURL = %q, want environment override", config.Settings.ServerURL)
	}
}

func TestLoadConfigMissingURL(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("LoadConfig with no server URL should fail")
	}
}

func TestSettingsLevelFallback(t *testing.T) {
	s := Settings{LogLevel: "chatty"}
	if s.Level() != slog.LevelInfo {
		t.Errorf("Level() = %v, want info fallback for unknown level", s.Level())
	}
}
