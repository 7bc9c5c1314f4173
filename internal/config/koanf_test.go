// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Security.SessionTimeout != 24*time.Hour {
		t.Errorf("Security.SessionTimeout = %v, want 24h", cfg.Security.SessionTimeout)
	}
	if cfg.Database.BulletinTTL != 24*time.Hour {
		t.Errorf("Database.BulletinTTL = %v, want 24h", cfg.Database.BulletinTTL)
	}
	if !cfg.Realtime.BroadcastCreates {
		t.Error("Realtime.BroadcastCreates should be true by default")
	}
	if cfg.Realtime.RequireAuth {
		t.Error("Realtime.RequireAuth should be false by default")
	}
	if cfg.Realtime.DebugEvents {
		t.Error("Realtime.DebugEvents should be false by default")
	}
	if cfg.Realtime.SendBuffer != 256 {
		t.Errorf("Realtime.SendBuffer = %d, want 256", cfg.Realtime.SendBuffer)
	}
	if cfg.Security.JWTSecret != "" {
		t.Error("Security.JWTSecret must not have a default")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"BADGER_IN_MEMORY", "database.in_memory"},
		{"WS_BROADCAST_CREATES", "realtime.broadcast_creates"},
		{"WS_DEBUG_EVENTS", "realtime.debug_events"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if got := findConfigFile(); got != "" {
			t.Errorf("findConfigFile() = %q, want empty string", got)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		if err := os.WriteFile("config.yaml", []byte("server: {}"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		defer os.Remove("config.yaml")

		custom := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(custom, []byte("server: {}"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, custom)

		if got := findConfigFile(); got != custom {
			t.Errorf("findConfigFile() = %q, want %q", got, custom)
		}
	})

	t.Run("CONFIG_PATH with missing file falls back", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		if got := findConfigFile(); got != "" {
			t.Errorf("findConfigFile() = %q, want empty string", got)
		}
	})
}

func TestLoadEnvVars(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("WS_BROADCAST_CREATES", "false")
	t.Setenv("BULLETIN_TTL", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	wantOrigins := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, wantOrigins) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, wantOrigins)
	}
	if cfg.Realtime.BroadcastCreates {
		t.Error("Realtime.BroadcastCreates should be overridden to false")
	}
	if cfg.Database.BulletinTTL != 2*time.Hour {
		t.Errorf("Database.BulletinTTL = %v, want 2h", cfg.Database.BulletinTTL)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())

	content := `
server:
  port: 8888
security:
  jwt_secret: "` + testSecret + `"
realtime:
  debug_events: true
logging:
  level: warn
`
	path := filepath.Join(t.TempDir(), "geoboard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888 (file)", cfg.Server.Port)
	}
	if !cfg.Realtime.DebugEvents {
		t.Error("Realtime.DebugEvents should come from the file")
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env beats file)", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWTSecret = testSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.Security.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "short secret", mutate: func(c *Config) { c.Security.JWTSecret = "short" }, wantErr: "at least 32"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "HTTP_PORT"},
		{name: "bad bcrypt cost", mutate: func(c *Config) { c.Security.BcryptCost = 99 }, wantErr: "BCRYPT_COST"},
		{name: "rate limit disabled skips window", mutate: func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitWindow = 0
		}},
		{name: "missing badger path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "BADGER_PATH"},
		{name: "in memory needs no path", mutate: func(c *Config) {
			c.Database.Path = ""
			c.Database.InMemory = true
		}},
		{name: "zero send buffer", mutate: func(c *Config) { c.Realtime.SendBuffer = 0 }, wantErr: "WS_SEND_BUFFER"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "LOG_FORMAT"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
