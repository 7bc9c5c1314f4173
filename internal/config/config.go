// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

// Package config loads Geoboard configuration with Koanf v2.
//
// Sources are layered, highest priority last:
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/geoboard/config.yaml)
//  3. Environment variables, mapped explicitly in envTransformFunc
//
// The returned Config is immutable after Load and safe for concurrent reads.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Database DatabaseConfig `koanf:"database"`
	Realtime RealtimeConfig `koanf:"realtime"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT, HTTP_HOST, HTTP_TIMEOUT
//   - SHUTDOWN_TIMEOUT: graceful shutdown budget for the supervisor tree
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds authentication, CORS and rate limiting settings.
//
// Environment Variables:
//   - JWT_SECRET: HMAC secret, at least 32 characters
//   - SESSION_TIMEOUT: token lifetime (default 24h)
//   - BCRYPT_COST: password hashing cost
//   - CORS_ORIGINS: comma-separated list
//   - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	BcryptCost        int           `koanf:"bcrypt_cost"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// DatabaseConfig holds the BadgerDB document store settings.
//
// InMemory keeps everything in RAM. It is used by tests and throwaway dev runs.
type DatabaseConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// BulletinTTL is how long a bulletin lives after creation.
	BulletinTTL time.Duration `koanf:"bulletin_ttl"`

	// ExpirySweepInterval controls how often expired bulletins are removed
	// and announced as deleted.
	ExpirySweepInterval time.Duration `koanf:"expiry_sweep_interval"`
}

// RealtimeConfig holds the WebSocket fan-out settings.
type RealtimeConfig struct {
	// BroadcastCreates sends new-bulletin to every connected session in
	// addition to the targeted rooms. Existing clients rely on it for
	// out-of-range visibility.
	BroadcastCreates bool `koanf:"broadcast_creates"`

	// RequireAuth makes the WebSocket upgrade demand a valid JWT.
	RequireAuth bool `koanf:"require_auth"`

	// DebugEvents enables check-rooms, whose rooms-info reply lists every
	// occupied room and so reveals where other clients are.
	DebugEvents bool `koanf:"debug_events"`

	// SendBuffer is the per-session outbound queue length. A session whose
	// queue is full when an event is delivered is dropped.
	SendBuffer int `koanf:"send_buffer"`

	// DispatchBuffer is the hub's inbound dispatch queue length.
	DispatchBuffer int `koanf:"dispatch_buffer"`

	// JoinRate and JoinBurst bound how often one session may report its position.
	JoinRate  float64 `koanf:"join_rate"`
	JoinBurst int     `koanf:"join_burst"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
