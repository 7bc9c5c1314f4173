// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/geoboard/internal/api"
	"github.com/tomtom215/geoboard/internal/auth"
	"github.com/tomtom215/geoboard/internal/authz"
	"github.com/tomtom215/geoboard/internal/config"
	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/realtime"
	"github.com/tomtom215/geoboard/internal/store"
	"github.com/tomtom215/geoboard/internal/supervisor"
	"github.com/tomtom215/geoboard/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().Msg("Starting Geoboard with supervisor tree")

	os.Exit(run(cfg))
}

// run wires the application and blocks until the supervisor tree stops.
// It returns the process exit code so deferred cleanup runs before exit.
func run(cfg *config.Config) int {
	logging.Info().
		Str("path", cfg.Database.Path).
		Bool("in_memory", cfg.Database.InMemory).
		Dur("bulletin_ttl", cfg.Database.BulletinTTL).
		Msg("Opening bulletin store")

	st, err := store.Open(store.Options{
		Path:        cfg.Database.Path,
		InMemory:    cfg.Database.InMemory,
		BulletinTTL: cfg.Database.BulletinTTL,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to open store")
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	hub := realtime.NewHub(realtime.NewRegistry(), realtime.HubConfig{
		BroadcastCreates: cfg.Realtime.BroadcastCreates,
		DispatchBuffer:   cfg.Realtime.DispatchBuffer,
		SendBuffer:       cfg.Realtime.SendBuffer,
		JoinRate:         cfg.Realtime.JoinRate,
		JoinBurst:        cfg.Realtime.JoinBurst,
		DebugEvents:      cfg.Realtime.DebugEvents,
	})

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize JWT manager")
		return 1
	}

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize authorization enforcer")
		return 1
	}
	defer enforcer.Close()

	handler := api.NewHandler(api.Dependencies{
		Store:     st,
		Hub:       hub,
		JWT:       jwtManager,
		Passwords: auth.NewPasswordHasher(cfg.Security.BcryptCost),
		Authz:     enforcer,
		Config:    cfg,
	})
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFrom(&cfg.Security))

	warnInsecureSettings(cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Hijacked WebSocket connections manage their own deadlines.
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	treeConfig := supervisor.DefaultTreeConfig()
	if cfg.Server.ShutdownTimeout > 0 {
		treeConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeConfig)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return 1
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Data layer
	tree.AddDataService(services.NewExpirySweeperService(st, hub, cfg.Database.ExpirySweepInterval))
	if !cfg.Database.InMemory {
		tree.AddDataService(services.NewValueLogGCService(st, 0))
	}

	// Messaging layer
	tree.AddMessagingService(services.NewWebSocketHubService(hub))

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout))

	logging.Info().
		Str("addr", addr).
		Bool("broadcast_creates", cfg.Realtime.BroadcastCreates).
		Bool("ws_require_auth", cfg.Realtime.RequireAuth).
		Msg("Services registered")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	code := 0
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
			code = 1
		}
		stop()
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Unstopped service")
		}
	}

	logging.Info().Msg("Geoboard stopped")
	return code
}

// warnInsecureSettings logs prominent warnings for settings that are fine in
// development but dangerous in production.
func warnInsecureSettings(cfg *config.Config) {
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("==========================================================")
			logging.Warn().Msg("SECURITY WARNING: CORS is configured to allow ALL origins")
			logging.Warn().Msg("Any website can call this API and open WebSocket sessions.")
			logging.Warn().Msg("Set CORS_ORIGINS to your frontend origin(s) in production.")
			logging.Warn().Msg("==========================================================")
			break
		}
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("==========================================================")
		logging.Warn().Msg("SECURITY WARNING: Rate limiting is DISABLED")
		logging.Warn().Msg("Login and registration are open to brute force attempts.")
		logging.Warn().Msg("Unset DISABLE_RATE_LIMIT in production.")
		logging.Warn().Msg("==========================================================")
	}

	if !cfg.Realtime.RequireAuth {
		logging.Info().Msg("WebSocket sessions may connect anonymously (realtime.require_auth=false)")
	}
}
