// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/reelfeed/internal/config"
	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/supervisor"
)

// loadTimeout bounds the initial hydrate and rank.
const loadTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging.ToLogging())

	logging.Info().
		Str("user_id", cfg.Session.UserID).
		Str("catalog", cfg.Catalog.Path).
		Str("cache_namespace", cfg.Cache.Namespace).
		Bool("prefetch", cfg.Prefetch.Enabled).
		Bool("profile_mirror", cfg.Profile.Enabled).
		Bool("nats", cfg.Events.NATSURL != "").
		Msg("Starting Reelfeed")

	a, err := buildApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadCtx, cancelLoad := context.WithTimeout(ctx, loadTimeout)
	err = a.feed.Load(loadCtx)
	cancelLoad()
	if err != nil {
		a.close()
		logging.Fatal().Err(err).Msg("Failed to load the feed")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		a.close()
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	if err := a.register(tree); err != nil {
		a.close()
		logging.Fatal().Err(err).Msg("Failed to register services")
	}

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Serving")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}
	logging.Info().Msg("Shutdown complete")
}
