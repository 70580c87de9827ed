// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tomtom215/reelfeed/internal/api"
	"github.com/tomtom215/reelfeed/internal/catalog"
	"github.com/tomtom215/reelfeed/internal/config"
	"github.com/tomtom215/reelfeed/internal/events"
	"github.com/tomtom215/reelfeed/internal/feed"
	"github.com/tomtom215/reelfeed/internal/interest"
	"github.com/tomtom215/reelfeed/internal/kvstore"
	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/mediacache"
	"github.com/tomtom215/reelfeed/internal/prefetch"
	"github.com/tomtom215/reelfeed/internal/profile"
	"github.com/tomtom215/reelfeed/internal/recommend"
	"github.com/tomtom215/reelfeed/internal/supervisor"
	"github.com/tomtom215/reelfeed/internal/supervisor/services"
	ws "github.com/tomtom215/reelfeed/internal/websocket"
)

// app holds every long-lived component of one feed session.
type app struct {
	cfg     *config.Config
	kv      *kvstore.Store
	cache   *mediacache.BadgerStore
	janitor *mediacache.Janitor
	tracker *interest.Tracker
	feed    *feed.Service
	bus     *events.Bus
	hub     *ws.Hub
	server  *http.Server

	closeOnce sync.Once
}

// buildApp wires the components without starting anything.
func buildApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	built := false
	defer func() {
		if !built {
			a.close()
		}
	}()

	var err error
	a.kv, err = kvstore.Open(kvstore.Options{
		Path:     cfg.Session.DataDir,
		InMemory: cfg.Session.InMemory,
	})
	if err != nil {
		return nil, err
	}

	a.cache, err = mediacache.NewBadgerStore(a.kv.DB(), cfg.Cache.Namespace)
	if err != nil {
		return nil, fmt.Errorf("open media cache: %w", err)
	}
	a.janitor = mediacache.NewJanitor(a.cache, cacheLimits(cfg.Cache), a.kv.RunGC)

	var mirror interest.ProfileMirror
	if cfg.Profile.Enabled {
		client, err := profile.NewClient(profile.Config{
			BaseURL:         cfg.Profile.URL,
			Timeout:         cfg.Profile.Timeout,
			BreakerFailures: cfg.Profile.BreakerFailures,
			BreakerTimeout:  cfg.Profile.BreakerTimeout,
		}, nil)
		if err != nil {
			return nil, err
		}
		mirror = client
	}
	a.tracker = interest.NewTracker(
		cfg.Session.UserID,
		cfg.Session.InterestCapacity,
		interest.NewBadgerStore(a.kv, cfg.Session.UserID),
		mirror,
	)

	source, err := catalog.NewFileSource(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	ranker, err := recommend.NewRanker(rankerConfig(cfg.Ranking), recommend.NewRandom(cfg.Ranking.Seed))
	if err != nil {
		return nil, err
	}

	deps := feed.Deps{
		Catalog:      source,
		Tracker:      a.tracker,
		Ranker:       ranker,
		Interactions: feed.NewBadgerInteractionStore(a.kv, cfg.Session.UserID),
		Janitor:      a.janitor,
	}
	if cfg.Prefetch.Enabled {
		fetcher := mediacache.NewFetcher(mediacache.FetcherConfig{
			RangeBytes:      cfg.Prefetch.RangeBytes,
			Timeout:         cfg.Prefetch.FetchTimeout,
			BreakerFailures: cfg.Cache.BreakerFailures,
			BreakerTimeout:  cfg.Cache.BreakerTimeout,
		}, nil)
		deps.Prefetch = prefetch.New(a.cache, fetcher, prefetchConfig(cfg.Prefetch))
	}

	a.feed, err = feed.New(deps, feed.Config{
		CompletionThreshold: cfg.Ranking.CompletionThreshold,
		BackgroundTimeout:   cfg.Prefetch.BackgroundTimeout,
	})
	if err != nil {
		return nil, err
	}

	a.bus, err = events.NewBus(events.Config{
		UserID:           cfg.Session.UserID,
		NATSURL:          cfg.Events.NATSURL,
		JetStream:        cfg.Events.JetStream,
		QueueGroup:       cfg.Events.QueueGroup,
		SubscribersCount: cfg.Events.SubscribersCount,
		AckWaitTimeout:   cfg.Events.AckWaitTimeout,
		CloseTimeout:     cfg.Events.CloseTimeout,
		BufferSize:       cfg.Events.BufferSize,
		DedupCapacity:    cfg.Events.DedupCapacity,
		DedupTTL:         cfg.Events.DedupTTL,
	})
	if err != nil {
		return nil, err
	}
	a.bus.Attach(a.feed)
	a.feed.Subscribe(a.bus.Announce)

	if cfg.WebSocket.Enabled {
		a.hub = ws.NewHub(ws.Config{
			PingInterval: cfg.WebSocket.PingInterval,
			WriteTimeout: cfg.WebSocket.WriteTimeout,
			SendBuffer:   cfg.WebSocket.SendBuffer,
			MaxClients:   cfg.WebSocket.MaxClients,
		})
		a.hub.SetSnapshot(a.feed.Current)
		a.feed.Subscribe(a.hub.BroadcastRanking)
	}

	a.server, err = newHTTPServer(cfg, a)
	if err != nil {
		return nil, err
	}
	built = true
	return a, nil
}

func newHTTPServer(cfg *config.Config, a *app) (*http.Server, error) {
	deps := api.Deps{Feed: a.feed, Media: a.cache}
	if a.hub != nil {
		deps.Hub = a.hub
	}
	handler, err := api.NewHandler(deps, cfg.Server.CORSOrigins)
	if err != nil {
		return nil, err
	}

	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Server.RateLimitReqs
	mwCfg.RateLimitWindow = cfg.Server.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Server.RateLimitDisabled

	return &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, api.NewChiMiddleware(mwCfg)).SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}, nil
}

// register adds every service to its layer.
func (a *app) register(tree *supervisor.SupervisorTree) error {
	logger := logging.Component("supervisor")

	janitor, err := services.NewPeriodicService(services.PeriodicConfig{
		Name:     "cache-janitor",
		Interval: a.cfg.Cache.JanitorInterval,
	}, a.janitor.Sweep, logger)
	if err != nil {
		return err
	}
	tree.AddDataService(janitor)
	tree.AddDataService(a.tracker)

	if a.cfg.Catalog.ReloadInterval > 0 {
		reload, err := services.NewPeriodicService(services.PeriodicConfig{
			Name:     "catalog-reload",
			Interval: a.cfg.Catalog.ReloadInterval,
		}, a.reloadCatalog, logger)
		if err != nil {
			return err
		}
		tree.AddDataService(reload)
	}

	tree.AddMessagingService(a.bus)
	if a.hub != nil {
		tree.AddMessagingService(a.hub)
	}

	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout))
	return nil
}

func (a *app) reloadCatalog(ctx context.Context) error {
	changed, err := a.feed.ReloadCatalog(ctx)
	if err != nil {
		return err
	}
	if changed {
		logging.Info().Msg("Catalog changed, feed re-ranked")
	}
	return nil
}

// close releases resources in reverse order of creation. Safe to call more
// than once and on a partially built app.
func (a *app) close() {
	a.closeOnce.Do(func() {
		if a.feed != nil {
			a.feed.Wait()
		}
		if a.bus != nil {
			if err := a.bus.Close(); err != nil {
				logging.Warn().Err(err).Msg("Error closing event bus")
			}
		}
		if a.cache != nil {
			if err := a.cache.Close(); err != nil {
				logging.Warn().Err(err).Msg("Error releasing cache sequence")
			}
		}
		if a.kv != nil {
			if err := a.kv.Close(); err != nil && !errors.Is(err, kvstore.ErrClosed) {
				logging.Error().Err(err).Msg("Error closing store")
			}
		}
	})
}

func cacheLimits(c config.CacheConfig) mediacache.Limits {
	return mediacache.Limits{
		Video: mediacache.WaterMarks{High: c.VideoHighWater, Low: c.VideoLowWater},
		Image: mediacache.WaterMarks{High: c.ImageHighWater, Low: c.ImageLowWater},
	}
}

func rankerConfig(r config.RankingConfig) *recommend.Config {
	return &recommend.Config{
		CompletionThreshold: r.CompletionThreshold,
		UnseenThreshold:     r.UnseenThreshold,
		RandomWeight:        r.RandomWeight,
		PrimaryWeight:       r.PrimaryWeight,
		SecondaryWeight:     r.SecondaryWeight,
		TrendingWeight:      r.TrendingWeight,
		MinFeedLength:       r.MinFeedLength,
		FallbackSampleSize:  r.FallbackSampleSize,
		RotationWindow:      r.RotationWindow,
	}
}

func prefetchConfig(p config.PrefetchConfig) prefetch.Config {
	return prefetch.Config{
		PosterWindow:     p.PosterWindow,
		MediaWindow:      p.MediaWindow,
		BoostMediaWindow: p.BoostMediaWindow,
		TailWindow:       p.TailWindow,
		Concurrency:      p.Concurrency,
		RatePerSecond:    p.RatePerSecond,
		Burst:            p.Burst,
	}
}
