// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package api

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelfeed/internal/feed"
	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/models"
	"github.com/tomtom215/reelfeed/internal/websocket"
)

// FeedService is the part of feed.Service the handlers use.
type FeedService interface {
	Current() *models.Ranking
	Ready() bool
	Refresh(ctx context.Context) (feed.RefreshStatus, error)
	HandleEvent(ctx context.Context, ev models.FeedEvent) error
	Layout(sections []models.Section) map[string][]models.CatalogItem
	Interests() []string
}

// MediaReader reads cached media. mediacache.Store satisfies it.
type MediaReader interface {
	Get(ctx context.Context, bucket models.Bucket, url string) (*models.CacheEntry, error)
}

// Deps are the collaborators of Handler. Media and Hub are optional: a
// nil Media answers 503 on /media, a nil Hub disables /feed/ws.
type Deps struct {
	Feed  FeedService
	Media MediaReader
	Hub   *websocket.Hub
}

// Handler serves the API routes.
type Handler struct {
	feed           FeedService
	media          MediaReader
	hub            *websocket.Hub
	allowedOrigins []string
	logger         zerolog.Logger
}

// NewHandler builds a Handler. allowedOrigins gates WebSocket upgrades.
func NewHandler(deps Deps, allowedOrigins []string) (*Handler, error) {
	if deps.Feed == nil {
		return nil, errors.New("api: feed service is required")
	}
	return &Handler{
		feed:           deps.Feed,
		media:          deps.Media,
		hub:            deps.Hub,
		allowedOrigins: allowedOrigins,
		logger:         logging.Component("api"),
	}, nil
}
