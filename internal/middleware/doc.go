// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

/*
Package middleware provides the net/http middleware shared by the API router.

Components:

  - RequestID: propagates or mints an X-Request-ID and stores it in the
    request context for logging.Ctx
  - PrometheusMetrics: request counters and latency histograms labelled by
    chi route pattern
  - Compression: gzip for JSON responses

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.Compression).Get("/api/v1/feed", h.Feed)

Compression must not wrap routes that stream media bodies; the router only
applies it to JSON groups. WebSocket upgrades pass through untouched.
*/
package middleware
