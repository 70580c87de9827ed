// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/reelfeed/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler    *Handler
	middleware *ChiMiddleware
}

// NewRouter uses the default middleware when mw is nil.
func NewRouter(h *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: h, middleware: mw}
}

// SetupChi builds the HTTP handler.
//
// Health and metrics sit outside the rate limiter so health checks and scrapes are
// never throttled. Compression only wraps JSON routes.
func (rt *Router) SetupChi() http.Handler {
	h := rt.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.middleware.CORS())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No such endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/live", h.Live)
			r.Get("/ready", h.Ready)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.middleware.RateLimit())

			r.Group(func(r chi.Router) {
				r.Use(middleware.Compression)
				r.Get("/feed", h.Feed)
				r.Post("/feed/refresh", h.Refresh)
				r.Post("/feed/events", h.Event)
				r.Post("/feed/layout", h.Layout)
				r.Get("/interests", h.Interests)
			})

			r.Get("/feed/ws", h.WebSocket)
			r.Get("/media", h.Media)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}
