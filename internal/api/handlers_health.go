// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package api

import (
	"net/http"
)

// Live always succeeds while the process can serve HTTP.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Ready succeeds once the first ranking is published.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	current := h.feed.Current()
	if current == nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Feed is still loading", nil)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":  "ready",
		"version": current.Version,
		"items":   len(current.Items),
	})
}
