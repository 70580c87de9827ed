// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/reelfeed/internal/feed"
	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/models"
	"github.com/tomtom215/reelfeed/internal/validation"
	"github.com/tomtom215/reelfeed/internal/websocket"
)

// LayoutRequest is the body of POST /api/v1/feed/layout.
type LayoutRequest struct {
	Sections []models.Section `json:"sections" validate:"required,min=1,max=50,dive"`
}

// LayoutResponse maps each section key to its items.
type LayoutResponse struct {
	Version  uint64                          `json:"version"`
	Sections map[string][]models.CatalogItem `json:"sections"`
}

// Feed returns the current ranking.
func (h *Handler) Feed(w http.ResponseWriter, _ *http.Request) {
	current := h.feed.Current()
	if current == nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Feed is still loading", nil)
		return
	}
	respondSuccess(w, http.StatusOK, current)
}

// Refresh reloads and re-ranks the feed. The outcome message is meant to be
// shown to the viewer as is, so it is returned on failure too.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	status, err := h.feed.Refresh(r.Context())
	if err != nil {
		code := "REFRESH_FAILED"
		if errors.Is(err, feed.ErrNotLoaded) {
			code = "NOT_READY"
		}
		h.logger.Warn().Err(err).Str("request_id", logging.RequestIDFromContext(r.Context())).Msg("refresh failed")
		respondError(w, http.StatusServiceUnavailable, code, status.Message, nil)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastJSON(websocket.MessageTypeRefresh, status)
	}
	respondSuccess(w, http.StatusOK, status)
}

// Event applies one viewer interaction.
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	var ev models.FeedEvent
	if err := decodeJSONBody(w, r, &ev); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&ev); verr != nil {
		respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
		return
	}

	err := h.feed.HandleEvent(r.Context(), ev)
	switch {
	case err == nil:
	case errors.Is(err, feed.ErrInvalidEvent):
		respondError(w, http.StatusBadRequest, validation.ErrorCode, err.Error(), nil)
		return
	case errors.Is(err, feed.ErrUnknownItem):
		respondError(w, http.StatusNotFound, "UNKNOWN_ITEM", "No video with that id in the catalog", map[string]interface{}{"id": ev.ID})
		return
	case errors.Is(err, feed.ErrNotLoaded):
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Feed is still loading", nil)
		return
	default:
		// Local persistence failed; the in-memory state already changed.
		h.logger.Warn().Err(err).Str("event", string(ev.Type)).Msg("event applied with errors")
	}

	var version uint64
	if current := h.feed.Current(); current != nil {
		version = current.Version
	}
	respondSuccess(w, http.StatusAccepted, map[string]interface{}{
		"type":    ev.Type,
		"version": version,
	})
}

// Layout distributes the current ranking over the requested sections.
func (h *Handler) Layout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
		return
	}

	current := h.feed.Current()
	if current == nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Feed is still loading", nil)
		return
	}
	respondSuccess(w, http.StatusOK, LayoutResponse{
		Version:  current.Version,
		Sections: h.feed.Layout(req.Sections),
	})
}

// Interests returns the tracked interest list.
func (h *Handler) Interests(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string][]string{"interests": h.feed.Interests()})
}
