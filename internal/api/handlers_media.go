// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tomtom215/reelfeed/internal/mediacache"
	"github.com/tomtom215/reelfeed/internal/models"
	"github.com/tomtom215/reelfeed/internal/validation"
)

// MediaQuery is the query string of GET /api/v1/media.
type MediaQuery struct {
	Bucket string `json:"bucket" validate:"required,oneof=video image"`
	URL    string `json:"url" validate:"required,http_url"`
}

// passthroughHeaders are copied from the cached origin response.
var passthroughHeaders = []string{
	"Content-Type",
	"Content-Range",
	"Cache-Control",
	"ETag",
	"Last-Modified",
}

// Media serves a cached entry by its origin URL. Complete (200) entries go
// through http.ServeContent so players can issue Range requests. Partial,
// truncated and opaque entries are replayed as stored; truncated ones always
// as a 206 so the player fetches the rest from the origin.
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	q := MediaQuery{
		Bucket: r.URL.Query().Get("bucket"),
		URL:    r.URL.Query().Get("url"),
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
		return
	}
	if h.media == nil {
		respondError(w, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", "Media cache is disabled", nil)
		return
	}

	entry, err := h.media.Get(r.Context(), models.Bucket(q.Bucket), q.URL)
	switch {
	case errors.Is(err, mediacache.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_CACHED", "Media is not cached", map[string]interface{}{"url": q.URL})
		return
	case err != nil:
		h.logger.Debug().Err(err).Str("url", q.URL).Msg("media cache read failed")
		respondError(w, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", "Media cache is unavailable", nil)
		return
	}

	for _, name := range passthroughHeaders {
		if v := entry.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.Header().Set("X-Cache", "HIT")
	if entry.Opaque {
		w.Header().Set("X-Cache-Opaque", "true")
	}

	status := entry.Status
	if status == 0 {
		status = http.StatusOK
	}
	if entry.Truncated {
		// Only a prefix is held, so never advertise it as the whole resource.
		w.Header().Set("X-Cache-Partial", "true")
		if w.Header().Get("Content-Range") == "" {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes 0-%d/*", len(entry.Body)-1))
		}
		status = http.StatusPartialContent
	}
	if status == http.StatusOK && !entry.Opaque {
		http.ServeContent(w, r, "", entry.StoredAt, bytes.NewReader(entry.Body))
		return
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(entry.Body)))
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(entry.Body)
	}
}
