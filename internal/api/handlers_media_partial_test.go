// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/reelfeed/internal/mediacache"
	"github.com/tomtom215/reelfeed/internal/models"
)

// An origin that ignores Range must not yield a cached prefix that is served
// as the complete resource.
func TestMedia_OriginIgnoringRangeServedAsPartial(t *testing.T) {
	file := strings.Repeat("v", 64)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte(file))
	}))
	defer origin.Close()

	ctx := context.Background()
	fetcher := mediacache.NewFetcher(mediacache.FetcherConfig{
		RangeBytes:      16,
		Timeout:         2 * time.Second,
		BreakerFailures: 3,
		BreakerTimeout:  time.Hour,
	}, nil)
	clip := origin.URL + "/long.mp4"
	entry, err := fetcher.Fetch(ctx, models.BucketVideo, clip)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	store := mediacache.NewMemoryStore()
	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	h := newTestRouter(t, Deps{Feed: &fakeFeed{}, Media: store}, nil)
	rec := do(h, http.MethodGet, mediaTarget("video", clip), nil)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 0-15/64" {
		t.Errorf("Content-Range = %q, want bytes 0-15/64", got)
	}
	if rec.Header().Get("Accept-Ranges") != "" {
		t.Error("a truncated prefix must not advertise byte ranges")
	}
	if rec.Header().Get("X-Cache-Partial") != "true" {
		t.Error("missing X-Cache-Partial")
	}
	if rec.Body.Len() != 16 {
		t.Errorf("body = %d bytes, want 16", rec.Body.Len())
	}
}

func TestMedia_TruncatedOpaqueEntry(t *testing.T) {
	store := mediacache.NewMemoryStore()
	poster := "https://img.example.com/p/big.jpg"
	if err := store.Put(context.Background(), &models.CacheEntry{
		URL:       poster,
		Bucket:    models.BucketImage,
		Body:      []byte("jpeg"),
		Opaque:    true,
		Truncated: true,
	}); err != nil {
		t.Fatal(err)
	}
	h := newTestRouter(t, Deps{Feed: &fakeFeed{}, Media: store}, nil)

	rec := do(h, http.MethodGet, mediaTarget("image", poster), nil)
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 0-3/*" {
		t.Errorf("Content-Range = %q, want bytes 0-3/*", got)
	}
	if rec.Header().Get("X-Cache-Opaque") != "true" {
		t.Error("missing X-Cache-Opaque")
	}
}
