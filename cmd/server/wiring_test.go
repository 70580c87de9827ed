// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelfeed/internal/config"
	"github.com/tomtom215/reelfeed/internal/models"
	"github.com/tomtom215/reelfeed/internal/supervisor"
)

const testCatalog = `{"videos":[
 {"id":"v1","category":"travel","video_url":"https://cdn.example.com/v1.mp4","video_type":"Shorts","created_at":"2026-03-01T00:00:00Z"},
 {"id":"v2","category":"cooking","video_url":"https://cdn.example.com/v2.mp4","video_type":"Long Video","created_at":"2026-02-01T00:00:00Z"},
 {"id":"v3","category":"travel","video_url":"https://cdn.example.com/v3.mp4","video_type":"Shorts","is_trending":true,"created_at":"2026-01-01T00:00:00Z"}
]}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	catalogPath := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(catalogPath, []byte(testCatalog), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(config.ConfigPathEnvVar, "")
	t.Setenv("SESSION_USER_ID", "viewer-1")
	t.Setenv("DATA_IN_MEMORY", "true")
	t.Setenv("CATALOG_PATH", catalogPath)
	t.Setenv("PREFETCH_ENABLED", "false")
	t.Setenv("PROFILE_ENABLED", "false")
	t.Setenv("NATS_URL", "")
	t.Setenv("DISABLE_RATE_LIMIT", "true")

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	return cfg
}

func TestBuildApp_ServesLoadedFeed(t *testing.T) {
	cfg := testConfig(t)

	a, err := buildApp(cfg)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.feed.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	handler := a.server.Handler

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /feed = %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data models.Ranking `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if len(env.Data.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(env.Data.Items))
	}

	body := []byte(`{"type":"dislike","id":"v2"}`)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/feed/events", bytes.NewReader(body)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /feed/events = %d: %s", rec.Code, rec.Body.String())
	}
	for _, item := range a.feed.Current().Items {
		if item.ID == "v2" {
			t.Error("disliked item still ranked")
		}
	}
}

func TestBuildApp_RegistersServices(t *testing.T) {
	cfg := testConfig(t)
	a, err := buildApp(cfg)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}

	tree, err := supervisor.NewSupervisorTree(quietSlog(), supervisor.TreeConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.register(tree); err != nil {
		t.Errorf("register: %v", err)
	}

	a.close()
	a.close()
}

func TestBuildApp_BadCatalogPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.json")

	a, err := buildApp(cfg)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.close()

	if err := a.feed.Load(context.Background()); err == nil {
		t.Error("Load should fail without a catalog")
	}
}

func TestBuildApp_InvalidNamespace(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Namespace = "a/b"

	if _, err := buildApp(cfg); err == nil {
		t.Error("expected an error for a namespace containing a slash")
	}
}

func TestConfigMapping(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.VideoHighWater = 40
	cfg.Cache.VideoLowWater = 30
	cfg.Ranking.RandomWeight = 0.25
	cfg.Prefetch.MediaWindow = 7

	limits := cacheLimits(cfg.Cache)
	if limits.Video.High != 40 || limits.Video.Low != 30 {
		t.Errorf("video limits = %+v", limits.Video)
	}
	if limits.Image.High != cfg.Cache.ImageHighWater {
		t.Errorf("image limits = %+v", limits.Image)
	}

	if rc := rankerConfig(cfg.Ranking); rc.RandomWeight != 0.25 || rc.MinFeedLength != cfg.Ranking.MinFeedLength {
		t.Errorf("ranker config = %+v", rc)
	}
	if pc := prefetchConfig(cfg.Prefetch); pc.MediaWindow != 7 || pc.Concurrency != cfg.Prefetch.Concurrency {
		t.Errorf("prefetch config = %+v", pc)
	}
}
