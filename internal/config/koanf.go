// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelfeed/config.yaml",
	"/etc/reelfeed/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults applied before file and env layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8087,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Session: SessionConfig{
			UserID:           "local",
			DataDir:          "/data/reelfeed",
			InterestCapacity: 10,
		},
		Catalog: CatalogConfig{
			Path:           "catalog.json",
			ReloadInterval: 5 * time.Minute,
		},
		Ranking: RankingConfig{
			CompletionThreshold: 0.8,
			UnseenThreshold:     0.1,
			RandomWeight:        10,
			PrimaryWeight:       500,
			SecondaryWeight:     50,
			TrendingWeight:      10,
			MinFeedLength:       5,
			FallbackSampleSize:  10,
			RotationWindow:      5,
		},
		Prefetch: PrefetchConfig{
			Enabled:           true,
			PosterWindow:      10,
			MediaWindow:       3,
			BoostMediaWindow:  20,
			TailWindow:        5,
			RangeBytes:        2 << 20, // 2 MiB
			Concurrency:       6,
			RatePerSecond:     20,
			Burst:             10,
			FetchTimeout:      15 * time.Second,
			BackgroundTimeout: 2 * time.Minute,
		},
		Cache: CacheConfig{
			Namespace:       "reelfeed-v1",
			VideoHighWater:  50,
			VideoLowWater:   25,
			ImageHighWater:  100,
			ImageLowWater:   50,
			JanitorInterval: 10 * time.Minute,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Profile: ProfileConfig{
			Enabled:         false,
			Timeout:         10 * time.Second,
			BreakerFailures: 3,
			BreakerTimeout:  time.Minute,
		},
		Events: EventsConfig{
			QueueGroup:       "reelfeed",
			SubscribersCount: 1,
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     10 * time.Second,
			BufferSize:       64,
			DedupCapacity:    4096,
			DedupTTL:         10 * time.Minute,
		},
		WebSocket: WebSocketConfig{
			Enabled:      true,
			PingInterval: 30 * time.Second,
			WriteTimeout: 10 * time.Second,
			SendBuffer:   16,
			MaxClients:   64,
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file and
// the environment, in that order of increasing precedence, then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated strings for known slice fields.
// Values that came from YAML are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"shutdown_timeout":    "server.shutdown_timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Session
	"session_user_id":   "session.user_id",
	"data_dir":          "session.data_dir",
	"data_in_memory":    "session.in_memory",
	"interest_capacity": "session.interest_capacity",

	// Catalog
	"catalog_path":            "catalog.path",
	"catalog_reload_interval": "catalog.reload_interval",

	// Ranking
	"ranking_completion_threshold": "ranking.completion_threshold",
	"ranking_unseen_threshold":     "ranking.unseen_threshold",
	"ranking_random_weight":        "ranking.random_weight",
	"ranking_primary_weight":       "ranking.primary_weight",
	"ranking_secondary_weight":     "ranking.secondary_weight",
	"ranking_trending_weight":      "ranking.trending_weight",
	"ranking_min_feed_length":      "ranking.min_feed_length",
	"ranking_fallback_sample":      "ranking.fallback_sample_size",
	"ranking_rotation_window":      "ranking.rotation_window",
	"ranking_seed":                 "ranking.seed",

	// Prefetch
	"prefetch_enabled":            "prefetch.enabled",
	"prefetch_poster_window":      "prefetch.poster_window",
	"prefetch_media_window":       "prefetch.media_window",
	"prefetch_boost_window":       "prefetch.boost_media_window",
	"prefetch_tail_window":        "prefetch.tail_window",
	"prefetch_range_bytes":        "prefetch.range_bytes",
	"prefetch_concurrency":        "prefetch.concurrency",
	"prefetch_rate":               "prefetch.rate_per_second",
	"prefetch_burst":              "prefetch.burst",
	"prefetch_fetch_timeout":      "prefetch.fetch_timeout",
	"prefetch_background_timeout": "prefetch.background_timeout",

	// Cache
	"cache_namespace":        "cache.namespace",
	"cache_video_high_water": "cache.video_high_water",
	"cache_video_low_water":  "cache.video_low_water",
	"cache_image_high_water": "cache.image_high_water",
	"cache_image_low_water":  "cache.image_low_water",
	"cache_janitor_interval": "cache.janitor_interval",
	"cache_breaker_failures": "cache.breaker_failures",
	"cache_breaker_timeout":  "cache.breaker_timeout",

	// Profile mirror
	"profile_enabled":          "profile.enabled",
	"profile_url":              "profile.url",
	"profile_timeout":          "profile.timeout",
	"profile_breaker_failures": "profile.breaker_failures",
	"profile_breaker_timeout":  "profile.breaker_timeout",

	// Events
	"nats_url":           "events.nats_url",
	"nats_jetstream":     "events.jetstream",
	"nats_queue_group":   "events.queue_group",
	"nats_subscribers":   "events.subscribers_count",
	"nats_ack_wait":      "events.ack_wait_timeout",
	"events_close":       "events.close_timeout",
	"events_buffer_size": "events.buffer_size",
	"events_dedup_size":  "events.dedup_capacity",
	"events_dedup_ttl":   "events.dedup_ttl",

	// WebSocket
	"websocket_enabled":       "websocket.enabled",
	"websocket_ping_interval": "websocket.ping_interval",
	"websocket_write_timeout": "websocket.write_timeout",
	"websocket_send_buffer":   "websocket.send_buffer",
	"websocket_max_clients":   "websocket.max_clients",
}

// envTransformFunc maps an environment variable name to a koanf path.
// Unmapped names return "" and are skipped.
//
//   - HTTP_PORT -> server.port
//   - PREFETCH_RANGE_BYTES -> prefetch.range_bytes
//   - NATS_URL -> events.nats_url
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
