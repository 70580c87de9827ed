// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/reelfeed/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Session   SessionConfig   `koanf:"session"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Ranking   RankingConfig   `koanf:"ranking"`
	Prefetch  PrefetchConfig  `koanf:"prefetch"`
	Cache     CacheConfig     `koanf:"cache"`
	Profile   ProfileConfig   `koanf:"profile"`
	Events    EventsConfig    `koanf:"events"`
	WebSocket WebSocketConfig `koanf:"websocket"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// ToLogging converts to the logging package configuration.
func (l LoggingConfig) ToLogging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}

// SessionConfig identifies the feed session and where its state lives.
type SessionConfig struct {
	UserID           string `koanf:"user_id"`
	DataDir          string `koanf:"data_dir"`  // badger directory
	InMemory         bool   `koanf:"in_memory"` // badger without disk, state lost on restart
	InterestCapacity int    `koanf:"interest_capacity"`
}

// CatalogConfig points at the catalog document.
type CatalogConfig struct {
	Path           string        `koanf:"path"`
	ReloadInterval time.Duration `koanf:"reload_interval"` // 0 disables periodic reload
}

// RankingConfig holds the feed scoring policy.
type RankingConfig struct {
	CompletionThreshold float64 `koanf:"completion_threshold"`
	UnseenThreshold     float64 `koanf:"unseen_threshold"`
	RandomWeight        float64 `koanf:"random_weight"`
	PrimaryWeight       float64 `koanf:"primary_weight"`
	SecondaryWeight     float64 `koanf:"secondary_weight"`
	TrendingWeight      float64 `koanf:"trending_weight"`
	MinFeedLength       int     `koanf:"min_feed_length"`
	FallbackSampleSize  int     `koanf:"fallback_sample_size"`
	RotationWindow      int     `koanf:"rotation_window"`
	Seed                uint64  `koanf:"seed"` // 0 seeds from the clock
}

// PrefetchConfig controls media priming.
type PrefetchConfig struct {
	Enabled           bool          `koanf:"enabled"`
	PosterWindow      int           `koanf:"poster_window"`
	MediaWindow       int           `koanf:"media_window"`
	BoostMediaWindow  int           `koanf:"boost_media_window"`
	TailWindow        int           `koanf:"tail_window"`
	RangeBytes        int64         `koanf:"range_bytes"`
	Concurrency       int           `koanf:"concurrency"`
	RatePerSecond     float64       `koanf:"rate_per_second"`
	Burst             int           `koanf:"burst"`
	FetchTimeout      time.Duration `koanf:"fetch_timeout"`
	BackgroundTimeout time.Duration `koanf:"background_timeout"`
}

// CacheConfig controls the media cache store.
type CacheConfig struct {
	Namespace       string        `koanf:"namespace"`
	VideoHighWater  int           `koanf:"video_high_water"`
	VideoLowWater   int           `koanf:"video_low_water"`
	ImageHighWater  int           `koanf:"image_high_water"`
	ImageLowWater   int           `koanf:"image_low_water"`
	JanitorInterval time.Duration `koanf:"janitor_interval"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// ProfileConfig configures the remote interest profile mirror.
type ProfileConfig struct {
	Enabled         bool          `koanf:"enabled"`
	URL             string        `koanf:"url"` // base URL, documents live at {url}/profiles/{user_id}
	Timeout         time.Duration `koanf:"timeout"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// EventsConfig configures the event bus. Empty NATSURL keeps it in-process.
type EventsConfig struct {
	NATSURL          string        `koanf:"nats_url"`
	JetStream        bool          `koanf:"jetstream"`
	QueueGroup       string        `koanf:"queue_group"`
	SubscribersCount int           `koanf:"subscribers_count"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`
	BufferSize       int64         `koanf:"buffer_size"` // gochannel output buffer
	DedupCapacity    int           `koanf:"dedup_capacity"`
	DedupTTL         time.Duration `koanf:"dedup_ttl"`
}

// WebSocketConfig tunes the ranking push channel.
type WebSocketConfig struct {
	Enabled      bool          `koanf:"enabled"`
	PingInterval time.Duration `koanf:"ping_interval"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	SendBuffer   int           `koanf:"send_buffer"`
	MaxClients   int           `koanf:"max_clients"`
}
