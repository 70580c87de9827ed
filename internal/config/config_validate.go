// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateSession,
		c.validateCatalog,
		c.validateRanking,
		c.validatePrefetch,
		c.validateCache,
		c.validateProfile,
		c.validateEvents,
		c.validateWebSocket,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive when rate limiting is enabled")
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, disabled; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateSession() error {
	if strings.TrimSpace(c.Session.UserID) == "" {
		return fmt.Errorf("SESSION_USER_ID is required")
	}
	if !c.Session.InMemory && c.Session.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required unless DATA_IN_MEMORY=true")
	}
	if c.Session.InterestCapacity < 1 {
		return fmt.Errorf("INTEREST_CAPACITY must be at least 1, got %d", c.Session.InterestCapacity)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("CATALOG_PATH is required")
	}
	if c.Catalog.ReloadInterval < 0 {
		return fmt.Errorf("CATALOG_RELOAD_INTERVAL must not be negative")
	}
	return nil
}

func (c *Config) validateRanking() error {
	r := c.Ranking
	if r.CompletionThreshold <= 0 || r.CompletionThreshold > 1 {
		return fmt.Errorf("ranking.completion_threshold must be in (0,1], got %v", r.CompletionThreshold)
	}
	if r.UnseenThreshold < 0 || r.UnseenThreshold >= r.CompletionThreshold {
		return fmt.Errorf("ranking.unseen_threshold must be in [0, completion_threshold), got %v", r.UnseenThreshold)
	}
	if r.RandomWeight < 0 || r.PrimaryWeight < 0 || r.SecondaryWeight < 0 || r.TrendingWeight < 0 {
		return fmt.Errorf("ranking weights must not be negative")
	}
	if r.MinFeedLength < 0 || r.FallbackSampleSize < 0 {
		return fmt.Errorf("ranking.min_feed_length and fallback_sample_size must not be negative")
	}
	if r.RotationWindow < 0 {
		return fmt.Errorf("ranking.rotation_window must not be negative")
	}
	return nil
}

func (c *Config) validatePrefetch() error {
	p := c.Prefetch
	if !p.Enabled {
		return nil
	}
	if p.PosterWindow < 0 || p.MediaWindow < 0 || p.BoostMediaWindow < 0 || p.TailWindow < 0 {
		return fmt.Errorf("prefetch windows must not be negative")
	}
	if p.RangeBytes <= 0 {
		return fmt.Errorf("PREFETCH_RANGE_BYTES must be positive")
	}
	if p.Concurrency < 1 {
		return fmt.Errorf("PREFETCH_CONCURRENCY must be at least 1")
	}
	if p.RatePerSecond <= 0 || p.Burst < 1 {
		return fmt.Errorf("PREFETCH_RATE and PREFETCH_BURST must be positive")
	}
	if p.FetchTimeout <= 0 || p.BackgroundTimeout <= 0 {
		return fmt.Errorf("prefetch timeouts must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	cc := c.Cache
	if strings.TrimSpace(cc.Namespace) == "" {
		return fmt.Errorf("CACHE_NAMESPACE is required")
	}
	if strings.Contains(cc.Namespace, "/") {
		return fmt.Errorf("CACHE_NAMESPACE must not contain '/'")
	}
	if cc.VideoLowWater < 0 || cc.VideoHighWater < cc.VideoLowWater {
		return fmt.Errorf("cache video water marks must satisfy 0 <= low <= high")
	}
	if cc.ImageLowWater < 0 || cc.ImageHighWater < cc.ImageLowWater {
		return fmt.Errorf("cache image water marks must satisfy 0 <= low <= high")
	}
	if cc.JanitorInterval <= 0 {
		return fmt.Errorf("CACHE_JANITOR_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateProfile() error {
	if !c.Profile.Enabled {
		return nil
	}
	if c.Profile.URL == "" {
		return fmt.Errorf("PROFILE_URL is required when PROFILE_ENABLED=true")
	}
	if err := validateHTTPURL(c.Profile.URL, "PROFILE_URL"); err != nil {
		return err
	}
	if c.Profile.Timeout <= 0 {
		return fmt.Errorf("PROFILE_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.NATSURL != "" {
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return err
		}
		if c.Events.SubscribersCount < 1 {
			return fmt.Errorf("NATS_SUBSCRIBERS must be at least 1")
		}
	}
	if c.Events.CloseTimeout <= 0 {
		return fmt.Errorf("events.close_timeout must be positive")
	}
	if c.Events.DedupCapacity < 0 || c.Events.DedupTTL < 0 {
		return fmt.Errorf("events dedup window must not be negative")
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	if !c.WebSocket.Enabled {
		return nil
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("websocket intervals must be positive")
	}
	if c.WebSocket.SendBuffer < 1 || c.WebSocket.MaxClients < 1 {
		return fmt.Errorf("websocket send_buffer and max_clients must be at least 1")
	}
	return nil
}

// validateHTTPURL accepts http(s) base URLs with a host and no query.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, u.RawQuery)
	}
	return nil
}

// validateNATSURL accepts nats://, tls:// and ws(s):// URLs with a host.
func validateNATSURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("NATS_URL failed to parse: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("NATS_URL scheme must be nats, tls, ws or wss, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("NATS_URL host is required")
	}
	return nil
}
