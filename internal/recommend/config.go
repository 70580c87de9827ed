// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package recommend

import "fmt"

// Policy defaults.
const (
	DefaultCompletionThreshold = 0.8
	DefaultUnseenThreshold     = 0.1
	DefaultRandomWeight        = 10.0
	DefaultPrimaryWeight       = 500.0
	DefaultSecondaryWeight     = 50.0
	DefaultTrendingWeight      = 10.0
	DefaultMinFeedLength       = 5
	DefaultFallbackSampleSize  = 10
	DefaultRotationWindow      = 5
)

// Config contains the ranking policy.
type Config struct {
	// CompletionThreshold is the progress above which a watch counts as
	// finished. The ranker does not use it; the feed service does.
	CompletionThreshold float64 `json:"completion_threshold"`

	// UnseenThreshold is the progress at or below which an item is unseen.
	UnseenThreshold float64 `json:"unseen_threshold"`

	RandomWeight    float64 `json:"random_weight"`
	PrimaryWeight   float64 `json:"primary_weight"`
	SecondaryWeight float64 `json:"secondary_weight"`
	TrendingWeight  float64 `json:"trending_weight"`

	// MinFeedLength triggers the seen-item fallback when there are fewer
	// unseen items than this.
	MinFeedLength int `json:"min_feed_length"`

	// FallbackSampleSize caps the number of seen items appended.
	FallbackSampleSize int `json:"fallback_sample_size"`

	// RotationWindow is the number of items shuffled behind a rotated head.
	RotationWindow int `json:"rotation_window"`
}

// DefaultConfig returns the standard policy.
func DefaultConfig() *Config {
	return &Config{
		CompletionThreshold: DefaultCompletionThreshold,
		UnseenThreshold:     DefaultUnseenThreshold,
		RandomWeight:        DefaultRandomWeight,
		PrimaryWeight:       DefaultPrimaryWeight,
		SecondaryWeight:     DefaultSecondaryWeight,
		TrendingWeight:      DefaultTrendingWeight,
		MinFeedLength:       DefaultMinFeedLength,
		FallbackSampleSize:  DefaultFallbackSampleSize,
		RotationWindow:      DefaultRotationWindow,
	}
}

// Validate checks the policy for internal consistency.
func (c *Config) Validate() error {
	if c.CompletionThreshold <= 0 || c.CompletionThreshold > 1 {
		return fmt.Errorf("completion_threshold must be in (0, 1], got %f", c.CompletionThreshold)
	}
	if c.UnseenThreshold < 0 || c.UnseenThreshold >= c.CompletionThreshold {
		return fmt.Errorf("unseen_threshold must be in [0, completion_threshold), got %f", c.UnseenThreshold)
	}
	if c.RandomWeight < 0 {
		return fmt.Errorf("random_weight must be non-negative, got %f", c.RandomWeight)
	}
	if c.PrimaryWeight < 0 {
		return fmt.Errorf("primary_weight must be non-negative, got %f", c.PrimaryWeight)
	}
	if c.SecondaryWeight < 0 {
		return fmt.Errorf("secondary_weight must be non-negative, got %f", c.SecondaryWeight)
	}
	if c.TrendingWeight < 0 {
		return fmt.Errorf("trending_weight must be non-negative, got %f", c.TrendingWeight)
	}
	if c.MinFeedLength < 0 {
		return fmt.Errorf("min_feed_length must be non-negative, got %d", c.MinFeedLength)
	}
	if c.FallbackSampleSize < 0 {
		return fmt.Errorf("fallback_sample_size must be non-negative, got %d", c.FallbackSampleSize)
	}
	if c.RotationWindow < 0 {
		return fmt.Errorf("rotation_window must be non-negative, got %d", c.RotationWindow)
	}
	return nil
}
