// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package mediacache

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/metrics"
	"github.com/tomtom215/reelfeed/internal/models"
)

// WaterMarks bound one bucket: exceeding High triggers eviction down to Low.
type WaterMarks struct {
	High int
	Low  int
}

// Limits holds water marks per bucket.
type Limits struct {
	Video WaterMarks
	Image WaterMarks
}

// DefaultLimits keeps 50/25 videos and 100/50 posters.
func DefaultLimits() Limits {
	return Limits{
		Video: WaterMarks{High: 50, Low: 25},
		Image: WaterMarks{High: 100, Low: 50},
	}
}

// For returns the marks for bucket.
func (l Limits) For(bucket models.Bucket) WaterMarks {
	if bucket == models.BucketImage {
		return l.Image
	}
	return l.Video
}

// Enforce evicts the oldest entries of every bucket that is above its high
// water mark, down to the low water mark. Returns evictions per bucket.
func Enforce(ctx context.Context, store Store, limits Limits) (map[models.Bucket]int, error) {
	evicted := make(map[models.Bucket]int, len(Buckets))
	for _, bucket := range Buckets {
		marks := limits.For(bucket)
		n, err := store.Count(ctx, bucket)
		if err != nil {
			return evicted, fmt.Errorf("count %s: %w", bucket, err)
		}
		if n <= marks.High {
			metrics.SetCacheEntries(string(bucket), n)
			continue
		}
		removed, err := store.EvictExcess(ctx, bucket, marks.Low)
		if err != nil {
			return evicted, fmt.Errorf("evict %s: %w", bucket, err)
		}
		evicted[bucket] = removed
		metrics.RecordEviction(string(bucket), removed)
		metrics.SetCacheEntries(string(bucket), n-removed)
	}
	return evicted, nil
}

// Janitor performs cache housekeeping: purge of stale namespaces, eviction
// and optional storage compaction.
type Janitor struct {
	store  Store
	limits Limits
	gc     func() error
	logger zerolog.Logger
}

// NewJanitor returns a janitor. gc may be nil.
func NewJanitor(store Store, limits Limits, gc func() error) *Janitor {
	return &Janitor{
		store:  store,
		limits: limits,
		gc:     gc,
		logger: logging.Component("cache-janitor"),
	}
}

// Sweep runs one housekeeping pass.
func (j *Janitor) Sweep(ctx context.Context) error {
	purged, err := j.store.PurgeStale(ctx)
	if err != nil {
		return fmt.Errorf("purge stale: %w", err)
	}
	metrics.RecordPurge(purged)

	evicted, err := Enforce(ctx, j.store, j.limits)
	if err != nil {
		return err
	}

	if j.gc != nil {
		if err := j.gc(); err != nil {
			j.logger.Warn().Err(err).Msg("storage gc failed")
		}
	}

	if purged > 0 || len(evicted) > 0 {
		j.logger.Info().
			Int("purged", purged).
			Int("evicted_video", evicted[models.BucketVideo]).
			Int("evicted_image", evicted[models.BucketImage]).
			Msg("cache sweep")
	}
	return nil
}
