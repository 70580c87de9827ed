// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package mediacache

import (
	"context"
	"errors"

	"github.com/tomtom215/reelfeed/internal/models"
)

// ErrNotFound is returned by Get when no entry exists for the URL.
var ErrNotFound = errors.New("mediacache: entry not found")

// Store is the cache contract. Keys are absolute URLs, stored untransformed.
type Store interface {
	// Has reports whether url is cached in bucket. Errors read as false.
	Has(ctx context.Context, bucket models.Bucket, url string) bool

	// Put stores entry. A second Put for the same URL overwrites in place
	// and keeps the entry's original insertion position.
	Put(ctx context.Context, entry *models.CacheEntry) error

	// Get returns the entry for url or ErrNotFound.
	Get(ctx context.Context, bucket models.Bucket, url string) (*models.CacheEntry, error)

	// EvictExcess deletes the oldest entries until at most keep remain.
	// Returns the number deleted.
	EvictExcess(ctx context.Context, bucket models.Bucket, keep int) (int, error)

	// Count returns the number of entries in bucket.
	Count(ctx context.Context, bucket models.Bucket) (int, error)

	// PurgeStale deletes entries written under any other cache namespace.
	PurgeStale(ctx context.Context) (int, error)
}

// Buckets lists every bucket in a fixed order.
var Buckets = []models.Bucket{models.BucketVideo, models.BucketImage}
