// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

/*
Package mediacache holds primed media and poster responses keyed by URL.

Entries live in one of two buckets (video, image). An entry is created once
after a successful origin fetch and removed only by eviction or purge; its
existence is the signal that a URL is already primed.

# Components

  - Store: the cache contract, with BadgerStore (persistent, namespaced by
    cache version) and MemoryStore (tests) implementations
  - Fetcher: origin fetch with a standard ranged request, an opaque fallback
    and a circuit breaker around both
  - Limits and Enforce: count-based FIFO eviction between a high-water and
    a low-water mark per bucket
  - Janitor: a supervised service that runs Enforce and PurgeStale on an interval

Eviction never runs on the prefetch path.
*/
package mediacache
