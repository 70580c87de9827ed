// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

/*
Package models defines the data shared across Reelfeed packages.

  - CatalogItem: one playable video as read from the catalog document
  - InteractionState: likes, dislikes, saves and watch history for a session
  - Section: a layout slot on the feed page, filled by the distribution allocator
  - CacheEntry: a primed media or poster response held by the media cache
  - Ranking: an immutable, versioned ordering of the catalog
  - FeedEvent: a user interaction as carried on the event bus and HTTP API
  - APIResponse: the standard JSON envelope for HTTP responses

Types in this package carry no I/O. Mutation methods on InteractionState keep
its invariants; callers that share a state across goroutines clone it first.
*/
package models
