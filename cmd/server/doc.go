// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package main runs a Reelfeed feed session server.
//
// Reelfeed ranks a video catalog for one viewer, keeps the ranking fresh as
// the viewer interacts, and primes the media the player needs next into a
// local cache so the first frames start without a network round trip.
//
// # Startup
//
//  1. Configuration: defaults, optional YAML file, environment (koanf v2)
//  2. Storage: BadgerDB for interests, interaction state and the media cache
//  3. Feed session: catalog source, interest tracker, ranker, prefetcher
//  4. Initial load: hydrate interests, rank, purge stale cache namespaces
//  5. Supervisor tree: janitor, catalog reload, interest mirror, event bus,
//     WebSocket hub and the HTTP server
//
// # Configuration
//
// Every setting has an environment variable; the most common ones are:
//
//	SESSION_USER_ID=viewer-1        # whose feed this is
//	DATA_DIR=/data/reelfeed         # BadgerDB directory
//	CATALOG_PATH=/data/catalog.json # catalog document, newest first
//	CACHE_NAMESPACE=v7              # bump to discard every cached entry
//	PROFILE_ENABLED=true            # mirror interests to a profile service
//	PROFILE_URL=https://profiles.example.com
//	NATS_URL=nats://localhost:4222  # share events across processes
//
// # Signals
//
// SIGINT and SIGTERM stop the supervisor tree. The HTTP server drains
// in-flight requests, the interest mirror makes one last write, and
// background prefetch passes are awaited before the store closes.
package main
