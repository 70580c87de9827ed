// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package supervisor runs the long-lived parts of a feed session under a
// suture tree so a crashed service is restarted without taking the process
// down.
//
// Layers:
//   - data: cache janitor, catalog reload, interest mirror
//   - messaging: event bus, WebSocket hub
//   - api: HTTP server
//
// Each layer is its own supervisor, so a messaging service stuck in backoff
// does not stop the API from serving the last published ranking.
package supervisor
