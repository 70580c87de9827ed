// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package cache holds small in-memory structures used on hot paths.
//
// DedupWindow remembers recently seen keys for a bounded time and count. The
// event bus uses it to drop broker redeliveries of messages it has already
// applied, since JetStream delivery is at least once.
package cache
