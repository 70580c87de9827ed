// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

/*
Package prefetch primes the media cache with the items a viewer is about to
reach, so playback starts without waiting on the origin.

A pass takes a ranked item list and submits poster fetches for the first
PosterWindow items, then leading-range media fetches for the first
MediaWindow items. Boost widens the media window and skips posters.
PrimeTail covers the window that follows the awaited head on a manual refresh.

Every pass checks the cache before fetching, so repeating a pass over a
primed set performs no network fetches. Fetch failures are recorded in the
Report and never returned as errors. There are no retries; the next pass
picks up anything still missing.

A nil *Scheduler is valid and primes nothing, which is how the feed runs
when the cache store is unavailable.
*/
package prefetch
