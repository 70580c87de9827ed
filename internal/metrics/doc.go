// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

/*
Package metrics defines the Prometheus collectors exported at /metrics.

All collectors are registered with the default registry through promauto at
package init. Components record through the Record* helpers so label values
stay consistent; the collectors themselves are exported for tests, which
read them with prometheus/testutil.

# Families

  - reelfeed_rank_*: re-rank count and duration by trigger
  - reelfeed_prefetch_*: prefetch outcomes by bucket
  - reelfeed_cache_*: entries per bucket, evictions, purges, fetch mode
  - reelfeed_interest_mirror_*: remote profile mirror outcomes
  - reelfeed_events_*: event bus publish/consume counts
  - reelfeed_api_*: HTTP request count and latency
  - reelfeed_websocket_clients: connected push clients
  - circuit_breaker_*: state and transitions per named breaker
*/
package metrics
