// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

/*
Package api is the HTTP surface of a feed session.

Routes (all JSON unless noted):

	GET  /api/v1/health/live      process is up
	GET  /api/v1/health/ready     a ranking has been published
	GET  /api/v1/feed             current ranking
	POST /api/v1/feed/refresh     reload catalog, re-rank, prime the head
	POST /api/v1/feed/events      apply a viewer interaction
	POST /api/v1/feed/layout      distribute the ranking over page sections
	GET  /api/v1/feed/ws          WebSocket stream of rankings
	GET  /api/v1/interests        tracked interests, most recent first
	GET  /api/v1/media            cached media body by URL (raw bytes)
	GET  /metrics                 Prometheus exposition

Every JSON response uses the models.APIResponse envelope and carries the
request id assigned by middleware.RequestID in its metadata.
*/
package api
