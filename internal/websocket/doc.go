// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

/*
Package websocket pushes feed rankings to connected players.

A Hub fans each published ranking out to every client. A client that has
fallen behind (its send buffer is full) is dropped rather than slowing the
others down. Newly connected clients receive the current ranking first.

Each client runs two goroutines:
  - readPump: reads client messages and answers "ping" with "pong"
  - writePump: writes queued messages and sends protocol pings

Message Types:

  - ranking: a models.Ranking snapshot
  - refresh: a manual refresh status
  - ping / pong: application level keepalive

The Hub implements suture.Service and stops, closing every client, when its
context ends.
*/
package websocket
