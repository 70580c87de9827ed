// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package main

import "log/slog"

func quietSlog() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
