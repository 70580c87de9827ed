// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package logging wraps a process-wide zerolog logger for Reelfeed.
//
// Call Init once from main with the logging section of the configuration.
// Packages log through the package-level helpers or derive a component logger:
//
//	log := logging.With().Str("component", "prefetch").Logger()
//	log.Debug().Str("url", u).Msg("primed")
//
// Libraries that only speak log/slog (suture, watermill) receive a
// *slog.Logger from NewSlogLogger, which writes through the same zerolog sink.
//
// Always terminate event chains with Msg or Send, otherwise nothing is written.
package logging
