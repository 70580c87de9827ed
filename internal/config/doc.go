// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

/*
Package config loads Reelfeed configuration.

Sources are layered with koanf v2, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, or config.yaml / /etc/reelfeed/config.yaml
 3. Environment variables, mapped explicitly in envTransformFunc

Unmapped environment variables are ignored so unrelated process environment
never leaks into configuration.

# Sections

  - server: listen address, timeouts, CORS, API rate limiting
  - logging: level, format, caller
  - session: user id and badger data directory
  - catalog: catalog document path and reload interval
  - ranking: scoring weights and feed policy thresholds
  - prefetch: priming windows, range size, concurrency and pacing
  - cache: namespace, per-bucket water marks, janitor interval, origin breaker
  - profile: optional remote interest profile mirror
  - events: optional NATS transport for the event bus
  - websocket: ranking push channel tuning

# Example

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    logging.Fatal().Err(err).Msg("config")
	}
	logging.Init(cfg.Logging.ToLogging())
*/
package config
