// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Task is one run of a periodic job.
type Task func(ctx context.Context) error

// PeriodicConfig configures a PeriodicService.
type PeriodicConfig struct {
	// Name identifies the service in supervisor events and logs.
	Name string
	// Interval between runs. Must be positive.
	Interval time.Duration
	// RunOnStart runs the task once before the first tick.
	RunOnStart bool
	// Timeout bounds each run. Zero means Interval.
	Timeout time.Duration
}

// PeriodicService runs a task on a ticker. A failed run is logged and the
// next tick tries again; failures never restart the service.
type PeriodicService struct {
	cfg    PeriodicConfig
	task   Task
	logger zerolog.Logger
}

// NewPeriodicService validates cfg.
//
//nolint:gocritic // zerolog loggers are passed by value
func NewPeriodicService(cfg PeriodicConfig, task Task, logger zerolog.Logger) (*PeriodicService, error) {
	if task == nil {
		return nil, errors.New("periodic service: task is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("periodic service %q: interval must be positive", cfg.Name)
	}
	if cfg.Name == "" {
		cfg.Name = "periodic"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	return &PeriodicService{
		cfg:    cfg,
		task:   task,
		logger: logger.With().Str("service", cfg.Name).Logger(),
	}, nil
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	s.logger.Debug().Dur("interval", s.cfg.Interval).Msg("periodic service starting")

	if s.cfg.RunOnStart {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *PeriodicService) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	if err := s.task(runCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("periodic task failed")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("periodic task complete")
}

func (s *PeriodicService) String() string {
	return s.cfg.Name
}
