// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*PeriodicService)(nil)

func TestNewPeriodicService_Validation(t *testing.T) {
	noop := func(context.Context) error { return nil }
	tests := []struct {
		name    string
		cfg     PeriodicConfig
		task    Task
		wantErr bool
	}{
		{"valid", PeriodicConfig{Name: "janitor", Interval: time.Minute}, noop, false},
		{"nil task", PeriodicConfig{Interval: time.Minute}, nil, true},
		{"zero interval", PeriodicConfig{Name: "janitor"}, noop, true},
		{"negative interval", PeriodicConfig{Interval: -time.Second}, noop, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPeriodicService(tt.cfg, tt.task, zerolog.Nop())
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPeriodicService_Defaults(t *testing.T) {
	svc, err := NewPeriodicService(PeriodicConfig{Interval: time.Minute}, func(context.Context) error { return nil }, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if svc.String() != "periodic" {
		t.Errorf("name = %q", svc.String())
	}
	if svc.cfg.Timeout != time.Minute {
		t.Errorf("timeout = %v, want interval", svc.cfg.Timeout)
	}
}

func TestPeriodicService_RunsOnStartAndTicks(t *testing.T) {
	var runs atomic.Int32
	svc, err := NewPeriodicService(PeriodicConfig{
		Name:       "catalog-reload",
		Interval:   20 * time.Millisecond,
		RunOnStart: true,
	}, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("task context has no deadline")
		}
		runs.Add(1)
		return nil
	}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v, want context.Canceled", err)
	}
	if runs.Load() < 3 {
		t.Errorf("runs = %d, want at least 3", runs.Load())
	}
}

func TestPeriodicService_FailuresDoNotStopService(t *testing.T) {
	var runs atomic.Int32
	svc, err := NewPeriodicService(PeriodicConfig{
		Name:     "janitor",
		Interval: 10 * time.Millisecond,
	}, func(context.Context) error {
		runs.Add(1)
		return errors.New("disk full")
	}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve = %v, want DeadlineExceeded", err)
	}
	if runs.Load() < 2 {
		t.Errorf("runs = %d, want several despite failures", runs.Load())
	}
}
