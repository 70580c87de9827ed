// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package interest tracks the categories a viewer has engaged with, most
// recent first, and keeps them in local storage and an optional remote
// profile. Reads never touch I/O. Remote writes are best effort and
// coalesced: only the newest list is ever sent.
package interest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/metrics"
)

// DefaultCapacity is the number of categories retained.
const DefaultCapacity = 10

// LocalStore persists the list on this device.
type LocalStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, interests []string) error
}

// ProfileMirror is the remote profile document. MergeInterests must only
// replace the interests field.
type ProfileMirror interface {
	LoadInterests(ctx context.Context, userID string) ([]string, error)
	MergeInterests(ctx context.Context, userID string, interests []string) error
}

// Tracker owns the interest list for one user.
type Tracker struct {
	userID   string
	capacity int
	local    LocalStore
	mirror   ProfileMirror
	logger   zerolog.Logger

	// writeMu orders mutations with their persistence, so the last list
	// saved locally and queued for the mirror is always the newest.
	writeMu sync.Mutex

	mu      sync.RWMutex
	list    []string
	pending []string // latest snapshot awaiting mirroring, nil when none
	notify  chan struct{}

	flushTimeout time.Duration
}

// NewTracker builds a tracker. mirror may be nil to disable remote mirroring.
func NewTracker(userID string, capacity int, local LocalStore, mirror ProfileMirror) *Tracker {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Tracker{
		userID:       userID,
		capacity:     capacity,
		local:        local,
		mirror:       mirror,
		logger:       logging.Component("interest"),
		notify:       make(chan struct{}, 1),
		flushTimeout: 5 * time.Second,
	}
}

// RecordInterest promotes category to the front of the list, persists the
// list locally and queues it for mirroring. Blank categories are ignored.
// A local persistence error is returned, but the in-memory list is already
// updated when it is.
func (t *Tracker) RecordInterest(ctx context.Context, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	t.list = promote(t.list, category, t.capacity)
	snapshot := clone(t.list)
	t.mu.Unlock()

	t.enqueue(snapshot)

	if t.local == nil {
		return nil
	}
	if err := t.local.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("save interests: %w", err)
	}
	return nil
}

// TopInterests returns a copy of the list, most recent first.
func (t *Tracker) TopInterests() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return clone(t.list)
}

// Primary returns the most recent interest.
func (t *Tracker) Primary() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.list) == 0 {
		return "", false
	}
	return t.list[0], true
}

// Hydrate loads the local list, merges in the remote profile and persists
// the result locally. Entries recorded before Hydrate keep their place at
// the front. A remote failure leaves the local list in effect.
func (t *Tracker) Hydrate(ctx context.Context) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	var localList []string
	var errs []error

	if t.local != nil {
		l, err := t.local.Load(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("load local interests: %w", err))
		}
		localList = l
	}

	var remote []string
	if t.mirror != nil {
		r, err := t.mirror.LoadInterests(ctx, t.userID)
		if err != nil {
			t.logger.Warn().Err(err).Msg("remote interests unavailable, using local list")
		} else {
			remote = r
		}
	}

	t.mu.Lock()
	merged := union(t.list, localList, t.capacity)
	merged = union(merged, remote, t.capacity)
	t.list = merged
	snapshot := clone(merged)
	t.mu.Unlock()

	if t.local != nil {
		if err := t.local.Save(ctx, snapshot); err != nil {
			errs = append(errs, fmt.Errorf("save merged interests: %w", err))
		}
	}

	t.logger.Debug().Strs("interests", snapshot).Int("remote", len(remote)).Msg("interests hydrated")
	return errors.Join(errs...)
}

// enqueue replaces the pending snapshot and wakes the mirror loop.
func (t *Tracker) enqueue(snapshot []string) {
	if t.mirror == nil {
		return
	}
	t.mu.Lock()
	t.pending = snapshot
	t.mu.Unlock()

	select {
	case t.notify <- struct{}{}:
	default:
	}
}

func (t *Tracker) takePending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.pending
	t.pending = nil
	return p
}

// Serve drains pending snapshots to the remote profile until ctx ends, then
// makes one last attempt with a short timeout. Implements suture.Service.
func (t *Tracker) Serve(ctx context.Context) error {
	if t.mirror == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			if p := t.takePending(); p != nil {
				flushCtx, cancel := context.WithTimeout(context.Background(), t.flushTimeout)
				t.push(flushCtx, p)
				cancel()
			}
			return ctx.Err()
		case <-t.notify:
			if p := t.takePending(); p != nil {
				t.push(ctx, p)
			}
		}
	}
}

func (t *Tracker) push(ctx context.Context, snapshot []string) {
	err := t.mirror.MergeInterests(ctx, t.userID, snapshot)
	metrics.RecordInterestMirror(err)
	if err != nil {
		t.logger.Debug().Err(err).Msg("interest mirror write failed")
	}
}

func (t *Tracker) String() string {
	return "interest-mirror"
}

// promote moves category to the front, removing any earlier occurrence.
func promote(list []string, category string, capacity int) []string {
	out := make([]string, 0, min(len(list)+1, capacity))
	out = append(out, category)
	for _, c := range list {
		if len(out) == capacity {
			break
		}
		if c != category {
			out = append(out, c)
		}
	}
	return out
}

// union appends entries of extra missing from base, keeping base order.
func union(base, extra []string, capacity int) []string {
	out := make([]string, 0, capacity)
	seen := make(map[string]struct{}, capacity)
	for _, list := range [][]string{base, extra} {
		for _, c := range list {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			if len(out) == capacity {
				return out
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func clone(list []string) []string {
	if list == nil {
		return []string{}
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}
