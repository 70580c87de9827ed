// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package mediacache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/reelfeed/internal/models"
)

// MemoryStore is a Store kept in process memory. It has a single namespace,
// so PurgeStale is a no-op.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[models.Bucket]map[string]*models.CacheEntry
	seq     uint64
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[models.Bucket]map[string]*models.CacheEntry),
		now:     time.Now,
	}
}

func (m *MemoryStore) Has(_ context.Context, bucket models.Bucket, url string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[bucket][url]
	return ok
}

func (m *MemoryStore) Put(_ context.Context, entry *models.CacheEntry) error {
	if entry == nil || entry.URL == "" {
		return fmt.Errorf("mediacache: entry without url")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.entries[entry.Bucket]
	if !ok {
		b = make(map[string]*models.CacheEntry)
		m.entries[entry.Bucket] = b
	}

	stored := *entry
	stored.StoredAt = m.now().UTC()
	if existing, ok := b[entry.URL]; ok {
		stored.Seq = existing.Seq
	} else {
		m.seq++
		stored.Seq = m.seq
	}
	b[entry.URL] = &stored
	return nil
}

func (m *MemoryStore) Get(_ context.Context, bucket models.Bucket, url string) (*models.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[bucket][url]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) Count(_ context.Context, bucket models.Bucket) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries[bucket]), nil
}

func (m *MemoryStore) EvictExcess(_ context.Context, bucket models.Bucket, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.entries[bucket]
	if keep < 0 {
		keep = 0
	}
	excess := len(b) - keep
	if excess <= 0 {
		return 0, nil
	}

	ordered := make([]*models.CacheEntry, 0, len(b))
	for _, e := range b {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	for _, e := range ordered[:excess] {
		delete(b, e.URL)
	}
	return excess, nil
}

func (m *MemoryStore) PurgeStale(_ context.Context) (int, error) {
	return 0, nil
}
