// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package cache

import (
	"sync"
	"time"
)

const (
	defaultDedupCapacity = 4096
	defaultDedupTTL      = 10 * time.Minute
)

type dedupNode struct {
	key        string
	expiresAt  time.Time
	prev, next *dedupNode
}

// DedupWindow is a thread-safe LRU set of keys with a TTL. Lookups, inserts
// and evictions are O(1).
type DedupWindow struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	nodes map[string]*dedupNode
	// head.next is the most recent key, tail.prev the least recent.
	head, tail *dedupNode

	duplicates int64
}

// NewDedupWindow remembers up to capacity keys for ttl each. Non-positive
// values select the defaults.
func NewDedupWindow(capacity int, ttl time.Duration) *DedupWindow {
	if capacity <= 0 {
		capacity = defaultDedupCapacity
	}
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	w := &DedupWindow{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		nodes:    make(map[string]*dedupNode, capacity),
		head:     &dedupNode{},
		tail:     &dedupNode{},
	}
	w.head.next = w.tail
	w.tail.prev = w.head
	return w
}

// Seen reports whether key was recorded within the window, and records it
// when it was not. An empty key is never a duplicate and is not recorded.
func (w *DedupWindow) Seen(key string) bool {
	if key == "" {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if n, ok := w.nodes[key]; ok {
		if now.Before(n.expiresAt) {
			w.unlink(n)
			w.pushFront(n)
			w.duplicates++
			return true
		}
		w.remove(n)
	}

	n := &dedupNode{key: key, expiresAt: now.Add(w.ttl)}
	w.pushFront(n)
	w.nodes[key] = n
	for len(w.nodes) > w.capacity {
		w.remove(w.tail.prev)
	}
	return false
}

// Forget drops key so its next sighting is treated as new.
func (w *DedupWindow) Forget(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n, ok := w.nodes[key]; ok {
		w.remove(n)
	}
}

// Prune removes expired keys, oldest first, and returns how many went.
func (w *DedupWindow) Prune() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	removed := 0
	for n := w.tail.prev; n != w.head; {
		prev := n.prev
		if !now.Before(n.expiresAt) {
			w.remove(n)
			removed++
		}
		n = prev
	}
	return removed
}

// Len returns the number of keys held, expired or not.
func (w *DedupWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.nodes)
}

// Duplicates returns how many sightings Seen has reported as repeats.
func (w *DedupWindow) Duplicates() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.duplicates
}

// Caller must hold mu for the helpers below.

func (w *DedupWindow) pushFront(n *dedupNode) {
	n.prev = w.head
	n.next = w.head.next
	w.head.next.prev = n
	w.head.next = n
}

func (w *DedupWindow) unlink(n *dedupNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (w *DedupWindow) remove(n *dedupNode) {
	if n == w.head || n == w.tail {
		return
	}
	w.unlink(n)
	delete(w.nodes, n.key)
}
