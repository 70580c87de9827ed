// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package recommend

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Random is the randomness the ranker consumes.
type Random interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
}

// lockedRandom is a PCG source shared by concurrent re-ranks.
type lockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a goroutine-safe PCG source. A zero seed draws one from
// the clock so separate sessions see different orders.
func NewRandom(seed uint64) Random {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedRandom{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // feed shuffling, not security
	}
}

func (r *lockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *lockedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// ZeroRandom always returns 0. Shuffles become rotations toward the
// front and random score terms vanish, which makes orders predictable.
type ZeroRandom struct{}

func (ZeroRandom) Float64() float64 { return 0 }
func (ZeroRandom) IntN(int) int     { return 0 }

// Shuffle permutes items in place with Fisher-Yates.
func Shuffle[T any](rnd Random, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
