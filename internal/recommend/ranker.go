// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package recommend

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/models"
)

// Ranker scores and orders catalog items.
type Ranker struct {
	config *Config
	rnd    Random
	logger zerolog.Logger
}

// NewRanker creates a ranker. A nil cfg uses DefaultConfig and a nil rnd
// uses a clock-seeded source.
func NewRanker(cfg *Config, rnd Random) (*Ranker, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking config: %w", err)
	}
	if rnd == nil {
		rnd = NewRandom(0)
	}
	c := *cfg
	return &Ranker{
		config: &c,
		rnd:    rnd,
		logger: logging.Component("recommend"),
	}, nil
}

// Config returns a copy of the active policy.
func (r *Ranker) Config() Config {
	return *r.config
}

// Random returns the source shared with rerankers.
func (r *Ranker) Random() Random {
	return r.rnd
}

type scored struct {
	item  models.CatalogItem
	score float64
}

// Rank orders catalog for a viewer with the given interactions and
// interests (most recent first). state may be nil. The result is a new
// slice containing a subset of catalog; catalog itself is not modified.
func (r *Ranker) Rank(catalog []models.CatalogItem, state *models.InteractionState, interests []string) []models.CatalogItem {
	start := time.Now()

	var primary string
	if len(interests) > 0 {
		primary = interests[0]
	}
	tracked := make(map[string]struct{}, len(interests))
	for _, c := range interests {
		tracked[c] = struct{}{}
	}

	unseen := make([]scored, 0, len(catalog))
	var seen []models.CatalogItem
	for i := range catalog {
		item := catalog[i]
		if state != nil && state.IsDisliked(item.ID) {
			continue
		}
		if r.isSeen(state, item.ID) {
			seen = append(seen, item)
			continue
		}
		unseen = append(unseen, scored{item: item, score: r.score(&item, primary, tracked)})
	}

	sort.SliceStable(unseen, func(i, j int) bool {
		return unseen[i].score > unseen[j].score
	})

	out := make([]models.CatalogItem, 0, len(unseen)+r.config.FallbackSampleSize)
	for i := range unseen {
		out = append(out, unseen[i].item)
	}

	fallback := 0
	if len(unseen) < r.config.MinFeedLength && len(seen) > 0 {
		Shuffle(r.rnd, seen)
		fallback = min(len(seen), r.config.FallbackSampleSize)
		out = append(out, seen[:fallback]...)
	}

	r.logger.Debug().
		Int("catalog", len(catalog)).
		Int("unseen", len(unseen)).
		Int("fallback", fallback).
		Str("primary", primary).
		Dur("took", time.Since(start)).
		Msg("ranked feed")

	return out
}

func (r *Ranker) isSeen(state *models.InteractionState, id string) bool {
	if state == nil {
		return false
	}
	p, ok := state.Progress(id)
	return ok && p > r.config.UnseenThreshold
}

func (r *Ranker) score(item *models.CatalogItem, primary string, tracked map[string]struct{}) float64 {
	s := r.config.RandomWeight * r.rnd.Float64()
	if primary != "" && item.Category == primary {
		s += r.config.PrimaryWeight
	}
	if _, ok := tracked[item.Category]; ok {
		s += r.config.SecondaryWeight
	}
	if item.IsTrending {
		s += r.config.TrendingWeight
	}
	return s
}
