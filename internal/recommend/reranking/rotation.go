// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package reranking adjusts a ranked feed after scoring.
package reranking

import (
	"github.com/tomtom215/reelfeed/internal/models"
	"github.com/tomtom215/reelfeed/internal/recommend"
)

// HeadRotation keeps the feed from reopening on the item the viewer just
// closed. When a fresh ranking starts with the previous head, that item is
// moved to the end and the next Window items are shuffled, so position 0
// always changes for lists of two or more.
type HeadRotation struct {
	window int
	rnd    recommend.Random
}

// NewHeadRotation creates the reranker. A window below 1 is treated as 1.
func NewHeadRotation(window int, rnd recommend.Random) *HeadRotation {
	if window < 1 {
		window = 1
	}
	return &HeadRotation{window: window, rnd: rnd}
}

// Name returns the reranker identifier.
func (h *HeadRotation) Name() string {
	return "head_rotation"
}

// Rerank returns items unchanged unless items[0] has id previousHead, in
// which case it returns a rotated copy.
func (h *HeadRotation) Rerank(items []models.CatalogItem, previousHead string) []models.CatalogItem {
	if previousHead == "" || len(items) < 2 || items[0].ID != previousHead {
		return items
	}

	out := make([]models.CatalogItem, 0, len(items))
	out = append(out, items[1:]...)
	out = append(out, items[0])

	k := min(h.window, len(out)-1)
	recommend.Shuffle(h.rnd, out[:k])
	return out
}
