// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package distribution places a ranked feed into page layout sections
// without repeating any item across the page.
package distribution

import "github.com/tomtom215/reelfeed/internal/models"

// Allocate fills sections in order from items, which must already be ranked.
// Each section takes the first unused items its type accepts, up to its
// capacity, so earlier sections claim the best matches. Sections that run
// short get fewer items; unknown section types get none. The result is keyed
// by Section.Key(index) and has an entry, possibly empty, for every section.
func Allocate(sections []models.Section, items []models.CatalogItem) map[string][]models.CatalogItem {
	out := make(map[string][]models.CatalogItem, len(sections))
	used := make(map[string]struct{}, len(items))

	for i, sec := range sections {
		key := sec.Key(i)
		capacity := sec.EffectiveCapacity()
		picked := make([]models.CatalogItem, 0, max(capacity, 0))

		for j := range items {
			if len(picked) >= capacity {
				break
			}
			it := items[j]
			if _, taken := used[it.ID]; taken {
				continue
			}
			if !sec.Type.Accepts(it.Kind) {
				continue
			}
			used[it.ID] = struct{}{}
			picked = append(picked, it)
		}

		// Duplicate keys accumulate rather than overwrite.
		if prev, ok := out[key]; ok {
			picked = append(prev, picked...)
		}
		out[key] = picked
	}
	return out
}
