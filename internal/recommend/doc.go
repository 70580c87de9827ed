// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package recommend orders the catalog for one viewer.
//
// # Scoring
//
// Items the viewer has not watched beyond the unseen threshold are scored:
//
//	score = RandomWeight*U(0,1)
//	      + PrimaryWeight   if the category is the most recent interest
//	      + SecondaryWeight if the category is any tracked interest
//	      + TrendingWeight  if the item is trending
//
// and sorted by score, highest first. Equal scores keep catalog order.
// When fewer than MinFeedLength unseen items remain, a shuffled sample of
// already watched items is appended so the feed never runs dry.
//
// Disliked items never appear in the output.
//
// # Determinism
//
// All randomness comes from the injected Random. Tests use ZeroRandom or a
// fixed seed; production uses a seeded PCG source.
//
// # Usage
//
//	ranker, err := recommend.NewRanker(recommend.DefaultConfig(), recommend.NewRandom(0))
//	items := ranker.Rank(catalog, state, tracker.TopInterests())
//
// # Thread Safety
//
// Ranker is safe for concurrent use. Rank does not modify its inputs.
package recommend
