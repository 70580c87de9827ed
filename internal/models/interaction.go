// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package models

import (
	"math"
	"sort"

	"github.com/goccy/go-json"
)

// WatchEntry records how far an item was watched, as a fraction in [0,1].
type WatchEntry struct {
	ID       string  `json:"id"`
	Progress float64 `json:"progress"`
}

// InteractionState is the per-session record of what the viewer did.
// An id is never liked and disliked at the same time.
//
// The zero value is not usable; call NewInteractionState.
// InteractionState is not safe for concurrent mutation.
type InteractionState struct {
	liked           map[string]struct{}
	disliked        map[string]struct{}
	saved           map[string]struct{}
	savedCategories map[string]struct{}
	history         []WatchEntry
}

// NewInteractionState returns an empty state.
func NewInteractionState() *InteractionState {
	return &InteractionState{
		liked:           make(map[string]struct{}),
		disliked:        make(map[string]struct{}),
		saved:           make(map[string]struct{}),
		savedCategories: make(map[string]struct{}),
	}
}

// ToggleLike likes id, or unlikes it if already liked. Liking clears a dislike.
// Returns true when id ends up liked.
func (s *InteractionState) ToggleLike(id string) bool {
	if _, ok := s.liked[id]; ok {
		delete(s.liked, id)
		return false
	}
	s.liked[id] = struct{}{}
	delete(s.disliked, id)
	return true
}

// Dislike marks id disliked and clears any like.
func (s *InteractionState) Dislike(id string) {
	s.disliked[id] = struct{}{}
	delete(s.liked, id)
}

// Restore undoes a dislike. Returns true if id was disliked.
func (s *InteractionState) Restore(id string) bool {
	if _, ok := s.disliked[id]; !ok {
		return false
	}
	delete(s.disliked, id)
	return true
}

// ToggleSave saves or unsaves id. Returns true when id ends up saved.
func (s *InteractionState) ToggleSave(id string) bool {
	return toggle(s.saved, id)
}

// ToggleSavedCategory saves or unsaves a category. Returns true when saved.
func (s *InteractionState) ToggleSavedCategory(category string) bool {
	return toggle(s.savedCategories, category)
}

func toggle(set map[string]struct{}, key string) bool {
	if _, ok := set[key]; ok {
		delete(set, key)
		return false
	}
	set[key] = struct{}{}
	return true
}

// RecordProgress stores progress for id, clamped to [0,1]. Any earlier entry
// for id is removed so the latest watch sits at the end of history.
func (s *InteractionState) RecordProgress(id string, progress float64) {
	switch {
	case progress < 0 || math.IsNaN(progress):
		progress = 0
	case progress > 1:
		progress = 1
	}
	for i, e := range s.history {
		if e.ID == id {
			s.history = append(s.history[:i], s.history[i+1:]...)
			break
		}
	}
	s.history = append(s.history, WatchEntry{ID: id, Progress: progress})
}

// Progress returns the recorded progress for id and whether it was watched.
func (s *InteractionState) Progress(id string) (float64, bool) {
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].ID == id {
			return s.history[i].Progress, true
		}
	}
	return 0, false
}

func (s *InteractionState) IsLiked(id string) bool {
	_, ok := s.liked[id]
	return ok
}

func (s *InteractionState) IsDisliked(id string) bool {
	_, ok := s.disliked[id]
	return ok
}

func (s *InteractionState) IsSaved(id string) bool {
	_, ok := s.saved[id]
	return ok
}

func (s *InteractionState) IsCategorySaved(category string) bool {
	_, ok := s.savedCategories[category]
	return ok
}

// History returns a copy of the watch history, oldest first.
func (s *InteractionState) History() []WatchEntry {
	out := make([]WatchEntry, len(s.history))
	copy(out, s.history)
	return out
}

// DislikedIDs returns disliked ids in sorted order.
func (s *InteractionState) DislikedIDs() []string { return sortedKeys(s.disliked) }

// LikedIDs returns liked ids in sorted order.
func (s *InteractionState) LikedIDs() []string { return sortedKeys(s.liked) }

// SavedIDs returns saved ids in sorted order.
func (s *InteractionState) SavedIDs() []string { return sortedKeys(s.saved) }

// SavedCategories returns saved categories in sorted order.
func (s *InteractionState) SavedCategories() []string { return sortedKeys(s.savedCategories) }

// Clone returns a deep copy.
func (s *InteractionState) Clone() *InteractionState {
	c := NewInteractionState()
	for k := range s.liked {
		c.liked[k] = struct{}{}
	}
	for k := range s.disliked {
		c.disliked[k] = struct{}{}
	}
	for k := range s.saved {
		c.saved[k] = struct{}{}
	}
	for k := range s.savedCategories {
		c.savedCategories[k] = struct{}{}
	}
	c.history = s.History()
	return c
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type interactionDoc struct {
	Liked           []string     `json:"liked_ids"`
	Disliked        []string     `json:"disliked_ids"`
	Saved           []string     `json:"saved_ids"`
	SavedCategories []string     `json:"saved_categories"`
	WatchHistory    []WatchEntry `json:"watch_history"`
}

// MarshalJSON encodes sets as sorted arrays.
func (s *InteractionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(interactionDoc{
		Liked:           s.LikedIDs(),
		Disliked:        s.DislikedIDs(),
		Saved:           s.SavedIDs(),
		SavedCategories: s.SavedCategories(),
		WatchHistory:    s.History(),
	})
}

// UnmarshalJSON decodes a stored state. A stored id present in both liked
// and disliked keeps only the dislike.
func (s *InteractionState) UnmarshalJSON(data []byte) error {
	var doc interactionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	fresh := NewInteractionState()
	for _, id := range doc.Liked {
		fresh.liked[id] = struct{}{}
	}
	for _, id := range doc.Disliked {
		fresh.Dislike(id)
	}
	for _, id := range doc.Saved {
		fresh.saved[id] = struct{}{}
	}
	for _, c := range doc.SavedCategories {
		fresh.savedCategories[c] = struct{}{}
	}
	for _, e := range doc.WatchHistory {
		fresh.RecordProgress(e.ID, e.Progress)
	}
	*s = *fresh
	return nil
}
