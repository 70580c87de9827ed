// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestInteractionStateLikeDislikeExclusive(t *testing.T) {
	t.Parallel()

	s := NewInteractionState()

	if !s.ToggleLike("a") {
		t.Fatal("expected a to be liked")
	}
	s.Dislike("a")
	if s.IsLiked("a") || !s.IsDisliked("a") {
		t.Fatal("dislike should replace like")
	}

	if !s.ToggleLike("a") {
		t.Fatal("expected a to be liked again")
	}
	if s.IsDisliked("a") {
		t.Fatal("like should clear dislike")
	}

	if s.ToggleLike("a") {
		t.Fatal("second toggle should unlike")
	}
	if s.IsLiked("a") || s.IsDisliked("a") {
		t.Fatal("expected neutral state")
	}
}

func TestInteractionStateRestore(t *testing.T) {
	t.Parallel()

	s := NewInteractionState()
	if s.Restore("x") {
		t.Error("restore of non-disliked id should report false")
	}
	s.Dislike("x")
	if !s.Restore("x") {
		t.Error("restore should report true")
	}
	if s.IsDisliked("x") {
		t.Error("x should no longer be disliked")
	}
}

func TestInteractionStateSaveToggles(t *testing.T) {
	t.Parallel()

	s := NewInteractionState()
	if !s.ToggleSave("v1") || !s.IsSaved("v1") {
		t.Error("expected v1 saved")
	}
	if s.ToggleSave("v1") || s.IsSaved("v1") {
		t.Error("expected v1 unsaved")
	}
	if !s.ToggleSavedCategory("cooking") || !s.IsCategorySaved("cooking") {
		t.Error("expected cooking saved")
	}
}

func TestRecordProgress(t *testing.T) {
	t.Parallel()

	s := NewInteractionState()
	s.RecordProgress("a", 0.3)
	s.RecordProgress("b", 1.7)
	s.RecordProgress("c", -2)
	s.RecordProgress("a", 0.6)

	h := s.History()
	if len(h) != 3 {
		t.Fatalf("history length = %d, want 3", len(h))
	}
	if h[2].ID != "a" || h[2].Progress != 0.6 {
		t.Errorf("latest entry = %+v, want a@0.6", h[2])
	}
	if p, _ := s.Progress("b"); p != 1 {
		t.Errorf("progress b = %v, want clamped 1", p)
	}
	if p, _ := s.Progress("c"); p != 0 {
		t.Errorf("progress c = %v, want clamped 0", p)
	}
	if _, ok := s.Progress("zzz"); ok {
		t.Error("unwatched id should report ok=false")
	}
}

func TestInteractionStateCloneIsDeep(t *testing.T) {
	t.Parallel()

	s := NewInteractionState()
	s.Dislike("a")
	s.RecordProgress("b", 0.5)

	c := s.Clone()
	c.Restore("a")
	c.RecordProgress("b", 0.9)

	if !s.IsDisliked("a") {
		t.Error("clone mutation leaked into original dislikes")
	}
	if p, _ := s.Progress("b"); p != 0.5 {
		t.Errorf("clone mutation leaked into original history: %v", p)
	}
}

func TestInteractionStateJSON(t *testing.T) {
	t.Parallel()

	s := NewInteractionState()
	s.ToggleLike("l1")
	s.Dislike("d1")
	s.ToggleSave("s1")
	s.ToggleSavedCategory("music")
	s.RecordProgress("w1", 0.25)
	s.RecordProgress("w2", 0.95)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got := NewInteractionState()
	if err := json.Unmarshal(data, got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.IsLiked("l1") || !got.IsDisliked("d1") || !got.IsSaved("s1") || !got.IsCategorySaved("music") {
		t.Errorf("sets not restored: %s", data)
	}
	h := got.History()
	if len(h) != 2 || h[0].ID != "w1" || h[1].ID != "w2" {
		t.Errorf("history order not restored: %+v", h)
	}
}

func TestInteractionStateUnmarshalResolvesConflict(t *testing.T) {
	t.Parallel()

	s := NewInteractionState()
	if err := json.Unmarshal([]byte(`{"liked_ids":["a"],"disliked_ids":["a"]}`), s); err != nil {
		t.Fatal(err)
	}
	if s.IsLiked("a") || !s.IsDisliked("a") {
		t.Error("conflicting stored state should keep the dislike only")
	}
}

func TestCatalogItemUnmarshalLegacyKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		doc  string
		want Kind
	}{
		{`{"id":"1","kind":"short"}`, KindShort},
		{`{"id":"2","video_type":"Shorts"}`, KindShort},
		{`{"id":"3","video_type":"Long Video"}`, KindLong},
		{`{"id":"4","kind":"long","video_type":"Shorts"}`, KindLong},
		{`{"id":"5","kind":"podcast"}`, Kind("podcast")},
	}
	for _, tt := range tests {
		var item CatalogItem
		if err := json.Unmarshal([]byte(tt.doc), &item); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.doc, err)
		}
		if item.Kind != tt.want {
			t.Errorf("%s: kind = %q, want %q", tt.doc, item.Kind, tt.want)
		}
	}
}

func TestCatalogItemPlayable(t *testing.T) {
	t.Parallel()

	if (&CatalogItem{ID: "a"}).Playable() {
		t.Error("item without media or redirect should not be playable")
	}
	if !(&CatalogItem{ID: "b", RedirectURL: "https://x"}).Playable() {
		t.Error("redirect-only item should be playable")
	}
}

func TestSectionDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  SectionType
		want int
	}{
		{SectionSingleLong, 1},
		{SectionShortsGrid, 4},
		{SectionLongSlider, 8},
		{SectionSideSliderLeft, 10},
		{SectionSideSliderRight, 10},
		{SectionType("banner"), 0},
	}
	for _, tt := range tests {
		if got := (Section{Type: tt.typ}).EffectiveCapacity(); got != tt.want {
			t.Errorf("%s: capacity = %d, want %d", tt.typ, got, tt.want)
		}
	}
	if got := (Section{Type: SectionShortsGrid, Capacity: 2}).EffectiveCapacity(); got != 2 {
		t.Errorf("explicit capacity ignored: %d", got)
	}
	if got := (Section{}).Key(3); got != "section-3" {
		t.Errorf("Key = %q, want section-3", got)
	}
	if got := (Section{ID: "hero"}).Key(3); got != "hero" {
		t.Errorf("Key = %q, want hero", got)
	}
}

func TestParseBucket(t *testing.T) {
	t.Parallel()

	if b, err := ParseBucket("video"); err != nil || b != BucketVideo {
		t.Errorf("ParseBucket(video) = %v, %v", b, err)
	}
	if _, err := ParseBucket("audio"); err == nil {
		t.Error("expected error for unknown bucket")
	}
}

func TestRankingHead(t *testing.T) {
	t.Parallel()

	var nilRanking *Ranking
	if nilRanking.Head() != "" {
		t.Error("nil ranking head should be empty")
	}
	r := &Ranking{Items: []CatalogItem{{ID: "first"}, {ID: "second"}}}
	if r.Head() != "first" {
		t.Errorf("Head() = %q", r.Head())
	}
}
