// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package models

import "time"

// Trigger names what caused a re-rank.
type Trigger string

const (
	TriggerInitial     Trigger = "initial"
	TriggerRefresh     Trigger = "refresh"
	TriggerCompletion  Trigger = "completion"
	TriggerPlayerClose Trigger = "player_close"
	TriggerDislike     Trigger = "dislike"
	TriggerRestore     Trigger = "restore"
	TriggerCatalog     Trigger = "catalog_reload"
)

// Ranking is an immutable ordering of the catalog published by the feed service.
// Holders must not modify Items.
type Ranking struct {
	Version     uint64        `json:"version"`
	Trigger     Trigger       `json:"trigger"`
	Items       []CatalogItem `json:"items"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Head returns the first item id, or "" for an empty ranking.
func (r *Ranking) Head() string {
	if r == nil || len(r.Items) == 0 {
		return ""
	}
	return r.Items[0].ID
}

// EventType is the kind of user interaction reported by a client.
type EventType string

const (
	EventOpen         EventType = "open"
	EventProgress     EventType = "progress"
	EventClose        EventType = "close"
	EventLike         EventType = "like"
	EventDislike      EventType = "dislike"
	EventSave         EventType = "save"
	EventRestore      EventType = "restore"
	EventSaveCategory EventType = "save_category"
)

// FeedEvent is a user interaction. Category is required for save_category;
// NeedsID reports which types also require an item id.
type FeedEvent struct {
	Type       EventType `json:"type" validate:"required,oneof=open progress close like dislike save restore save_category"`
	ID         string    `json:"id,omitempty" validate:"max=256"`
	Progress   float64   `json:"progress,omitempty" validate:"gte=0,lte=1"`
	Category   string    `json:"category,omitempty" validate:"required_if=Type save_category,max=256"`
	OccurredAt time.Time `json:"occurred_at,omitempty"`
}

// NeedsID reports whether events of this type must name an item.
func (t EventType) NeedsID() bool {
	return t != EventClose && t != EventSaveCategory
}
