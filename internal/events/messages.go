// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package events connects the feed session to a message bus. Other
// processes publish interaction events and boost signals to it, and every
// published ranking is announced on it.
//
// The bus is an in-process watermill GoChannel unless a NATS URL is
// configured, in which case watermill-nats is used for both directions.
package events

import (
	"time"

	"github.com/tomtom215/reelfeed/internal/models"
)

// Topics.
const (
	// TopicEvents carries models.FeedEvent payloads to apply to the session.
	TopicEvents = "feed.events"

	// TopicBoost carries BoostSignal payloads. It is the only way to trigger
	// a deep prefetch.
	TopicBoost = "feed.boost"

	// TopicRankings carries RankingNotice payloads for every new ranking.
	TopicRankings = "feed.rankings"
)

// BoostSignal asks the session to prime media deep into the feed.
type BoostSignal struct {
	Reason string    `json:"reason,omitempty"`
	SentAt time.Time `json:"sent_at"`
}

// RankingNotice summarises a published ranking.
type RankingNotice struct {
	UserID      string         `json:"user_id"`
	Version     uint64         `json:"version"`
	Trigger     models.Trigger `json:"trigger"`
	Head        string         `json:"head,omitempty"`
	Items       int            `json:"items"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// NoticeFor builds the notice for r.
func NoticeFor(userID string, r *models.Ranking) RankingNotice {
	return RankingNotice{
		UserID:      userID,
		Version:     r.Version,
		Trigger:     r.Trigger,
		Head:        r.Head(),
		Items:       len(r.Items),
		GeneratedAt: r.GeneratedAt,
	}
}
