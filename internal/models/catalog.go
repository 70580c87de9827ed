// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package models

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Kind distinguishes short-form from long-form videos.
type Kind string

const (
	KindShort Kind = "short"
	KindLong  Kind = "long"
)

// ParseKind normalises kind spellings found in catalog documents,
// including the legacy "Shorts" and "Long Video" labels.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short", "shorts":
		return KindShort, true
	case "long", "long video", "long_video":
		return KindLong, true
	default:
		return "", false
	}
}

// CatalogItem is a single video in the catalog. Items are immutable once loaded.
type CatalogItem struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	MediaURL    string    `json:"video_url"`
	PosterURL   string    `json:"poster_url,omitempty"`
	RedirectURL string    `json:"redirect_url,omitempty"`
	Title       string    `json:"title"`
	Kind        Kind      `json:"kind"`
	IsTrending  bool      `json:"is_trending"`
	CreatedAt   time.Time `json:"created_at"`
}

// catalogItemDoc is the on-disk shape, which may use video_type instead of kind.
type catalogItemDoc struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	MediaURL    string    `json:"video_url"`
	PosterURL   string    `json:"poster_url"`
	RedirectURL string    `json:"redirect_url"`
	Title       string    `json:"title"`
	Kind        string    `json:"kind"`
	VideoType   string    `json:"video_type"`
	IsTrending  bool      `json:"is_trending"`
	CreatedAt   time.Time `json:"created_at"`
}

// UnmarshalJSON accepts both "kind" and the legacy "video_type" field.
// Unknown kind labels are kept verbatim.
func (c *CatalogItem) UnmarshalJSON(data []byte) error {
	var doc catalogItemDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	label := doc.Kind
	if label == "" {
		label = doc.VideoType
	}
	kind, ok := ParseKind(label)
	if !ok {
		kind = Kind(label)
	}

	*c = CatalogItem{
		ID:          doc.ID,
		Category:    doc.Category,
		MediaURL:    doc.MediaURL,
		PosterURL:   doc.PosterURL,
		RedirectURL: doc.RedirectURL,
		Title:       doc.Title,
		Kind:        kind,
		IsTrending:  doc.IsTrending,
		CreatedAt:   doc.CreatedAt,
	}
	return nil
}

// Playable reports whether the item has something to show: media or a redirect.
func (c *CatalogItem) Playable() bool {
	return c.MediaURL != "" || c.RedirectURL != ""
}

// IndexByID maps item ids to items. Later duplicates do not replace earlier ones.
func IndexByID(items []CatalogItem) map[string]CatalogItem {
	idx := make(map[string]CatalogItem, len(items))
	for _, it := range items {
		if _, ok := idx[it.ID]; !ok {
			idx[it.ID] = it
		}
	}
	return idx
}
