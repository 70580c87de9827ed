// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package catalog loads the video catalog the feed is ranked from.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/models"
)

// ErrEmptyPath is returned by NewFileSource for an empty path.
var ErrEmptyPath = errors.New("catalog: empty path")

// ErrStale wraps a reload failure when the last good catalog is returned
// alongside the error.
var ErrStale = errors.New("catalog: serving last good catalog")

// Source yields the catalog, newest first. On error a source may still
// return the last good list together with an error wrapping ErrStale.
type Source interface {
	Items(ctx context.Context) ([]models.CatalogItem, error)
}

// StaticSource serves a fixed list. It is used by tests and demos.
type StaticSource []models.CatalogItem

// Items returns a normalised copy of the list.
func (s StaticSource) Items(context.Context) ([]models.CatalogItem, error) {
	return Normalize(s), nil
}

// FileSource reads a JSON catalog document from disk. The document is
// either an array of items or an object with a "videos" array.
//
// The parsed catalog is reused while the file's modification time and size
// are unchanged. When a reload fails the last good catalog is returned with
// an ErrStale error, so callers can keep serving it and still report the
// failure.
type FileSource struct {
	path   string
	logger zerolog.Logger

	mu      sync.Mutex
	items   []models.CatalogItem
	modTime time.Time
	size    int64
	loaded  bool
}

// NewFileSource creates a source for path. The file is not read until the
// first call to Items.
func NewFileSource(path string) (*FileSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	return &FileSource{
		path:   path,
		logger: logging.Component("catalog").With().Str("path", path).Logger(),
	}, nil
}

// Items returns the catalog. The returned slice is shared and must not be
// modified.
func (f *FileSource) Items(_ context.Context) ([]models.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if err != nil {
		return f.fallback(fmt.Errorf("stat catalog: %w", err))
	}
	if f.loaded && info.ModTime().Equal(f.modTime) && info.Size() == f.size {
		return f.items, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return f.fallback(fmt.Errorf("read catalog: %w", err))
	}
	items, err := Parse(data)
	if err != nil {
		return f.fallback(err)
	}

	f.items = items
	f.modTime = info.ModTime()
	f.size = info.Size()
	f.loaded = true
	f.logger.Info().Int("items", len(items)).Msg("catalog loaded")
	return items, nil
}

func (f *FileSource) fallback(err error) ([]models.CatalogItem, error) {
	if !f.loaded {
		return nil, err
	}
	f.logger.Warn().Err(err).Int("items", len(f.items)).Msg("catalog reload failed, keeping last good catalog")
	return f.items, fmt.Errorf("%w: %w", ErrStale, err)
}

type document struct {
	Videos []models.CatalogItem `json:"videos"`
}

// Parse decodes a catalog document and normalises it.
func Parse(data []byte) ([]models.CatalogItem, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("catalog: empty document")
	}

	var items []models.CatalogItem
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	} else {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		items = doc.Videos
	}
	return Normalize(items), nil
}

// Normalize drops items without an id, items with nothing to play, and
// repeated ids, then orders the rest newest first. Items with equal
// timestamps keep their document order.
func Normalize(items []models.CatalogItem) []models.CatalogItem {
	out := make([]models.CatalogItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		it := items[i]
		it.ID = strings.TrimSpace(it.ID)
		if it.ID == "" || !it.Playable() {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
