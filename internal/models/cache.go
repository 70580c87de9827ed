// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package models

import (
	"fmt"
	"net/http"
	"time"
)

// Bucket separates cached media from cached posters.
type Bucket string

const (
	BucketVideo Bucket = "video"
	BucketImage Bucket = "image"
)

// ParseBucket validates a bucket name.
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case BucketVideo, BucketImage:
		return Bucket(s), nil
	default:
		return "", fmt.Errorf("unknown cache bucket %q", s)
	}
}

// CacheEntry is a stored response for one URL. Entries are written once and
// only ever removed, never modified. Opaque entries carry no status or headers.
// Truncated entries hold only a leading prefix of a longer resource.
type CacheEntry struct {
	URL       string      `json:"url"`
	Bucket    Bucket      `json:"bucket"`
	Status    int         `json:"status,omitempty"`
	Header    http.Header `json:"header,omitempty"`
	Body      []byte      `json:"body"`
	Opaque    bool        `json:"opaque,omitempty"`
	Truncated bool        `json:"truncated,omitempty"`
	Seq       uint64      `json:"seq"`
	StoredAt  time.Time   `json:"stored_at"`
}
