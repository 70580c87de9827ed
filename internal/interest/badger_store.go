// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package interest

import (
	"context"
	"errors"

	"github.com/tomtom215/reelfeed/internal/kvstore"
)

const keyPrefix = "interest/"

// BadgerStore is the LocalStore backed by the shared kvstore.
type BadgerStore struct {
	kv  *kvstore.Store
	key string
}

// NewBadgerStore stores the list for userID.
func NewBadgerStore(kv *kvstore.Store, userID string) *BadgerStore {
	return &BadgerStore{kv: kv, key: keyPrefix + userID}
}

// Load returns the stored list, or an empty list if none was saved.
func (s *BadgerStore) Load(_ context.Context) ([]string, error) {
	var list []string
	err := s.kv.GetJSON(s.key, &list)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Save replaces the stored list.
func (s *BadgerStore) Save(_ context.Context, interests []string) error {
	return s.kv.SetJSON(s.key, interests)
}
