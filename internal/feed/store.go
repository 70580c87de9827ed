// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/reelfeed/internal/kvstore"
	"github.com/tomtom215/reelfeed/internal/models"
)

// InteractionStore persists a viewer's interaction state.
type InteractionStore interface {
	Load(ctx context.Context) (*models.InteractionState, error)
	Save(ctx context.Context, state *models.InteractionState) error
}

// BadgerInteractionStore keeps the state under interactions/{user}.
type BadgerInteractionStore struct {
	kv  *kvstore.Store
	key string
}

// NewBadgerInteractionStore returns a store for userID.
func NewBadgerInteractionStore(kv *kvstore.Store, userID string) *BadgerInteractionStore {
	return &BadgerInteractionStore{kv: kv, key: "interactions/" + userID}
}

// Load returns the saved state, or an empty state if nothing was saved.
func (s *BadgerInteractionStore) Load(_ context.Context) (*models.InteractionState, error) {
	state := models.NewInteractionState()
	err := s.kv.GetJSON(s.key, state)
	if errors.Is(err, kvstore.ErrNotFound) {
		return models.NewInteractionState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	return state, nil
}

// Save replaces the saved state.
func (s *BadgerInteractionStore) Save(_ context.Context, state *models.InteractionState) error {
	if err := s.kv.SetJSON(s.key, state); err != nil {
		return fmt.Errorf("save interactions: %w", err)
	}
	return nil
}
