// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package kvstore opens the BadgerDB instance shared by the media cache,
// the interest store and the interaction store, and offers JSON helpers
// over it. Each consumer owns a key prefix.
package kvstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelfeed/internal/logging"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("kvstore: key not found")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("kvstore: closed")

// Options configures Open.
type Options struct {
	Path     string
	InMemory bool

	// SyncWrites fsyncs every commit. Off by default; interaction state is
	// cheap to lose and the cache is rebuildable.
	SyncWrites bool

	// GCRatio is the value-log discard ratio passed to RunValueLogGC.
	GCRatio float64
}

// Store wraps a badger.DB.
type Store struct {
	db      *badger.DB
	gcRatio float64

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the database.
func Open(o Options) (*Store, error) {
	var opts badger.Options
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if o.Path == "" {
			return nil, fmt.Errorf("kvstore: path is required for on-disk store")
		}
		opts = badger.DefaultOptions(o.Path)
		opts.Compression = options.Snappy
	}
	opts.SyncWrites = o.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	ratio := o.GCRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}

	logging.Info().
		Str("path", o.Path).
		Bool("in_memory", o.InMemory).
		Msg("kvstore opened")

	return &Store{db: db, gcRatio: ratio}, nil
}

// OpenInMemory is a shorthand used by tests and the in-memory session mode.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true})
}

// DB exposes the underlying database for prefix scans.
func (s *Store) DB() *badger.DB {
	return s.db
}

// GetJSON decodes the value at key into v. Returns ErrNotFound if absent.
func (s *Store) GetJSON(key string, v interface{}) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// SetJSON encodes v and stores it at key.
func (s *Store) SetJSON(key string, v interface{}) error {
	if s.isClosed() {
		return ErrClosed
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}

// RunGC reclaims value-log space until badger reports nothing to rewrite.
// In-memory stores have no value log and return immediately.
func (s *Store) RunGC() error {
	if s.isClosed() {
		return ErrClosed
	}
	if s.db.Opts().InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(s.gcRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the database. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
