// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package mediacache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelfeed/internal/models"
)

// Key layout, all under cachePrefix:
//
//	cache/{ns}/{bucket}/e/{url}      -> JSON CacheEntry
//	cache/{ns}/{bucket}/o/{seq:020d} -> url (insertion order index)
//	cache/{ns}/_seq                  -> badger sequence
const (
	cachePrefix  = "cache/"
	entrySegment = "e"
	orderSegment = "o"
	seqKeyName   = "_seq"
	seqBandwidth = 128
	putAttempts  = 3
)

// BadgerStore is a persistent Store. All keys are namespaced so that bumping
// the namespace (cache version) orphans old entries for PurgeStale to remove.
type BadgerStore struct {
	db        *badger.DB
	namespace string
	seq       *badger.Sequence
	now       func() time.Time
}

// NewBadgerStore opens a namespaced store on db. Call Close to release the
// sequence lease; the db itself is owned by the caller.
func NewBadgerStore(db *badger.DB, namespace string) (*BadgerStore, error) {
	if namespace == "" || strings.Contains(namespace, "/") {
		return nil, fmt.Errorf("mediacache: invalid namespace %q", namespace)
	}
	seq, err := db.GetSequence([]byte(cachePrefix+namespace+"/"+seqKeyName), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("mediacache: acquire sequence: %w", err)
	}
	return &BadgerStore{db: db, namespace: namespace, seq: seq, now: time.Now}, nil
}

// Namespace returns the active cache namespace.
func (s *BadgerStore) Namespace() string {
	return s.namespace
}

// Close releases the unused part of the sequence lease.
func (s *BadgerStore) Close() error {
	return s.seq.Release()
}

func (s *BadgerStore) bucketPrefix(bucket models.Bucket, segment string) string {
	return cachePrefix + s.namespace + "/" + string(bucket) + "/" + segment + "/"
}

func (s *BadgerStore) entryKey(bucket models.Bucket, url string) []byte {
	return []byte(s.bucketPrefix(bucket, entrySegment) + url)
}

func (s *BadgerStore) orderKey(bucket models.Bucket, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", s.bucketPrefix(bucket, orderSegment), seq))
}

func (s *BadgerStore) Has(ctx context.Context, bucket models.Bucket, url string) bool {
	if ctx.Err() != nil {
		return false
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(s.entryKey(bucket, url))
		return err
	})
	return err == nil
}

func (s *BadgerStore) Get(ctx context.Context, bucket models.Bucket, url string) (*models.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entry models.CacheEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.entryKey(bucket, url))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *BadgerStore) Put(ctx context.Context, entry *models.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry == nil || entry.URL == "" {
		return fmt.Errorf("mediacache: entry without url")
	}

	var err error
	for attempt := 0; attempt < putAttempts; attempt++ {
		err = s.put(entry)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// put writes entry in one transaction. A concurrent Put of the same URL
// surfaces as badger.ErrConflict and is retried by Put.
func (s *BadgerStore) put(entry *models.CacheEntry) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := s.entryKey(entry.Bucket, entry.URL)

		stored := *entry
		stored.StoredAt = s.now().UTC()

		item, err := txn.Get(key)
		switch {
		case err == nil:
			var existing models.CacheEntry
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &existing) }); err != nil {
				return fmt.Errorf("decode existing entry: %w", err)
			}
			stored.Seq = existing.Seq
		case errors.Is(err, badger.ErrKeyNotFound):
			next, err := s.seq.Next()
			if err != nil {
				return fmt.Errorf("next sequence: %w", err)
			}
			stored.Seq = next
			if err := txn.Set(s.orderKey(entry.Bucket, next), []byte(entry.URL)); err != nil {
				return fmt.Errorf("set order index: %w", err)
			}
		default:
			return fmt.Errorf("lookup entry: %w", err)
		}

		data, err := json.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerStore) Count(ctx context.Context, bucket models.Bucket) (int, error) {
	n := 0
	err := s.scanOrder(ctx, bucket, func(_ []byte, _ string) bool {
		n++
		return true
	})
	return n, err
}

// scanOrder walks the order index oldest first until fn returns false.
func (s *BadgerStore) scanOrder(ctx context.Context, bucket models.Bucket, fn func(key []byte, url string) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(s.bucketPrefix(bucket, orderSegment))
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read order index: %w", err)
			}
			if !fn(item.KeyCopy(nil), string(val)) {
				return nil
			}
		}
		return nil
	})
}

func (s *BadgerStore) EvictExcess(ctx context.Context, bucket models.Bucket, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	total, err := s.Count(ctx, bucket)
	if err != nil {
		return 0, err
	}
	excess := total - keep
	if excess <= 0 {
		return 0, nil
	}

	type victim struct {
		orderKey []byte
		url      string
	}
	victims := make([]victim, 0, excess)
	err = s.scanOrder(ctx, bucket, func(key []byte, url string) bool {
		victims = append(victims, victim{orderKey: key, url: url})
		return len(victims) < excess
	})
	if err != nil {
		return 0, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, v := range victims {
		if err := wb.Delete(v.orderKey); err != nil {
			return 0, fmt.Errorf("delete order index: %w", err)
		}
		if err := wb.Delete(s.entryKey(bucket, v.url)); err != nil {
			return 0, fmt.Errorf("delete entry: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush evictions: %w", err)
	}
	return len(victims), nil
}

func (s *BadgerStore) PurgeStale(ctx context.Context) (int, error) {
	current := cachePrefix + s.namespace + "/"
	var stale [][]byte
	purged := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(cachePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := it.Item().KeyCopy(nil)
			if strings.HasPrefix(string(key), current) {
				continue
			}
			stale = append(stale, key)
			if isEntryKey(string(key)) {
				purged++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("delete stale key: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush purge: %w", err)
	}
	return purged, nil
}

// isEntryKey reports whether key has the cache/{ns}/{bucket}/e/{url} shape.
func isEntryKey(key string) bool {
	parts := strings.SplitN(strings.TrimPrefix(key, cachePrefix), "/", 4)
	return len(parts) == 4 && parts[2] == entrySegment
}
