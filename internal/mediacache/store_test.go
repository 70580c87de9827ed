// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package mediacache

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tomtom215/reelfeed/internal/kvstore"
	"github.com/tomtom215/reelfeed/internal/models"
)

func newBadgerStore(t *testing.T, kv *kvstore.Store, ns string) *BadgerStore {
	t.Helper()
	s, err := NewBadgerStore(kv.DB(), ns)
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func openKV(t *testing.T) *kvstore.Store {
	t.Helper()
	kv, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

// storeFactories lets every contract test run against both implementations.
func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"badger": func(t *testing.T) Store { return newBadgerStore(t, openKV(t), "reelfeed-v1") },
	}
}

func entry(bucket models.Bucket, url string) *models.CacheEntry {
	return &models.CacheEntry{URL: url, Bucket: bucket, Status: 206, Body: []byte("data:" + url)}
}

func TestStorePutGetHas(t *testing.T) {
	for name, mk := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)

			url := "https://cdn.example/v/1.mp4?token=abc#frag"
			if s.Has(ctx, models.BucketVideo, url) {
				t.Fatal("empty store should not have url")
			}
			if err := s.Put(ctx, entry(models.BucketVideo, url)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if !s.Has(ctx, models.BucketVideo, url) {
				t.Fatal("expected Has after Put")
			}
			if s.Has(ctx, models.BucketImage, url) {
				t.Fatal("buckets must be independent")
			}

			got, err := s.Get(ctx, models.BucketVideo, url)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.URL != url || string(got.Body) != "data:"+url || got.Status != 206 {
				t.Errorf("unexpected entry: %+v", got)
			}
			if got.StoredAt.IsZero() {
				t.Error("StoredAt should be set")
			}

			if _, err := s.Get(ctx, models.BucketVideo, "https://missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStoreRePutKeepsPosition(t *testing.T) {
	for name, mk := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)

			for i := 0; i < 3; i++ {
				if err := s.Put(ctx, entry(models.BucketVideo, fmt.Sprintf("https://x/%d", i))); err != nil {
					t.Fatal(err)
				}
			}
			// Overwrite the oldest; it must still be evicted first.
			again := entry(models.BucketVideo, "https://x/0")
			again.Body = []byte("new")
			if err := s.Put(ctx, again); err != nil {
				t.Fatal(err)
			}

			n, _ := s.Count(ctx, models.BucketVideo)
			if n != 3 {
				t.Fatalf("Count = %d, want 3 after overwrite", n)
			}

			got, _ := s.Get(ctx, models.BucketVideo, "https://x/0")
			if string(got.Body) != "new" {
				t.Errorf("overwrite not applied: %q", got.Body)
			}

			removed, err := s.EvictExcess(ctx, models.BucketVideo, 2)
			if err != nil || removed != 1 {
				t.Fatalf("EvictExcess = %d, %v", removed, err)
			}
			if s.Has(ctx, models.BucketVideo, "https://x/0") {
				t.Error("oldest entry should have been evicted despite overwrite")
			}
		})
	}
}

func TestStoreEvictExcessFIFO(t *testing.T) {
	for name, mk := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)

			for i := 0; i < 60; i++ {
				if err := s.Put(ctx, entry(models.BucketVideo, fmt.Sprintf("https://v/%02d", i))); err != nil {
					t.Fatal(err)
				}
			}
			_ = s.Put(ctx, entry(models.BucketImage, "https://i/0"))

			removed, err := s.EvictExcess(ctx, models.BucketVideo, 25)
			if err != nil {
				t.Fatal(err)
			}
			if removed != 35 {
				t.Errorf("removed = %d, want 35", removed)
			}
			if n, _ := s.Count(ctx, models.BucketVideo); n != 25 {
				t.Errorf("Count = %d, want 25", n)
			}
			if s.Has(ctx, models.BucketVideo, "https://v/34") {
				t.Error("v/34 should be evicted")
			}
			if !s.Has(ctx, models.BucketVideo, "https://v/35") {
				t.Error("v/35 should survive")
			}
			if n, _ := s.Count(ctx, models.BucketImage); n != 1 {
				t.Errorf("image bucket touched: %d", n)
			}

			removed, _ = s.EvictExcess(ctx, models.BucketVideo, 100)
			if removed != 0 {
				t.Errorf("no eviction expected under keep, removed %d", removed)
			}
		})
	}
}

func TestBadgerStorePurgeStale(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)

	old := newBadgerStore(t, kv, "reelfeed-v1")
	for i := 0; i < 4; i++ {
		_ = old.Put(ctx, entry(models.BucketVideo, fmt.Sprintf("https://old/%d", i)))
	}
	_ = old.Put(ctx, entry(models.BucketImage, "https://old/poster"))

	current := newBadgerStore(t, kv, "reelfeed-v2")
	_ = current.Put(ctx, entry(models.BucketVideo, "https://new/0"))

	purged, err := current.PurgeStale(ctx)
	if err != nil {
		t.Fatalf("PurgeStale: %v", err)
	}
	if purged != 5 {
		t.Errorf("purged = %d, want 5", purged)
	}
	if old.Has(ctx, models.BucketVideo, "https://old/0") {
		t.Error("old namespace entry survived purge")
	}
	if !current.Has(ctx, models.BucketVideo, "https://new/0") {
		t.Error("current namespace entry was purged")
	}

	purged, _ = current.PurgeStale(ctx)
	if purged != 0 {
		t.Errorf("second purge removed %d", purged)
	}
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	kv, err := kvstore.Open(kvstore.Options{Path: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()

	s, err := NewBadgerStore(kv.DB(), "ns")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Put(ctx, entry(models.BucketImage, "https://p/1.jpg"))
	_ = s.Close()

	s2, err := NewBadgerStore(kv.DB(), "ns")
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	_ = s2.Put(ctx, entry(models.BucketImage, "https://p/2.jpg"))

	if !s2.Has(ctx, models.BucketImage, "https://p/1.jpg") {
		t.Error("entry lost after store reopen")
	}
	a, _ := s2.Get(ctx, models.BucketImage, "https://p/1.jpg")
	b, _ := s2.Get(ctx, models.BucketImage, "https://p/2.jpg")
	if a.Seq >= b.Seq {
		t.Errorf("sequence must keep increasing across reopen: %d >= %d", a.Seq, b.Seq)
	}
}

func TestNewBadgerStoreRejectsBadNamespace(t *testing.T) {
	kv := openKV(t)
	for _, ns := range []string{"", "a/b"} {
		if _, err := NewBadgerStore(kv.DB(), ns); err == nil {
			t.Errorf("namespace %q should be rejected", ns)
		}
	}
}

func TestStoreRejectsEntryWithoutURL(t *testing.T) {
	for name, mk := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			if err := mk(t).Put(context.Background(), &models.CacheEntry{Bucket: models.BucketVideo}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
