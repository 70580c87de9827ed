// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package prefetch

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/mediacache"
	"github.com/tomtom215/reelfeed/internal/metrics"
	"github.com/tomtom215/reelfeed/internal/models"
)

// Outcomes recorded per URL.
const (
	OutcomeCached  = "cached"
	OutcomeFetched = "fetched"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Fetcher retrieves a cacheable entry from the origin.
type Fetcher interface {
	Fetch(ctx context.Context, bucket models.Bucket, url string) (*models.CacheEntry, error)
}

// Config sets the priming windows and pacing.
type Config struct {
	PosterWindow     int
	MediaWindow      int
	BoostMediaWindow int
	TailWindow       int

	// Concurrency caps in-flight fetches per pass.
	Concurrency int

	// RatePerSecond and Burst pace origin requests across all passes.
	RatePerSecond float64
	Burst         int
}

// DefaultConfig primes 10 posters and 3 media items, boosting 20.
func DefaultConfig() Config {
	return Config{
		PosterWindow:     10,
		MediaWindow:      3,
		BoostMediaWindow: 20,
		TailWindow:       5,
		Concurrency:      6,
		RatePerSecond:    20,
		Burst:            10,
	}
}

// Result is the outcome for one URL.
type Result struct {
	URL     string        `json:"url"`
	Bucket  models.Bucket `json:"bucket"`
	Outcome string        `json:"outcome"`
}

// OK reports whether the URL is in the cache after the pass.
func (r Result) OK() bool {
	return r.Outcome == OutcomeCached || r.Outcome == OutcomeFetched
}

// Report lists results in submission order.
type Report struct {
	Results []Result `json:"results"`
}

// Count returns how many results have the given outcome.
func (r Report) Count(outcome string) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Primed returns how many URLs are cached after the pass.
func (r Report) Primed() int {
	return r.Count(OutcomeCached) + r.Count(OutcomeFetched)
}

type task struct {
	bucket models.Bucket
	url    string
}

// Scheduler runs prefetch passes.
type Scheduler struct {
	store   mediacache.Store
	fetcher Fetcher
	limiter *rate.Limiter
	cfg     Config
	logger  zerolog.Logger

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// New builds a scheduler.
func New(store mediacache.Store, fetcher Fetcher, cfg Config) *Scheduler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Scheduler{
		store:    store,
		fetcher:  fetcher,
		limiter:  rate.NewLimiter(limit, cfg.Burst),
		cfg:      cfg,
		logger:   logging.Component("prefetch"),
		inflight: make(map[string]chan struct{}),
	}
}

// Config returns the scheduler's windows. A nil scheduler has a zero Config.
func (s *Scheduler) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.cfg
}

// PrimeFeed primes posters for the leading PosterWindow items, then media
// for the leading MediaWindow items.
func (s *Scheduler) PrimeFeed(ctx context.Context, items []models.CatalogItem) Report {
	if s == nil {
		return Report{}
	}
	tasks := posterTasks(items, s.cfg.PosterWindow)
	tasks = append(tasks, mediaTasks(items, s.cfg.MediaWindow)...)
	return s.run(ctx, "prime", tasks)
}

// Boost primes media for the leading BoostMediaWindow items.
func (s *Scheduler) Boost(ctx context.Context, items []models.CatalogItem) Report {
	if s == nil {
		return Report{}
	}
	return s.run(ctx, "boost", mediaTasks(items, s.cfg.BoostMediaWindow))
}

// PrimeTail primes media for items[from : from+TailWindow].
func (s *Scheduler) PrimeTail(ctx context.Context, items []models.CatalogItem, from int) Report {
	if s == nil || from < 0 || from >= len(items) {
		return Report{}
	}
	return s.run(ctx, "tail", mediaTasks(items[from:], s.cfg.TailWindow))
}

func posterTasks(items []models.CatalogItem, window int) []task {
	tasks := make([]task, 0, window)
	for i := 0; i < len(items) && i < window; i++ {
		tasks = append(tasks, task{bucket: models.BucketImage, url: items[i].PosterURL})
	}
	return tasks
}

func mediaTasks(items []models.CatalogItem, window int) []task {
	tasks := make([]task, 0, window)
	for i := 0; i < len(items) && i < window; i++ {
		tasks = append(tasks, task{bucket: models.BucketVideo, url: items[i].MediaURL})
	}
	return tasks
}

// run executes tasks with bounded concurrency and joins them. Every goroutine
// returns nil so one failure never cancels its siblings.
func (s *Scheduler) run(ctx context.Context, pass string, tasks []task) Report {
	start := time.Now()
	// Capacity is fixed up front so slot pointers stay valid while appending.
	results := make([]Result, 0, len(tasks))
	seen := make(map[task]struct{}, len(tasks))

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for _, t := range tasks {
		if !fetchable(t.url) {
			if t.url != "" {
				metrics.RecordPrefetch(string(t.bucket), OutcomeSkipped)
			}
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}

		results = append(results, Result{URL: t.url, Bucket: t.bucket})
		slot := &results[len(results)-1]
		t := t
		g.Go(func() error {
			slot.Outcome = s.prime(ctx, t)
			metrics.RecordPrefetch(string(t.bucket), slot.Outcome)
			return nil
		})
	}
	_ = g.Wait()

	metrics.RecordPrefetchPass(pass, time.Since(start))
	report := Report{Results: results}
	s.logger.Debug().
		Str("pass", pass).
		Int("urls", len(results)).
		Int("fetched", report.Count(OutcomeFetched)).
		Int("cached", report.Count(OutcomeCached)).
		Int("failed", report.Count(OutcomeFailed)).
		Dur("duration", time.Since(start)).
		Msg("prefetch pass complete")
	return report
}

// prime ensures one URL is cached. Concurrent passes asking for the same
// URL wait on the first one instead of fetching twice.
func (s *Scheduler) prime(ctx context.Context, t task) string {
	if s.store.Has(ctx, t.bucket, t.url) {
		return OutcomeCached
	}

	key := string(t.bucket) + " " + t.url
	s.mu.Lock()
	wait, busy := s.inflight[key]
	if busy {
		s.mu.Unlock()
		select {
		case <-wait:
			if s.store.Has(ctx, t.bucket, t.url) {
				return OutcomeCached
			}
			return OutcomeFailed
		case <-ctx.Done():
			return OutcomeFailed
		}
	}
	done := make(chan struct{})
	s.inflight[key] = done
	s.mu.Unlock()

	// Another pass may have finished this URL between the check above and
	// taking the slot.
	outcome := OutcomeCached
	if !s.store.Has(ctx, t.bucket, t.url) {
		outcome = s.fetchAndStore(ctx, t)
	}

	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
	close(done)
	return outcome
}

func (s *Scheduler) fetchAndStore(ctx context.Context, t task) string {
	if err := s.limiter.Wait(ctx); err != nil {
		return OutcomeFailed
	}

	entry, err := s.fetcher.Fetch(ctx, t.bucket, t.url)
	if err != nil {
		s.logger.Debug().Err(err).Str("url", t.url).Str("bucket", string(t.bucket)).Msg("prefetch failed")
		return OutcomeFailed
	}
	if err := s.store.Put(ctx, entry); err != nil {
		s.logger.Debug().Err(err).Str("url", t.url).Msg("cache put failed")
		return OutcomeFailed
	}
	return OutcomeFetched
}

// fetchable accepts absolute http and https URLs only.
func fetchable(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
