// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package feed runs one viewer's feed session. It owns the interaction
// state, re-ranks the catalog when something relevant happens and keeps
// the media cache primed for what the viewer will see next.
//
// Each ranking is published as an immutable snapshot through an atomic
// pointer, so readers never block re-ranks. Prefetch passes started in the
// background outlive the request that triggered them.
package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelfeed/internal/catalog"
	"github.com/tomtom215/reelfeed/internal/distribution"
	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/metrics"
	"github.com/tomtom215/reelfeed/internal/models"
	"github.com/tomtom215/reelfeed/internal/prefetch"
	"github.com/tomtom215/reelfeed/internal/recommend"
	"github.com/tomtom215/reelfeed/internal/recommend/reranking"
)

var (
	// ErrUnknownItem is returned for an id that is not in the catalog.
	ErrUnknownItem = errors.New("feed: unknown item")

	// ErrNotLoaded is returned before Load has succeeded.
	ErrNotLoaded = errors.New("feed: session not loaded")

	// ErrInvalidEvent is returned by HandleEvent for malformed events.
	ErrInvalidEvent = errors.New("feed: invalid event")
)

// InterestTracker is the subset of interest.Tracker the session uses.
type InterestTracker interface {
	RecordInterest(ctx context.Context, category string) error
	TopInterests() []string
	Hydrate(ctx context.Context) error
}

// Prefetcher primes the media cache. *prefetch.Scheduler satisfies it,
// including a nil scheduler.
type Prefetcher interface {
	Config() prefetch.Config
	PrimeFeed(ctx context.Context, items []models.CatalogItem) prefetch.Report
	Boost(ctx context.Context, items []models.CatalogItem) prefetch.Report
	PrimeTail(ctx context.Context, items []models.CatalogItem, from int) prefetch.Report
}

// Sweeper performs cache housekeeping. *mediacache.Janitor satisfies it.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

// Config tunes the session.
type Config struct {
	// CompletionThreshold is the progress above which a watch counts as
	// finished.
	CompletionThreshold float64

	// BackgroundTimeout bounds prefetch passes that outlive their request.
	BackgroundTimeout time.Duration
}

// Deps are the collaborators of a Service. Catalog, Tracker and Ranker are
// required; the rest may be nil.
type Deps struct {
	Catalog      catalog.Source
	Tracker      InterestTracker
	Ranker       *recommend.Ranker
	Prefetch     Prefetcher
	Interactions InteractionStore
	Janitor      Sweeper
}

// RefreshStatus is the outcome of a manual refresh, shown to the viewer.
type RefreshStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Items   int    `json:"items"`
	Primed  int    `json:"primed"`
	Version uint64 `json:"version"`
}

// Listener receives every published ranking. It runs on the publishing
// goroutine and must not block.
type Listener func(*models.Ranking)

// Service is a feed session.
type Service struct {
	deps     Deps
	cfg      Config
	rotation *reranking.HeadRotation
	logger   zerolog.Logger

	// persistMu is held from a state mutation until its snapshot is saved,
	// so saves land in mutation order. Acquire before mu.
	persistMu sync.Mutex

	mu      sync.Mutex
	items   []models.CatalogItem
	byID    map[string]models.CatalogItem
	state   *models.InteractionState
	started bool

	pubMu   sync.Mutex
	version uint64
	current atomic.Pointer[models.Ranking]

	listenMu  sync.RWMutex
	listeners map[int]Listener
	nextID    int

	bg sync.WaitGroup
}

// New creates a session. Call Load before serving.
func New(deps Deps, cfg Config) (*Service, error) {
	if deps.Catalog == nil || deps.Tracker == nil || deps.Ranker == nil {
		return nil, errors.New("feed: catalog, tracker and ranker are required")
	}
	if cfg.CompletionThreshold <= 0 || cfg.CompletionThreshold > 1 {
		cfg.CompletionThreshold = recommend.DefaultCompletionThreshold
	}
	if cfg.BackgroundTimeout <= 0 {
		cfg.BackgroundTimeout = 2 * time.Minute
	}
	return &Service{
		deps:      deps,
		cfg:       cfg,
		rotation:  reranking.NewHeadRotation(deps.Ranker.Config().RotationWindow, deps.Ranker.Random()),
		logger:    logging.Component("feed"),
		state:     models.NewInteractionState(),
		byID:      map[string]models.CatalogItem{},
		listeners: map[int]Listener{},
	}, nil
}

// Load starts the session: interests are hydrated, the catalog and stored
// interactions are loaded, the feed is ranked and priming starts in the
// background. Cache housekeeping runs once, also in the background, and
// never delays priming.
func (s *Service) Load(ctx context.Context) error {
	if err := s.deps.Tracker.Hydrate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("interest hydrate incomplete")
	}

	items, err := s.deps.Catalog.Items(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	state := models.NewInteractionState()
	if s.deps.Interactions != nil {
		stored, err := s.deps.Interactions.Load(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("stored interactions unavailable, starting fresh")
		} else {
			state = stored
		}
	}

	s.mu.Lock()
	s.setCatalogLocked(items)
	s.state = state
	s.started = true
	s.mu.Unlock()

	ranking := s.rerank(models.TriggerInitial)

	s.background(ctx, "initial prime", func(bctx context.Context) {
		s.prefetcher().PrimeFeed(bctx, ranking.Items)
	})
	if s.deps.Janitor != nil {
		s.background(ctx, "initial sweep", func(bctx context.Context) {
			if err := s.deps.Janitor.Sweep(bctx); err != nil {
				s.logger.Warn().Err(err).Msg("cache sweep failed")
			}
		})
	}

	s.logger.Info().
		Int("catalog", len(items)).
		Int("ranked", len(ranking.Items)).
		Msg("feed session loaded")
	return nil
}

// Refresh reloads the catalog, re-ranks and waits for the head of the new
// feed to be primed. The trailing window is primed in the background.
func (s *Service) Refresh(ctx context.Context) (RefreshStatus, error) {
	if !s.loaded() {
		return RefreshStatus{Message: "Feed is still loading"}, ErrNotLoaded
	}

	items, err := s.deps.Catalog.Items(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("refresh could not reload catalog")
		return RefreshStatus{Message: "Could not refresh the feed, try again shortly"}, fmt.Errorf("reload catalog: %w", err)
	}
	s.mu.Lock()
	s.setCatalogLocked(items)
	s.mu.Unlock()

	ranking := s.rerank(models.TriggerRefresh)
	report := s.prefetcher().PrimeFeed(ctx, ranking.Items)

	from := s.prefetcher().Config().MediaWindow
	s.background(ctx, "tail prime", func(bctx context.Context) {
		s.prefetcher().PrimeTail(bctx, ranking.Items, from)
	})

	return RefreshStatus{
		OK:      true,
		Message: fmt.Sprintf("Feed refreshed with %d videos", len(ranking.Items)),
		Items:   len(ranking.Items),
		Primed:  report.Primed(),
		Version: ranking.Version,
	}, nil
}

// ReloadCatalog re-reads the catalog and re-ranks only if the set or order
// of item ids changed. Returns whether a new ranking was published.
func (s *Service) ReloadCatalog(ctx context.Context) (bool, error) {
	if !s.loaded() {
		return false, ErrNotLoaded
	}
	items, err := s.deps.Catalog.Items(ctx)
	if err != nil {
		return false, fmt.Errorf("reload catalog: %w", err)
	}

	s.mu.Lock()
	changed := !sameOrder(s.items, items)
	s.setCatalogLocked(items)
	s.mu.Unlock()

	if !changed {
		return false, nil
	}
	ranking := s.rerank(models.TriggerCatalog)
	s.background(ctx, "catalog prime", func(bctx context.Context) {
		s.prefetcher().PrimeFeed(bctx, ranking.Items)
	})
	return true, nil
}

// Open records that the viewer opened id. Opening reinforces interest in
// the item's category without re-ranking.
func (s *Service) Open(ctx context.Context, id string) error {
	item, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.recordInterest(ctx, item.Category)
	return nil
}

// Progress records how far id was watched. Crossing the completion
// threshold counts as finishing the video: its category becomes the top
// interest and the feed is re-ranked. Returns whether a re-rank happened.
func (s *Service) Progress(ctx context.Context, id string, progress float64) (bool, error) {
	item, err := s.lookup(id)
	if err != nil {
		return false, err
	}

	s.persistMu.Lock()
	s.mu.Lock()
	before, _ := s.state.Progress(id)
	s.state.RecordProgress(id, progress)
	after, _ := s.state.Progress(id)
	snapshot := s.state.Clone()
	s.mu.Unlock()
	s.persist(ctx, snapshot)
	s.persistMu.Unlock()

	threshold := s.cfg.CompletionThreshold
	if before > threshold || after <= threshold {
		return false, nil
	}

	s.recordInterest(ctx, item.Category)
	s.rerank(models.TriggerCompletion)
	return true, nil
}

// PlayerClose re-ranks when the viewer leaves the player. If the new feed
// would reopen on the same head, the head is rotated away.
func (s *Service) PlayerClose(_ context.Context) error {
	if !s.loaded() {
		return ErrNotLoaded
	}
	s.rerank(models.TriggerPlayerClose)
	return nil
}

// Dislike hides id from every future ranking and re-ranks.
func (s *Service) Dislike(ctx context.Context, id string) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	s.mutate(ctx, func(st *models.InteractionState) { st.Dislike(id) })
	s.rerank(models.TriggerDislike)
	return nil
}

// Restore undoes a dislike so id is eligible again, and re-ranks.
func (s *Service) Restore(ctx context.Context, id string) (bool, error) {
	if !s.loaded() {
		return false, ErrNotLoaded
	}
	var restored bool
	s.mutate(ctx, func(st *models.InteractionState) { restored = st.Restore(id) })
	if restored {
		s.rerank(models.TriggerRestore)
	}
	return restored, nil
}

// Like toggles a like on id. Returns whether id is now liked.
func (s *Service) Like(ctx context.Context, id string) (bool, error) {
	if _, err := s.lookup(id); err != nil {
		return false, err
	}
	var liked bool
	s.mutate(ctx, func(st *models.InteractionState) { liked = st.ToggleLike(id) })
	return liked, nil
}

// Save toggles id in the saved list. Returns whether id is now saved.
func (s *Service) Save(ctx context.Context, id string) (bool, error) {
	if _, err := s.lookup(id); err != nil {
		return false, err
	}
	var saved bool
	s.mutate(ctx, func(st *models.InteractionState) { saved = st.ToggleSave(id) })
	return saved, nil
}

// SaveCategory toggles a saved category.
func (s *Service) SaveCategory(ctx context.Context, category string) (bool, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return false, fmt.Errorf("%w: empty category", ErrInvalidEvent)
	}
	if !s.loaded() {
		return false, ErrNotLoaded
	}
	var saved bool
	s.mutate(ctx, func(st *models.InteractionState) { saved = st.ToggleSavedCategory(category) })
	return saved, nil
}

// Boost primes media deep into the current ranking and waits for it.
func (s *Service) Boost(ctx context.Context) prefetch.Report {
	current := s.Current()
	if current == nil {
		return prefetch.Report{}
	}
	return s.prefetcher().Boost(ctx, current.Items)
}

// Layout distributes the current ranking over sections.
func (s *Service) Layout(sections []models.Section) map[string][]models.CatalogItem {
	var items []models.CatalogItem
	if current := s.Current(); current != nil {
		items = current.Items
	}
	return distribution.Allocate(sections, items)
}

// HandleEvent applies a client interaction event.
func (s *Service) HandleEvent(ctx context.Context, ev models.FeedEvent) error {
	if ev.Type.NeedsID() && strings.TrimSpace(ev.ID) == "" {
		return fmt.Errorf("%w: %s requires an id", ErrInvalidEvent, ev.Type)
	}

	var err error
	switch ev.Type {
	case models.EventOpen:
		err = s.Open(ctx, ev.ID)
	case models.EventProgress:
		_, err = s.Progress(ctx, ev.ID, ev.Progress)
	case models.EventClose:
		err = s.PlayerClose(ctx)
	case models.EventLike:
		_, err = s.Like(ctx, ev.ID)
	case models.EventDislike:
		err = s.Dislike(ctx, ev.ID)
	case models.EventSave:
		_, err = s.Save(ctx, ev.ID)
	case models.EventRestore:
		_, err = s.Restore(ctx, ev.ID)
	case models.EventSaveCategory:
		_, err = s.SaveCategory(ctx, ev.Category)
	default:
		err = fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, ev.Type)
	}
	return err
}

// Current returns the latest ranking, or nil before Load.
func (s *Service) Current() *models.Ranking {
	return s.current.Load()
}

// Interests returns the tracked interests, most recent first.
func (s *Service) Interests() []string {
	return s.deps.Tracker.TopInterests()
}

// Interactions returns a copy of the interaction state.
func (s *Service) Interactions() *models.InteractionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Ready reports whether a ranking has been published.
func (s *Service) Ready() bool {
	return s.Current() != nil
}

// Subscribe registers l for every future ranking. The returned function
// removes it.
func (s *Service) Subscribe(l Listener) func() {
	s.listenMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenMu.Unlock()

	return func() {
		s.listenMu.Lock()
		delete(s.listeners, id)
		s.listenMu.Unlock()
	}
}

// Wait blocks until background prefetch passes finish.
func (s *Service) Wait() {
	s.bg.Wait()
}

func (s *Service) rerank(trigger models.Trigger) *models.Ranking {
	start := time.Now()

	s.mu.Lock()
	items := s.items
	state := s.state.Clone()
	s.mu.Unlock()

	ranked := s.deps.Ranker.Rank(items, state, s.deps.Tracker.TopInterests())

	s.pubMu.Lock()
	if trigger == models.TriggerPlayerClose {
		ranked = s.rotation.Rerank(ranked, s.current.Load().Head())
	}
	s.version++
	ranking := &models.Ranking{
		Version:     s.version,
		Trigger:     trigger,
		Items:       ranked,
		GeneratedAt: time.Now().UTC(),
	}
	s.current.Store(ranking)
	s.pubMu.Unlock()

	metrics.RecordRank(string(trigger), len(ranked), time.Since(start))
	s.logger.Debug().
		Str("trigger", string(trigger)).
		Uint64("version", ranking.Version).
		Str("head", ranking.Head()).
		Int("items", len(ranked)).
		Msg("ranking published")

	s.notify(ranking)
	return ranking
}

func (s *Service) notify(r *models.Ranking) {
	s.listenMu.RLock()
	defer s.listenMu.RUnlock()
	for _, l := range s.listeners {
		l(r)
	}
}

// background runs fn under a context detached from ctx's cancellation and
// bounded by BackgroundTimeout.
func (s *Service) background(ctx context.Context, what string, fn func(context.Context)) {
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.BackgroundTimeout)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer cancel()
		start := time.Now()
		fn(bctx)
		s.logger.Debug().Str("task", what).Dur("took", time.Since(start)).Msg("background task done")
	}()
}

func (s *Service) prefetcher() Prefetcher {
	if s.deps.Prefetch == nil {
		return (*prefetch.Scheduler)(nil)
	}
	return s.deps.Prefetch
}

func (s *Service) mutate(ctx context.Context, fn func(*models.InteractionState)) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	fn(s.state)
	snapshot := s.state.Clone()
	s.mu.Unlock()
	s.persist(ctx, snapshot)
}

func (s *Service) persist(ctx context.Context, snapshot *models.InteractionState) {
	if s.deps.Interactions == nil {
		return
	}
	if err := s.deps.Interactions.Save(ctx, snapshot); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist interactions")
	}
}

func (s *Service) recordInterest(ctx context.Context, category string) {
	if err := s.deps.Tracker.RecordInterest(ctx, category); err != nil {
		s.logger.Warn().Err(err).Str("category", category).Msg("interest not persisted locally")
	}
}

func (s *Service) lookup(id string) (models.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return models.CatalogItem{}, ErrNotLoaded
	}
	item, ok := s.byID[id]
	if !ok {
		return models.CatalogItem{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	return item, nil
}

func (s *Service) loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *Service) setCatalogLocked(items []models.CatalogItem) {
	s.items = items
	s.byID = models.IndexByID(items)
}

func sameOrder(a, b []models.CatalogItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
