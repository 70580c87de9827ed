// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/reelfeed/internal/cache"
	"github.com/tomtom215/reelfeed/internal/feed"
	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/metrics"
	"github.com/tomtom215/reelfeed/internal/models"
	"github.com/tomtom215/reelfeed/internal/prefetch"
)

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("events: bus closed")

// Config configures the bus.
type Config struct {
	// UserID is stamped on outgoing messages and filters incoming ones.
	UserID string

	// NATSURL selects NATS. Empty keeps the bus in-process.
	NATSURL          string
	JetStream        bool
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	CloseTimeout     time.Duration

	// BufferSize is the GoChannel output buffer and the notice outbox size.
	BufferSize int64

	// DedupCapacity and DedupTTL bound the window of message UUIDs
	// remembered to drop redeliveries.
	DedupCapacity int
	DedupTTL      time.Duration
}

// Session is what the bus drives. *feed.Service satisfies it.
type Session interface {
	HandleEvent(ctx context.Context, ev models.FeedEvent) error
	Boost(ctx context.Context) prefetch.Report
}

// Bus owns the publisher and subscriber and the consumer loops.
type Bus struct {
	cfg    Config
	pub    message.Publisher
	sub    message.Subscriber
	wlog   watermill.LoggerAdapter
	logger zerolog.Logger

	outbox chan RankingNotice
	seen   *cache.DedupWindow

	mu      sync.RWMutex
	session Session
	closed  bool
}

// NewBus connects the bus.
func NewBus(cfg Config) (*Bus, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.SubscribersCount <= 0 {
		cfg.SubscribersCount = 1
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}
	if cfg.AckWaitTimeout <= 0 {
		cfg.AckWaitTimeout = 30 * time.Second
	}

	wlog := watermill.NewSlogLogger(logging.NewSlogLogger())
	b := &Bus{
		cfg:    cfg,
		wlog:   wlog,
		logger: logging.Component("events"),
		outbox: make(chan RankingNotice, cfg.BufferSize),
		seen:   cache.NewDedupWindow(cfg.DedupCapacity, cfg.DedupTTL),
	}

	if cfg.NATSURL == "" {
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
		}, wlog)
		b.pub, b.sub = ch, ch
		b.logger.Info().Msg("event bus running in-process")
		return b, nil
	}

	pub, sub, err := newNATS(&cfg, wlog)
	if err != nil {
		return nil, err
	}
	b.pub, b.sub = pub, sub
	b.logger.Info().Str("url", cfg.NATSURL).Bool("jetstream", cfg.JetStream).Msg("event bus connected to NATS")
	return b, nil
}

func newNATS(cfg *Config, wlog watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("reelfeed"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				wlog.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			wlog.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	js := wmNats.JetStreamConfig{
		Disabled:      !cfg.JetStream,
		AutoProvision: cfg.JetStream,
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   js,
	}, wlog)
	if err != nil {
		return nil, nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        js,
	}, wlog)
	if err != nil {
		_ = pub.Close()
		return nil, nil, fmt.Errorf("create nats subscriber: %w", err)
	}
	return pub, sub, nil
}

// Attach sets the session that incoming messages are applied to.
func (b *Bus) Attach(s Session) {
	b.mu.Lock()
	b.session = s
	b.mu.Unlock()
}

// Publish encodes payload as JSON and publishes it on topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set("user_id", b.cfg.UserID)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set("request_id", id)
	}
	msg.SetContext(ctx)

	if err := b.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.RecordEventPublished(topic)
	return nil
}

// Announce queues a notice for r without blocking. Notices are dropped
// while the outbox is full.
func (b *Bus) Announce(r *models.Ranking) {
	if r == nil {
		return
	}
	select {
	case b.outbox <- NoticeFor(b.cfg.UserID, r):
	default:
		b.logger.Debug().Uint64("version", r.Version).Msg("ranking notice dropped, outbox full")
	}
}

// Serve consumes the inbound topics and drains the notice outbox until ctx
// ends. Subscriptions are scoped to ctx, so Serve may be restarted.
func (b *Bus) Serve(ctx context.Context) error {
	events, err := b.sub.Subscribe(ctx, TopicEvents)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicEvents, err)
	}
	boosts, err := b.sub.Subscribe(ctx, TopicBoost)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicBoost, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.consume(gctx, TopicEvents, events, b.handleEvent) })
	g.Go(func() error { return b.consume(gctx, TopicBoost, boosts, b.handleBoost) })
	g.Go(func() error { return b.drain(gctx) })

	err = g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (b *Bus) consume(ctx context.Context, topic string, messages <-chan *message.Message, handle func(context.Context, *message.Message) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("subscription to %s closed", topic)
			}
			err := b.process(ctx, msg, handle)
			metrics.RecordEventConsumed(topic, err)
			if err != nil {
				b.logger.Warn().Err(err).Str("topic", topic).Str("message_uuid", msg.UUID).Msg("message rejected")
			}
			// Every message is acked. Rejections are permanent and a
			// redelivery would fail the same way.
			msg.Ack()
		}
	}
}

func (b *Bus) process(ctx context.Context, msg *message.Message, handle func(context.Context, *message.Message) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling message: %v", r)
		}
	}()
	if user := msg.Metadata.Get("user_id"); user != "" && user != b.cfg.UserID {
		return nil
	}
	if b.seen.Seen(msg.UUID) {
		metrics.RecordEventDuplicate()
		b.logger.Debug().Str("message_uuid", msg.UUID).Msg("duplicate delivery dropped")
		return nil
	}
	if id := msg.Metadata.Get("request_id"); id != "" {
		ctx = logging.ContextWithRequestID(ctx, id)
	}
	return handle(ctx, msg)
}

func (b *Bus) currentSession() Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

func (b *Bus) handleEvent(ctx context.Context, msg *message.Message) error {
	var ev models.FeedEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	s := b.currentSession()
	if s == nil {
		return feed.ErrNotLoaded
	}
	return s.HandleEvent(ctx, ev)
}

func (b *Bus) handleBoost(ctx context.Context, msg *message.Message) error {
	var sig BoostSignal
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &sig); err != nil {
			return fmt.Errorf("decode boost: %w", err)
		}
	}
	s := b.currentSession()
	if s == nil {
		return feed.ErrNotLoaded
	}
	report := s.Boost(ctx)
	logging.Ctx(ctx).Info().
		Str("reason", sig.Reason).
		Int("primed", report.Primed()).
		Int("requested", len(report.Results)).
		Msg("boost prefetch finished")
	return nil
}

func (b *Bus) drain(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-b.outbox:
			if err := b.Publish(ctx, TopicRankings, n); err != nil {
				b.logger.Debug().Err(err).Uint64("version", n.Version).Msg("ranking notice not published")
			}
		}
	}
}

// Subscribe exposes the underlying subscriber, for consumers of
// TopicRankings in the same process.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.sub.Subscribe(ctx, topic)
}

// Close closes the publisher and subscriber. It is safe to call twice.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.pub.Close(); err != nil {
		errs = append(errs, err)
	}
	// GoChannel is both publisher and subscriber.
	if any(b.sub) != any(b.pub) {
		if err := b.sub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) String() string {
	return "event-bus"
}
