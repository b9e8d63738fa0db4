// Package eventbus fans domain events out to in-process subscribers.
//
// Every subscriber owns a bounded queue drained by its own goroutine.
// Publish never blocks: when a queue is full the event is dropped for that
// subscriber only. Handler panics and errors are logged and swallowed.
// Events are not persisted and are lost when nobody subscribes.
package eventbus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anishLS3/Placify-sub001/internal/logger"
	"github.com/anishLS3/Placify-sub001/internal/metrics"
)

// Wildcard subscribes to every event name.
const Wildcard = "*"

// DefaultQueueSize is used when Options.QueueSize is not positive.
const DefaultQueueSize = 256

// Event is a single domain event.
type Event struct {
	Name      string      `json:"event"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Handler processes one event. Returned errors are logged, never propagated.
type Handler func(ctx context.Context, ev Event) error

type Options struct {
	QueueSize int
	Logger    *logrus.Entry
	Now       func() time.Time
}

// Subscription identifies a registered handler.
type Subscription struct {
	id      uint64
	event   string
	label   string
	queue   chan Event
	handler Handler
	done    chan struct{}

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

func (s *Subscription) Event() string { return s.event }

func (s *Subscription) Label() string { return s.label }

// Delivered returns how many events the handler has finished processing.
func (s *Subscription) Delivered() uint64 { return s.delivered.Load() }

// Dropped returns how many events were discarded because the queue was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// SubscribeOption tunes a single subscription.
type SubscribeOption func(*Subscription)

// WithLabel names the subscriber in logs and metrics.
func WithLabel(label string) SubscribeOption {
	return func(s *Subscription) { s.label = label }
}

// WithQueueSize overrides the bus default queue size.
func WithQueueSize(n int) SubscribeOption {
	return func(s *Subscription) {
		if n > 0 {
			s.queue = make(chan Event, n)
		}
	}
}

type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool

	queueSize int
	log       *logrus.Entry
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a bus. It is safe for concurrent use.
func New(opts Options) *Bus {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = logger.Component("eventbus")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		subs:      make(map[uint64]*Subscription),
		queueSize: opts.QueueSize,
		log:       opts.Logger,
		now:       opts.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Subscribe registers handler for event, or for every event when event is
// Wildcard. Subscribing to a closed bus returns an inert subscription.
func (b *Bus) Subscribe(event string, handler Handler, opts ...SubscribeOption) *Subscription {
	sub := &Subscription{event: event, handler: handler, done: make(chan struct{})}
	for _, opt := range opts {
		opt(sub)
	}
	if sub.queue == nil {
		sub.queue = make(chan Event, b.queueSize)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.log.WithField("event", event).Warn("subscribe on closed event bus ignored")
		close(sub.done)
		return sub
	}
	b.nextID++
	sub.id = b.nextID
	if sub.label == "" {
		sub.label = fmt.Sprintf("%s#%d", event, sub.id)
	}
	b.subs[sub.id] = sub

	b.wg.Add(1)
	go b.run(sub)
	return sub
}

// Unsubscribe stops future deliveries to sub. Events already queued are
// still processed. It does not wait for the worker to finish.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.id]; !ok {
		return
	}
	delete(b.subs, sub.id)
	close(sub.queue)
}

// Publish hands ev to every matching subscriber queue without blocking.
func (b *Bus) Publish(name string, payload interface{}) {
	ev := Event{Name: name, Payload: payload, Timestamp: b.now().UTC()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	metrics.IncEventPublished(name)
	for _, sub := range b.subs {
		if sub.event != Wildcard && sub.event != name {
			continue
		}
		select {
		case sub.queue <- ev:
		default:
			sub.dropped.Add(1)
			metrics.IncEventDropped(sub.label)
			b.log.WithFields(logrus.Fields{
				"event":      name,
				"subscriber": sub.label,
			}).Warn("subscriber queue full, event dropped")
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close stops accepting events and waits for queued events to drain.
func (b *Bus) Close() {
	_ = b.Shutdown(context.Background())
}

// Shutdown is Close bounded by ctx. Handlers still running when ctx ends see
// their context cancelled.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		for id, sub := range b.subs {
			delete(b.subs, id)
			close(sub.queue)
		}
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	defer b.cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) run(sub *Subscription) {
	defer b.wg.Done()
	defer close(sub.done)
	for ev := range sub.queue {
		b.dispatch(sub, ev)
	}
}

func (b *Bus) dispatch(sub *Subscription, ev Event) {
	defer sub.delivered.Add(1)
	defer func() {
		if r := recover(); r != nil {
			metrics.IncSubscriberFailure(sub.label, "panic")
			b.log.WithFields(logrus.Fields{
				"event":      ev.Name,
				"subscriber": sub.label,
				"panic":      fmt.Sprint(r),
			}).Error("event subscriber panicked")
		}
	}()
	if err := sub.handler(b.ctx, ev); err != nil {
		metrics.IncSubscriberFailure(sub.label, "error")
		b.log.WithError(err).WithFields(logrus.Fields{
			"event":      ev.Name,
			"subscriber": sub.label,
		}).Warn("event subscriber failed")
	}
}
