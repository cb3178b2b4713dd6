// Package notify propagates state changes to every open view of the
// storefront. Local subscribers are called synchronously on Publish; other
// processes are reached through a Remote transport.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/google/uuid"
)

type Kind string

const (
	KindCartChanged    Kind = "cart_changed"
	KindSessionChanged Kind = "session_changed"
	KindNewOrder       Kind = "new_order"
	KindNotice         Kind = "notice"
)

type Event struct {
	ID     uuid.UUID      `json:"id"`
	Kind   Kind           `json:"kind"`
	Key    string         `json:"key,omitempty"`
	Origin string         `json:"origin"`
	At     time.Time      `json:"at"`
	Data   map[string]any `json:"data,omitempty"`
}

type Handler func(ctx context.Context, e Event)

// Remote carries events between processes. Listen blocks until ctx is done.
type Remote interface {
	Publish(ctx context.Context, e Event) error
	Listen(ctx context.Context, fn func(Event)) error
	Close() error
}

type Bus struct {
	id     string
	remote Remote
	log    *slog.Logger

	mu   sync.RWMutex
	next uint64
	subs map[uint64]Handler
}

func NewBus(remote Remote, l *slog.Logger) *Bus {
	if remote == nil {
		remote = NopRemote{}
	}
	if l == nil {
		l = slog.Default()
	}
	id := uuid.NewString()
	return &Bus{
		id:     id,
		remote: remote,
		log:    l.With("bus", id),
		subs:   make(map[uint64]Handler),
	}
}

func (b *Bus) ID() string {
	return b.id
}

func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers to local subscribers before returning, then forwards to the
// remote. A remote failure is logged; the local views are already consistent.
func (b *Bus) Publish(ctx context.Context, kind Kind, key string, data map[string]any) Event {
	e := Event{
		ID:     uuid.New(),
		Kind:   kind,
		Key:    key,
		Origin: b.id,
		At:     time.Now().UTC(),
		Data:   data,
	}
	b.deliver(ctx, e)
	metrics.NotifierEvents.WithLabelValues(string(kind), "out").Inc()

	if err := b.remote.Publish(ctx, e); err != nil {
		b.log.Warn("notify_remote_publish_error", "kind", kind, "error", err)
	}
	return e
}

// Run feeds remote events to local subscribers until ctx is done. Events this
// bus published itself are skipped; they were already delivered locally.
func (b *Bus) Run(ctx context.Context) error {
	return b.remote.Listen(ctx, func(e Event) {
		if e.Origin == b.id {
			return
		}
		metrics.NotifierEvents.WithLabelValues(string(e.Kind), "in").Inc()
		b.deliver(ctx, e)
	})
}

func (b *Bus) Close() error {
	return b.remote.Close()
}

func (b *Bus) deliver(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, e)
	}
}

type NopRemote struct{}

func (NopRemote) Publish(context.Context, Event) error { return nil }

func (NopRemote) Listen(ctx context.Context, _ func(Event)) error {
	<-ctx.Done()
	return nil
}

func (NopRemote) Close() error { return nil }
