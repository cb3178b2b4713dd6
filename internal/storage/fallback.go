package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Skotchmaster/storefront/internal/metrics"
)

// Fallback serves a durable Store and mirrors every successful read and
// write into memory. After the first durable failure it stays on the
// in-memory copy for the rest of the process; callers never see the
// durable error.
type Fallback struct {
	durable Store
	mem     *MemoryStore
	log     *slog.Logger

	mu       sync.RWMutex
	degraded bool
}

func NewFallback(durable Store, l *slog.Logger) *Fallback {
	if l == nil {
		l = slog.Default()
	}
	return &Fallback{durable: durable, mem: NewMemoryStore(), log: l}
}

func (f *Fallback) Degraded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.degraded
}

func (f *Fallback) degrade(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.degraded {
		return
	}
	f.degraded = true
	metrics.StorageDegraded.Set(1)
	f.log.Warn("storage_degraded", "op", op, "error", err)
}

func (f *Fallback) Get(ctx context.Context, key string) (string, bool, error) {
	if f.Degraded() {
		return f.mem.Get(ctx, key)
	}
	v, ok, err := f.durable.Get(ctx, key)
	if err != nil {
		f.degrade("get", err)
		return f.mem.Get(ctx, key)
	}
	if ok {
		_ = f.mem.Set(ctx, key, v)
	} else {
		_ = f.mem.Remove(ctx, key)
	}
	return v, ok, nil
}

func (f *Fallback) Set(ctx context.Context, key, value string) error {
	_ = f.mem.Set(ctx, key, value)
	if f.Degraded() {
		return nil
	}
	if err := f.durable.Set(ctx, key, value); err != nil {
		f.degrade("set", err)
	}
	return nil
}

func (f *Fallback) Remove(ctx context.Context, key string) error {
	_ = f.mem.Remove(ctx, key)
	if f.Degraded() {
		return nil
	}
	if err := f.durable.Remove(ctx, key); err != nil {
		f.degrade("remove", err)
	}
	return nil
}
