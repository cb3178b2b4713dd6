package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/storage"
)

type Subscriber interface {
	Subscribe(h notify.Handler) (unsubscribe func())
}

// View is the cart-derived state one open view displays (header badge,
// cart page, checkout summary). It re-reads the full cart from storage on
// every cart event, local or remote, instead of trusting event payloads.
type View struct {
	kv  storage.Store
	key string
	log *slog.Logger

	mu      sync.RWMutex
	summary Summary
	stop    func()
}

func NewView(kv storage.Store, l *slog.Logger) *View {
	if l == nil {
		l = slog.Default()
	}
	return &View{kv: kv, key: storage.KeyCart, log: l.With("component", "cart_view"), summary: Summarize(nil)}
}

// Attach loads the current cart and keeps the view in sync until Detach.
func (v *View) Attach(ctx context.Context, bus Subscriber) {
	v.Refresh(ctx)
	v.stop = bus.Subscribe(func(ctx context.Context, e notify.Event) {
		if e.Kind != notify.KindCartChanged || e.Key != v.key {
			return
		}
		v.Refresh(ctx)
	})
}

func (v *View) Detach() {
	if v.stop != nil {
		v.stop()
	}
}

func (v *View) Refresh(ctx context.Context) {
	lines := []Line{}
	raw, ok, err := v.kv.Get(ctx, v.key)
	switch {
	case err != nil:
		v.log.Warn("cart_view_read_error", "error", err)
		return
	case ok && raw != "":
		decoded, err := Decode(raw)
		if err != nil {
			v.log.Warn("cart_view_decode_error", "error", err)
		} else {
			lines = decoded
		}
	}

	sum := Summarize(lines)
	v.mu.Lock()
	v.summary = sum
	v.mu.Unlock()
}

func (v *View) Summary() Summary {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.summary
}

func (v *View) Count() int {
	return v.Summary().Count
}

func (v *View) Total() int64 {
	return v.Summary().Total
}
