package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/notice"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/pkg/apiclient"
)

const DefaultPollInterval = 3 * time.Second

var ErrPollInFlight = errors.New("order poll already in flight")

type OrderLister interface {
	Orders(ctx context.Context, q apiclient.OrderQuery) (*apiclient.OrdersResponse, error)
}

type Publisher interface {
	Publish(ctx context.Context, kind notify.Kind, key string, data map[string]any) notify.Event
}

// Watcher polls the first page of waiting orders and raises one notice per
// order it has never observed before. The newest announced id lives under
// storage.KeyLastOrderID and the observed ids under storage.KeyOrderWatermark,
// so an order leaving the waiting list never makes older ones look new.
type Watcher struct {
	api      OrderLister
	kv       storage.Store
	pub      Publisher
	sink     notice.Sink
	interval time.Duration
	log      *slog.Logger

	busy atomic.Bool
}

func NewWatcher(api OrderLister, kv storage.Store, pub Publisher, sink notice.Sink, interval time.Duration, l *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if l == nil {
		l = slog.Default()
	}
	if sink == nil {
		sink = notice.LogSink{Log: l}
	}
	return &Watcher{api: api, kv: kv, pub: pub, sink: sink, interval: interval, log: l.With("component", "order_watcher")}
}

// Run polls until ctx is done. A tick that fires while the previous poll
// is still running is skipped.
func (w *Watcher) Run(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			go func() {
				if _, err := w.Check(ctx); err != nil && !errors.Is(err, ErrPollInFlight) {
					w.log.Debug("order_poll_error", "error", err)
				}
			}()
		}
	}
}

// Check performs one poll and returns the ids it announced, newest first.
func (w *Watcher) Check(ctx context.Context) ([]string, error) {
	if !w.busy.CompareAndSwap(false, true) {
		return nil, ErrPollInFlight
	}
	defer w.busy.Store(false)

	res, err := w.api.Orders(ctx, apiclient.OrderQuery{Status: string(StatusWaiting), Page: 1})
	if err != nil {
		return nil, fmt.Errorf("poll waiting orders: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lastSeen, _, err := w.kv.Get(ctx, storage.KeyLastOrderID)
	if err != nil {
		return nil, fmt.Errorf("read last seen order: %w", err)
	}
	mark, err := w.readWatermark(ctx)
	if err != nil {
		return nil, err
	}

	fresh := mark.newSince(res.Orders, lastSeen)
	mark.observe(res.Orders)
	if err := w.writeWatermark(ctx, mark); err != nil {
		return nil, err
	}
	if len(fresh) == 0 {
		return nil, nil
	}
	if err := w.kv.Set(ctx, storage.KeyLastOrderID, fresh[0]); err != nil {
		return nil, fmt.Errorf("store last seen order: %w", err)
	}

	for _, id := range fresh {
		metrics.NewOrderNotices.Inc()
		w.sink.Notify(ctx, notice.Info(fmt.Sprintf("Có đơn hàng mới với mã đơn hàng %s", id)))
		if w.pub != nil {
			w.pub.Publish(ctx, notify.KindNewOrder, storage.KeyLastOrderID, map[string]any{"order_id": id})
		}
	}
	w.log.Info("new_orders", "count", len(fresh), "newest", fresh[0])
	return fresh, nil
}

func (w *Watcher) readWatermark(ctx context.Context) (*watermark, error) {
	raw, ok, err := w.kv.Get(ctx, storage.KeyOrderWatermark)
	if err != nil {
		return nil, fmt.Errorf("read order watermark: %w", err)
	}
	m := &watermark{}
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), m); err != nil {
			w.log.Warn("order_watermark_corrupt", "error", err)
			m = &watermark{}
		}
	}
	return m, nil
}

func (w *Watcher) writeWatermark(ctx context.Context, m *watermark) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode order watermark: %w", err)
	}
	if err := w.kv.Set(ctx, storage.KeyOrderWatermark, string(data)); err != nil {
		return fmt.Errorf("store order watermark: %w", err)
	}
	return nil
}

const maxSeenOrders = 200

// watermark holds the ids already observed on the waiting list, newest
// first. Placement dates are not compared since the backend may send them
// with day precision only.
type watermark struct {
	Seen []string `json:"seen"`
}

func (m *watermark) seen(id string) bool {
	for _, s := range m.Seen {
		if s == id {
			return true
		}
	}
	return false
}

// newSince lists the waiting orders on a newest-first page that were never
// observed before. The walk stops at lastSeen. With no prior state only the
// newest order counts as new.
func (m *watermark) newSince(orders []apiclient.Order, lastSeen string) []string {
	first := len(m.Seen) == 0 && lastSeen == ""
	var out []string
	for _, o := range orders {
		if o.ID == "" || o.ID == lastSeen {
			break
		}
		if o.Status != string(StatusWaiting) || m.seen(o.ID) {
			continue
		}
		out = append(out, o.ID)
		if first {
			break
		}
	}
	return out
}

// observe records every id on the page, keeping the newest maxSeenOrders.
func (m *watermark) observe(orders []apiclient.Order) {
	ids := make([]string, 0, len(orders)+len(m.Seen))
	for _, o := range orders {
		if o.ID == "" || m.seen(o.ID) {
			continue
		}
		ids = append(ids, o.ID)
	}
	ids = append(ids, m.Seen...)
	if len(ids) > maxSeenOrders {
		ids = ids[:maxSeenOrders]
	}
	m.Seen = ids
}
