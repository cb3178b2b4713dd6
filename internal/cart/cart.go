package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/storage"
)

var ErrValidation = errors.New("validation")

type Publisher interface {
	Publish(ctx context.Context, kind notify.Kind, key string, data map[string]any) notify.Event
}

type addMode int

const (
	// quick add from a product card: repeats add exactly one
	addQuick addMode = iota
	// add from the detail page with an explicit quantity picker
	addExplicit
)

// Store is the durable cart of one browser profile. Every mutation is a
// read-modify-write of the whole envelope under mu; the cart_changed event
// goes out after mu is released so subscribers may read the cart again.
type Store struct {
	kv  storage.Store
	pub Publisher
	key string
	log *slog.Logger

	mu sync.Mutex
}

func NewStore(kv storage.Store, pub Publisher, l *slog.Logger) *Store {
	if l == nil {
		l = slog.Default()
	}
	return &Store{kv: kv, pub: pub, key: storage.KeyCart, log: l.With("component", "cart")}
}

func (s *Store) Key() string {
	return s.key
}

func (s *Store) QuickAdd(ctx context.Context, p Product) (Line, error) {
	return s.addItem(ctx, p, 1, addQuick)
}

// AddWithQuantity inserts a new line with qty (minimum 1). A product already
// in the cart is incremented by one, the same as a quick add.
func (s *Store) AddWithQuantity(ctx context.Context, p Product, qty int) (Line, error) {
	return s.addItem(ctx, p, qty, addExplicit)
}

func (s *Store) addItem(ctx context.Context, p Product, qty int, mode addMode) (Line, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Line{}, fmt.Errorf("product id required: %w", ErrValidation)
	}
	if p.Price < 0 {
		return Line{}, fmt.Errorf("price must be >= 0: %w", ErrValidation)
	}
	if qty < 1 || mode == addQuick {
		qty = 1
	}

	var line Line
	s.mutate(ctx, "add", func(lines []Line) ([]Line, bool) {
		for i := range lines {
			if lines[i].ProductID == p.ID {
				lines[i].Quantity++
				line = lines[i]
				return lines, true
			}
		}
		line = Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			Image:     p.Image,
		}
		return append(lines, line), true
	})
	return line, nil
}

// UpdateQuantity is a no-op for n < 1 or an unknown product.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, n int) bool {
	if n < 1 {
		return false
	}
	found := false
	s.mutate(ctx, "update", func(lines []Line) ([]Line, bool) {
		for i := range lines {
			if lines[i].ProductID == productID {
				found = true
				if lines[i].Quantity == n {
					return lines, false
				}
				lines[i].Quantity = n
				return lines, true
			}
		}
		return lines, false
	})
	return found
}

// Decrement lowers a line by one and removes it instead of reaching zero.
func (s *Store) Decrement(ctx context.Context, productID string) (removed bool) {
	s.mutate(ctx, "decrement", func(lines []Line) ([]Line, bool) {
		for i := range lines {
			if lines[i].ProductID != productID {
				continue
			}
			if lines[i].Quantity > 1 {
				lines[i].Quantity--
				return lines, true
			}
			removed = true
			return append(lines[:i], lines[i+1:]...), true
		}
		return lines, false
	})
	return removed
}

func (s *Store) RemoveItem(ctx context.Context, productID string) bool {
	removed := false
	s.mutate(ctx, "remove", func(lines []Line) ([]Line, bool) {
		for i := range lines {
			if lines[i].ProductID == productID {
				removed = true
				return append(lines[:i], lines[i+1:]...), true
			}
		}
		return lines, false
	})
	return removed
}

// Clear empties the cart, used after a successful checkout or an explicit reset.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	if err := s.kv.Remove(ctx, s.key); err != nil {
		s.log.Error("cart_clear_error", "error", err)
	}
	s.mu.Unlock()

	metrics.CartMutations.WithLabelValues("clear").Inc()
	s.publish(ctx, nil)
}

func (s *Store) Lines(ctx context.Context) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *Store) Summary(ctx context.Context) Summary {
	return Summarize(s.Lines(ctx))
}

func (s *Store) Count(ctx context.Context) int {
	return s.Summary(ctx).Count
}

func (s *Store) Total(ctx context.Context) int64 {
	return s.Summary(ctx).Total
}

func (s *Store) mutate(ctx context.Context, op string, fn func([]Line) ([]Line, bool)) {
	s.mu.Lock()
	lines, changed := fn(s.read(ctx))
	if changed {
		s.write(ctx, op, lines)
	}
	s.mu.Unlock()

	if changed {
		metrics.CartMutations.WithLabelValues(op).Inc()
		s.publish(ctx, lines)
	}
}

// read never fails: a missing, unreadable or corrupt entry is an empty cart.
func (s *Store) read(ctx context.Context) []Line {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.log.Warn("cart_read_error", "error", err)
		return []Line{}
	}
	if !ok || raw == "" {
		return []Line{}
	}
	lines, err := Decode(raw)
	if err != nil {
		s.log.Warn("cart_decode_error", "error", err)
		if err := s.kv.Set(ctx, s.key, `{"products":[]}`); err != nil {
			s.log.Warn("cart_reset_error", "error", err)
		}
		return []Line{}
	}
	return lines
}

func (s *Store) write(ctx context.Context, op string, lines []Line) {
	data, err := Encode(lines)
	if err != nil {
		s.log.Error("cart_encode_error", "op", op, "error", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.log.Error("cart_write_error", "op", op, "error", err)
	}
}

func (s *Store) publish(ctx context.Context, lines []Line) {
	if s.pub == nil {
		return
	}
	sum := Summarize(lines)
	s.pub.Publish(ctx, notify.KindCartChanged, s.key, map[string]any{
		"count": sum.Count,
		"total": sum.Total,
	})
}

func Encode(lines []Line) (string, error) {
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(envelope{Products: lines})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses the persisted envelope and drops lines that break the cart
// rules (empty id, quantity < 1, repeated product).
func Decode(raw string) ([]Line, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, err
	}
	out := make([]Line, 0, len(env.Products))
	seen := make(map[string]struct{}, len(env.Products))
	for _, l := range env.Products {
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		if _, dup := seen[l.ProductID]; dup {
			continue
		}
		seen[l.ProductID] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}
