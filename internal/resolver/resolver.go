// Package resolver walks a paginated option source until the caller's
// current value shows up, so a dropdown can display its label.
//
// Walks are strictly sequential. A page is fetched only after the previous
// one was applied. At most max(1, TotalPages) pages are fetched, counted
// from the first page's TotalPages, and no page is fetched twice or after
// the match was found.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Skotchmaster/storefront/internal/metrics"
)

var ErrInFlight = errors.New("resolver: fetch already in flight")

type Page[T any] struct {
	Items       []T
	CurrentPage int
	TotalPages  int
}

type FetchFunc[T any] func(ctx context.Context, page int) (Page[T], error)

type Policy int

const (
	// Replace keeps only the most recently fetched page.
	Replace Policy = iota
	// Accumulate appends every fetched page.
	Accumulate
)

type State int

const (
	Idle State = iota
	Resolved
	Unresolved
	Failed
)

func (s State) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

type Result[T any] struct {
	State       State
	Match       *T
	Items       []T
	CurrentPage int
	TotalPages  int
	Fetches     int
	Err         error
}

type Resolver[T any] struct {
	name   string
	fetch  FetchFunc[T]
	policy Policy
	log    *slog.Logger

	busy atomic.Bool

	mu      sync.Mutex
	items   []T
	current int
	total   int
	state   State
}

func New[T any](name string, fetch FetchFunc[T], policy Policy, l *slog.Logger) *Resolver[T] {
	if l == nil {
		l = slog.Default()
	}
	return &Resolver[T]{
		name:   name,
		fetch:  fetch,
		policy: policy,
		log:    l.With("component", "resolver", "source", name),
	}
}

// Resolve restarts from page 1 and walks forward until match accepts an
// item or the pages run out. A nil match resolves nothing and stops after
// page 1.
func (r *Resolver[T]) Resolve(ctx context.Context, match func(T) bool) (Result[T], error) {
	if !r.busy.CompareAndSwap(false, true) {
		return Result[T]{}, ErrInFlight
	}
	defer r.busy.Store(false)

	r.mu.Lock()
	r.items, r.current, r.total, r.state = nil, 0, 0, Idle
	r.mu.Unlock()

	fetches, limit := 0, 1
	for page := 1; ; page++ {
		p, err := r.load(ctx, page)
		if err != nil {
			return r.finish(Failed, nil, fetches, err), err
		}
		fetches++
		if page == 1 {
			limit = max(1, p.TotalPages)
		}

		if match != nil {
			for i := range p.Items {
				if match(p.Items[i]) {
					found := p.Items[i]
					return r.finish(Resolved, &found, fetches, nil), nil
				}
			}
		}
		if match == nil || page >= limit || page >= p.TotalPages {
			return r.finish(Unresolved, nil, fetches, nil), nil
		}
	}
}

// LoadMore fetches the page after the last one applied. It reports false
// when there is nothing left to fetch.
func (r *Resolver[T]) LoadMore(ctx context.Context) (bool, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return false, ErrInFlight
	}
	defer r.busy.Store(false)

	r.mu.Lock()
	next := r.current + 1
	more := r.current == 0 || r.current < r.total
	r.mu.Unlock()
	if !more {
		return false, nil
	}
	if _, err := r.load(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Resolver[T]) Snapshot() Result[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]T, len(r.items))
	copy(items, r.items)
	return Result[T]{State: r.state, Items: items, CurrentPage: r.current, TotalPages: r.total}
}

func (r *Resolver[T]) HasMore() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current < r.total
}

func (r *Resolver[T]) load(ctx context.Context, page int) (Page[T], error) {
	if err := ctx.Err(); err != nil {
		return Page[T]{}, err
	}
	p, err := r.fetch(ctx, page)
	if err != nil {
		metrics.ResolverFetches.WithLabelValues(r.name, "error").Inc()
		r.log.Warn("resolver_fetch_error", "page", page, "error", err)
		return Page[T]{}, fmt.Errorf("fetch page %d: %w", page, err)
	}
	// the view may be gone by the time the page arrives
	if err := ctx.Err(); err != nil {
		metrics.ResolverFetches.WithLabelValues(r.name, "discarded").Inc()
		return Page[T]{}, err
	}
	metrics.ResolverFetches.WithLabelValues(r.name, "ok").Inc()
	// pages are tracked by what was requested, not by what the server echoes
	p.CurrentPage = page

	r.mu.Lock()
	if r.policy == Accumulate && page > 1 {
		r.items = append(r.items, p.Items...)
	} else {
		r.items = append([]T(nil), p.Items...)
	}
	r.current = p.CurrentPage
	r.total = p.TotalPages
	r.mu.Unlock()
	return p, nil
}

func (r *Resolver[T]) finish(state State, match *T, fetches int, err error) Result[T] {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	res := r.Snapshot()
	res.Match = match
	res.Fetches = fetches
	res.Err = err
	r.log.Debug("resolver_finished", "state", state.String(), "fetches", fetches, "total_pages", res.TotalPages)
	return res
}
