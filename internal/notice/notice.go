// Package notice carries transient user-visible messages, the storefront's
// equivalent of a toast.
package notice

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Variant string

const (
	Default     Variant = "default"
	Success     Variant = "success"
	Destructive Variant = "destructive"
)

const (
	ShortDuration = 3 * time.Second
	LongDuration  = 5 * time.Second
)

type Notice struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Variant     Variant       `json:"variant"`
	Duration    time.Duration `json:"duration"`
}

func Error(description string) Notice {
	return Notice{Title: "Error", Description: description, Variant: Destructive, Duration: ShortDuration}
}

func Info(description string) Notice {
	return Notice{Title: "Thông báo", Description: description, Variant: Success, Duration: LongDuration}
}

func Done(description string) Notice {
	return Notice{Title: "Thành công!", Description: description, Variant: Success, Duration: ShortDuration}
}

type Sink interface {
	Notify(ctx context.Context, n Notice)
}

type SinkFunc func(ctx context.Context, n Notice)

func (f SinkFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Notify(_ context.Context, n Notice) {
	l := s.Log
	if l == nil {
		l = slog.Default()
	}
	if n.Variant == Destructive {
		l.Warn("notice", "title", n.Title, "description", n.Description)
		return
	}
	l.Info("notice", "title", n.Title, "description", n.Description)
}

type multi []Sink

func (m multi) Notify(ctx context.Context, n Notice) {
	for _, s := range m {
		s.Notify(ctx, n)
	}
}

func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

// Recorder keeps the most recent notices, newest last.
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []Notice
}

func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 50
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if len(r.items) > r.limit {
		r.items = r.items[len(r.items)-r.limit:]
	}
}

func (r *Recorder) All() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.items))
	copy(out, r.items)
	return out
}
