package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

const eventBuffer = 16

type EventsHTTP struct {
	Bus       *notify.Bus
	Heartbeat time.Duration
}

// Stream forwards bus events to a view as server-sent events. A view too
// slow to drain its buffer misses events and is expected to re-read state.
func (h *EventsHTTP) Stream(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "events.stream")

	ch := make(chan notify.Event, eventBuffer)
	unsubscribe := h.Bus.Subscribe(func(_ context.Context, e notify.Event) {
		select {
		case ch <- e:
		default:
			l.Warn("event_dropped", "kind", string(e.Kind))
		}
	})
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	t := time.NewTicker(heartbeat)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case e := <-ch:
			data, err := json.Marshal(e)
			if err != nil {
				l.Error("event_encode_error", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Kind, data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
