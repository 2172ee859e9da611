package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/tau-dev/tau/internal/errors"
	"github.com/tau-dev/tau/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Dispatcher holds event bindings and invokes them.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[key]Handler

	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// New creates a Dispatcher. Both arguments are optional.
func New(logger *slog.Logger, metrics *telemetry.Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.Default().With("component", "dispatch")
	}
	return &Dispatcher{
		handlers: make(map[key]Handler),
		logger:   logger,
		metrics:  metrics,
	}
}

// Register binds h to (id, kind). An existing binding is replaced.
// A nil handler removes the binding.
func (d *Dispatcher) Register(id string, kind Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if h == nil {
		delete(d.handlers, key{id, kind})
		return
	}
	d.handlers[key{id, kind}] = h
}

// Unregister removes the binding for (id, kind).
func (d *Dispatcher) Unregister(id string, kind Kind) {
	d.mu.Lock()
	delete(d.handlers, key{id, kind})
	d.mu.Unlock()
}

// UnregisterAll removes every binding of id.
func (d *Dispatcher) UnregisterAll(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k := range d.handlers {
		if k.id == id {
			delete(d.handlers, k)
		}
	}
}

// Has reports whether (id, kind) is bound.
func (d *Dispatcher) Has(id string, kind Kind) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[key{id, kind}]
	return ok
}

// Len returns the number of bindings.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}

// IDs returns the sorted set of widget ids that have at least one binding.
func (d *Dispatcher) IDs() []string {
	d.mu.RLock()
	seen := make(map[string]struct{}, len(d.handlers))
	for k := range d.handlers {
		seen[k.id] = struct{}{}
	}
	d.mu.RUnlock()

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dispatch invokes the handler bound to the event's (id, kind). Missing
// bindings are a silent no-op. Handler errors and panics are logged and
// swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	d.mu.RLock()
	h, ok := d.handlers[key{ev.WidgetID, ev.Kind}]
	d.mu.RUnlock()

	if !ok {
		d.logger.Debug("no handler", "widget_id", ev.WidgetID, "kind", ev.Kind)
		d.metrics.RecordEvent(ev.Kind.String(), "unhandled", 0)
		return
	}

	ctx, span := telemetry.StartSpan(ctx, "dispatch",
		attribute.String("tau.widget_id", ev.WidgetID),
		attribute.String("tau.event_kind", ev.Kind.String()),
	)

	start := time.Now()
	err := d.safeExecute(ctx, h, ev)
	elapsed := time.Since(start)

	telemetry.EndSpan(span, err)

	if err != nil {
		d.metrics.RecordEvent(ev.Kind.String(), "error", elapsed)
		return
	}
	d.metrics.RecordEvent(ev.Kind.String(), "ok", elapsed)
}

// safeExecute runs a handler with panic recovery.
func (d *Dispatcher) safeExecute(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			d.logger.Error("handler panic",
				"panic", r,
				"widget_id", ev.WidgetID,
				"kind", ev.Kind,
				"stack", string(stack))

			d.metrics.RecordHandlerError(ev.Kind.String(), "panic")
			err = errors.NewHandlerError(ev.WidgetID, ev.Kind.String(), fmt.Errorf("panic: %v", r))
		}
	}()

	if herr := h(ctx, ev); herr != nil {
		d.logger.Error("handler error",
			"widget_id", ev.WidgetID,
			"kind", ev.Kind,
			"error", herr)

		d.metrics.RecordHandlerError(ev.Kind.String(), "error")
		return errors.NewHandlerError(ev.WidgetID, ev.Kind.String(), herr)
	}
	return nil
}
