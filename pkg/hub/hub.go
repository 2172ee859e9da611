package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	tauerrors "github.com/tau-dev/tau/internal/errors"
	"github.com/tau-dev/tau/pkg/dispatch"
	"github.com/tau-dev/tau/pkg/protocol"
	"github.com/tau-dev/tau/pkg/telemetry"
)

// ErrStopped is returned by Accept after Stop.
var ErrStopped = errors.New("hub: stopped")

// Conn is one client connection.
type Conn interface {
	// ID returns a stable identifier for logging.
	ID() string

	// Send writes one message frame.
	Send(ctx context.Context, data []byte) error

	// Receive blocks until the next inbound frame arrives.
	Receive(ctx context.Context) ([]byte, error)

	// Close releases the transport. It is safe to call more than once.
	Close() error
}

// DispatchFunc receives decoded client events.
type DispatchFunc func(ctx context.Context, ev dispatch.Event)

// Option configures a Hub.
type Option func(*Hub)

// WithDispatch sets the function decoded events are passed to.
func WithDispatch(fn DispatchFunc) Option {
	return func(h *Hub) {
		h.dispatch = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

// Hub is the connection set.
type Hub struct {
	mu      sync.Mutex
	conns   []Conn
	stopped bool

	dispatch DispatchFunc
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// New creates an empty Hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		logger: slog.Default().With("component", "hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Accept adds c to the set.
func (h *Hub) Accept(c Conn) error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		c.Close()
		return ErrStopped
	}
	h.conns = append(h.conns, c)
	h.mu.Unlock()

	h.metrics.ConnOpened()
	h.logger.Debug("connection accepted", "conn_id", c.ID())
	return nil
}

// Remove drops c from the set. It reports whether c was present.
func (h *Hub) Remove(c Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(c)
}

func (h *Hub) removeLocked(c Conn) bool {
	for i, existing := range h.conns {
		if existing == c {
			h.conns = append(h.conns[:i:i], h.conns[i+1:]...)
			h.metrics.ConnClosed()
			return true
		}
	}
	return false
}

// Len returns the number of connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Conns returns the connections in accept order.
func (h *Hub) Conns() []Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Conn, len(h.conns))
	copy(out, h.conns)
	return out
}

// HandleInbound decodes one frame from c and dispatches it. Undecodable
// frames and unknown event kinds are ignored.
func (h *Hub) HandleInbound(ctx context.Context, c Conn, data []byte) {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		h.logger.Debug("ignoring frame", "conn_id", c.ID(), "error", err)
		h.metrics.RecordInboundDropped("decode")
		return
	}
	if !env.Known() {
		h.logger.Debug("ignoring unknown event", "conn_id", c.ID(), "kind", env.Kind)
		h.metrics.RecordInboundDropped("unknown_kind")
		return
	}
	if h.dispatch == nil {
		return
	}

	ev := dispatch.Event{WidgetID: env.ID, Kind: dispatch.Kind(env.Kind)}
	if ev.Kind == dispatch.Input {
		ev.Value = env.Value
	}
	h.dispatch(ctx, ev)
}

// Broadcast sends msg to every connection in accept order and returns the
// number of successful deliveries. A connection whose send fails is
// removed and closed. Cancelling ctx stops the broadcast; connections are
// never dropped for a cancelled ctx.
func (h *Hub) Broadcast(ctx context.Context, msg protocol.Message) int {
	if err := ctx.Err(); err != nil {
		h.logger.Debug("broadcast cancelled", "type", msg.Type(), "error", err)
		return 0
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		h.logger.Error("encode broadcast", "error", err)
		return 0
	}
	h.metrics.RecordBroadcast(msg.Type())

	delivered := 0
	for _, c := range h.Conns() {
		if err := c.Send(ctx, data); err != nil {
			if cerr := ctx.Err(); cerr != nil && errors.Is(err, cerr) {
				h.logger.Debug("broadcast cancelled", "type", msg.Type(), "delivered", delivered)
				return delivered
			}
			derr := tauerrors.NewDeliveryError(c.ID(), err)
			h.logger.Warn("dropping connection", "conn_id", c.ID(), "error", derr)
			h.metrics.RecordDeliveryFailure()
			if h.Remove(c) {
				c.Close()
			}
			continue
		}
		delivered++
	}
	return delivered
}

// Serve reads frames from c until the transport fails or ctx is done, then
// removes c.
func (h *Hub) Serve(ctx context.Context, c Conn) {
	defer func() {
		if h.Remove(c) {
			h.logger.Debug("connection closed", "conn_id", c.ID())
		}
		c.Close()
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		data, err := c.Receive(ctx)
		if err != nil {
			return
		}
		h.HandleInbound(ctx, c, data)
	}
}

// Stop closes and removes every connection. New connections are refused.
// Calling Stop again is a no-op.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	conns := h.conns
	h.conns = nil
	h.mu.Unlock()

	for _, c := range conns {
		h.metrics.ConnClosed()
		c.Close()
	}
}

// Stopped reports whether Stop has been called.
func (h *Hub) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}
