package hub

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
)

// ConnectHook runs for every accepted connection before its read loop starts.
type ConnectHook func(ctx context.Context, c Conn)

// HandlerOptions configures the websocket endpoint.
type HandlerOptions struct {
	// CheckOrigin validates the Origin header. Nil allows all origins, which
	// suits a local desktop window.
	CheckOrigin func(r *http.Request) bool

	// OnConnect hooks run in order for each new connection.
	OnConnect []ConnectHook
}

type wsHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	hooks    []ConnectHook
}

// NewHandler returns an http.Handler that upgrades requests to websockets
// and serves them on h.
func NewHandler(h *Hub, opts HandlerOptions) http.Handler {
	check := opts.CheckOrigin
	if check == nil {
		check = func(*http.Request) bool { return true }
	}
	return &wsHandler{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     check,
		},
		hooks: opts.OnConnect,
	}
}

func (wh *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := wh.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wh.hub.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	conn := NewWebSocketConn(ws)
	if err := wh.hub.Accept(conn); err != nil {
		return
	}

	ctx := r.Context()
	for _, hook := range wh.hooks {
		hook(ctx, conn)
	}

	wh.hub.Serve(ctx, conn)
}
