// Package hub keeps the set of connected clients, decodes their events and
// fans server messages out to all of them.
//
// Broadcast delivers to every connection independently, in the order the
// connections were accepted. A connection whose send fails is closed and
// removed; the remaining connections still receive the message:
//
//	h := hub.New(hub.WithDispatch(d.Dispatch))
//	http.Handle("/_tau/ws", hub.NewHandler(h, hub.HandlerOptions{}))
//	...
//	h.Broadcast(ctx, protocol.SetTheme{Theme: "dark"})
package hub
