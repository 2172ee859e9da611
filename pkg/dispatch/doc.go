// Package dispatch routes inbound UI events to application handlers.
//
// A Dispatcher maps a (widget id, event kind) pair to exactly one Handler.
// Registering the same pair again replaces the previous handler.
//
// Dispatch never fails from the caller's point of view: an event with no
// registered handler is dropped, and a handler that returns an error or
// panics is logged and counted while the caller carries on.
//
//	d := dispatch.New(nil, nil)
//	d.Register("tau_1", dispatch.Click, func(ctx context.Context, ev dispatch.Event) error {
//	    count.Update(func(n int) int { return n + 1 })
//	    return nil
//	})
//	d.Dispatch(ctx, dispatch.Event{WidgetID: "tau_1", Kind: dispatch.Click})
package dispatch
