// Package tau provides the public API of the tau UI runtime.
//
// A tau app keeps its component tree on the server. Clients render the
// markup they are sent and report clicks and input back over a websocket;
// handlers write to cells and every widget that declared the cell as a
// dependency is updated on every client.
//
// Usage:
//
//	app := tau.New(tau.Config{Title: "Counter"})
//	ui := app.UI()
//
//	count := tau.NewCell(0)
//	app.Route("/", func(ctx context.Context) (tau.Node, error) {
//	    return ui.VStack(
//	        ui.TextFunc(func() string { return fmt.Sprint(count.Get()) }, count),
//	        ui.Button("+1", func(ctx context.Context, ev tau.Event) error {
//	            count.Update(func(v int) int { return v + 1 })
//	            return nil
//	        }),
//	    ), nil
//	})
//
//	if err := app.Run(ctx, nil); err != nil {
//	    log.Fatal(err)
//	}
package tau

import (
	"github.com/tau-dev/tau/internal/dev"
	"github.com/tau-dev/tau/pkg/dispatch"
	"github.com/tau-dev/tau/pkg/reactive"
	"github.com/tau-dev/tau/pkg/router"
	"github.com/tau-dev/tau/pkg/widget"
)

// =============================================================================
// State
// =============================================================================

// Cell is an observable value. See reactive.Cell.
type Cell[T any] = reactive.Cell[T]

// Observable is the type-erased view of a Cell used in dependency lists.
type Observable = reactive.Observable

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return reactive.NewCell(initial)
}

// Batch defers every notification started inside fn until it returns.
func Batch(fn func()) {
	reactive.Batch(fn)
}

// =============================================================================
// Widgets
// =============================================================================

type (
	// Node is a widget in the component tree.
	Node = widget.Node

	// Factory builds widgets with ids owned by one app.
	Factory = widget.Factory

	// Attr is an HTML attribute.
	Attr = widget.Attr
)

// Attribute helpers.
var (
	ID          = widget.ID
	Class       = widget.Class
	Style       = widget.Style
	Placeholder = widget.Placeholder
	Data        = widget.Data
)

// =============================================================================
// Events and routes
// =============================================================================

type (
	// Event is one inbound UI event.
	Event = dispatch.Event

	// EventKind is the kind of an Event.
	EventKind = dispatch.Kind

	// Handler handles a UI event.
	Handler = dispatch.Handler

	// PageHandler builds the page shown for a route.
	PageHandler = router.Handler
)

// Event kinds.
const (
	Click = dispatch.Click
	Input = dispatch.Input
)

// =============================================================================
// Reload supervisor
// =============================================================================

type (
	// ReloadState is a state of the reload supervisor.
	ReloadState = dev.State

	// Transition is one reload supervisor state change.
	Transition = dev.Transition
)

// Reload supervisor states.
const (
	ReloadIdle           = dev.StateIdle
	ReloadWatching       = dev.StateWatching
	ReloadChangeDetected = dev.StateChangeDetected
	ReloadValidating     = dev.StateValidating
	ReloadRestarting     = dev.StateRestarting
	ReloadReportError    = dev.StateReportError
)
