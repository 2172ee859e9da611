package dispatch

import "context"

// Kind is the kind of a UI event.
type Kind string

const (
	// Click is a pointer activation of a widget.
	Click Kind = "click"

	// Input is a value change of an input widget.
	Input Kind = "input"
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is a kind the runtime understands.
func (k Kind) Valid() bool {
	switch k {
	case Click, Input:
		return true
	default:
		return false
	}
}

// Event is one inbound UI event.
type Event struct {
	// WidgetID is the id of the target widget.
	WidgetID string

	// Kind is the event kind.
	Kind Kind

	// Value carries the new value for Input events.
	Value string
}

// Handler handles one event. A returned error is logged; it never reaches
// the client.
type Handler func(ctx context.Context, ev Event) error

// key is the registry key for a binding.
type key struct {
	id   string
	kind Kind
}
