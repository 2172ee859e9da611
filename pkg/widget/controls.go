package widget

import (
	"context"

	"github.com/tau-dev/tau/pkg/dispatch"
	"github.com/tau-dev/tau/pkg/reactive"
)

// Button is a clickable node with a static label.
type Button struct {
	id      string
	label   string
	attrs   attrSet
	onClick dispatch.Handler
}

// ID returns the node id.
func (b *Button) ID() string { return b.id }

// Children returns nil.
func (b *Button) Children() []Node { return nil }

// Label returns the button text.
func (b *Button) Label() string { return b.label }

// Attrs returns the button attributes without the id.
func (b *Button) Attrs() []Attr {
	out := make([]Attr, len(b.attrs))
	copy(out, b.attrs)
	return out
}

// Bindings returns the click handler, if any.
func (b *Button) Bindings() []Binding {
	if b.onClick == nil {
		return nil
	}
	return []Binding{{Kind: dispatch.Click, Handler: b.onClick}}
}

// Input is a text input. Its value can be bound to cells, in which case a
// change is pushed to clients as update_input.
type Input struct {
	id      string
	attrs   attrSet
	value   func() string
	deps    []reactive.Observable
	onInput dispatch.Handler
}

// ID returns the node id.
func (i *Input) ID() string { return i.id }

// Children returns nil.
func (i *Input) Children() []Node { return nil }

// Placeholder returns the placeholder text.
func (i *Input) Placeholder() string { return i.attrs.get("placeholder") }

// Attrs returns the input attributes without the id.
func (i *Input) Attrs() []Attr {
	out := make([]Attr, len(i.attrs))
	copy(out, i.attrs)
	return out
}

// Deps returns the cells the value depends on.
func (i *Input) Deps() []reactive.Observable {
	if i.value == nil {
		return nil
	}
	return i.deps
}

// Eval returns the current value.
func (i *Input) Eval() string {
	if i.value == nil {
		return ""
	}
	return i.value()
}

// Bindings returns the input handler, if any.
func (i *Input) Bindings() []Binding {
	if i.onInput == nil {
		return nil
	}
	return []Binding{{Kind: dispatch.Input, Handler: i.onInput}}
}

// bindCell wires an input to a string cell in both directions.
func (i *Input) bindCell(cell *reactive.Cell[string]) {
	i.value = cell.Get
	i.deps = []reactive.Observable{cell}
	next := i.onInput
	i.onInput = func(ctx context.Context, ev dispatch.Event) error {
		cell.Set(ev.Value)
		if next != nil {
			return next(ctx, ev)
		}
		return nil
	}
}
