package widget

import (
	"github.com/tau-dev/tau/pkg/dispatch"
	"github.com/tau-dev/tau/pkg/reactive"
)

// Factory creates nodes with ids from its allocator.
type Factory struct {
	ids IDAllocator
}

// NewFactory creates a factory. A nil allocator uses a counter allocator.
func NewFactory(ids IDAllocator) *Factory {
	if ids == nil {
		ids = NewCounterAllocator("tau")
	}
	return &Factory{ids: ids}
}

// IDs returns the allocator of the factory.
func (f *Factory) IDs() IDAllocator {
	return f.ids
}

// split sorts builder arguments into attributes, children and dependencies.
// Arguments can be: nil, Attr, []Attr, Node, []Node, string (a static text
// child) or reactive.Observable.
func (f *Factory) split(args []any) (id string, attrs attrSet, children []Node, deps []reactive.Observable) {
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			if v.Key == "id" {
				id = v.Value
				continue
			}
			attrs.set(v)
		case []Attr:
			for _, a := range v {
				if a.Key == "id" {
					id = a.Value
					continue
				}
				attrs.set(a)
			}
		case Node:
			children = append(children, v)
		case []Node:
			children = append(children, compact(v)...)
		case string:
			children = append(children, f.Text(v))
		case reactive.Observable:
			deps = append(deps, v)
		}
	}
	if id == "" {
		id = f.ids.Next()
	}
	return id, attrs, children, deps
}

// Element creates a container with the given tag.
func (f *Factory) Element(tag string, args ...any) *Element {
	id, attrs, children, _ := f.split(args)
	return &Element{id: id, tag: tag, attrs: attrs, children: children}
}

// Div creates a div container.
func (f *Factory) Div(args ...any) *Element {
	return f.Element("div", args...)
}

// VStack lays children out in a column.
func (f *Factory) VStack(args ...any) *Element {
	return f.Element("div", append([]any{Class("tau-vstack"), Style("display:flex;flex-direction:column;gap:8px")}, args...)...)
}

// HStack lays children out in a row.
func (f *Factory) HStack(args ...any) *Element {
	return f.Element("div", append([]any{Class("tau-hstack"), Style("display:flex;flex-direction:row;gap:8px")}, args...)...)
}

// Container wraps children with padding.
func (f *Factory) Container(args ...any) *Element {
	return f.Element("div", append([]any{Class("tau-container"), Style("padding:16px")}, args...)...)
}

// Text creates a static text node.
func (f *Factory) Text(s string, args ...any) *Text {
	id, attrs, _, _ := f.split(args)
	return &Text{id: id, attrs: attrs, static: s}
}

// TextFunc creates a text node computed by fn. Arguments can be the cells
// fn reads (reactive.Observable) and attributes. Without dependencies the
// text is rendered once and never updated.
func (f *Factory) TextFunc(fn func() string, args ...any) *Text {
	id, attrs, _, deps := f.split(args)
	return &Text{id: id, attrs: attrs, fn: fn, deps: deps}
}

// Button creates a button with a click handler.
func (f *Factory) Button(label string, onClick dispatch.Handler, args ...any) *Button {
	id, attrs, _, _ := f.split(args)
	return &Button{id: id, label: label, attrs: attrs, onClick: onClick}
}

// Input creates a text input with an input handler.
func (f *Factory) Input(onInput dispatch.Handler, args ...any) *Input {
	id, attrs, _, _ := f.split(args)
	return &Input{id: id, attrs: attrs, onInput: onInput}
}

// InputFunc creates an input whose value is computed by fn from the given
// cells.
func (f *Factory) InputFunc(fn func() string, onInput dispatch.Handler, args ...any) *Input {
	id, attrs, _, deps := f.split(args)
	return &Input{id: id, attrs: attrs, value: fn, deps: deps, onInput: onInput}
}

// BoundInput creates an input two-way bound to cell: typing writes the
// cell and writes to the cell update the input on every client.
func (f *Factory) BoundInput(cell *reactive.Cell[string], args ...any) *Input {
	in := f.Input(nil, args...)
	in.bindCell(cell)
	return in
}
