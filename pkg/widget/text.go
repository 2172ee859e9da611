package widget

import (
	"fmt"

	"github.com/tau-dev/tau/pkg/reactive"
)

// Text is a text node. It is static unless created with a value function
// and at least one dependency.
type Text struct {
	id    string
	attrs attrSet

	static string
	fn     func() string
	deps   []reactive.Observable
}

// ID returns the node id.
func (t *Text) ID() string { return t.id }

// Children returns nil; text nodes are leaves.
func (t *Text) Children() []Node { return nil }

// Attrs returns the attributes of the wrapping element.
func (t *Text) Attrs() []Attr {
	out := make([]Attr, len(t.attrs))
	copy(out, t.attrs)
	return out
}

// Deps returns the declared dependencies.
func (t *Text) Deps() []reactive.Observable {
	if t.fn == nil {
		return nil
	}
	return t.deps
}

// Eval returns the current text. A panicking value function is reported as
// an error by SafeEval; Eval lets the panic through.
func (t *Text) Eval() string {
	if t.fn == nil {
		return t.static
	}
	return t.fn()
}

// SafeEval evaluates d and converts a panic into an error.
func SafeEval(d Dynamic) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluating %s: %v", d.ID(), r)
		}
	}()
	return d.Eval(), nil
}
