package widget

import "sync"

// Element is a container node such as a div.
type Element struct {
	id    string
	tag   string
	attrs attrSet

	mu       sync.RWMutex
	children []Node
}

// ID returns the element id.
func (e *Element) ID() string { return e.id }

// Tag returns the markup tag of the element.
func (e *Element) Tag() string { return e.tag }

// Attrs returns the element attributes without the id.
func (e *Element) Attrs() []Attr {
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// Children returns a copy of the child list.
func (e *Element) Children() []Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Node, len(e.children))
	copy(out, e.children)
	return out
}

// SetChildren replaces all children.
func (e *Element) SetChildren(children ...Node) {
	e.mu.Lock()
	e.children = compact(children)
	e.mu.Unlock()
}

// Append adds children at the end.
func (e *Element) Append(children ...Node) {
	e.mu.Lock()
	e.children = append(e.children, compact(children)...)
	e.mu.Unlock()
}

func compact(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
