package widget

import (
	"strings"

	"github.com/tau-dev/tau/pkg/dispatch"
	"github.com/tau-dev/tau/pkg/reactive"
)

// Node is one component in the tree.
type Node interface {
	// ID returns the id of the node, unique in the live tree.
	ID() string

	// Children returns the direct children in order.
	Children() []Node
}

// Dynamic is a node whose content is derived from cells.
type Dynamic interface {
	Node

	// Deps returns the cells the content depends on. An empty list means
	// the node is static.
	Deps() []reactive.Observable

	// Eval computes the current content.
	Eval() string
}

// Binding is one event handler of an interactive node.
type Binding struct {
	Kind    dispatch.Kind
	Handler dispatch.Handler
}

// Interactive is a node that handles UI events.
type Interactive interface {
	Node

	// Bindings returns the handlers of the node.
	Bindings() []Binding
}

// Attr is one markup attribute.
type Attr struct {
	Key   string
	Value string
}

// IsEmpty returns true if this is an empty attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// ID overrides the allocated id of a node.
func ID(id string) Attr { return Attr{Key: "id", Value: id} }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return Attr{Key: "class", Value: strings.Join(classes, " ")} }

// Style sets the style attribute.
func Style(style string) Attr { return Attr{Key: "style", Value: style} }

// Placeholder sets the placeholder of an input.
func Placeholder(text string) Attr { return Attr{Key: "placeholder", Value: text} }

// Data creates a data-* attribute.
func Data(key, value string) Attr { return Attr{Key: "data-" + key, Value: value} }

// attrSet holds the attributes of a node in insertion order.
type attrSet []Attr

func (s *attrSet) set(a Attr) {
	if a.IsEmpty() {
		return
	}
	for i := range *s {
		if (*s)[i].Key == a.Key {
			if a.Key == "class" {
				(*s)[i].Value += " " + a.Value
			} else {
				(*s)[i].Value = a.Value
			}
			return
		}
	}
	*s = append(*s, a)
}

func (s attrSet) get(key string) string {
	for _, a := range s {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// Walk visits n and its descendants depth first, parents before children.
// Returning false from fn skips the children of that node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Find returns the node with the given id under root.
func Find(root Node, id string) Node {
	var found Node
	Walk(root, func(n Node) bool {
		if found != nil {
			return false
		}
		if n.ID() == id {
			found = n
			return false
		}
		return true
	})
	return found
}
