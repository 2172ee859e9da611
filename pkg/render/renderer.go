package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/tau-dev/tau/pkg/widget"
)

// Renderer turns a widget subtree into markup.
type Renderer interface {
	Render(n widget.Node) (string, error)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(n widget.Node) (string, error)

// Render calls f(n).
func (f RenderFunc) Render(n widget.Node) (string, error) { return f(n) }

// HTMLRenderer is the default renderer.
type HTMLRenderer struct{}

// NewHTMLRenderer creates the default renderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

// Render renders n to HTML. A panicking value function is reported as an
// error instead of crashing the caller.
func (r *HTMLRenderer) Render(n widget.Node) (html string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render: %v", rec)
		}
	}()

	var b strings.Builder
	if err := r.RenderTo(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderChildren renders the children of n without n itself.
func (r *HTMLRenderer) RenderChildren(n widget.Node) (string, error) {
	var b strings.Builder
	for _, c := range n.Children() {
		html, err := r.Render(c)
		if err != nil {
			return "", err
		}
		b.WriteString(html)
	}
	return b.String(), nil
}

// RenderTo streams n to w.
func (r *HTMLRenderer) RenderTo(w io.Writer, n widget.Node) error {
	if n == nil {
		return nil
	}

	switch v := n.(type) {
	case *widget.Element:
		openTag(w, v.Tag(), v.ID(), v.Attrs())
		for _, c := range v.Children() {
			if err := r.RenderTo(w, c); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "</%s>", v.Tag())
		return err

	case *widget.Text:
		openTag(w, "span", v.ID(), withClass(v.Attrs(), "text"))
		io.WriteString(w, escapeHTML(v.Eval()))
		_, err := io.WriteString(w, "</span>")
		return err

	case *widget.Button:
		openTag(w, "button", v.ID(), withClass(v.Attrs(), "btn"))
		io.WriteString(w, escapeHTML(v.Label()))
		_, err := io.WriteString(w, "</button>")
		return err

	case *widget.Input:
		attrs := withClass(v.Attrs(), "input")
		attrs = append(attrs, widget.Attr{Key: "value", Value: v.Eval()})
		openTag(w, "input", v.ID(), attrs)
		return nil

	default:
		return fmt.Errorf("render: unsupported node %T", n)
	}
}

// openTag writes "<tag id=... data-component-id=... attrs>".
func openTag(w io.Writer, tag, id string, attrs []widget.Attr) {
	fmt.Fprintf(w, `<%s id="%s" data-component-id="%s"`, tag, escapeAttr(id), escapeAttr(id))
	for _, a := range attrs {
		if !validAttrName(a.Key) {
			continue
		}
		fmt.Fprintf(w, ` %s="%s"`, a.Key, escapeAttr(a.Value))
	}
	io.WriteString(w, ">")
}

// withClass prepends class to the class attribute.
func withClass(attrs []widget.Attr, class string) []widget.Attr {
	for i := range attrs {
		if attrs[i].Key == "class" {
			attrs[i].Value = class + " " + attrs[i].Value
			return attrs
		}
	}
	return append([]widget.Attr{{Key: "class", Value: class}}, attrs...)
}
