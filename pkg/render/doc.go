// Package render turns a widget tree into HTML.
//
// The runtime only depends on the Renderer interface; HTMLRenderer is the
// minimal default. Every widget is rendered with its id as the element id
// and as data-component-id, which is how the client script addresses
// updates and reports events:
//
//	r := render.NewHTMLRenderer()
//	html, err := r.Render(root)
//
// Page wraps a rendered tree into a full document with the embedded client
// script that connects back to the runtime's websocket endpoint.
package render
