package render

import (
	_ "embed"
	"fmt"
	"io"
)

//go:embed client.js
var clientScript string

// ClientScript returns the browser runtime served with every page.
func ClientScript() string {
	return clientScript
}

// PageData describes the index document.
type PageData struct {
	// Title is the document title.
	Title string

	// Theme is the initial data-theme of the document.
	Theme string

	// Body is the rendered widget tree.
	Body string

	// WebSocketPath is the path the client connects to (default: "/_tau/ws").
	WebSocketPath string
}

// WritePage writes a full HTML document to w.
func WritePage(w io.Writer, p PageData) error {
	if p.WebSocketPath == "" {
		p.WebSocketPath = "/_tau/ws"
	}
	if p.Theme == "" {
		p.Theme = "light"
	}

	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en" data-theme="%s" data-tau-ws="%s">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body>
%s
<script>%s</script>
</body>
</html>
`, escapeAttr(p.Theme), escapeAttr(p.WebSocketPath), escapeHTML(p.Title), p.Body, clientScript)
	return err
}
