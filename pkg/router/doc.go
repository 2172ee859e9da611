// Package router maps navigation paths to page handlers.
//
//	r := router.New()
//	r.Register("/", home)
//	r.Register("/about/", about) // stored as "/about"
//
//	if h, ok := r.Get("about"); ok {
//	    page, err := h(ctx)
//	}
//
// Paths are canonicalized before they are stored or looked up: a leading
// slash is added, repeated slashes and "." segments are collapsed, ".."
// is resolved and a trailing slash is dropped (except for the root).
package router
