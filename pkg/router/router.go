package router

import (
	"context"
	"sort"
	"sync"

	"github.com/tau-dev/tau/pkg/widget"
)

// Handler builds the page shown for a path.
type Handler func(ctx context.Context) (widget.Node, error)

// Router is a path to Handler registry.
type Router struct {
	mu     sync.RWMutex
	routes map[string]Handler
}

// New creates an empty router.
func New() *Router {
	return &Router{routes: make(map[string]Handler)}
}

// Register binds h to path, replacing any previous handler.
func (r *Router) Register(path string, h Handler) error {
	p, err := Canonicalize(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h == nil {
		delete(r.routes, p)
		return nil
	}
	r.routes[p] = h
	return nil
}

// Get returns the handler for path.
func (r *Router) Get(path string) (Handler, bool) {
	p, err := Canonicalize(path)
	if err != nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.routes[p]
	return h, ok
}

// Paths returns the registered paths, sorted.
func (r *Router) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of routes.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}
