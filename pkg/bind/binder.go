// Package bind wires a widget tree to the runtime: dynamic nodes are
// subscribed to the cells they declare, interactive nodes get their handlers
// registered with the dispatcher.
//
// Bind is idempotent. It is always given the full live tree; nodes already
// bound are left alone and nodes that disappeared since the previous pass
// are unbound, so running it again after a navigation never duplicates a
// subscription or a handler.
package bind

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/tau-dev/tau/pkg/dispatch"
	"github.com/tau-dev/tau/pkg/protocol"
	"github.com/tau-dev/tau/pkg/reactive"
	"github.com/tau-dev/tau/pkg/widget"
)

// Emitter receives the update messages produced by cell changes.
type Emitter func(protocol.Message)

type subscription struct {
	obs reactive.Observable
	tok reactive.Token
}

type binding struct {
	node  widget.Node
	subs  []subscription
	kinds []dispatch.Kind
}

// Binder holds the bindings of one live tree.
type Binder struct {
	dispatcher *dispatch.Dispatcher
	emit       Emitter
	logger     *slog.Logger

	mu    sync.Mutex
	bound map[string]*binding
}

// New creates a Binder registering handlers on d and sending updates to
// emit. logger is optional.
func New(d *dispatch.Dispatcher, emit Emitter, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default().With("component", "bind")
	}
	if emit == nil {
		emit = func(protocol.Message) {}
	}
	return &Binder{
		dispatcher: d,
		emit:       emit,
		logger:     logger,
		bound:      make(map[string]*binding),
	}
}

// Bind walks root depth first and wires every node not yet bound. Bindings
// of nodes no longer reachable from root are removed.
func (b *Binder) Bind(root widget.Node) {
	b.mu.Lock()
	defer b.mu.Unlock()

	live := make(map[string]struct{})
	widget.Walk(root, func(n widget.Node) bool {
		id := n.ID()
		live[id] = struct{}{}

		if existing, ok := b.bound[id]; ok {
			if existing.node == n {
				return true
			}
			// Same id, new node: the old one was replaced.
			b.unbindLocked(id, existing)
		}
		b.bindLocked(n)
		return true
	})

	for id, bnd := range b.bound {
		if _, ok := live[id]; !ok {
			b.unbindLocked(id, bnd)
		}
	}
}

// Reset removes every binding.
func (b *Binder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, bnd := range b.bound {
		b.unbindLocked(id, bnd)
	}
}

// Bound returns the sorted ids of bound nodes.
func (b *Binder) Bound() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]string, 0, len(b.bound))
	for id := range b.bound {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsBound reports whether the node with id is bound.
func (b *Binder) IsBound(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.bound[id]
	return ok
}

func (b *Binder) bindLocked(n widget.Node) {
	bnd := &binding{node: n}

	if d, ok := n.(widget.Dynamic); ok {
		seen := make(map[uint64]struct{})
		for _, dep := range d.Deps() {
			if dep == nil {
				continue
			}
			if _, dup := seen[dep.ID()]; dup {
				continue
			}
			seen[dep.ID()] = struct{}{}

			tok := dep.Observe(b.updater(d))
			bnd.subs = append(bnd.subs, subscription{obs: dep, tok: tok})
		}
	}

	if in, ok := n.(widget.Interactive); ok && b.dispatcher != nil {
		for _, hb := range in.Bindings() {
			b.dispatcher.Register(n.ID(), hb.Kind, hb.Handler)
			bnd.kinds = append(bnd.kinds, hb.Kind)
		}
	}

	b.bound[n.ID()] = bnd
}

func (b *Binder) unbindLocked(id string, bnd *binding) {
	for _, s := range bnd.subs {
		s.obs.Unobserve(s.tok)
	}
	if b.dispatcher != nil {
		for _, k := range bnd.kinds {
			b.dispatcher.Unregister(id, k)
		}
	}
	delete(b.bound, id)
}

// updater returns the subscriber that re-evaluates d and emits its value.
func (b *Binder) updater(d widget.Dynamic) func() {
	_, isInput := d.(*widget.Input)
	return func() {
		value, err := widget.SafeEval(d)
		if err != nil {
			b.logger.Error("evaluate dynamic node", "widget_id", d.ID(), "error", err)
			return
		}
		if isInput {
			b.emit(protocol.UpdateInput{ID: d.ID(), Value: value})
			return
		}
		b.emit(protocol.UpdateText{ID: d.ID(), Value: value})
	}
}
