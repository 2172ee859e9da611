package reactive

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Token identifies a subscription. It is returned by Subscribe and Observe
// and accepted by Unsubscribe.
type Token uint64

// Observable is the type-erased view of a Cell. Widgets declare their
// dependencies as Observables so the binder can subscribe without knowing
// the value type.
type Observable interface {
	// ID returns the unique identifier of the cell.
	ID() uint64

	// Observe registers fn to run after every value change.
	Observe(fn func()) Token

	// Unobserve removes a subscription created by Observe.
	Unobserve(tok Token)
}

var (
	cellCounter  uint64
	tokenCounter uint64
)

func nextCellID() uint64 {
	return atomic.AddUint64(&cellCounter, 1)
}

func nextToken() Token {
	return Token(atomic.AddUint64(&tokenCounter, 1))
}

type subscriber[T any] struct {
	tok Token
	fn  func(T)
}

// Cell is an observable value container. Subscribers are notified in
// subscription order whenever Set stores a value that is not equal to the
// current one.
type Cell[T any] struct {
	id uint64

	// mu protects value and subs.
	mu    sync.RWMutex
	value T
	subs  []subscriber[T]

	// equal decides whether a write changes the value.
	// If nil, defaultEquals is used.
	equal func(T, T) bool
}

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		id:    nextCellID(),
		value: initial,
	}
}

// WithEquals sets a custom equality function and returns the cell.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.mu.Lock()
	c.equal = fn
	c.mu.Unlock()
	return c
}

// ID returns the unique identifier for this cell.
func (c *Cell[T]) ID() uint64 {
	return c.id
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set stores value and notifies subscribers if it differs from the current
// value. When called from inside a notification pass the value is replaced
// immediately and the new pass is queued.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	changed := !c.equals(c.value, value)
	if changed {
		c.value = value
	}
	c.mu.Unlock()

	if changed {
		c.notify(value)
	}
}

// Update atomically reads and replaces the value.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	old := c.value
	next := fn(old)
	changed := !c.equals(old, next)
	if changed {
		c.value = next
	}
	c.mu.Unlock()

	if changed {
		c.notify(next)
	}
}

// Subscribe appends fn to the subscriber list.
func (c *Cell[T]) Subscribe(fn func(T)) Token {
	tok := nextToken()
	if fn == nil {
		return tok
	}

	c.mu.Lock()
	c.subs = append(c.subs, subscriber[T]{tok: tok, fn: fn})
	c.mu.Unlock()
	return tok
}

// Unsubscribe removes the subscription identified by tok. Unknown tokens
// are ignored. The relative order of the remaining subscribers is kept.
func (c *Cell[T]) Unsubscribe(tok Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.subs {
		if s.tok == tok {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			return
		}
	}
}

// Observe subscribes fn, ignoring the value.
func (c *Cell[T]) Observe(fn func()) Token {
	if fn == nil {
		return c.Subscribe(nil)
	}
	return c.Subscribe(func(T) { fn() })
}

// Unobserve is Unsubscribe for the Observable interface.
func (c *Cell[T]) Unobserve(tok Token) {
	c.Unsubscribe(tok)
}

// SubscriberCount returns the number of live subscriptions.
func (c *Cell[T]) SubscriberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// notify starts, or queues, a notification pass delivering value. The
// subscriber list is read when the pass runs, not when it is queued.
func (c *Cell[T]) notify(value T) {
	runPass(func() {
		c.mu.RLock()
		subs := make([]subscriber[T], len(c.subs))
		copy(subs, c.subs)
		c.mu.RUnlock()

		for _, s := range subs {
			s.fn(value)
		}
	})
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for common comparable types and reflect.DeepEqual
// for everything else. When T is an interface, a and b may hold different
// dynamic types; such values are never equal.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case int32:
		bv, ok := any(b).(int32)
		return ok && av == bv
	case uint:
		bv, ok := any(b).(uint)
		return ok && av == bv
	case uint64:
		bv, ok := any(b).(uint64)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && av == bv
	case float32:
		bv, ok := any(b).(float32)
		return ok && av == bv
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}
