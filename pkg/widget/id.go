package widget

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
)

// IDAllocator hands out widget ids. Each App owns one allocator.
type IDAllocator interface {
	Next() string
}

// CounterAllocator generates ids of the form "<prefix>_<n>".
type CounterAllocator struct {
	prefix  string
	counter atomic.Uint64
}

// NewCounterAllocator creates an allocator starting at 1.
func NewCounterAllocator(prefix string) *CounterAllocator {
	if prefix == "" {
		prefix = "tau"
	}
	return &CounterAllocator{prefix: prefix}
}

// Next returns the next id (e.g., "tau_1", "tau_2", ...).
func (a *CounterAllocator) Next() string {
	return a.prefix + "_" + strconv.FormatUint(a.counter.Add(1), 10)
}

// Current returns the last allocated number without incrementing.
func (a *CounterAllocator) Current() uint64 {
	return a.counter.Load()
}

// ULIDAllocator generates ids of the form "<prefix>_<ulid>". Ids are
// unique across processes, which keeps them stable in clients that survive
// a hard restart.
type ULIDAllocator struct {
	prefix string
}

// NewULIDAllocator creates a ULID based allocator.
func NewULIDAllocator(prefix string) *ULIDAllocator {
	if prefix == "" {
		prefix = "tau"
	}
	return &ULIDAllocator{prefix: prefix}
}

// Next returns a fresh id.
func (a *ULIDAllocator) Next() string {
	return a.prefix + "_" + strings.ToLower(ulid.Make().String())
}
