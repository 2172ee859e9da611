package reactive

import (
	"runtime"
	"sync"
)

// passState holds the notification state for a goroutine.
type passState struct {
	// depth is > 0 while a notification pass or a Batch is running.
	depth int

	// pending are passes queued by writes issued during a running pass.
	pending []func()
}

// passStates stores per-goroutine pass state.
var passStates sync.Map

// goroutineID returns the id of the current goroutine, parsed from the
// "goroutine <id> " prefix of the runtime stack.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

func currentPass() (uint64, *passState) {
	gid := goroutineID()
	if st, ok := passStates.Load(gid); ok {
		return gid, st.(*passState)
	}
	st := &passState{}
	passStates.Store(gid, st)
	return gid, st
}

// runPass runs fn now, or queues it when a pass is already running on this
// goroutine. The outermost caller drains the queue before returning.
func runPass(fn func()) {
	gid, st := currentPass()
	if st.depth > 0 {
		st.pending = append(st.pending, fn)
		return
	}

	st.depth++
	defer func() {
		st.depth--
		if st.depth == 0 {
			st.pending = nil
			passStates.Delete(gid)
		}
	}()

	fn()
	drain(st)
}

// drain runs queued passes in FIFO order. Passes queued while draining are
// appended and picked up by the same loop.
func drain(st *passState) {
	for len(st.pending) > 0 {
		next := st.pending[0]
		st.pending[0] = nil
		st.pending = st.pending[1:]
		next()
	}
}

// Batch groups cell writes so that no subscriber is notified until fn
// returns. Batches nest; passes run when the outermost batch completes.
//
// Example:
//
//	Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})
//	// subscribers of a, then of b, run here
func Batch(fn func()) {
	gid, st := currentPass()
	st.depth++

	defer func() {
		st.depth--
		if st.depth > 0 {
			return
		}
		// Queued passes must still run with the queue active so that
		// writes they issue keep FIFO order.
		st.depth++
		defer func() {
			st.depth--
			st.pending = nil
			passStates.Delete(gid)
		}()
		drain(st)
	}()

	fn()
}

// Notifying reports whether the calling goroutine is inside a notification
// pass or a Batch.
func Notifying() bool {
	gid := goroutineID()
	st, ok := passStates.Load(gid)
	if !ok {
		return false
	}
	return st.(*passState).depth > 0
}
