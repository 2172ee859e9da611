// Package reactive provides the observable state cell used by the tau runtime.
//
// A Cell holds one value and an ordered list of subscribers. Writing a value
// that differs from the current one notifies every subscriber, in the order
// they subscribed, before Set returns:
//
//	count := reactive.NewCell(10)
//	tok := count.Subscribe(func(v int) { fmt.Println("count is", v) })
//	count.Set(20)          // prints "count is 20"
//	count.Set(20)          // equal value, no notification
//	count.Unsubscribe(tok)
//
// # Reentrancy
//
// A subscriber that writes to a cell while it is being notified does not
// recurse. The nested write replaces the value immediately, but its
// notification pass is queued and runs after the current pass completes.
// Queued passes run in FIFO order on the goroutine that started the outermost
// pass.
//
// # Batching
//
// Batch defers every notification pass started inside it until it returns:
//
//	reactive.Batch(func() {
//	    first.Set("Ada")
//	    last.Set("Lovelace")
//	})
//
// # Thread Safety
//
// Cells can be read and written from multiple goroutines. The pass queue is
// per goroutine, so the reentrancy rule only applies to writes issued from
// inside a subscriber callback.
package reactive
