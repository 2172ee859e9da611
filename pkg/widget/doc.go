// Package widget defines the component tree the tau runtime keeps on the
// server.
//
// A tree is built from a Factory, which owns the id allocator of one App:
//
//	f := widget.NewFactory(widget.NewCounterAllocator("tau"))
//	count := reactive.NewCell(0)
//
//	root := f.VStack(
//	    f.TextFunc(func() string { return fmt.Sprintf("Count: %d", count.Get()) }, count),
//	    f.Button("+1", func(ctx context.Context, ev dispatch.Event) error {
//	        count.Update(func(n int) int { return n + 1 })
//	        return nil
//	    }),
//	)
//
// Every node has an id that is unique in the live tree. Nodes that depend on
// cells implement Dynamic and list their dependencies explicitly; nodes that
// react to user input implement Interactive. The binder (package bind) walks
// the tree and wires both.
package widget
