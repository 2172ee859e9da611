// Package errors provides the coded error taxonomy of the tau runtime.
//
// Every error the runtime reports to a developer is a *TauError carrying a
// stable code, a category and an optional detail, hint and wrapped cause:
//
//	E100  render      navigation or render failure, returned to the caller
//	E200  validation  changed sources failed to compile, sent as hmr_error
//	E300  delivery    a send to one connection failed, the connection is dropped
//	E400  handler     an event handler returned an error or panicked
//	E500  startup     the port cannot be bound or a worker never became ready
//	E12x  config      tau.json / tau.yaml problems
//	E14x  cli         project layout and tooling problems
//
// Usage:
//
//	err := errors.New("E122").
//	    WithDetail("port 70000 is out of range").
//	    WithSuggestion("Use a port between 1 and 65535")
//
//	fmt.Fprint(os.Stderr, err.Format()) // colored, for the terminal
//	msg := err.Plain()                  // uncolored, for hmr_error overlays
package errors
