// Package dev implements the development reload cycle.
//
// A Supervisor moves through these states:
//
//	Idle -> Watching -> ChangeDetected -> Validating -> Restarting -> Watching
//	                                                 \-> ReportError -> Watching
//
// Changes come from a Watcher: PollWatcher compares modification time
// snapshots on a fixed interval, NotifyWatcher uses fsnotify. Both skip
// DefaultIgnore plus the configured rules.
//
// The first change of a burst opens a debounce window and every change that
// arrives before it closes joins the same cycle. A change that arrives within
// the debounce window after a completed reload is dropped.
//
// The cycle validates with a GoValidator, which parses the entry package and
// then compiles it without running it. A failure is broadcast to clients as
// an hmr_error message and the supervisor goes back to Watching. On success
// one of two restart policies runs:
//
//   - SoftRestart runs the app's entry function again in the same process.
//   - HardRestart broadcasts hot_reload, runs the teardown steps (hub,
//     window, listener), reclaims the port and hands over to the next
//     process generation.
//
// Under `tau dev` the app runs as a worker of a Runner. The worker hands
// over by exiting with RestartExitCode and the Runner starts the freshly
// built binary. Unsupervised apps exec the new binary directly.
//
// State transitions are published as JSON on TopicTransitions of a
// watermill publisher.
package dev
