package dev

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tau-dev/tau/internal/devui"
	"github.com/tau-dev/tau/pkg/protocol"
)

const (
	// RestartExitCode is the exit code a supervised worker uses to ask the
	// Runner for a new generation.
	RestartExitCode = 75

	// EnvSupervised is set to "1" in workers started by the Runner.
	EnvSupervised = "TAU_SUPERVISED"
)

// Supervised reports whether this process was started by a Runner.
func Supervised() bool {
	return os.Getenv(EnvSupervised) == "1"
}

// SoftRestart re-runs the app's entry function inside the running process.
// The listener, the process and open connections are kept. The process
// keeps the code it was built with: Go changes are reported, not applied.
type SoftRestart struct {
	// Reload tears down the current UI and runs the entry function again.
	Reload func(ctx context.Context) error

	Broadcaster Broadcaster

	// Console prints a notice when Go files changed. Optional.
	Console *devui.Console

	Logger *slog.Logger
}

// Restart implements Restarter.
func (r *SoftRestart) Restart(ctx context.Context, changes []Change) error {
	if r.Reload == nil {
		return errors.New("dev: soft restart has no reload function")
	}
	if code := goFiles(changes); len(code) > 0 {
		logger(r.Logger).Warn("go files changed; soft reload keeps the running code", "files", code)
		if r.Console != nil {
			r.Console.SoftReloadNotice(code)
		}
	}
	if err := r.Reload(ctx); err != nil {
		return errors.Wrap(err, "soft reload")
	}
	if r.Broadcaster != nil {
		r.Broadcaster.Broadcast(ctx, protocol.HotReload{Message: "reloaded"})
	}
	logger(r.Logger).Info("soft reload complete", "files", len(changes))
	return nil
}

// goFiles returns the paths of changed Go sources.
func goFiles(changes []Change) []string {
	var out []string
	for _, c := range changes {
		if strings.HasSuffix(c.Path, ".go") {
			out = append(out, c.Path)
		}
	}
	return out
}

// Handover starts the next process generation. Ready reports whether
// Handover can run; HardRestart checks it before tearing anything down.
// Handover only returns on failure.
type Handover interface {
	Ready() error
	Handover(ctx context.Context) error
}

// HandoverFunc adapts a function to Handover. It is always ready.
type HandoverFunc func(ctx context.Context) error

// Ready implements Handover.
func (f HandoverFunc) Ready() error { return nil }

// Handover calls f.
func (f HandoverFunc) Handover(ctx context.Context) error { return f(ctx) }

// ExitHandover exits with RestartExitCode so the Runner starts the next
// generation.
type ExitHandover struct {
	// Exit defaults to os.Exit.
	Exit func(code int)
}

// Ready implements Handover.
func (h ExitHandover) Ready() error { return nil }

// Handover implements Handover.
func (h ExitHandover) Handover(context.Context) error {
	exit := h.Exit
	if exit == nil {
		exit = os.Exit
	}
	exit(RestartExitCode)
	return nil
}

// ExecHandover replaces the process image with Binary, forwarding Args.
type ExecHandover struct {
	Binary string
	Args   []string
}

// Ready implements Handover. The next binary must exist.
func (h ExecHandover) Ready() error {
	info, err := os.Stat(h.Binary)
	if err != nil {
		return errors.Wrapf(err, "dev: next binary %s", h.Binary)
	}
	if info.IsDir() {
		return errors.Errorf("dev: next binary %s is a directory", h.Binary)
	}
	return nil
}

// Handover implements Handover.
func (h ExecHandover) Handover(context.Context) error {
	if err := h.Ready(); err != nil {
		return err
	}
	return execBinary(h.Binary, h.Args)
}

// ForwardArgs returns args with --dev added when missing. Other flags are
// passed through unchanged.
func ForwardArgs(args []string) []string {
	out := append([]string(nil), args...)
	for _, a := range out {
		if a == "--dev" || a == "-dev" || a == "--dev=true" {
			return out
		}
	}
	return append(out, "--dev")
}

// HardRestart replaces the whole process. It tells clients to reload, runs
// the teardown steps, frees the port and hands over to the next
// generation.
type HardRestart struct {
	Broadcaster Broadcaster

	// Teardown runs in order: stop the hub, stop the window, close the
	// listener. Errors are logged and do not stop the restart.
	Teardown []func(ctx context.Context) error

	// Port is reclaimed after teardown when non-zero.
	Port      int
	Reclaimer PortReclaimer

	// Settle is the pause between the reload notice and teardown so that
	// clients receive it. Defaults to 200ms.
	Settle time.Duration

	Handover Handover
	Logger   *slog.Logger
}

// Restart implements Restarter.
func (r *HardRestart) Restart(ctx context.Context, changes []Change) error {
	if r.Handover == nil {
		return errors.New("dev: hard restart has no handover")
	}
	log := logger(r.Logger)

	// Nothing is torn down when the next generation cannot start.
	if err := r.Handover.Ready(); err != nil {
		log.Warn("next generation not ready, keeping the current one", "error", err)
		return err
	}

	if r.Broadcaster != nil {
		r.Broadcaster.Broadcast(ctx, protocol.HotReload{Message: "restarting"})
	}

	settle := r.Settle
	if settle == 0 {
		settle = 200 * time.Millisecond
	}
	select {
	case <-time.After(settle):
	case <-ctx.Done():
		return ctx.Err()
	}

	for _, step := range r.Teardown {
		if err := step(ctx); err != nil {
			log.Debug("teardown step failed", "error", err)
		}
	}

	if r.Port > 0 && r.Reclaimer != nil {
		if err := r.Reclaimer.Reclaim(ctx, r.Port); err != nil {
			log.Warn("port reclaim failed", "port", r.Port, "error", err)
		}
	}

	log.Info("handing over to next generation", "files", len(changes))
	return r.Handover.Handover(ctx)
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default().With("component", "dev")
}
