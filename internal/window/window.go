// Package window starts and stops the native window that hosts the app UI.
//
// The window itself is an external binary. This package only knows how to
// launch it with the page address and geometry, check that it is still
// running, and shut it down.
package window

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/tau-dev/tau/internal/proc"
)

// ErrLauncherNotFound is returned by Start when the launcher binary does not
// exist.
var ErrLauncherNotFound = errors.New("window: launcher not found")

// Config describes the window to open.
type Config struct {
	// Launcher is the path of the window binary.
	Launcher string

	Title  string
	Width  int
	Height int

	// Port is the port of the app server the window loads.
	Port int

	Frameless   bool
	AlwaysOnTop bool

	// Dir is the working directory of the window process.
	Dir string
}

// Args returns the command line passed to the launcher.
func (c Config) Args() []string {
	args := []string{
		"--title=" + c.Title,
		"--width=" + strconv.Itoa(c.Width),
		"--height=" + strconv.Itoa(c.Height),
		"--port=" + strconv.Itoa(c.Port),
	}
	if c.Frameless {
		args = append(args, "--frameless")
	}
	if c.AlwaysOnTop {
		args = append(args, "--always-on-top")
	}
	return args
}

// Process is a running window.
type Process struct {
	p   *proc.Process
	cfg Config
}

// PID returns the process id of the window.
func (w *Process) PID() int {
	if w == nil {
		return 0
	}
	return w.p.PID()
}

// Done is closed when the window process exits, for example because the
// user closed it.
func (w *Process) Done() <-chan struct{} {
	return w.p.Done()
}

// Launcher controls the window process.
type Launcher interface {
	Start(ctx context.Context, cfg Config) (*Process, error)
	Stop(w *Process) error
	Alive(w *Process) bool
}

// ExecLauncher runs the window as a child process.
type ExecLauncher struct {
	// Grace is how long Stop waits after terminating before it kills.
	// Defaults to 2s.
	Grace time.Duration

	Stdout io.Writer
	Stderr io.Writer

	Logger *slog.Logger
}

// NewExecLauncher creates an ExecLauncher with default settings.
func NewExecLauncher(logger *slog.Logger) *ExecLauncher {
	if logger == nil {
		logger = slog.Default().With("component", "window")
	}
	return &ExecLauncher{
		Grace:  proc.DefaultGrace,
		Logger: logger,
	}
}

// Start launches the window. The window is not tied to ctx beyond startup;
// callers stop it explicitly.
func (l *ExecLauncher) Start(ctx context.Context, cfg Config) (*Process, error) {
	if _, err := os.Stat(cfg.Launcher); err != nil {
		return nil, errors.Wrapf(ErrLauncherNotFound, "%s", cfg.Launcher)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := proc.Start(context.Background(), proc.Spec{
		Path:   cfg.Launcher,
		Args:   cfg.Args(),
		Dir:    cfg.Dir,
		Stdout: l.Stdout,
		Stderr: l.Stderr,
	})
	if err != nil {
		return nil, errors.Wrap(err, "start window")
	}

	l.logger().Info("window started", "pid", p.PID(), "title", cfg.Title, "port", cfg.Port)
	return &Process{p: p, cfg: cfg}, nil
}

// Stop terminates the window, waits for the grace period, then kills it.
// Stopping a nil or exited window is a no-op.
func (l *ExecLauncher) Stop(w *Process) error {
	if w == nil || w.p == nil {
		return nil
	}
	grace := l.Grace
	if grace <= 0 {
		grace = proc.DefaultGrace
	}
	if err := w.p.Stop(grace); err != nil {
		return errors.Wrap(err, "stop window")
	}
	l.logger().Debug("window stopped", "pid", w.PID())
	return nil
}

// Alive reports whether the window process is still running.
func (l *ExecLauncher) Alive(w *Process) bool {
	if w == nil || w.p == nil {
		return false
	}
	return w.p.Alive()
}

func (l *ExecLauncher) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default().With("component", "window")
}

var _ Launcher = (*ExecLauncher)(nil)
