// Package proc starts and stops child processes for the window launcher and
// the dev runner. Children run in their own process group so that stopping
// one also stops anything it spawned.
package proc

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultGrace is how long Stop waits after asking a process to terminate
// before killing it.
const DefaultGrace = 2 * time.Second

// Spec describes a process to start.
type Spec struct {
	Path string
	Args []string
	Dir  string

	// Env is appended to the current environment.
	Env []string

	// Stdout and Stderr default to the parent's streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Process is a started child process.
type Process struct {
	cmd  *exec.Cmd
	sys  sysHandle
	done chan struct{}

	mu      sync.Mutex
	waitErr error
	stopped bool
}

// Start launches the process described by spec. When ctx is cancelled the
// process is stopped with DefaultGrace.
func Start(ctx context.Context, spec Spec) (*Process, error) {
	if spec.Path == "" {
		return nil, errors.New("proc: empty path")
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdout = spec.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = spec.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	prepare(cmd)

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "start %s", spec.Path)
	}

	p := &Process{
		cmd:  cmd,
		sys:  attach(cmd),
		done: make(chan struct{}),
	}

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.waitErr = err
		p.mu.Unlock()
		close(p.done)
	}()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = p.Stop(DefaultGrace)
			case <-p.done:
			}
		}()
	}

	return p, nil
}

// PID returns the process id.
func (p *Process) PID() int {
	if p == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Done is closed when the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports whether the process has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits or ctx is done.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.waitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExitCode returns the exit code of an exited process, or -1 while it runs.
func (p *Process) ExitCode() int {
	if !p.Exited() || p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// Alive reports whether the process is still running.
func (p *Process) Alive() bool {
	if p == nil || p.Exited() {
		return false
	}
	return Alive(p.PID())
}

// Stop asks the process group to terminate, waits up to grace, then kills
// it. Stopping an exited process is a no-op.
func (p *Process) Stop(grace time.Duration) error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	defer p.sys.release()

	if p.Exited() {
		return nil
	}

	if err := terminate(p.cmd, p.sys); err != nil && !p.Exited() {
		return errors.Wrapf(err, "terminate pid %d", p.PID())
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(grace):
	}

	if err := kill(p.cmd, p.sys); err != nil && !p.Exited() {
		return errors.Wrapf(err, "kill pid %d", p.PID())
	}
	<-p.done
	return nil
}
