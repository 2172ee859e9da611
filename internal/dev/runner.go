package dev

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tau-dev/tau/internal/errors"
	"github.com/tau-dev/tau/internal/proc"
)

// HealthPath is the readiness endpoint every app serves.
const HealthPath = "/_tau/health"

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Validator builds the first generation to Binary.
	Validator *GoValidator

	// Binary is the worker executable. Workers build the next generation
	// to NextBinary, which the Runner moves into place before respawning.
	Binary     string
	NextBinary string

	// Args are passed to every worker.
	Args []string
	Dir  string

	// Port is polled on HealthPath for readiness.
	Port int

	// ReadyTimeout bounds the wait for a new generation. Defaults to 30s.
	ReadyTimeout time.Duration

	// Grace is the stop grace period of a worker. Defaults to 2s.
	Grace time.Duration

	// OnReady is called each time a generation becomes ready.
	OnReady func(generation int)

	Logger *slog.Logger
	Client *http.Client
}

// Runner builds the app, runs it as a supervised worker and starts a new
// generation whenever the worker exits with RestartExitCode.
type Runner struct {
	config RunnerConfig
	logger *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(config RunnerConfig) *Runner {
	if config.ReadyTimeout <= 0 {
		config.ReadyTimeout = 30 * time.Second
	}
	if config.Grace <= 0 {
		config.Grace = proc.DefaultGrace
	}
	if config.Client == nil {
		config.Client = &http.Client{Timeout: time.Second}
	}
	if config.NextBinary == "" {
		config.NextBinary = config.Binary + ".next"
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default().With("component", "dev.runner")
	}
	return &Runner{config: config, logger: logger}
}

// Run builds and supervises workers until ctx is done or a worker exits for
// any reason other than a restart request.
func (r *Runner) Run(ctx context.Context) error {
	if r.config.Validator != nil {
		if err := r.config.Validator.Validate(ctx); err != nil {
			return err
		}
	}

	for generation := 1; ; generation++ {
		if err := r.promote(); err != nil {
			return err
		}

		code, err := r.runGeneration(ctx, generation)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		if code != RestartExitCode {
			if code != 0 {
				return pkgerrors.Errorf("worker exited with code %d", code)
			}
			return nil
		}
		r.logger.Info("worker requested restart", "generation", generation)
	}
}

// promote moves a freshly validated binary into place.
func (r *Runner) promote() error {
	if !fileExists(r.config.NextBinary) {
		return nil
	}
	if err := os.Rename(r.config.NextBinary, r.config.Binary); err != nil {
		return pkgerrors.Wrap(err, "promote next binary")
	}
	return nil
}

// runGeneration starts one worker, waits for readiness and then for exit.
// It returns the worker's exit code.
func (r *Runner) runGeneration(ctx context.Context, generation int) (int, error) {
	p, err := proc.Start(context.Background(), proc.Spec{
		Path: r.config.Binary,
		Args: r.config.Args,
		Dir:  r.config.Dir,
		Env:  []string{EnvSupervised + "=1"},
	})
	if err != nil {
		return 0, errors.NewFatalStartupError("cannot start worker", err)
	}
	r.logger.Debug("worker started", "generation", generation, "pid", p.PID())

	g, gctx := errgroup.WithContext(ctx)

	ready := make(chan struct{})
	g.Go(func() error {
		ok, err := r.waitReady(gctx, p)
		if err != nil || !ok {
			return err
		}
		close(ready)
		if r.config.OnReady != nil {
			r.config.OnReady(generation)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-p.Done():
			select {
			case <-ready:
				return nil
			default:
			}
			if p.ExitCode() == RestartExitCode {
				return nil
			}
			return errors.NewFatalStartupError(
				"worker exited with code "+strconv.Itoa(p.ExitCode())+" before it was ready", nil)
		case <-gctx.Done():
			return nil
		}
	})

	err = g.Wait()
	if err != nil || ctx.Err() != nil {
		_ = p.Stop(r.config.Grace)
		if ctx.Err() != nil {
			return 0, nil
		}
		return 0, err
	}

	select {
	case <-p.Done():
	case <-ctx.Done():
		_ = p.Stop(r.config.Grace)
		return 0, nil
	}
	return p.ExitCode(), nil
}

// waitReady polls the health endpoint until it answers 200. It reports
// false without an error when the worker exits or ctx is done first.
func (r *Runner) waitReady(ctx context.Context, p *proc.Process) (bool, error) {
	if r.config.Port == 0 {
		return true, nil
	}
	url := "http://127.0.0.1:" + strconv.Itoa(r.config.Port) + HealthPath
	deadline := time.Now().Add(r.config.ReadyTimeout)

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, err
		}
		if resp, err := r.config.Client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true, nil
			}
		}

		if p.Exited() {
			// The exit watcher reports this case.
			return false, nil
		}
		if time.Now().After(deadline) {
			return false, errors.NewFatalStartupError(
				"worker was not ready after "+r.config.ReadyTimeout.String(), nil)
		}

		select {
		case <-ctx.Done():
			return false, nil
		case <-time.After(100 * time.Millisecond):
		}
	}
}
