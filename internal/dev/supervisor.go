package dev

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tau-dev/tau/internal/devui"
	"github.com/tau-dev/tau/internal/errors"
	"github.com/tau-dev/tau/pkg/protocol"
	"github.com/tau-dev/tau/pkg/telemetry"
)

// Broadcaster sends a message to every connected client and returns the
// number of deliveries.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg protocol.Message) int
}

// Restarter applies a validated change.
type Restarter interface {
	Restart(ctx context.Context, changes []Change) error
}

// RestarterFunc adapts a function to Restarter.
type RestarterFunc func(ctx context.Context, changes []Change) error

// Restart calls f.
func (f RestarterFunc) Restart(ctx context.Context, changes []Change) error { return f(ctx, changes) }

// SupervisorConfig configures a Supervisor.
type SupervisorConfig struct {
	Watcher     Watcher
	Validator   Validator
	Restarter   Restarter
	Broadcaster Broadcaster

	// Debounce is both the burst window and the minimum time between a
	// completed reload and the next cycle. Defaults to 400ms.
	Debounce time.Duration

	// Publisher receives state transitions on TopicTransitions. Optional.
	Publisher message.Publisher

	// Console prints reload notices. Optional.
	Console *devui.Console

	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

// Supervisor runs the reload cycle: detect, debounce, validate, restart.
type Supervisor struct {
	config SupervisorConfig
	logger *slog.Logger

	mu         sync.RWMutex
	state      State
	lastReload time.Time
	cycles     int
	seq        uint64
}

// NewSupervisor creates a supervisor in the Idle state.
func NewSupervisor(config SupervisorConfig) *Supervisor {
	if config.Debounce <= 0 {
		config.Debounce = 400 * time.Millisecond
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default().With("component", "dev.supervisor")
	}
	return &Supervisor{
		config: config,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastReload returns when the last restart completed, or the zero time.
func (s *Supervisor) LastReload() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReload
}

// Cycles returns the number of validation cycles run so far.
func (s *Supervisor) Cycles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles
}

// Run watches for changes until ctx is done. Cancellation is not an error.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.config.Watcher == nil || s.config.Validator == nil || s.config.Restarter == nil {
		return errors.Newf(errors.CategoryConfig, "dev: supervisor needs a watcher, validator and restarter")
	}

	changes := make(chan []Change, 16)
	watchErr := make(chan error, 1)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		watchErr <- s.config.Watcher.Watch(watchCtx, changes)
	}()

	s.transition(StateWatching, "started", nil)
	defer s.transition(StateIdle, "stopped", nil)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-watchErr:
			if ctx.Err() != nil {
				return nil
			}
			return err

		case batch := <-changes:
			if s.absorbed() {
				s.logger.Debug("change absorbed by debounce", "files", len(batch))
				s.config.Metrics.RecordReloadCycle("absorbed")
				continue
			}

			pending, ok := s.collect(ctx, changes, batch)
			if !ok {
				return nil
			}
			s.cycle(ctx, pending)
		}
	}
}

// absorbed reports whether a change arrived inside the debounce window of
// the last completed reload.
func (s *Supervisor) absorbed() bool {
	last := s.LastReload()
	return !last.IsZero() && time.Since(last) < s.config.Debounce
}

// collect opens the debounce window with first and gathers every change
// that arrives before it closes.
func (s *Supervisor) collect(ctx context.Context, changes <-chan []Change, first []Change) ([]Change, bool) {
	pending := append([]Change(nil), first...)
	s.transition(StateChangeDetected, "file change", Paths(first))

	timer := time.NewTimer(s.config.Debounce)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, false
		case more := <-changes:
			pending = append(pending, more...)
		case <-timer.C:
			return dedupe(pending), true
		}
	}
}

func (s *Supervisor) cycle(ctx context.Context, changes []Change) {
	ctx, span := telemetry.StartSpan(ctx, "reload.cycle", attribute.Int("tau.files", len(changes)))
	var spanErr error
	defer func() { telemetry.EndSpan(span, spanErr) }()

	s.mu.Lock()
	s.cycles++
	s.mu.Unlock()

	files := Paths(changes)
	if s.config.Console != nil {
		s.config.Console.HMRTrigger(files)
	}

	s.transition(StateValidating, "", files)
	start := time.Now()
	err := s.config.Validator.Validate(ctx)
	s.config.Metrics.ObserveValidation(time.Since(start))

	if ctx.Err() != nil {
		return
	}

	if err != nil {
		spanErr = err
		s.reportError(ctx, err, "validation failed")
		s.config.Metrics.RecordReloadCycle("invalid")
		return
	}

	s.transition(StateRestarting, "", files)
	if s.config.Console != nil {
		s.config.Console.Restart()
	}
	if err := s.config.Restarter.Restart(ctx, changes); err != nil {
		if ctx.Err() != nil {
			return
		}
		spanErr = err
		s.reportError(ctx, err, "restart failed")
		s.config.Metrics.RecordReloadCycle("restart_failed")
		return
	}

	s.mu.Lock()
	s.lastReload = time.Now()
	s.mu.Unlock()
	s.config.Metrics.RecordReloadCycle("restarted")
	s.transition(StateWatching, "reloaded", nil)
}

func (s *Supervisor) reportError(ctx context.Context, err error, reason string) {
	s.transition(StateReportError, reason, nil)

	msg := errors.FromError(err, errors.CodeValidation).Plain()
	s.logger.Error(reason, "error", err)
	if s.config.Console != nil {
		s.config.Console.BuildError(msg)
	}
	if s.config.Broadcaster != nil {
		s.config.Broadcaster.Broadcast(ctx, protocol.HMRError{Message: msg})
	}

	s.transition(StateWatching, "error reported", nil)
}

func (s *Supervisor) transition(to State, reason string, files []string) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.logger.Debug("reload state", "from", from.String(), "state", to.String(), "reason", reason)

	err := publishTransition(s.config.Publisher, Transition{
		Seq:    seq,
		From:   from,
		To:     to,
		At:     time.Now(),
		Reason: reason,
		Files:  files,
	})
	if err != nil {
		s.logger.Debug("publish transition failed", "error", err)
	}
}

// dedupe keeps the last change per path, in first-seen order.
func dedupe(changes []Change) []Change {
	index := make(map[string]int, len(changes))
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		if i, ok := index[c.Path]; ok {
			out[i] = c
			continue
		}
		index[c.Path] = len(out)
		out = append(out, c)
	}
	return out
}
