package dev

import (
	"context"
	"log/slog"
	"time"

	"github.com/tau-dev/tau/pkg/protocol"
)

// StaticReloader watches a directory of static files and tells clients to
// reload when anything in it changes. Nothing is validated or restarted.
type StaticReloader struct {
	Watcher     Watcher
	Broadcaster Broadcaster

	// Debounce collapses bursts. Defaults to 400ms.
	Debounce time.Duration

	Logger *slog.Logger
}

// Run watches until ctx is done.
func (r *StaticReloader) Run(ctx context.Context) error {
	debounce := r.Debounce
	if debounce <= 0 {
		debounce = 400 * time.Millisecond
	}
	log := logger(r.Logger)

	changes := make(chan []Change, 16)
	watchErr := make(chan error, 1)
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		watchErr <- r.Watcher.Watch(watchCtx, changes)
	}()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

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
			pending += len(batch)
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			}
		case <-timerC:
			timer, timerC = nil, nil
			n := r.Broadcaster.Broadcast(ctx, protocol.HotReload{Message: "static"})
			log.Info("static files changed", "files", pending, "clients", n)
			pending = 0
		}
	}
}
