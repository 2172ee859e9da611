package tau

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tau-dev/tau/internal/dev"
	"github.com/tau-dev/tau/internal/devui"
	tauerrors "github.com/tau-dev/tau/internal/errors"
	"github.com/tau-dev/tau/internal/window"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 2 * time.Second

// Run mounts the UI built by entry, serves it and blocks until ctx is done,
// the window is closed or Shutdown is called. In dev mode it also runs the
// reload supervisor.
//
// The only error that stops Run during startup is a failure to bind the
// port, reported as a fatal startup error.
func (a *App) Run(ctx context.Context, entry Entry) error {
	if !a.running.CompareAndSwap(false, true) {
		return errors.New("tau: app is already running")
	}
	if a.shutdown.Load() {
		return errors.New("tau: app is shut down")
	}

	a.mu.Lock()
	a.entry = entry
	a.baseConnects = len(a.connects)
	a.mu.Unlock()

	if err := a.mount(ctx, ""); err != nil {
		return err
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(a.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		ferr := tauerrors.NewFatalStartupError("cannot bind "+addr, err).
			WithSuggestion("Stop the process using the port or pick another one with --port")
		a.logger.Error("startup failed", "addr", addr, "error", err)
		return ferr
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.mu.Lock()
	a.listener = ln
	a.server = server
	a.cancel = cancel
	a.mu.Unlock()

	port := ln.Addr().(*net.TCPAddr).Port
	url := "http://" + ln.Addr().String()
	a.logger.Info("listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) || a.shutdown.Load() || a.handingOver.Load() {
			return nil
		}
		return errors.Wrap(err, "serve")
	})

	if !a.config.NoWindow {
		a.openWindow(gctx, g, port, cancel)
	}

	if a.config.Dev {
		a.startDev(gctx, g, port)
		a.console.Banner(devui.BannerInfo{
			App:    a.config.Title,
			URL:    url,
			Policy: string(a.config.RestartPolicy),
			Watch:  string(a.config.WatchMode),
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.Shutdown(context.Background())
		return nil
	})

	return g.Wait()
}

// openWindow starts the native window. Closing the window stops the app.
// A missing launcher is not fatal; the app can still be opened in a
// browser.
func (a *App) openWindow(ctx context.Context, g *errgroup.Group, port int, stop context.CancelFunc) {
	w, err := a.launcher.Start(ctx, window.Config{
		Launcher:    a.config.Window.Launcher,
		Title:       a.config.Title,
		Width:       a.config.Window.Width,
		Height:      a.config.Window.Height,
		Port:        port,
		Frameless:   a.config.Window.Frameless,
		AlwaysOnTop: a.config.Window.AlwaysOnTop,
		Dir:         a.config.ProjectDir,
	})
	if err != nil {
		if errors.Is(err, window.ErrLauncherNotFound) {
			a.logger.Warn("window launcher not found, open the app in a browser",
				"launcher", a.config.Window.Launcher, "url", fmt.Sprintf("http://127.0.0.1:%d", port))
		} else {
			a.logger.Warn("window failed to start", "error", err)
		}
		return
	}

	a.mu.Lock()
	a.win = w
	a.mu.Unlock()

	g.Go(func() error {
		select {
		case <-w.Done():
			if !a.handingOver.Load() && !a.shutdown.Load() {
				a.logger.Info("window closed")
				stop()
			}
		case <-ctx.Done():
		}
		return nil
	})
}

// startDev starts the reload supervisor and, when a static dir is set, the
// static reloader.
func (a *App) startDev(ctx context.Context, g *errgroup.Group, port int) {
	logger := a.logger.With("component", "dev")
	bus := dev.NewBus(logger)

	sup := dev.NewSupervisor(dev.SupervisorConfig{
		Watcher:     a.newWatcher(a.config.ProjectDir),
		Validator:   a.newValidator(),
		Restarter:   a.newRestarter(port),
		Broadcaster: a.hub,
		Debounce:    a.config.Debounce,
		Publisher:   bus,
		Console:     a.console,
		Logger:      logger,
		Metrics:     a.metrics,
	})

	var static *dev.StaticReloader
	if a.config.StaticDir != "" {
		static = &dev.StaticReloader{
			Watcher:     a.newWatcher(a.config.StaticDir),
			Broadcaster: a.hub,
			Debounce:    a.config.Debounce,
			Logger:      logger,
		}
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.bus = bus
	a.devDone = done
	a.mu.Unlock()

	dg, dctx := errgroup.WithContext(ctx)

	// Subscribe before the supervisor runs so its first transition is seen.
	transitions, err := dev.SubscribeTransitions(dctx, bus, logger)
	if err != nil {
		logger.Warn("reload transitions unavailable", "error", err)
	} else {
		dg.Go(func() error {
			for t := range transitions {
				a.recordTransition(t)
			}
			return nil
		})
	}

	dg.Go(func() error {
		return sup.Run(dctx)
	})
	if static != nil {
		dg.Go(func() error {
			return static.Run(dctx)
		})
	}

	g.Go(func() error {
		defer close(done)
		if err := dg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return errors.Wrap(err, "reload supervisor")
		}
		return nil
	})
}

func (a *App) newWatcher(root string) dev.Watcher {
	logger := a.logger.With("component", "dev.watcher")
	if a.config.WatchMode == WatchNotify {
		return dev.NewNotifyWatcher(root, a.config.Ignore, logger)
	}
	return dev.NewPollWatcher(dev.PollConfig{
		Root:     root,
		Interval: a.config.PollInterval,
		Ignore:   a.config.Ignore,
		Logger:   logger,
	})
}

// newValidator builds to the configured output. Under a Runner the output
// is the staging binary the Runner moves into place on restart.
func (a *App) newValidator() *dev.GoValidator {
	output := a.config.BuildOutput
	if dev.Supervised() {
		output += ".next"
	}
	return dev.NewGoValidator(dev.GoValidatorConfig{
		ProjectPath: a.config.ProjectDir,
		Entry:       a.config.Entry,
		Output:      output,
		Tags:        a.config.BuildTags,
	})
}

func (a *App) newRestarter(port int) dev.Restarter {
	logger := a.logger.With("component", "dev")
	if a.config.RestartPolicy == SoftRestart {
		return &dev.SoftRestart{
			Reload:      a.reloadOnLoop,
			Broadcaster: a.hub,
			Console:     a.console,
			Logger:      logger,
		}
	}

	var handover dev.Handover
	if dev.Supervised() {
		handover = dev.ExitHandover{}
	} else {
		handover = dev.ExecHandover{Binary: a.config.BuildOutput, Args: forwardedArgs()}
	}

	return &dev.HardRestart{
		Broadcaster: a.hub,
		Teardown: []func(context.Context) error{
			a.stopHub,
			a.stopWindow,
			a.closeListener,
		},
		Port:      port,
		Reclaimer: &dev.SystemReclaimer{Logger: logger},
		Handover:  handover,
		Logger:    logger,
	}
}

// reloadOnLoop runs Reload on the event loop so that it never interleaves
// with event handlers.
func (a *App) reloadOnLoop(ctx context.Context) error {
	var err error
	if derr := a.Do(ctx, func(context.Context) { err = a.Reload(ctx) }); derr != nil {
		return derr
	}
	return err
}

// =============================================================================
// Teardown
// =============================================================================

func (a *App) stopHub(context.Context) error {
	a.handingOver.Store(true)
	a.hub.Stop()
	return nil
}

func (a *App) stopWindow(context.Context) error {
	a.mu.Lock()
	w := a.win
	a.win = nil
	a.mu.Unlock()
	if w == nil {
		return nil
	}
	return a.launcher.Stop(w)
}

func (a *App) closeListener(ctx context.Context) error {
	a.mu.RLock()
	server := a.server
	a.mu.RUnlock()
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return server.Close()
	}
	return nil
}

// Shutdown stops the app: the reload supervisor is cancelled and awaited,
// then connections, the window, the listener and the event loop are
// released. Errors are logged and swallowed. Only the first call has an
// effect.
func (a *App) Shutdown(ctx context.Context) {
	if !a.shutdown.CompareAndSwap(false, true) {
		return
	}
	a.logger.Info("shutting down")

	a.mu.RLock()
	cancel := a.cancel
	devDone := a.devDone
	bus := a.bus
	a.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if devDone != nil {
		select {
		case <-devDone:
		case <-ctx.Done():
			a.logger.Debug("reload supervisor did not stop in time")
		}
	}

	a.hub.Stop()
	if err := a.stopWindow(ctx); err != nil {
		a.logger.Debug("stop window", "error", err)
	}
	if err := a.closeListener(ctx); err != nil {
		a.logger.Debug("close listener", "error", err)
	}

	close(a.quit)
	a.stopLoop()
	<-a.loopDone

	if bus != nil {
		if err := bus.Close(); err != nil {
			a.logger.Debug("close event bus", "error", err)
		}
	}
}
