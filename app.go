package tau

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tau-dev/tau/internal/dev"
	"github.com/tau-dev/tau/internal/devui"
	tauerrors "github.com/tau-dev/tau/internal/errors"
	"github.com/tau-dev/tau/internal/window"
	"github.com/tau-dev/tau/pkg/bind"
	"github.com/tau-dev/tau/pkg/dispatch"
	"github.com/tau-dev/tau/pkg/hub"
	"github.com/tau-dev/tau/pkg/protocol"
	"github.com/tau-dev/tau/pkg/render"
	"github.com/tau-dev/tau/pkg/router"
	"github.com/tau-dev/tau/pkg/telemetry"
	"github.com/tau-dev/tau/pkg/widget"
)

const (
	// RootID is the id of the container every page is mounted into.
	RootID = "tau-root"

	// WebSocketPath is the websocket endpoint.
	WebSocketPath = "/_tau/ws"

	// HealthPath answers 200 once the app serves requests.
	HealthPath = dev.HealthPath

	// MetricsPath serves prometheus metrics.
	MetricsPath = "/metrics"

	// PublicPrefix serves Config.StaticDir.
	PublicPrefix = "/public/"
)

// Entry builds the UI of an app. It runs once on start and again on every
// soft reload. It typically registers routes or calls SetRoot.
type Entry func(ctx context.Context, app *App) error

// ConnectFunc runs for every new client connection.
type ConnectFunc func(ctx context.Context) error

// =============================================================================
// App Type
// =============================================================================

// App is a running tau application. It owns the component tree, the event
// loop, the connection hub and, in dev mode, the reload supervisor.
//
// Create an App with tau.New():
//
//	app := tau.New(tau.Config{Title: "Notes", Dev: true})
//	err := app.Run(ctx, func(ctx context.Context, app *tau.App) error {
//	    return app.Route("/", notesPage)
//	})
type App struct {
	config   Config
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	console  *devui.Console
	renderer render.Renderer

	// Runtime components
	factory    *widget.Factory
	dispatcher *dispatch.Dispatcher
	binder     *bind.Binder
	hub        *hub.Hub
	router     *router.Router

	// navMu serializes changes to the tree under root.
	navMu   sync.Mutex
	root    *widget.Element
	current string

	mu       sync.RWMutex
	theme    string
	connects []ConnectFunc
	entry    Entry

	// baseConnects counts the hooks registered before the entry first ran.
	// Hooks added by the entry are dropped on Reload.
	baseConnects int

	// transitions holds the latest reload supervisor transitions, oldest
	// first, ordered by Seq.
	transitions []dev.Transition

	// Event loop
	tasks    chan func(context.Context)
	quit     chan struct{}
	loopDone chan struct{}
	loopCtx  context.Context
	stopLoop context.CancelFunc

	// Run state
	running     atomic.Bool
	shutdown    atomic.Bool
	handingOver atomic.Bool
	cancel      context.CancelFunc
	listener    net.Listener
	server      *http.Server
	win         *window.Process
	launcher    window.Launcher
	bus         *gochannel.GoChannel
	devDone     chan struct{}

	handlerOnce sync.Once
	handler     http.Handler
}

// New creates an application with the given configuration.
func New(cfg Config) *App {
	cfg.applyDefaults()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.NewHTMLRenderer()
	}
	launcher := cfg.Launcher
	if launcher == nil {
		launcher = window.NewExecLauncher(logger.With("component", "window"))
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	a := &App{
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		console:  devui.New(cfg.Console),
		renderer: renderer,
		factory:  widget.NewFactory(cfg.IDs),
		router:   router.New(),
		theme:    cfg.Theme,
		tasks:    make(chan func(context.Context), 256),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
		loopCtx:  loopCtx,
		stopLoop: stopLoop,
		launcher: launcher,
	}

	a.dispatcher = dispatch.New(logger.With("component", "dispatch"), metrics)
	a.hub = hub.New(
		hub.WithDispatch(a.enqueue),
		hub.WithLogger(logger.With("component", "hub")),
		hub.WithMetrics(metrics),
	)
	a.binder = bind.New(a.dispatcher, a.emit, logger.With("component", "bind"))
	a.root = a.factory.Div(widget.ID(RootID))

	go a.loop()
	return a
}

// =============================================================================
// Accessors
// =============================================================================

// UI returns the widget factory of the app.
func (a *App) UI() *widget.Factory {
	return a.factory
}

// Root returns the container pages are mounted into.
func (a *App) Root() *widget.Element {
	return a.root
}

// Hub returns the connection hub.
func (a *App) Hub() *hub.Hub {
	return a.hub
}

// Dispatcher returns the event dispatcher.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// Router returns the route registry.
func (a *App) Router() *router.Router {
	return a.router
}

// Metrics returns the metrics collectors.
func (a *App) Metrics() *telemetry.Metrics {
	return a.metrics
}

// Config returns the effective configuration.
func (a *App) Config() Config {
	return a.config
}

// Theme returns the current client theme.
func (a *App) Theme() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.theme
}

// CurrentPath returns the path of the page shown, or "" before the first
// navigation.
func (a *App) CurrentPath() string {
	a.navMu.Lock()
	defer a.navMu.Unlock()
	return a.current
}

// Addr returns the address the app listens on, or nil before Run.
func (a *App) Addr() net.Addr {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// ReloadState returns the state of the reload supervisor, or StateIdle
// outside dev mode.
func (a *App) ReloadState() ReloadState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if n := len(a.transitions); n > 0 {
		return a.transitions[n-1].To
	}
	return dev.StateIdle
}

// Transitions returns the most recent reload supervisor transitions, oldest
// first.
func (a *App) Transitions() []Transition {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Transition(nil), a.transitions...)
}

// maxTransitions bounds the transition history.
const maxTransitions = 64

// recordTransition stores t. Transitions can arrive out of order; Seq
// decides their place.
func (a *App) recordTransition(t dev.Transition) {
	a.logger.Debug("reload transition", "seq", t.Seq, "state", t.To.String(), "reason", t.Reason)

	a.mu.Lock()
	defer a.mu.Unlock()
	i := sort.Search(len(a.transitions), func(i int) bool { return a.transitions[i].Seq > t.Seq })
	a.transitions = append(a.transitions, dev.Transition{})
	copy(a.transitions[i+1:], a.transitions[i:])
	a.transitions[i] = t
	if n := len(a.transitions); n > maxTransitions {
		a.transitions = append(a.transitions[:0], a.transitions[n-maxTransitions:]...)
	}
}

// =============================================================================
// Building the UI
// =============================================================================

// Route registers the page handler for path. A later registration for the
// same path replaces the earlier one.
func (a *App) Route(path string, h router.Handler) error {
	return a.router.Register(path, h)
}

// OnConnect registers fn to run on the event loop for every new client
// connection.
func (a *App) OnConnect(fn ConnectFunc) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	a.connects = append(a.connects, fn)
	a.mu.Unlock()
}

// SetRoot mounts n as the only child of the root container and binds it.
// Nothing is sent to clients; use it from an Entry before the first page
// load, or follow it with a Navigate.
func (a *App) SetRoot(n widget.Node) {
	a.navMu.Lock()
	defer a.navMu.Unlock()
	a.root.SetChildren(n)
	a.binder.Bind(a.root)
}

// Navigate shows the page registered for path on every client. An unknown
// path is a no-op. When the page handler or the render fails the previous
// page stays mounted and bound, and a render error is returned.
func (a *App) Navigate(ctx context.Context, path string) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "navigate", attribute.String("path", path))
	defer func() { telemetry.EndSpan(span, err) }()

	h, ok := a.router.Get(path)
	if !ok {
		a.logger.Debug("navigate to unknown path", "path", path)
		a.metrics.RecordNavigation("not_found")
		return nil
	}

	// The page handler runs without navMu held; it may call back into the App.
	node, err := callPage(ctx, h)
	if err == nil && node == nil {
		err = errors.New("page handler returned no node")
	}
	if err != nil {
		return a.navigationFailed(path, err)
	}

	a.navMu.Lock()
	defer a.navMu.Unlock()

	prev := a.root.Children()
	a.root.SetChildren(node)
	html, err := a.renderer.Render(node)
	if err != nil {
		a.root.SetChildren(prev...)
		return a.navigationFailed(path, err)
	}

	a.binder.Bind(a.root)
	a.current = path
	a.metrics.RecordNavigation("ok")
	a.hub.Broadcast(ctx, protocol.Replace{ID: a.root.ID(), HTML: html})
	return nil
}

func (a *App) navigationFailed(path string, err error) error {
	rerr := tauerrors.NewRenderError(path, err)
	a.logger.Warn("navigation failed", "path", path, "error", err)
	a.metrics.RecordNavigation("error")
	return rerr
}

// callPage runs h and turns a panic into an error.
func callPage(ctx context.Context, h router.Handler) (n widget.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("page handler panicked: %v", r)
		}
	}()
	return h(ctx)
}

// SetTheme switches the theme of every client.
func (a *App) SetTheme(ctx context.Context, theme string) {
	a.mu.Lock()
	a.theme = theme
	a.mu.Unlock()
	a.hub.Broadcast(ctx, protocol.SetTheme{Theme: theme})
}

// HotReloadBroadcast tells clients to reload. It does nothing outside dev
// mode.
func (a *App) HotReloadBroadcast(ctx context.Context, message string) int {
	if !a.config.Dev {
		return 0
	}
	return a.hub.Broadcast(ctx, protocol.HotReload{Message: message})
}

// Reload discards every binding, runs the entry function again and shows
// the current page. It is the soft restart of the reload supervisor.
func (a *App) Reload(ctx context.Context) error {
	a.navMu.Lock()
	a.binder.Reset()
	a.root.SetChildren()
	path := a.current
	a.current = ""
	a.navMu.Unlock()

	a.mu.Lock()
	a.connects = a.connects[:a.baseConnects]
	a.mu.Unlock()

	return a.mount(ctx, path)
}

// mount runs the entry function and shows path, or "/" when path is empty.
// Without a route the tree built by the entry is bound and sent as is.
func (a *App) mount(ctx context.Context, path string) error {
	a.mu.RLock()
	entry := a.entry
	a.mu.RUnlock()

	if entry != nil {
		if err := entry(ctx, a); err != nil {
			return errors.Wrap(err, "entry")
		}
	}

	if path == "" {
		path = "/"
	}
	if _, ok := a.router.Get(path); ok {
		return a.Navigate(ctx, path)
	}

	a.navMu.Lock()
	defer a.navMu.Unlock()
	a.binder.Bind(a.root)
	html, err := a.renderChildren(a.root)
	if err != nil {
		return tauerrors.NewRenderError(path, err)
	}
	a.hub.Broadcast(ctx, protocol.Replace{ID: a.root.ID(), HTML: html})
	return nil
}

func (a *App) renderChildren(n widget.Node) (string, error) {
	var b strings.Builder
	for _, c := range n.Children() {
		html, err := a.renderer.Render(c)
		if err != nil {
			return "", err
		}
		b.WriteString(html)
	}
	return b.String(), nil
}

// =============================================================================
// Event loop
// =============================================================================

// enqueue hands a decoded client event to the event loop.
func (a *App) enqueue(_ context.Context, ev dispatch.Event) {
	a.post(func(ctx context.Context) {
		a.dispatcher.Dispatch(ctx, ev)
	})
}

// post queues fn on the event loop. It blocks while the queue is full and
// drops fn once the app is shut down.
func (a *App) post(fn func(context.Context)) {
	select {
	case a.tasks <- fn:
	case <-a.quit:
	}
}

// Do runs fn on the event loop and waits for it. Handlers, their cell
// writes and the resulting broadcasts run there in arrival order.
func (a *App) Do(ctx context.Context, fn func(ctx context.Context)) error {
	done := make(chan struct{})
	a.post(func(ctx context.Context) {
		defer close(done)
		fn(ctx)
	})
	select {
	case <-done:
		return nil
	case <-a.loopDone:
		return errors.New("tau: app is shut down")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) loop() {
	defer close(a.loopDone)
	for {
		select {
		case fn := <-a.tasks:
			a.runTask(fn)
		case <-a.quit:
			return
		}
	}
}

func (a *App) runTask(fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("event loop task panicked", "panic", r)
		}
	}()
	fn(a.loopCtx)
}

// emit sends binder updates to every client.
func (a *App) emit(m protocol.Message) {
	a.hub.Broadcast(a.loopCtx, m)
}

// onConnect runs the connect hooks of a new connection on the event loop.
func (a *App) onConnect(_ context.Context, c hub.Conn) {
	if a.config.Dev {
		a.console.Connected()
	}
	a.logger.Debug("client connected", "conn_id", c.ID())

	a.mu.RLock()
	hooks := append([]ConnectFunc(nil), a.connects...)
	a.mu.RUnlock()
	if len(hooks) == 0 {
		return
	}
	a.post(func(ctx context.Context) {
		for _, fn := range hooks {
			if err := fn(ctx); err != nil {
				a.logger.Warn("connect handler failed", "conn_id", c.ID(), "error", err)
			}
		}
	})
}

// =============================================================================
// http.Handler Implementation
// =============================================================================

// Handler returns the HTTP surface of the app: the page, the websocket
// endpoint, the health check, metrics and static files.
func (a *App) Handler() http.Handler {
	a.handlerOnce.Do(func() {
		a.handler = a.routes()
	})
	return a.handler
}

func (a *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", a.servePage)
	r.Handle(WebSocketPath, hub.NewHandler(a.hub, hub.HandlerOptions{
		OnConnect: []hub.ConnectHook{a.onConnect},
	}))
	r.Get(HealthPath, a.serveHealth)
	r.Handle(MetricsPath, a.metrics.Handler())
	if a.config.StaticDir != "" {
		fs := http.StripPrefix(PublicPrefix, http.FileServer(http.Dir(a.config.StaticDir)))
		r.Handle(PublicPrefix+"*", fs)
	}
	return r
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Handler().ServeHTTP(w, r)
}

func (a *App) servePage(w http.ResponseWriter, r *http.Request) {
	a.navMu.Lock()
	body, err := a.renderer.Render(a.root)
	a.navMu.Unlock()
	if err != nil {
		a.logger.Error("render page", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := render.WritePage(w, render.PageData{
		Title:         a.config.Title,
		Theme:         a.Theme(),
		Body:          body,
		WebSocketPath: WebSocketPath,
	}); err != nil {
		a.logger.Debug("write page", "error", err)
	}
}

func (a *App) serveHealth(w http.ResponseWriter, _ *http.Request) {
	if a.shutdown.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// forwardedArgs are the process flags passed to the next generation on a
// hard restart.
func forwardedArgs() []string {
	return dev.ForwardArgs(os.Args[1:])
}
