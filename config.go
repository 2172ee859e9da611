package tau

import (
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/tau-dev/tau/internal/config"
	"github.com/tau-dev/tau/internal/window"
	"github.com/tau-dev/tau/pkg/render"
	"github.com/tau-dev/tau/pkg/telemetry"
	"github.com/tau-dev/tau/pkg/widget"
)

// RestartPolicy selects what happens after a successful validation in dev
// mode.
type RestartPolicy string

const (
	// SoftRestart re-runs the entry function inside the running process. The
	// code is the code the process was built with, so Go edits only take
	// effect on the next hard restart. It re-applies entry-time state and
	// re-reads data files.
	SoftRestart RestartPolicy = config.PolicySoft

	// HardRestart replaces the process with the freshly built binary.
	HardRestart RestartPolicy = config.PolicyHard
)

// WatchMode selects how source changes are detected.
type WatchMode string

const (
	// WatchPoll compares modification times on a fixed interval.
	WatchPoll WatchMode = config.WatchPoll

	// WatchNotify uses native file system notifications.
	WatchNotify WatchMode = config.WatchNotify
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the application configuration.
type Config struct {
	// Title is the document and window title.
	Title string

	// Port is the HTTP port. Zero picks a free port.
	Port int

	// Theme is the initial client theme (default: "light").
	Theme string

	// Dev enables the reload supervisor and the dev console.
	Dev bool

	// NoWindow disables the native window.
	NoWindow bool

	// ProjectDir is the root of the watched source tree (default: ".").
	ProjectDir string

	// Entry is the main package validated on every change, relative to
	// ProjectDir (default: ".").
	Entry string

	// BuildOutput is where validated builds are written.
	BuildOutput string

	// BuildTags are passed to validation builds.
	BuildTags []string

	// Debounce is the reload debounce window (default: 400ms).
	Debounce time.Duration

	// PollInterval is the interval of the polling watcher (default: 400ms).
	PollInterval time.Duration

	// Ignore lists directory names or globs the watcher skips, on top of
	// the built-in list.
	Ignore []string

	// RestartPolicy is HardRestart or SoftRestart (default: HardRestart).
	RestartPolicy RestartPolicy

	// WatchMode is WatchPoll or WatchNotify (default: WatchPoll).
	WatchMode WatchMode

	// StaticDir, when set, is served under /public/ and watched in dev
	// mode. Changes there only reload clients.
	StaticDir string

	Window WindowConfig

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Console receives dev console output. If nil, os.Stdout is used.
	Console io.Writer

	// Metrics collects runtime metrics. If nil, a private registry is
	// created.
	Metrics *telemetry.Metrics

	// IDs allocates widget ids. If nil, a counter allocator is used.
	IDs widget.IDAllocator

	// Renderer renders widgets. If nil, the default HTML renderer is used.
	Renderer render.Renderer

	// Launcher starts the native window. If nil, the launcher binary at
	// Window.Launcher is executed.
	Launcher window.Launcher
}

// WindowConfig configures the native window.
type WindowConfig struct {
	Width  int
	Height int

	// Launcher is the path of the window binary.
	Launcher string

	Frameless   bool
	AlwaysOnTop bool
}

// =============================================================================
// Default Configurations
// =============================================================================

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Title:         "tau",
		Port:          config.DefaultPort,
		Theme:         config.DefaultTheme,
		ProjectDir:    ".",
		Entry:         config.DefaultEntry,
		BuildOutput:   config.DefaultOutput,
		Debounce:      400 * time.Millisecond,
		PollInterval:  400 * time.Millisecond,
		RestartPolicy: HardRestart,
		WatchMode:     WatchPoll,
		Window: WindowConfig{
			Width:    config.DefaultWindowWidth,
			Height:   config.DefaultWindowHeight,
			Launcher: config.DefaultLauncher,
		},
	}
}

// FromProject converts a project configuration file into a Config. Paths
// are resolved against the directory of the file.
func FromProject(pc *config.Config) Config {
	cfg := DefaultConfig()
	if pc == nil {
		return cfg
	}

	if pc.Window.Title != "" {
		cfg.Title = pc.Window.Title
	} else if pc.Name != "" {
		cfg.Title = pc.Name
	}
	cfg.Port = pc.Port
	cfg.Theme = pc.Theme
	cfg.Dev = pc.Dev
	cfg.NoWindow = pc.NoWindow
	cfg.ProjectDir = pc.Dir()
	cfg.Entry = pc.Entry
	cfg.BuildOutput = pc.OutputPath()
	cfg.BuildTags = pc.Build.Tags
	cfg.Debounce = pc.Debounce()
	cfg.PollInterval = pc.PollInterval()
	cfg.Ignore = pc.Reload.Ignore
	cfg.RestartPolicy = RestartPolicy(pc.Reload.Policy)
	cfg.WatchMode = WatchMode(pc.Reload.WatchMode)
	cfg.StaticDir = pc.StaticPath()
	cfg.Window.Width = pc.Window.Width
	cfg.Window.Height = pc.Window.Height
	cfg.Window.Launcher = pc.LauncherPath()
	return cfg
}

// LoadProject reads tau.json, tau.yaml or tau.yml from the project root
// containing dir and converts it with FromProject. A missing file yields
// the defaults rooted at dir.
func LoadProject(dir string) (Config, error) {
	root, err := config.FindProjectRoot(dir)
	if err != nil {
		cfg := DefaultConfig()
		cfg.ProjectDir = dir
		return cfg, nil
	}
	pc, err := config.Load(root)
	if err != nil {
		return Config{}, err
	}
	return FromProject(pc), nil
}

// ParseFlags applies the process flags --dev, --no-window and --port to
// cfg. Unknown flags are ignored so that apps can define their own. It
// returns the remaining positional arguments.
func ParseFlags(cfg *Config, args []string) ([]string, error) {
	fs := pflag.NewFlagSet("tau", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)

	dev := fs.Bool("dev", cfg.Dev, "enable hot reload")
	noWindow := fs.Bool("no-window", cfg.NoWindow, "do not open the native window")
	port := fs.Int("port", cfg.Port, "HTTP port")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Dev = *dev
	cfg.NoWindow = *noWindow
	cfg.Port = *port
	return fs.Args(), nil
}

// applyDefaults fills zero values of cfg.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Title == "" {
		c.Title = d.Title
	}
	if c.Theme == "" {
		c.Theme = d.Theme
	}
	if c.ProjectDir == "" {
		c.ProjectDir = d.ProjectDir
	}
	if c.Entry == "" {
		c.Entry = d.Entry
	}
	if c.BuildOutput == "" {
		c.BuildOutput = filepath.Join(c.ProjectDir, d.BuildOutput)
	}
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.RestartPolicy == "" {
		c.RestartPolicy = d.RestartPolicy
	}
	if c.WatchMode == "" {
		c.WatchMode = d.WatchMode
	}
	if c.Window.Width == 0 {
		c.Window.Width = d.Window.Width
	}
	if c.Window.Height == 0 {
		c.Window.Height = d.Window.Height
	}
	if c.Window.Launcher == "" {
		c.Window.Launcher = filepath.Join(c.ProjectDir, d.Window.Launcher)
	}
}
