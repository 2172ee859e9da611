package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tau-dev/tau/internal/errors"
)

// ConfigFileNames lists the accepted configuration file names, in lookup order.
var ConfigFileNames = []string{"tau.json", "tau.yaml", "tau.yml"}

const (
	// ConfigFileName is the name used when a new configuration is saved.
	ConfigFileName = "tau.json"

	// DefaultPort is the default HTTP port of the app server.
	DefaultPort = 8000

	// DefaultEntry is the default entry package, relative to the project root.
	DefaultEntry = "."

	// DefaultTheme is the theme sent to clients on first render.
	DefaultTheme = "light"

	// DefaultDebounce is the default reload debounce window.
	DefaultDebounce = "400ms"

	// DefaultPollInterval is the default interval of the polling watcher.
	DefaultPollInterval = "400ms"

	// DefaultOutput is the default path of the validated build.
	DefaultOutput = ".tau/build/app"

	// DefaultLauncher is the default window launcher binary.
	DefaultLauncher = "launcher/tau-window"

	DefaultWindowWidth  = 800
	DefaultWindowHeight = 600
)

// Restart policies.
const (
	PolicySoft = "soft"
	PolicyHard = "hard"
)

// Watch modes.
const (
	WatchPoll   = "poll"
	WatchNotify = "notify"
)

// Config represents the complete tau project configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Entry is the main package of the app, relative to the project root.
	Entry string `json:"entry,omitempty" yaml:"entry,omitempty"`

	// Port is the HTTP port the app listens on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Dev enables the reload supervisor.
	Dev bool `json:"dev,omitempty" yaml:"dev,omitempty"`

	// NoWindow disables the native window.
	NoWindow bool `json:"noWindow,omitempty" yaml:"noWindow,omitempty"`

	// Theme is the initial client theme.
	Theme string `json:"theme,omitempty" yaml:"theme,omitempty"`

	Window WindowConfig `json:"window,omitempty" yaml:"window,omitempty"`
	Reload ReloadConfig `json:"reload,omitempty" yaml:"reload,omitempty"`
	Build  BuildConfig  `json:"build,omitempty" yaml:"build,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// WindowConfig configures the native window process.
type WindowConfig struct {
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height int    `json:"height,omitempty" yaml:"height,omitempty"`

	// Launcher is the path of the window binary, relative to the project root.
	Launcher string `json:"launcher,omitempty" yaml:"launcher,omitempty"`
}

// ReloadConfig configures the development reload cycle.
type ReloadConfig struct {
	// Policy is "hard" (replace the process, the default) or "soft" (re-run
	// the entry function in process). Soft reloads do not pick up Go code
	// changes.
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty"`

	// WatchMode is "poll" or "notify".
	WatchMode string `json:"watchMode,omitempty" yaml:"watchMode,omitempty"`

	// Debounce is a duration string such as "400ms".
	Debounce string `json:"debounce,omitempty" yaml:"debounce,omitempty"`

	// PollInterval is a duration string such as "400ms".
	PollInterval string `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`

	// Ignore lists extra directory names or glob patterns to skip.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`

	// StaticDir, when set, is watched without validation and only triggers
	// a client reload.
	StaticDir string `json:"staticDir,omitempty" yaml:"staticDir,omitempty"`
}

// BuildConfig configures validation builds.
type BuildConfig struct {
	// Output is the path of the compiled binary, relative to the project root.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Tags are passed to go build with -tags.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Entry: DefaultEntry,
		Port:  DefaultPort,
		Theme: DefaultTheme,
		Window: WindowConfig{
			Width:    DefaultWindowWidth,
			Height:   DefaultWindowHeight,
			Launcher: DefaultLauncher,
		},
		Reload: ReloadConfig{
			Policy:       PolicyHard,
			WatchMode:    WatchPoll,
			Debounce:     DefaultDebounce,
			PollInterval: DefaultPollInterval,
		},
		Build: BuildConfig{
			Output: DefaultOutput,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for tau.json, tau.yaml and tau.yml, in that order.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E141").
		WithDetail("No tau.json or tau.yaml found in " + dir).
		WithSuggestion("Create tau.json in the project root")
}

// LoadFile reads configuration from the specified file path. The format is
// chosen from the file extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No configuration found at " + path).
				WithSuggestion("Create tau.json in the project root")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E120").
				WithDetail("Failed to parse " + name + ": " + err.Error()).
				WithSuggestion("Check that " + name + " is valid YAML")
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E120").
				WithDetail("Failed to parse " + name + ": " + err.Error()).
				WithSuggestion("Check that " + name + " is valid JSON")
		}
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path, as YAML when the extension asks
// for it and as indented JSON otherwise.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in zero values left by a partial file.
func (c *Config) applyDefaults() {
	if c.Entry == "" {
		c.Entry = DefaultEntry
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Theme == "" {
		c.Theme = DefaultTheme
	}
	if c.Window.Title == "" {
		c.Window.Title = c.Name
	}
	if c.Window.Width == 0 {
		c.Window.Width = DefaultWindowWidth
	}
	if c.Window.Height == 0 {
		c.Window.Height = DefaultWindowHeight
	}
	if c.Window.Launcher == "" {
		c.Window.Launcher = DefaultLauncher
	}
	if c.Reload.Policy == "" {
		c.Reload.Policy = PolicyHard
	}
	if c.Reload.WatchMode == "" {
		c.Reload.WatchMode = WatchPoll
	}
	if c.Reload.Debounce == "" {
		c.Reload.Debounce = DefaultDebounce
	}
	if c.Reload.PollInterval == "" {
		c.Reload.PollInterval = DefaultPollInterval
	}
	if c.Build.Output == "" {
		c.Build.Output = DefaultOutput
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("E122").
			WithDetail("port must be between 0 and 65535, got " + strconv.Itoa(c.Port))
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return errors.New("E122").
			WithDetail("window width and height must not be negative")
	}

	switch c.Reload.Policy {
	case PolicySoft, PolicyHard:
	default:
		return errors.New("E122").
			WithDetail("reload.policy must be \"soft\" or \"hard\", got " + strconv.Quote(c.Reload.Policy))
	}

	switch c.Reload.WatchMode {
	case WatchPoll, WatchNotify:
	default:
		return errors.New("E122").
			WithDetail("reload.watchMode must be \"poll\" or \"notify\", got " + strconv.Quote(c.Reload.WatchMode))
	}

	if _, err := parseDuration("reload.debounce", c.Reload.Debounce); err != nil {
		return err
	}
	if d, err := parseDuration("reload.pollInterval", c.Reload.PollInterval); err != nil {
		return err
	} else if d == 0 {
		return errors.New("E122").WithDetail("reload.pollInterval must be positive")
	}
	return nil
}

// Address returns the listen address of the app server.
func (c *Config) Address() string {
	return "127.0.0.1:" + strconv.Itoa(c.Port)
}

// URL returns the URL the window and browsers open.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// Debounce returns the parsed debounce window. Invalid values yield the
// default.
func (c *Config) Debounce() time.Duration {
	d, err := parseDuration("reload.debounce", c.Reload.Debounce)
	if err != nil {
		d, _ = time.ParseDuration(DefaultDebounce)
	}
	return d
}

// PollInterval returns the parsed polling interval. Invalid or zero values
// yield the default.
func (c *Config) PollInterval() time.Duration {
	d, err := parseDuration("reload.pollInterval", c.Reload.PollInterval)
	if err != nil || d == 0 {
		d, _ = time.ParseDuration(DefaultPollInterval)
	}
	return d
}

// EntryPath returns the absolute path to the entry package.
func (c *Config) EntryPath() string {
	return c.resolve(c.Entry)
}

// OutputPath returns the absolute path to the validated build.
func (c *Config) OutputPath() string {
	return c.resolve(c.Build.Output)
}

// LauncherPath returns the absolute path to the window launcher.
func (c *Config) LauncherPath() string {
	return c.resolve(c.Window.Launcher)
}

// StaticPath returns the absolute path to the static reload directory, or ""
// when none is configured.
func (c *Config) StaticPath() string {
	if c.Reload.StaticDir == "" {
		return ""
	}
	return c.resolve(c.Reload.StaticDir)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.New("E122").
			WithDetail(field + " is not a valid duration: " + strconv.Quote(s)).
			WithSuggestion("Use a value such as \"400ms\" or \"1s\"")
	}
	if d < 0 {
		return 0, errors.New("E122").WithDetail(field + " must not be negative")
	}
	return d, nil
}

// Exists checks if a configuration file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a configuration file, or an error if not
// found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No tau.json or tau.yaml found in " + startDir + " or any parent directory").
				WithSuggestion("Create tau.json in the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or the nearest parent that has one.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
