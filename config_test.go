package tau

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tau-dev/tau/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Port)
	}
	if cfg.Debounce != 400*time.Millisecond {
		t.Errorf("expected 400ms debounce, got %v", cfg.Debounce)
	}
	if cfg.RestartPolicy != HardRestart {
		t.Errorf("expected hard restart, got %q", cfg.RestartPolicy)
	}
	if cfg.WatchMode != WatchPoll {
		t.Errorf("expected poll watcher, got %q", cfg.WatchMode)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("unexpected window size %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
}

func TestApplyDefaultsKeepsValues(t *testing.T) {
	cfg := Config{
		Title:         "Notes",
		Debounce:      time.Second,
		RestartPolicy: SoftRestart,
		ProjectDir:    "/srv/notes",
	}
	cfg.applyDefaults()

	if cfg.Title != "Notes" || cfg.Debounce != time.Second || cfg.RestartPolicy != SoftRestart {
		t.Errorf("explicit values should be kept: %+v", cfg)
	}
	if cfg.Theme != "light" {
		t.Errorf("expected light theme, got %q", cfg.Theme)
	}
	if want := filepath.Join("/srv/notes", ".tau/build/app"); cfg.BuildOutput != want {
		t.Errorf("expected output %s, got %s", want, cfg.BuildOutput)
	}
	if want := filepath.Join("/srv/notes", "launcher/tau-window"); cfg.Window.Launcher != want {
		t.Errorf("expected launcher %s, got %s", want, cfg.Window.Launcher)
	}
	if cfg.Port != 0 {
		t.Errorf("zero port should be kept, got %d", cfg.Port)
	}
}

func TestFromProject(t *testing.T) {
	dir := t.TempDir()
	data := `{
  "name": "notes",
  "port": 9100,
  "dev": true,
  "theme": "dark",
  "window": {"width": 1024},
  "reload": {
    "policy": "hard",
    "watchMode": "notify",
    "debounce": "250ms",
    "ignore": ["tmp"],
    "staticDir": "public"
  }
}`
	if err := os.WriteFile(filepath.Join(dir, "tau.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	pc, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	dir = filepath.Dir(pc.Path())

	cfg := FromProject(pc)

	if cfg.Title != "notes" {
		t.Errorf("title should default to the project name, got %q", cfg.Title)
	}
	if cfg.Port != 9100 || !cfg.Dev || cfg.Theme != "dark" {
		t.Errorf("unexpected core values %+v", cfg)
	}
	if cfg.RestartPolicy != HardRestart || cfg.WatchMode != WatchNotify {
		t.Errorf("unexpected reload values %q %q", cfg.RestartPolicy, cfg.WatchMode)
	}
	if cfg.Debounce != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Debounce)
	}
	if !reflect.DeepEqual(cfg.Ignore, []string{"tmp"}) {
		t.Errorf("unexpected ignore %v", cfg.Ignore)
	}
	if cfg.Window.Width != 1024 || cfg.Window.Height != 600 {
		t.Errorf("unexpected window size %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.ProjectDir != dir {
		t.Errorf("expected project dir %s, got %s", dir, cfg.ProjectDir)
	}
	if want := filepath.Join(dir, "public"); cfg.StaticDir != want {
		t.Errorf("expected static dir %s, got %s", want, cfg.StaticDir)
	}
	if want := filepath.Join(dir, ".tau", "build", "app"); cfg.BuildOutput != want {
		t.Errorf("expected output %s, got %s", want, cfg.BuildOutput)
	}
}

func TestFromProjectNil(t *testing.T) {
	if got := FromProject(nil); !reflect.DeepEqual(got, DefaultConfig()) {
		t.Errorf("nil project should give defaults, got %+v", got)
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		dev      bool
		noWindow bool
		port     int
		rest     []string
	}{
		{name: "none", args: nil, port: 8000, rest: []string{}},
		{name: "dev", args: []string{"--dev"}, dev: true, port: 8000, rest: []string{}},
		{name: "all", args: []string{"--dev", "--no-window", "--port=9000"}, dev: true, noWindow: true, port: 9000, rest: []string{}},
		{name: "separate port", args: []string{"--port", "9001", "extra"}, port: 9001, rest: []string{"extra"}},
		{name: "unknown flags", args: []string{"--verbose", "--dev"}, dev: true, port: 8000, rest: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			rest, err := ParseFlags(&cfg, tt.args)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if cfg.Dev != tt.dev || cfg.NoWindow != tt.noWindow || cfg.Port != tt.port {
				t.Errorf("got dev=%v no-window=%v port=%d", cfg.Dev, cfg.NoWindow, cfg.Port)
			}
			if len(rest) != len(tt.rest) {
				t.Errorf("expected rest %v, got %v", tt.rest, rest)
			}
		})
	}
}

func TestParseFlagsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := ParseFlags(&cfg, []string{"--port=http"}); err == nil {
		t.Error("expected an error for a non-numeric port")
	}
}

func TestLoadProjectWithoutFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProjectDir != dir {
		t.Errorf("expected project dir %s, got %s", dir, cfg.ProjectDir)
	}
	if cfg.Port != 8000 {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
}

func TestLoadProjectFromSubdir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tau.yaml"), []byte("name: board\nport: 9300\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "pages")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadProject(sub)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Title != "board" || cfg.Port != 9300 {
		t.Errorf("unexpected config %q %d", cfg.Title, cfg.Port)
	}
}
