package dev

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Op is the kind of a file change.
type Op int

const (
	OpAdded Op = iota
	OpModified
	OpRemoved
)

func (o Op) String() string {
	switch o {
	case OpAdded:
		return "added"
	case OpModified:
		return "modified"
	case OpRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change represents a detected file change.
type Change struct {
	Path string
	Op   Op
}

// Paths returns the paths of changes, in order.
func Paths(changes []Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Path
	}
	return out
}

// Watcher reports file changes under a project root. Watch blocks until ctx
// is done and sends each detected batch of changes on out. Cancellation is
// not an error.
type Watcher interface {
	Watch(ctx context.Context, out chan<- []Change) error
}

// DefaultIgnore contains the directory names and patterns skipped by every
// watcher: build output, the window launcher, tooling state and editor
// droppings.
var DefaultIgnore = []string{
	".git",
	".tau",
	"node_modules",
	"dist",
	"launcher",
	"*.tmp",
	"*.swp",
	"*~",
}

// Ignore matches paths, relative to the watch root, against ignore rules.
// A rule is a path segment ("dist"), a segment sequence ("assets/gen"), or
// a glob that applies to the base name ("*.swp") or, when it contains a
// slash, to the whole relative path.
type Ignore struct {
	patterns []string
}

// NewIgnore returns an Ignore with DefaultIgnore plus extra.
func NewIgnore(extra ...string) *Ignore {
	patterns := make([]string, 0, len(DefaultIgnore)+len(extra))
	patterns = append(patterns, DefaultIgnore...)
	for _, p := range extra {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return &Ignore{patterns: patterns}
}

// Match reports whether rel should be skipped.
func (ig *Ignore) Match(rel string) bool {
	if ig == nil {
		return false
	}
	normalized := filepath.ToSlash(rel)
	name := path.Base(normalized)

	for _, pattern := range ig.patterns {
		if name == pattern {
			return true
		}

		hasPathSep := strings.Contains(pattern, "/") || strings.Contains(pattern, "\\")
		hasGlob := strings.ContainsAny(pattern, "*?[")

		if hasGlob {
			if hasPathSep {
				if matched, _ := path.Match(filepath.ToSlash(pattern), normalized); matched {
					return true
				}
			} else if matched, _ := path.Match(pattern, name); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
			continue
		}

		if pathHasSegment(normalized, pattern) {
			return true
		}
	}
	return false
}

func pathHasSegment(p, segment string) bool {
	for _, part := range splitPathSegments(p) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(p, pattern string) bool {
	pathParts := splitPathSegments(p)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitPathSegments(p string) []string {
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}

// Snapshot maps file paths to modification times.
type Snapshot map[string]time.Time

// Diff returns the changes that turn old into s, sorted by path.
func (s Snapshot) Diff(old Snapshot) []Change {
	var changes []Change
	for p, mod := range s {
		prev, ok := old[p]
		switch {
		case !ok:
			changes = append(changes, Change{Path: p, Op: OpAdded})
		case !mod.Equal(prev):
			changes = append(changes, Change{Path: p, Op: OpModified})
		}
	}
	for p := range old {
		if _, ok := s[p]; !ok {
			changes = append(changes, Change{Path: p, Op: OpRemoved})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

// PollConfig configures a PollWatcher.
type PollConfig struct {
	// Root is the directory to watch.
	Root string

	// Interval between scans. Defaults to 400ms.
	Interval time.Duration

	// MaxFiles bounds the number of files one scan records. Defaults to
	// 10000.
	MaxFiles int

	// Ignore lists rules on top of DefaultIgnore.
	Ignore []string

	Logger *slog.Logger
}

// PollWatcher detects changes by comparing path to modification time
// snapshots on a fixed interval.
type PollWatcher struct {
	config PollConfig
	ignore *Ignore
	logger *slog.Logger

	mu        sync.Mutex
	truncated bool
}

// NewPollWatcher creates a polling watcher.
func NewPollWatcher(config PollConfig) *PollWatcher {
	if config.Interval <= 0 {
		config.Interval = 400 * time.Millisecond
	}
	if config.MaxFiles <= 0 {
		config.MaxFiles = 10000
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default().With("component", "dev.watcher")
	}
	return &PollWatcher{
		config: config,
		ignore: NewIgnore(config.Ignore...),
		logger: logger,
	}
}

// Watch polls until ctx is done.
func (w *PollWatcher) Watch(ctx context.Context, out chan<- []Change) error {
	prev := w.Scan()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			next := w.Scan()
			changes := next.Diff(prev)
			prev = next
			if len(changes) == 0 {
				continue
			}
			select {
			case out <- changes:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Scan walks the root and returns the current snapshot. The walk stops once
// MaxFiles files have been recorded.
func (w *PollWatcher) Scan() Snapshot {
	snap := make(Snapshot)
	root := w.config.Root

	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil || rel == "." {
			return nil
		}
		if w.ignore.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if len(snap) >= w.config.MaxFiles {
			w.warnTruncated()
			return filepath.SkipAll
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		snap[p] = info.ModTime()
		return nil
	})

	return snap
}

func (w *PollWatcher) warnTruncated() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.truncated {
		return
	}
	w.truncated = true
	w.logger.Warn("watch limit reached, some files are not watched",
		"root", w.config.Root, "max_files", w.config.MaxFiles)
}

// fileExists reports whether p exists.
func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
