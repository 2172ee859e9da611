package dev

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIgnoreMatch(t *testing.T) {
	ig := NewIgnore("assets/gen", "*.log")

	cases := map[string]bool{
		"main.go":                 false,
		"ui/page.go":              false,
		"dist/app.js":             true,
		"launcher/tau-window":     true,
		".tau/build/app":          true,
		".git/HEAD":               true,
		"ui/.page.go.swp":         true,
		"notes.txt~":              true,
		"web/assets/gen/site.css": true,
		"web/assets/site.css":     false,
		"server.log":              true,
		"distribution/readme.md":  false,
	}
	for p, want := range cases {
		require.Equal(t, want, ig.Match(filepath.FromSlash(p)), p)
	}

	var nilIgnore *Ignore
	require.False(t, nilIgnore.Match("dist"))
}

func TestSnapshotDiff(t *testing.T) {
	t0 := time.Unix(1000, 0)
	t1 := time.Unix(2000, 0)

	old := Snapshot{"a.go": t0, "b.go": t0, "c.go": t0}
	next := Snapshot{"a.go": t0, "b.go": t1, "d.go": t1}

	require.Equal(t, []Change{
		{Path: "b.go", Op: OpModified},
		{Path: "c.go", Op: OpRemoved},
		{Path: "d.go", Op: OpAdded},
	}, next.Diff(old))
	require.Empty(t, old.Diff(old))
}

func TestPollWatcherScanSkipsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.go":            "package main",
		"ui/page.go":         "package ui",
		"dist/bundle.js":     "x",
		"launcher/tau-win":   "x",
		".tau/build/app.bin": "x",
	})

	snap := NewPollWatcher(PollConfig{Root: dir}).Scan()
	require.Len(t, snap, 2)
	require.Contains(t, snap, filepath.Join(dir, "main.go"))
	require.Contains(t, snap, filepath.Join(dir, "ui", "page.go"))
}

func TestPollWatcherMaxFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 5; i++ {
		files[fmt.Sprintf("f%d.go", i)] = "package main"
	}
	writeTree(t, dir, files)

	snap := NewPollWatcher(PollConfig{Root: dir, MaxFiles: 3}).Scan()
	require.Len(t, snap, 3)
}

func TestPollWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.go": "package main",
		"old.go":  "package main",
	})

	w := NewPollWatcher(PollConfig{Root: dir, Interval: 20 * time.Millisecond})
	out := make(chan []Change, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, out) }()

	// Let the initial snapshot happen before touching files.
	time.Sleep(60 * time.Millisecond)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "main.go"), future, future))
	require.NoError(t, os.Remove(filepath.Join(dir, "old.go")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.go"), []byte("package main"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dist", "x.js"), []byte("x"), 0644))

	seen := map[string]Op{}
	deadline := time.After(2 * time.Second)
	for len(seen) < 3 {
		select {
		case batch := <-out:
			for _, c := range batch {
				seen[filepath.Base(c.Path)] = c.Op
			}
		case <-deadline:
			t.Fatalf("timed out, saw %v", seen)
		}
	}

	require.Equal(t, OpModified, seen["main.go"])
	require.Equal(t, OpRemoved, seen["old.go"])
	require.Equal(t, OpAdded, seen["new.go"])
	require.NotContains(t, seen, "x.js")

	cancel()
	require.NoError(t, <-done)
}

func TestNotifyWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"main.go": "package main"})

	w := NewNotifyWatcher(dir, nil, nil)
	out := make(chan []Change, 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, out) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0644))

	select {
	case batch := <-out:
		require.NotEmpty(t, batch)
		require.Equal(t, filepath.Join(dir, "main.go"), batch[0].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fsnotify change")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestOpString(t *testing.T) {
	require.Equal(t, "added", OpAdded.String())
	require.Equal(t, "modified", OpModified.String())
	require.Equal(t, "removed", OpRemoved.String())
	require.Equal(t, "unknown", Op(9).String())
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}
