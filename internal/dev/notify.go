package dev

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// NotifyWatcher reports changes using the operating system's change
// notification API. It applies the same ignore rules as PollWatcher.
type NotifyWatcher struct {
	root   string
	ignore *Ignore
	logger *slog.Logger
}

// NewNotifyWatcher creates a watcher for root.
func NewNotifyWatcher(root string, ignore []string, logger *slog.Logger) *NotifyWatcher {
	if logger == nil {
		logger = slog.Default().With("component", "dev.watcher")
	}
	return &NotifyWatcher{
		root:   root,
		ignore: NewIgnore(ignore...),
		logger: logger,
	}
}

// Watch registers every non-ignored directory under the root and forwards
// events until ctx is done.
func (w *NotifyWatcher) Watch(ctx context.Context, out chan<- []Change) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create fsnotify watcher")
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			change, ok := w.translate(fw, ev)
			if !ok {
				continue
			}
			select {
			case out <- []Change{change}:
			case <-ctx.Done():
				return nil
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

func (w *NotifyWatcher) translate(fw *fsnotify.Watcher, ev fsnotify.Event) (Change, bool) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || w.ignore.Match(rel) {
		return Change{}, false
	}

	switch {
	case ev.Has(fsnotify.Create):
		if isDir(ev.Name) {
			if err := w.addTree(fw, ev.Name); err != nil {
				w.logger.Warn("watch new directory failed", "path", ev.Name, "error", err)
			}
			return Change{}, false
		}
		return Change{Path: ev.Name, Op: OpAdded}, true
	case ev.Has(fsnotify.Write):
		return Change{Path: ev.Name, Op: OpModified}, true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return Change{Path: ev.Name, Op: OpRemoved}, true
	default:
		return Change{}, false
	}
}

func (w *NotifyWatcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(w.root, p); relErr == nil && rel != "." && w.ignore.Match(rel) {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return errors.Wrapf(err, "watch %s", p)
		}
		return nil
	})
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
