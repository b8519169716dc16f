package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events a single save produces.
const watchDebounce = 100 * time.Millisecond

// watchFiles calls run once, then again after every change to one of files,
// until ctx is done. Parent directories are watched so that editors which
// replace files on save are still seen. Errors from run are logged, not
// returned.
func watchFiles(ctx context.Context, files []string, logger *slog.Logger, run func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		targets[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	if err := run(); err != nil {
		logger.Error("resolve failed", slog.String("error", err.Error()))
	}
	logger.Info("watching for changes", slog.Int("files", len(targets)))

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			logger.Debug("change detected", slog.String("file", filepath.Base(event.Name)))
			debounce = time.After(watchDebounce)

		case <-debounce:
			debounce = nil
			if err := run(); err != nil {
				logger.Error("resolve failed", slog.String("error", err.Error()))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
