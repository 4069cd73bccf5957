package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	appLog "suncal/internal/log"
)

// Watch calls fn with the reloaded configuration whenever the file at path
// is written or replaced, until ctx is done. The parent directory is
// watched so editors that save via rename are seen too. A file that fails
// to load is logged and the previous configuration stays in effect.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			cfg, err := read(path)
			if err != nil {
				appLog.Error("config reload failed", err, "path", path)
				continue
			}
			appLog.Info("config reloaded", "path", path)
			fn(cfg)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			appLog.Error("config watcher error", err, "path", path)
		}
	}
}
