package persona

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the resolver whenever a persona file changes. Reloads are
// debounced so editors that write in several steps trigger one reload.
// Watch returns when the context is cancelled; persona hot reload is
// best-effort and watch errors only disable it.
func (r *Resolver) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				// Watch errors on subdirectories are non-fatal.
				_ = watcher.Add(filepath.Join(dir, entry.Name()))
			}
		}
	}

	var debounce *time.Timer
	reload := func() {
		if err := r.reload(dir); err != nil {
			slog.Error("persona reload failed", "dir", dir, "error", err)
			return
		}
		slog.Info("personas reloaded", "dir", dir)
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// A new location directory needs its own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("persona watcher error", "error", err)
		}
	}
}
