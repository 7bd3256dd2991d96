package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/nagsync/nagsync/internal/ctxlog"
)

// Watch monitors path and calls onChange with the newly loaded Manifest
// each time the file is written or replaced. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file itself so that an
// editor saving through a temporary file and rename does not drop the watch.
// A manifest that fails to load is logged and skipped; onChange is not
// called and the caller keeps its previous manifest.
func Watch(ctx context.Context, path string, onChange func(*Manifest)) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	logger := ctxlog.FromContext(ctx).With(slog.String("path", path))
	logger.Info("watching manifest")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				// The replacement arrives as a Create on the same name.
				logger.Debug("manifest moved away", "op", event.Op.String())
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			m, err := Load(path)
			if err != nil {
				logger.Error("manifest reload failed, keeping previous", "err", err)
				continue
			}

			logger.Info("manifest reloaded")
			onChange(m)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "err", err)
		}
	}
}
