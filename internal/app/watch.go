package app

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/vk/wirestate/internal/debounce"
)

// reloadQuiet coalesces the burst of filesystem events an editor save
// produces into one reload.
const reloadQuiet = 250 * time.Millisecond

// watchManifests watches the manifest tree and hot-swaps component
// definitions on change. A broken reload is logged and skipped; the previous
// definitions stay live.
func (a *App) watchManifests(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create manifest watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, a.config.ManifestsPath); err != nil {
		return fmt.Errorf("failed to watch manifest path: %w", err)
	}

	deb := debounce.New()
	defer deb.Stop()

	a.logger.Info("👀 Watching manifests for changes", "path", a.config.ManifestsPath)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need their own watch before files inside them
			// produce events.
			if event.Op&fsnotify.Create != 0 {
				_ = addRecursive(watcher, event.Name)
			}
			a.logger.Debug("Manifest change detected.", "file", event.Name, "op", event.Op.String())
			deb.Do("reload", reloadQuiet, a.reloadManifests)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("Manifest watcher error.", "error", err)
		}
	}
}

// reloadManifests loads, validates, and swaps in the manifest tree. Existing
// instances keep their state; only the definitions change.
func (a *App) reloadManifests() {
	ctx := ctxlog.WithLogger(context.Background(), a.logger)

	model, err := a.loader.Load(ctx, a.config.ManifestsPath)
	if err != nil {
		a.logger.Warn("Manifest reload failed, keeping previous definitions.", "error", err)
		return
	}
	if err := a.registry.ValidateModel(ctx, model); err != nil {
		a.logger.Warn("Reloaded manifests failed validation, keeping previous definitions.", "error", err)
		return
	}

	a.registry.ReplaceDefinitions(model)
	a.logger.Info("🔁 Manifests reloaded", "components", len(model.Components))
}

// addRecursive registers the path and, when it is a directory, every
// directory beneath it. Non-directories and vanished paths are fine to skip.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
