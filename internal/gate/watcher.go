package gate

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/daymark/internal/engine"
	"github.com/starford/daymark/internal/journal"
	"github.com/starford/daymark/internal/policy"
	"github.com/starford/daymark/internal/storage"
)

// EventCallback is called after each watcher-driven outcome.
// kind is one of "stamped", "skipped", "error".
type EventCallback func(kind string, path string)

// Stamper is the slice of the engine the watcher needs.
type Stamper interface {
	Process(ctx context.Context, path string, kind policy.Kind) (*engine.Result, error)
}

// Watch starts an fsnotify watcher on the vault root and feeds eligible
// change events through the gate to the stamper until ctx is cancelled.
// Create events are handled as new documents, writes as user edits. The
// engine's own write-backs re-surface here and are recognized by checksum.
//
// New directories created at runtime are automatically added to the watch
// list. Short-lived editor artifacts (a create immediately followed by the
// debounced writes) collapse into a single stamp per debounce window.
func Watch(ctx context.Context, g *Gate, eng Stamper, store storage.Provider, db journal.Ledger, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories: start watching and stamp any notes
			// already inside.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					stampNewDir(ctx, g, eng, store, vaultRoot, absPath, logger, cb)
					continue
				}
			}

			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind := policy.KindEdit
				if ev.Op&fsnotify.Create != 0 {
					kind = policy.KindNew
				}
				handleEvent(ctx, g, eng, store, rel, kind, logger, cb)

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if !storage.IsNote(rel) {
					continue
				}
				g.Forget(rel)
				if delErr := db.Delete(rel); delErr != nil {
					logger.Warn("watcher: journal delete failed",
						slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: removed", slog.String("path", rel))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handleEvent runs one event through the gate and the engine, surfacing any
// failure exactly once: a log line plus an "error" callback, never a panic
// back into the event loop.
func handleEvent(ctx context.Context, g *Gate, eng Stamper, store storage.Provider, rel string, kind policy.Kind, logger *slog.Logger, cb EventCallback) {
	if !g.InScope(rel) {
		return
	}

	data, readErr := store.Read(rel)
	if readErr != nil {
		// Create events can race with editors that rename temp files away.
		logger.Debug("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
		return
	}

	d := g.Check(rel, data)
	if !d.Process {
		logger.Debug("watcher: skipped",
			slog.String("path", rel), slog.String("reason", d.Reason))
		if cb != nil && d.Reason != SkipSelfWrite {
			cb("skipped", rel)
		}
		return
	}

	if !g.Begin(rel) {
		return
	}
	defer g.End(rel)

	res, err := eng.Process(ctx, rel, kind)
	if err != nil {
		logger.Error("watcher: stamp failed",
			slog.String("path", rel), slog.String("error", err.Error()))
		if cb != nil {
			cb("error", rel)
		}
		return
	}
	if res.Written {
		logger.Debug("watcher: stamped",
			slog.String("path", rel), slog.String("kind", string(kind)),
			slog.String("day_tag", res.DayTag))
		if cb != nil {
			cb("stamped", rel)
		}
	}
}

// stampNewDir stamps any notes found in a newly created directory.
func stampNewDir(ctx context.Context, g *Gate, eng Stamper, store storage.Provider, vaultRoot, dirPath string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsNote(path) {
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, path)
		if relErr != nil {
			return nil
		}
		handleEvent(ctx, g, eng, store, rel, policy.KindNew, logger, cb)
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

// StampAfterTemplate is the template-expansion-complete entry point: it
// waits the settle delay, then runs the template plan through the gate's
// in-flight guard. Timestamps are assumed already set and are not touched.
func StampAfterTemplate(ctx context.Context, g *Gate, eng Stamper, path string) (*engine.Result, error) {
	if err := g.Settle(ctx); err != nil {
		return nil, err
	}
	if !g.Begin(path) {
		return nil, nil
	}
	defer g.End(path)
	return eng.Process(ctx, path, policy.KindTemplateDone)
}
