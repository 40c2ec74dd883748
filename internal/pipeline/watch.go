package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/backmassage/transmux/internal/config"
	"github.com/backmassage/transmux/internal/report"
)

// watchSettle is how long the event stream must stay quiet before a
// scheduled batch runs. A burst of events (a season directory being copied
// in) collapses into one run.
const watchSettle = 2 * time.Second

// Watch runs an initial batch, then re-runs a batch whenever new media
// appears under the input root. Directories created under the root join the
// watch; batches execute sequentially on this goroutine so conversions
// never overlap. Every finished session report is handed to onBatch. Watch
// returns when ctx is cancelled.
func Watch(ctx context.Context, cfg *config.Config, deps Deps, onBatch func(*report.Session)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := addTree(w, cfg.InputDir); err != nil {
		return fmt.Errorf("watch input tree: %w", err)
	}

	exts := cfg.ExtensionSet()
	log := deps.Log

	onBatch(Run(ctx, cfg, deps))
	log.Info().Str("input", cfg.InputDir).Msg("watching for new files")

	debounce := time.NewTimer(watchSettle)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("watch stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if handleEvent(w, log, exts, ev) {
				log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("batch scheduled")
				debounce.Reset(watchSettle)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")

		case <-debounce.C:
			onBatch(Run(ctx, cfg, deps))
			log.Info().Str("input", cfg.InputDir).Msg("watching for new files")
		}
	}
}

// handleEvent maintains the watch set and reports whether ev should
// schedule a batch. New directories are watched and scheduled: a tree moved
// into the root delivers a single event for the directory, nothing for the
// files inside it.
func handleEvent(w *fsnotify.Watcher, log zerolog.Logger, exts map[string]bool, ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}

	fi, err := os.Stat(ev.Name)
	if err != nil {
		// Rename events also fire for the vacated name.
		return false
	}

	if fi.IsDir() {
		if strings.HasPrefix(filepath.Base(ev.Name), ".") {
			return false
		}
		if err := addTree(w, ev.Name); err != nil {
			log.Warn().Err(err).Str("dir", ev.Name).Msg("cannot watch new directory")
		}
		return true
	}

	return exts[strings.ToLower(filepath.Ext(ev.Name))]
}

// addTree registers root and every non-hidden subdirectory with the
// watcher.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
