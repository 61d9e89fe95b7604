package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"layoutcalc/internal/observ"
)

const watchDebounce = 200 * time.Millisecond

// watchAndCompute recomputes after every settled change to one of the input
// files until ctx is cancelled. Parent directories are watched because
// editors often save by renaming a temporary file over the original.
func watchAndCompute(ctx context.Context, cmd *cobra.Command, s computeSettings) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	inputs := make(map[string]bool, len(s.files))
	dirs := make(map[string]bool)
	for _, f := range s.files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		inputs[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	run := func() {
		timer := observ.NewTimer()
		if _, err := computeOnce(ctx, cmd, s, timer); err != nil && ctx.Err() == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		}
		if s.timings {
			fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "watching %d files (Ctrl-C to stop)\n", len(inputs))
	}
	run()

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	defer debounce.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !inputs[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("input changed", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			debounce.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		case <-debounce.C:
			fmt.Fprintf(cmd.ErrOrStderr(), "\n--- %s recomputing\n", time.Now().Format("15:04:05"))
			run()
		}
	}
}
