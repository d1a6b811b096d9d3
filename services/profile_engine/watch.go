// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package profile_engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOverrides applies dir once, then watches it and re-applies on
// every change to a *.yaml file until ctx is cancelled. Invalid
// override sets are logged and skipped; the last good catalog stays
// live. Blocks, so run it on its own goroutine.
func (e *Engine) WatchOverrides(ctx context.Context, dir string, logger *slog.Logger) error {
	if err := e.ApplyOverrides(dir); err != nil {
		return fmt.Errorf("initial override load: %w", err)
	}
	logger.Info("profile overrides loaded", "dir", dir, "profiles", len(e.Names()))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Editors fire bursts of events per save; debounce before reloading.
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".yaml") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(250 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("profile watcher error", "error", err)
		case <-pending:
			pending = nil
			if err := e.ApplyOverrides(dir); err != nil {
				logger.Warn("profile override reload failed, keeping previous catalog", "error", err)
				continue
			}
			logger.Info("profile catalog reloaded", "profiles", len(e.Names()))
		}
	}
}
