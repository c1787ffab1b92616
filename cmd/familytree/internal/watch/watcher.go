// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch signals changes to the loaded data file.
//
// The watcher never touches the registry. It only raises a flag that the
// REPL checks between commands, and the REPL does the reload itself.
package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/familytree/pkg/logging"
)

// DataWatcher watches one data file for modifications.
//
// # Description
//
// The parent directory is watched rather than the file, so editors that
// save by writing a temp file and renaming it over the original are seen
// too. Bursts of events collapse into a single pending signal.
//
// # Thread Safety
//
// Safe for concurrent use. Start should only be called once.
type DataWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	changed chan struct{}
	logger  *logging.Logger
}

// NewDataWatcher creates a watcher for path.
//
// # Inputs
//
//   - path: Data file to watch. It does not need to exist yet.
//   - logger: Destination for watch errors.
//
// # Outputs
//
//   - *DataWatcher: Ready-to-start watcher.
//   - error: Non-nil if the parent directory cannot be watched.
func NewDataWatcher(path string, logger *logging.Logger) (*DataWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &DataWatcher{
		path:    abs,
		watcher: watcher,
		changed: make(chan struct{}, 1),
		logger:  logger,
	}, nil
}

// Changed receives a value after the file was written, created or renamed
// into place. At most one signal is pending at a time.
func (w *DataWatcher) Changed() <-chan struct{} {
	return w.changed
}

// Start processes events until ctx is cancelled or Stop is called. Run it
// in a goroutine.
func (w *DataWatcher) Start(ctx context.Context) {
	w.logger.Debug("watching data file", "path", w.path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("data file watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

func (w *DataWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	select {
	case w.changed <- struct{}{}:
		w.logger.Debug("data file changed", "path", w.path, "op", event.Op.String())
	default:
	}
}

// Stop stops watching and releases resources.
func (w *DataWatcher) Stop() error {
	return w.watcher.Close()
}
