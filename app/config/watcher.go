package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// Watch invokes onChange whenever the topics file changes on disk. The
// reload itself is the caller's job, typically by enqueueing a reload task
// so the swap lands between runs. Blocks until the context is cancelled.
func (c *Cache) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files via rename,
	// which drops a watch placed on the file itself.
	dir := filepath.Dir(c.path)
	file := filepath.Base(c.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	slog.Debug("Watching topics file", "path", c.path)

	// Debounce so editors that emit several events per save trigger a
	// single callback for the fully written file.
	var timerMu sync.Mutex
	var timer *time.Timer
	changed := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, func() {
			slog.Debug("Topics file changed", "path", c.path)
			if onChange != nil {
				onChange()
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(event.Name), file) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				changed()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Topics file watch error", "path", c.path, "error", err)
		}
	}
}
