// Package watch re-runs a callback when tool documents change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports changed Markdown documents.
type Watcher struct {
	Debounce time.Duration
	Logger   *zap.Logger
}

type target struct {
	files map[string]bool
	dirs  map[string]bool
}

func (t target) matches(name string) bool {
	name = filepath.Clean(name)
	if t.files[name] {
		return true
	}
	return t.dirs[filepath.Dir(name)] && strings.EqualFold(filepath.Ext(name), ".md")
}

// Run watches paths (files, or directories of .md files) and calls onChange
// with each changed path after the debounce window. Watching a file's parent
// directory keeps atomic-rename saves visible. Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context, paths []string, onChange func(path string)) error {
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	tg := target{files: map[string]bool{}, dirs: map[string]bool{}}
	watched := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		dir := abs
		if info.IsDir() {
			tg.dirs[abs] = true
		} else {
			tg.files[abs] = true
			dir = filepath.Dir(abs)
		}
		if !watched[dir] {
			if err := fw.Add(dir); err != nil {
				return fmt.Errorf("failed to watch directory %s: %w", dir, err)
			}
			watched[dir] = true
		}
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !tg.matches(ev.Name) {
				continue
			}
			pending[filepath.Clean(ev.Name)] = true
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", zap.Error(err))
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				if _, err := os.Stat(p); err == nil {
					changed = append(changed, p)
				}
			}
			clear(pending)
			sort.Strings(changed)
			for _, p := range changed {
				logger.Debug("document changed", zap.String("path", p))
				onChange(p)
			}
		}
	}
}
