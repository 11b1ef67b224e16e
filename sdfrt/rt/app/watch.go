package app

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/gekko3d/raymarch/sdfrt/rt/core"
	"github.com/gekko3d/raymarch/sdfrt/rt/shaders"

	"github.com/fsnotify/fsnotify"
)

// ShaderWatcher signals on Changed whenever one of the kernel sources in a
// directory is written, created or renamed. Signals coalesce: at most one
// is pending at a time, so the render loop reloads once per burst.
type ShaderWatcher struct {
	Changed <-chan string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func WatchShaders(dir string, logger core.Logger) (*ShaderWatcher, error) {
	if logger == nil {
		logger = core.NewNopLogger()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shader watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	changed := make(chan string, 1)
	w := &ShaderWatcher{
		Changed: changed,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-w.done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !slices.Contains(shaders.Files, filepath.Base(event.Name)) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				select {
				case changed <- event.Name:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("shader watcher: %v", err)
			}
		}
	}()
	return w, nil
}

func (w *ShaderWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
