// Package watcher follows the config file and hot-reloads the timer settings
// when it changes on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/adibhanna/pomodoro/internal/log"
)

// Watcher signals when one config file changes on disk.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	onChange  chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// Config names the file to watch and how long it must stay quiet before a
// change is reported.
type Config struct {
	Path     string
	Debounce time.Duration
}

// DefaultConfig watches path with a 250ms debounce, enough to fold an
// editor's write-and-rename save into one change.
func DefaultConfig(path string) Config {
	return Config{Path: path, Debounce: 250 * time.Millisecond}
}

// New creates a watcher for cfg.Path. Nothing is watched until Start.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		path:      cfg.Path,
		debounce:  cfg.Debounce,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the directory holding the config file. Editors that
// save by renaming a temp file over the original are covered that way.
// Returns a channel that receives a signal when the file changes.
func (w *Watcher) Start() (<-chan struct{}, error) {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}
	log.Debug(log.CatWatcher, "Watching config", "path", w.path)

	go w.loop()

	return w.onChange, nil
}

// Stop ends the watch and closes the fsnotify handle. Later calls return nil.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

// loop coalesces bursts of events on the file into one signal, sent once
// the file has been quiet for the debounce period.
func (w *Watcher) loop() {
	quiet := time.NewTimer(w.debounce)
	quiet.Stop()
	defer quiet.Stop()
	var settle <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.isRelevantEvent(event) {
				quiet.Reset(w.debounce)
				settle = quiet.C
			}

		case <-settle:
			settle = nil
			log.Debug(log.CatWatcher, "Config changed", "path", w.path)
			// A signal already waiting covers this change too.
			select {
			case w.onChange <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watch error", err, "path", w.path)

		case <-w.done:
			return
		}
	}
}

// isRelevantEvent reports whether the event touches the watched file.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Base(event.Name) == filepath.Base(w.path)
}
