package watcher

import (
	"context"
	"fmt"

	"github.com/adibhanna/pomodoro/internal/config"
	"github.com/adibhanna/pomodoro/internal/log"
	"github.com/adibhanna/pomodoro/internal/models"
)

// Target receives reloaded timer settings. *pomodoro.Timer satisfies it.
type Target interface {
	Config() models.TimerConfig
	UpdateConfig(patch models.ConfigPatch) error
}

// Reloader applies edits of the config file to a Target.
//
// Only fields whose value in the file changed since the previous load are
// applied, so settings the target got from elsewhere (command-line flags,
// the settings screen) survive unrelated edits, and the long-break counter
// is only reset when the interval itself was edited.
type Reloader struct {
	path   string
	target Target
	last   models.TimerConfig
}

// NewReloader records the current timer section of the file at path as the
// baseline for later reloads.
func NewReloader(path string, target Target) (*Reloader, error) {
	cfg, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config baseline: %w", err)
	}
	return &Reloader{path: path, target: target, last: cfg.Timer}, nil
}

// Reload reads the file again and applies the timer fields that were edited.
// An unreadable or invalid file leaves target and the baseline untouched.
func (r *Reloader) Reload() (models.TimerConfig, error) {
	cfg, _, err := config.Load(r.path)
	if err != nil {
		return models.TimerConfig{}, fmt.Errorf("reloading config: %w", err)
	}

	edited := models.Diff(r.last, cfg.Timer)
	current := r.target.Config()
	patch := models.Diff(current, current.Merge(edited))
	if patch.IsEmpty() {
		r.last = cfg.Timer
		log.Debug(log.CatWatcher, "Config change left timer settings as they were", "path", r.path)
		return current, nil
	}

	if err := r.target.UpdateConfig(patch); err != nil {
		return models.TimerConfig{}, fmt.Errorf("applying reloaded config: %w", err)
	}
	r.last = cfg.Timer
	applied := r.target.Config()
	log.Info(log.CatWatcher, "Applied config change", "path", r.path,
		"work", applied.WorkDuration, "interval", applied.SessionsUntilLongBreak)
	return applied, nil
}

// Follow calls Reload for every signal on changes until ctx is done or
// changes is closed. onApplied, when non-nil, sees the target's settings
// after each successful reload. Failed reloads are logged and skipped.
func (r *Reloader) Follow(ctx context.Context, changes <-chan struct{}, onApplied func(models.TimerConfig)) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			applied, err := r.Reload()
			if err != nil {
				log.Warn(log.CatWatcher, "Ignoring config change", "path", r.path, "error", err)
				continue
			}
			if onApplied != nil {
				onApplied(applied)
			}
		}
	}
}
