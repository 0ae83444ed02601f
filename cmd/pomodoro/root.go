package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/adibhanna/pomodoro/internal/config"
	"github.com/adibhanna/pomodoro/internal/log"
	"github.com/adibhanna/pomodoro/internal/models"
	"github.com/adibhanna/pomodoro/internal/pomodoro"
	"github.com/adibhanna/pomodoro/internal/storage"
	"github.com/adibhanna/pomodoro/internal/ui/settings"
	"github.com/adibhanna/pomodoro/internal/ui/stats"
	timerui "github.com/adibhanna/pomodoro/internal/ui/timer"
	"github.com/adibhanna/pomodoro/internal/watcher"
)

// options holds the persistent flags shared by every command.
type options struct {
	cfgFile  string
	debug    bool
	logLevel string
	work     time.Duration
	short    time.Duration
	long     time.Duration
	interval int
}

func newRootCmd(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "pomodoro",
		Short: "A pomodoro timer for the terminal",
		Long: `A pomodoro timer for the terminal.

Alternates focus sessions with short breaks, and takes a long break after
every few focus sessions. Finished sessions are kept in a history journal.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "",
		"config file (default: .pomodoro/config.yaml, then ~/.config/pomodoro/config.yaml)")
	flags.BoolVar(&opts.debug, "debug", false, "write a debug log")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug log level: debug, info, warn or error")
	flags.DurationVar(&opts.work, "work", 0, "focus duration for this run, e.g. 25m")
	flags.DurationVar(&opts.short, "short", 0, "short break duration for this run, e.g. 5m")
	flags.DurationVar(&opts.long, "long", 0, "long break duration for this run, e.g. 15m")
	flags.IntVar(&opts.interval, "interval", 0, "focus sessions before a long break for this run")

	root.AddCommand(newConfigCmd(opts), newHistoryCmd(opts))
	return root
}

// load reads the configuration and applies flag overrides.
func (o *options) load(cmd *cobra.Command) (config.Config, string, error) {
	cfg, path, err := config.Load(o.cfgFile)
	if err != nil {
		return config.Config{}, path, err
	}

	var patch models.ConfigPatch
	flags := cmd.Flags()
	durations := []struct {
		name  string
		value time.Duration
		dst   **int
	}{
		{"work", o.work, &patch.WorkDuration},
		{"short", o.short, &patch.ShortBreakDuration},
		{"long", o.long, &patch.LongBreakDuration},
	}
	for _, d := range durations {
		if flags.Changed(d.name) {
			seconds := int(d.value / time.Second)
			*d.dst = &seconds
		}
	}
	if flags.Changed("interval") {
		interval := o.interval
		patch.SessionsUntilLongBreak = &interval
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if !patch.IsEmpty() || flags.Changed("log-level") {
		cfg.Timer = cfg.Timer.Merge(patch)
		if err := config.Validate(cfg); err != nil {
			return config.Config{}, path, fmt.Errorf("flags: %w", err)
		}
	}
	if o.debug {
		cfg.Debug = true
	}
	return cfg, path, nil
}

func runApp(cmd *cobra.Command, opts *options) error {
	cfg, configPath, err := opts.load(cmd)
	if err != nil {
		return err
	}

	stopLogging, err := initLogging(cfg)
	if err != nil {
		return err
	}
	defer stopLogging()
	log.Info(log.CatConfig, "Starting", "config", configPath, "data_dir", cfg.DataDir)

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening session history: %w", err)
	}

	timer, err := pomodoro.New(cfg.Timer)
	if err != nil {
		return err
	}
	defer timer.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	recorder := storage.NewRecorder(store)
	defer recorder.Attach(timer)()
	recCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()
	recorded := make(chan struct{})
	go func() {
		recorder.Run(recCtx)
		close(recorded)
	}()

	out := cmd.OutOrStdout()
	if !config.Exists(configPath) {
		fmt.Fprintln(out, "*** Welcome to Pomodoro! ***")
		fmt.Fprintln(out, "Let's set up your timer...")

		model := settings.New(timer, configPath, nil)
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("running settings: %w", err)
		}
		if !config.Exists(configPath) {
			if err := config.WriteDefaultConfig(configPath); err != nil {
				log.ErrorErr(log.CatConfig, "Could not write default config", err, "path", configPath)
			}
		}
		fmt.Fprintln(out, "[OK] Setup complete! Let's start focusing!")
	}

	stopWatching := watchConfig(ctx, configPath, timer)
	defer stopWatching()

	if err := runScreens(ctx, timer, store, configPath); err != nil {
		return err
	}

	timer.Close()
	stopRecorder()
	select {
	case <-recorded:
	case <-time.After(2 * time.Second):
		log.Warn(log.CatHistory, "Timed out flushing session history")
	}
	fmt.Fprintln(out, ">>> See you next session!")
	return nil
}

// initLogging starts the debug log when cfg asks for one, filtered to
// cfg.LogLevel. Without debug it returns a no-op cleanup.
func initLogging(cfg config.Config) (func(), error) {
	if !cfg.Debug {
		return func() {}, nil
	}
	cleanup, err := log.Init(cfg.LogPath(), "pomodoro")
	if err != nil {
		return nil, err
	}
	log.SetMinLevel(log.ParseLevel(cfg.LogLevel))
	return cleanup, nil
}

// runScreens moves between the timer, settings and history screens until
// the user quits. The Timer keeps running while another screen is open.
func runScreens(ctx context.Context, timer *pomodoro.Timer, store *storage.Storage, configPath string) error {
	for {
		screenCtx, cancelScreen := context.WithCancel(ctx)
		p := tea.NewProgram(timerui.New(screenCtx, timer), tea.WithAltScreen())
		finalModel, err := p.Run()
		cancelScreen()
		if err != nil {
			return fmt.Errorf("running timer: %w", err)
		}

		model, ok := finalModel.(timerui.Model)
		switch {
		case !ok:
			return nil
		case model.ShouldOpenSettings():
			if _, err := tea.NewProgram(settings.New(timer, configPath, store), tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("running settings: %w", err)
			}
		case model.ShouldOpenHistory():
			finalHistory, err := tea.NewProgram(stats.New(store, store.ExportDir()), tea.WithAltScreen()).Run()
			if err != nil {
				return fmt.Errorf("running history: %w", err)
			}
			if h, ok := finalHistory.(stats.Model); ok && h.ShouldQuit() {
				return nil
			}
		default:
			return nil
		}
	}
}

// watchConfig hot-reloads the config file into timer. Watching is best
// effort: failures are logged and the app runs without it.
func watchConfig(ctx context.Context, path string, timer *pomodoro.Timer) func() {
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		log.ErrorErr(log.CatWatcher, "Config watcher unavailable", err)
		return func() {}
	}
	changes, err := w.Start()
	if err != nil {
		log.ErrorErr(log.CatWatcher, "Config watcher unavailable", err, "path", path)
		_ = w.Stop()
		return func() {}
	}
	reloader, err := watcher.NewReloader(path, timer)
	if err != nil {
		log.ErrorErr(log.CatWatcher, "Config watcher unavailable", err, "path", path)
		_ = w.Stop()
		return func() {}
	}
	go reloader.Follow(ctx, changes, nil)
	return func() { _ = w.Stop() }
}
