// Package config provides configuration types, defaults, loading and
// persistence for pomodoro.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/adibhanna/pomodoro/internal/log"
	"github.com/adibhanna/pomodoro/internal/models"
)

// LocalConfigPath is checked before the user config directory.
const LocalConfigPath = ".pomodoro/config.yaml"

// EnvPrefix prefixes environment overrides, e.g. POMODORO_TIMER_WORK_DURATION.
const EnvPrefix = "POMODORO"

// ErrConfigNotFound is returned by Load when an explicitly named file is missing.
var ErrConfigNotFound = errors.New("config file not found")

// Config holds the complete application configuration.
type Config struct {
	Timer    models.TimerConfig `mapstructure:"timer" yaml:"timer"`
	DataDir  string             `mapstructure:"data_dir" yaml:"data_dir"`   // session history directory
	LogFile  string             `mapstructure:"log_file" yaml:"log_file"`   // debug log path; empty uses DataDir/debug.log
	LogLevel string             `mapstructure:"log_level" yaml:"log_level"` // debug, info, warn or error
	Debug    bool               `mapstructure:"debug" yaml:"debug"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Timer:    models.DefaultTimerConfig(),
		DataDir:  DefaultDataDir(),
		LogLevel: "info",
	}
}

// DefaultDataDir returns ~/.pomodoro, or .pomodoro when the home directory
// cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pomodoro"
	}
	return filepath.Join(home, ".pomodoro")
}

// UserConfigPath returns ~/.config/pomodoro/config.yaml.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return LocalConfigPath
	}
	return filepath.Join(home, ".config", "pomodoro", "config.yaml")
}

// ResolvePath picks the config file to use:
//  1. explicit, when non-empty
//  2. .pomodoro/config.yaml in the current directory, when it exists
//  3. ~/.config/pomodoro/config.yaml, whether or not it exists yet
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if Exists(LocalConfigPath) {
		return LocalConfigPath
	}
	return UserConfigPath()
}

// Exists reports whether a regular file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the configuration. explicit names a file that must exist; with
// an empty explicit the lookup of ResolvePath applies and a missing file
// yields the defaults. Environment variables override file values. The
// returned path is where the configuration lives or should be written.
func Load(explicit string) (Config, string, error) {
	path := ResolvePath(explicit)

	v := viper.New()
	setDefaults(v, Defaults())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	switch {
	case Exists(path):
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			log.ErrorErr(log.CatConfig, "Failed to read config", err, "path", path)
			return Config{}, path, fmt.Errorf("reading config %s: %w", path, err)
		}
		log.Debug(log.CatConfig, "Loaded config", "path", path)
	case explicit != "":
		return Config{}, path, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	default:
		log.Debug(log.CatConfig, "No config file, using defaults", "path", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, path, fmt.Errorf("decoding config %s: %w", path, err)
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.LogFile = expandHome(cfg.LogFile)
	if err := Validate(cfg); err != nil {
		return Config{}, path, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, path, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("timer.work_duration", d.Timer.WorkDuration)
	v.SetDefault("timer.short_break_duration", d.Timer.ShortBreakDuration)
	v.SetDefault("timer.long_break_duration", d.Timer.LongBreakDuration)
	v.SetDefault("timer.sessions_until_long_break", d.Timer.SessionsUntilLongBreak)
	v.SetDefault("timer.auto_start_breaks", d.Timer.AutoStartBreaks)
	v.SetDefault("timer.auto_start_pomodoros", d.Timer.AutoStartPomodoros)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("debug", d.Debug)
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate checks the timer section, the data directory and the log level.
func Validate(cfg Config) error {
	if err := cfg.Timer.Validate(); err != nil {
		return fmt.Errorf("timer: %w", err)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q: want debug, info, warn or error", cfg.LogLevel)
	}
	return nil
}

// LogPath returns the debug log location.
func (c Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "debug.log")
}

// Marshal renders cfg as YAML, as shown by `pomodoro config show`.
func Marshal(cfg Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return out, nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	d := models.DefaultTimerConfig()
	return fmt.Sprintf(`# Pomodoro Configuration

# Timer settings. Durations are in seconds.
timer:
  work_duration: %d               # focus phase
  short_break_duration: %d         # break after most focus phases
  long_break_duration: %d          # break after every Nth focus phase
  sessions_until_long_break: %d      # N
  auto_start_breaks: %t          # start the break as soon as focus ends
  auto_start_pomodoros: %t      # start focus as soon as a break ends

# Where session history is kept (default: ~/.pomodoro)
# data_dir: ~/.pomodoro

# Debug logging (also enabled with --debug)
# log_file: ~/.pomodoro/debug.log
# log_level: info                  # debug, info, warn or error
debug: false
`, d.WorkDuration, d.ShortBreakDuration, d.LongBreakDuration, d.SessionsUntilLongBreak,
		d.AutoStartBreaks, d.AutoStartPomodoros)
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
