// Package log provides category-tagged, level-filtered logging for the
// pomodoro application. Logging is off until Init is called; the TUI owns the
// terminal, so entries only ever go to a file.
package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a Level, defaulting to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Category groups related log messages.
type Category string

const (
	CatTimer   Category = "timer"   // state machine transitions and listener failures
	CatConfig  Category = "config"  // configuration loading/saving
	CatWatcher Category = "watcher" // config file watcher
	CatHistory Category = "history" // session journal
	CatUI      Category = "ui"      // bubble tea screens
)

// Logger writes formatted entries to a writer.
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	minLevel Level
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// Init opens path through tea.LogToFile and installs it as the global logger.
// The returned cleanup uninstalls the logger and closes the file.
func Init(path string, prefix string) (func(), error) {
	f, err := tea.LogToFile(path, prefix)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	uninstall := SetOutput(f)
	return func() {
		uninstall()
		_ = f.Close()
	}, nil
}

// SetOutput installs a logger that writes every level to w and returns a func
// that drops it again, leaving logging off.
func SetOutput(w io.Writer) func() {
	l := &Logger{writer: w, minLevel: LevelDebug}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	return func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		if defaultLogger == l {
			defaultLogger = nil
		}
	}
}

// SetMinLevel drops entries below level. A no-op while logging is off.
func SetMinLevel(level Level) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	log(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	log(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	log(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	log(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	log(LevelError, cat, msg, fields...)
}

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func log(level Level, cat Category, msg string, fields ...any) {
	l := current()
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.minLevel {
		return
	}

	// 2026-10-19T10:45:00 [ERROR] [timer] message key=value key2=value2
	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, cat, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", fields[len(fields)-1])
	}
	b.WriteByte('\n')

	if l.writer != nil {
		_, _ = io.WriteString(l.writer, b.String())
	}
}
