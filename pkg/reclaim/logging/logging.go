// Package logging provides the shared logging system for reclaim.
//
// Loggers may be obtained at package init, long before Init runs; they
// resolve the active sink on every call, so messages logged before Init
// are dropped and everything after Init reaches the log file.
//
// Basic usage:
//
//	cfg := logging.Config{
//	    Level: "info",
//	    Path:  logging.DefaultLogPath(),
//	}
//	if err := logging.Init(cfg); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("recovery")
//	logger.Info("batch staged", "manifest", id)
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// toCharmLevel converts our Level to charmbracelet/log level.
func (l Level) toCharmLevel() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelInfo:
		return log.InfoLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// Components maps component names to their log levels, allowing
	// per-component overrides.
	Components map[string]string

	// ConsoleLevel enables console output at the specified level.
	// Empty string disables console output (default). When set, logs at
	// this level and above go to stderr.
	ConsoleLevel string
}

// Logger identifies a component. It holds no sink of its own: every log
// call looks up the sinks current at that moment, so a Logger captured
// in a package-level var starts writing as soon as Init runs.
type Logger struct {
	component string
	context   []interface{}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	file, console := activeSinks(l.component)
	if file == nil {
		return
	}

	kv := args
	if len(l.context) > 0 {
		kv = make([]interface{}, 0, len(l.context)+len(args))
		kv = append(kv, l.context...)
		kv = append(kv, args...)
	}

	logTo(file, level, msg, kv...)
	if console != nil {
		logTo(console, level, msg, kv...)
	}
}

// logTo writes a log message to the given logger at the specified level.
func logTo(logger *log.Logger, level Level, msg string, args ...interface{}) {
	switch level {
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelInfo:
		logger.Info(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	}
}

// With returns a new logger carrying additional key-value context.
func (l *Logger) With(args ...interface{}) *Logger {
	ctx := make([]interface{}, 0, len(l.context)+len(args))
	ctx = append(ctx, l.context...)
	ctx = append(ctx, args...)
	return &Logger{component: l.component, context: ctx}
}

// sinks holds the charm loggers backing one component.
type sinks struct {
	file    *log.Logger
	console *log.Logger
}

// state holds the global logging state.
type state struct {
	mu          sync.RWMutex
	initialized bool
	file        *os.File
	level       Level
	components  map[string]Level
	sinks       map[string]*sinks

	consoleEnabled bool
	consoleLevel   Level
}

var globalState = &state{
	sinks:      make(map[string]*sinks),
	components: make(map[string]Level),
}

// Init initializes the logging system with the given configuration.
// Before Init() is called, all loggers drop their messages.
func Init(cfg Config) error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if globalState.initialized && globalState.file != nil {
		if err := globalState.file.Close(); err != nil {
			return fmt.Errorf("closing existing log file: %w", err)
		}
	}
	globalState.sinks = make(map[string]*sinks)
	globalState.components = make(map[string]Level)

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	globalState.level = level

	for comp, lvl := range cfg.Components {
		parsedLevel, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		globalState.components[comp] = parsedLevel
	}

	globalState.consoleEnabled = false
	if cfg.ConsoleLevel != "" {
		consoleLevel, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		globalState.consoleLevel = consoleLevel
		globalState.consoleEnabled = true
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	globalState.file = file
	globalState.initialized = true

	return nil
}

// Get returns a logger for the given component. If the component has a
// level override in the config, it uses that level; otherwise the
// default level. Loggers are cheap and safe to obtain at package init.
func Get(component string) *Logger {
	return &Logger{component: component}
}

// activeSinks returns the charm loggers for a component, creating them
// on first use after Init. A nil file sink means logging is not
// initialized and the message is dropped.
func activeSinks(component string) (*log.Logger, *log.Logger) {
	globalState.mu.RLock()
	if !globalState.initialized {
		globalState.mu.RUnlock()
		return nil, nil
	}
	if s, ok := globalState.sinks[component]; ok {
		globalState.mu.RUnlock()
		return s.file, s.console
	}
	globalState.mu.RUnlock()

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if !globalState.initialized {
		return nil, nil
	}
	if s, ok := globalState.sinks[component]; ok {
		return s.file, s.console
	}
	s := newSinks(component)
	globalState.sinks[component] = s
	return s.file, s.console
}

// newSinks builds the charm loggers for a component. Must be called
// with globalState.mu held and the system initialized.
func newSinks(component string) *sinks {
	level := globalState.level
	if compLevel, ok := globalState.components[component]; ok {
		level = compLevel
	}

	s := &sinks{
		file: log.NewWithOptions(globalState.file, log.Options{
			Level:           level.toCharmLevel(),
			ReportCaller:    false,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}

	if globalState.consoleEnabled {
		// Console uses shorter timestamp format.
		s.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           globalState.consoleLevel.toCharmLevel(),
			ReportCaller:    false,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}

	return s
}

// Close flushes and closes the log file. It should be called when the
// application exits. Loggers go silent again until the next Init.
func Close() error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if !globalState.initialized {
		return nil
	}

	globalState.initialized = false
	globalState.sinks = make(map[string]*sinks)
	if globalState.file != nil {
		err := globalState.file.Close()
		globalState.file = nil
		return err
	}
	return nil
}

// DefaultLogPath returns the default log file path using XDG state
// conventions, falling back to the user cache directory.
func DefaultLogPath() string {
	if path, err := xdg.StateFile(filepath.Join("reclaim", "reclaim.log")); err == nil {
		return path
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "reclaim.log")
	}
	return filepath.Join(cacheDir, "reclaim", "reclaim.log")
}
