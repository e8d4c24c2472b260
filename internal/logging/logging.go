// Package logging holds the process-wide structured logger.
//
// Results and the MCP stdio transport own stdout, so every log line goes to
// stderr (or the writer passed to Init).
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is the global logger. It is usable before Init and logs at info.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

var mu sync.Mutex

// Config selects the output format and level.
type Config struct {
	Level   string    // debug, info, warn, error, disabled
	Console bool      // human-readable console writer instead of JSON
	Out     io.Writer // defaults to os.Stderr
}

// Init replaces the global logger.
func Init(cfg Config) {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	mu.Lock()
	defer mu.Unlock()
	Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// SetLevel changes the level of the global logger in place. Used by the
// config watcher.
func SetLevel(s string) error {
	level, err := ParseLevel(s)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	Logger = Logger.Level(level)
	return nil
}

// ParseLevel accepts zerolog level names plus "warning". Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}
	return zerolog.ParseLevel(s)
}

// For returns a child logger tagged with the module name.
func For(module string) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return Logger.With().Str("module", module).Logger()
}

// Debug starts a debug event for a module.
func Debug(module string) *zerolog.Event {
	l := For(module)
	return l.Debug()
}

// Info starts an info event for a module.
func Info(module string) *zerolog.Event {
	l := For(module)
	return l.Info()
}

// Warn starts a warn event for a module.
func Warn(module string) *zerolog.Event {
	l := For(module)
	return l.Warn()
}

// Error starts an error event for a module.
func Error(module string) *zerolog.Event {
	l := For(module)
	return l.Error()
}
