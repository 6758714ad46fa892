// Package log is the structured logging facade every other package in
// this module calls through, so none of them need to import zerolog (or
// any other concrete logger) directly.
//
// The zero value is a no-op: nothing is logged until the entry point
// calls SetLogger. cmd/mapscan wires zerolog in at startup:
//
//	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
//	log.SetLogger(log.NewZerologAdapter(zlog))
//
// Call sites elsewhere just log a message plus structured fields:
//
//	log.Warn("block not found in source store", log.F("block", posID))
//	log.Info("scan complete", log.F("blocks_good", good), log.F("blocks_bad", bad))
//
// A test, or any caller that wants its own sink, can satisfy Logger
// directly instead of going through an adapter.
package log

import "sync"

// Field is one key-value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// F builds a Field; it exists so call sites read as a flat argument list
// instead of a struct literal per field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger is the structured logging interface every call in this module
// goes through. NewZerologAdapter is the built-in implementation; tests
// and alternative backends can implement it directly.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

var (
	mu     sync.RWMutex
	active Logger = &noopLogger{}
)

// SetLogger installs l as the logger every package-level Debug/Info/Warn/
// Error call delegates to. Passing nil reverts to the no-op logger. Safe
// to call concurrently with logging calls, though in practice it is only
// ever called once, at process startup.
func SetLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = &noopLogger{}
	}
	active = l
}

// GetLogger returns the currently installed logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return active
}

// Debug logs msg at debug level through the installed logger.
func Debug(msg string, fields ...Field) { GetLogger().Debug(msg, fields...) }

// Info logs msg at info level through the installed logger.
func Info(msg string, fields ...Field) { GetLogger().Info(msg, fields...) }

// Warn logs msg at warn level through the installed logger.
func Warn(msg string, fields ...Field) { GetLogger().Warn(msg, fields...) }

// Error logs msg at error level through the installed logger.
func Error(msg string, fields ...Field) { GetLogger().Error(msg, fields...) }
