// Package debug provides conditional debug logging for trackfeat.
//
// Debug logging is enabled by setting the TRACKFEAT_DEBUG environment
// variable:
//
//	TRACKFEAT_DEBUG=1 trackfeat tracks.json
//
// When enabled, messages are written to stderr with timestamps. When
// disabled (default), all functions are no-ops. All functions are safe to
// call from analyzer worker goroutines.
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var (
	enabled atomic.Bool

	mu     sync.RWMutex
	logger = log.New(os.Stderr, "[TRACKFEAT] ", log.Ltime|log.Lmicroseconds)
)

func init() {
	if os.Getenv("TRACKFEAT_DEBUG") != "" {
		enabled.Store(true)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// SetOutput redirects debug output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "[TRACKFEAT] ", log.Ltime|log.Lmicroseconds)
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Log writes a printf-style debug message.
func Log(format string, args ...any) {
	if !Enabled() {
		return
	}
	current().Printf(format, args...)
}

// LogTiming writes how long an operation took.
func LogTiming(name string, d time.Duration) {
	if !Enabled() {
		return
	}
	current().Printf("%s took %v", name, d)
}

// LogEnterExit logs entry and exit of a function with timing:
//
//	defer debug.LogEnterExit("Calculator.Compute")()
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	l := current()
	l.Printf("-> %s", name)
	start := time.Now()
	return func() {
		l.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type.
func Dump(name string, v any) {
	if !Enabled() {
		return
	}
	current().Printf("%s: %T = %+v", name, v, v)
}
