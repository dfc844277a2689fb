// Package debug provides conditional debug logging for warren.
//
// Debug logging is enabled by setting the WARREN_DEBUG environment variable.
// WARREN_DEBUG=1 writes to stderr; any other value is treated as a file path
// and messages are appended there, which is what you want while the TUI owns
// the terminal:
//
//	WARREN_DEBUG=/tmp/warren.log warren
//
// When disabled (default), all debug functions are no-ops with zero overhead.
package debug

import (
	"log"
	"os"
	"time"
)

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	v := os.Getenv("WARREN_DEBUG")
	if v == "" {
		return
	}
	out := os.Stderr
	if v != "1" {
		f, err := os.OpenFile(v, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			out = f
		}
	}
	enabled = true
	logger = log.New(out, "[WARREN_DEBUG] ", log.Ltime|log.Lmicroseconds)
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}
