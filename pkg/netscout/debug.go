// Package netscout: Debug logging support.
package netscout

import (
	"fmt"
	"sync"
)

// DebugLevel represents the verbosity level for debug logging.
type DebugLevel int

const (
	// DebugOff disables all debug logging.
	DebugOff DebugLevel = iota
	// DebugBasic logs high-level operations (start/complete/errors).
	DebugBasic
	// DebugVerbose logs every probe.
	DebugVerbose
)

// DebugLogger is a callback function for debug logging.
// The component parameter names the part of the library that logged.
type DebugLogger func(component Component, format string, args ...interface{})

var (
	debugLogger DebugLogger
	debugLevel  DebugLevel
	debugMu     sync.RWMutex
)

// SetDebugLogger sets a custom debug logger callback.
// Pass nil to disable debug logging.
func SetDebugLogger(logger DebugLogger) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugLogger = logger
}

// SetDebugLevel sets the debug verbosity level.
func SetDebugLevel(level DebugLevel) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugLevel = level
}

// GetDebugLevel returns the current debug level.
func GetDebugLevel() DebugLevel {
	debugMu.RLock()
	defer debugMu.RUnlock()
	return debugLevel
}

func logAt(min DebugLevel, component Component, format string, args ...interface{}) {
	debugMu.RLock()
	logger := debugLogger
	level := debugLevel
	debugMu.RUnlock()

	if logger != nil && level >= min {
		logger(component, format, args...)
	}
}

// debugLog logs a message if debug logging is enabled.
func debugLog(component Component, format string, args ...interface{}) {
	logAt(DebugBasic, component, format, args...)
}

// debugLogVerbose logs a message only at DebugVerbose.
func debugLogVerbose(component Component, format string, args ...interface{}) {
	logAt(DebugVerbose, component, format, args...)
}

// FormatBytes returns a hex dump preview of bytes for debugging.
func FormatBytes(data []byte, maxLen int) string {
	if len(data) == 0 {
		return "(empty)"
	}
	if maxLen <= 0 {
		maxLen = 64
	}
	if len(data) > maxLen {
		return fmt.Sprintf("%x... (%d bytes total)", data[:maxLen], len(data))
	}
	return fmt.Sprintf("%x", data)
}
