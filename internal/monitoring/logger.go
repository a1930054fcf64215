// Package monitoring holds the engine's diagnostic logging hooks.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Debug gates per-tick diagnostics (calibration candidates, match residuals).
// Off by default: the guidance loop runs at 10Hz and would flood the log.
var Debug bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Debugf logs through Logf only when Debug is enabled.
func Debugf(format string, v ...interface{}) {
	if Debug {
		Logf(format, v...)
	}
}
