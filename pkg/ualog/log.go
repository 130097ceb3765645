// Package ualog provides the leveled-logger seam shared by every long-lived
// component of the stack (Transport, the secure-channel Set, Server).
package ualog

import "github.com/pion/logging"

// Factory derives named leveled loggers for stack components.
// A nil Factory disables logging entirely; For tolerates it.
type Factory = logging.LoggerFactory

// Logger is the leveled logger interface components log through.
type Logger = logging.LeveledLogger

// nopLogger discards everything. Used when no Factory is configured.
type nopLogger struct{}

func (nopLogger) Trace(string)          {}
func (nopLogger) Tracef(string, ...any) {}
func (nopLogger) Debug(string)          {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Info(string)           {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warn(string)           {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Error(string)          {}
func (nopLogger) Errorf(string, ...any) {}

// Nop is a Logger that discards everything.
var Nop Logger = nopLogger{}

// For derives a named logger from factory, or Nop if factory is nil.
func For(factory Factory, scope string) Logger {
	if factory == nil {
		return Nop
	}
	return factory.NewLogger(scope)
}
