package monarco

import "github.com/golang/glog"

// Logger receives leveled diagnostics from the Engine.
type Logger interface {
	Errorf(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Verbosef(format string, args ...interface{})
}

// GlogLogger writes diagnostics through glog.
type GlogLogger struct {
	// Prefix is prepended to every message, usually the device name.
	Prefix string
	// Verbosity is the glog level of verbose messages.
	Verbosity glog.Level
}

// DefaultVerbosity is the glog level used for verbose diagnostics.
const DefaultVerbosity glog.Level = 3

// NewGlogLogger creates a GlogLogger with prefix.
func NewGlogLogger(prefix string) *GlogLogger {
	return &GlogLogger{Prefix: prefix, Verbosity: DefaultVerbosity}
}

func (l *GlogLogger) prefixed(format string) string {
	if l.Prefix == "" {
		return format
	}
	return "[" + l.Prefix + "] " + format
}

// Errorf implements Logger.
func (l *GlogLogger) Errorf(format string, args ...interface{}) {
	glog.Errorf(l.prefixed(format), args...)
}

// Warningf implements Logger.
func (l *GlogLogger) Warningf(format string, args ...interface{}) {
	glog.Warningf(l.prefixed(format), args...)
}

// Infof implements Logger.
func (l *GlogLogger) Infof(format string, args ...interface{}) {
	glog.Infof(l.prefixed(format), args...)
}

// Verbosef implements Logger.
func (l *GlogLogger) Verbosef(format string, args ...interface{}) {
	glog.V(l.Verbosity).Infof(l.prefixed(format), args...)
}
