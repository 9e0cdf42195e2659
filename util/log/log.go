// Package log is a thin facade over logrus, matching the field-based
// logging style used throughout the protocol engines.
package log

import (
	"github.com/sirupsen/logrus"
)

// Fields carries structured key/value context for a log line.
type Fields logrus.Fields

var std = logrus.StandardLogger()

// SetLevel sets the minimum log level emitted by the standard logger.
func SetLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	std.SetLevel(l)
	return nil
}

// WithFields returns an entry pre-populated with the given fields.
func WithFields(f Fields) *logrus.Entry {
	return std.WithFields(logrus.Fields(f))
}

func Debug(args ...interface{}) {
	std.Debug(args...)
}

func Debugf(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

func Info(args ...interface{}) {
	std.Info(args...)
}

func Infof(format string, args ...interface{}) {
	std.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	std.Errorf(format, args...)
}
