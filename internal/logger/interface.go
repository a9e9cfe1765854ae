package logger

import "codeberg.org/mutker/fanctl/internal/errors"

// Logger is what components receive instead of the package functions, so
// tests can route them elsewhere.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	WarnWithCode(err errors.Error) *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
}
