package pgwire

import "github.com/sirupsen/logrus"

// Logger is the logging collaborator: a single sink receiving structured
// notice/warning/info/debug records. The core never writes to stdout
// directly; every diagnostic — including the raw transport "print"
// statements the reference design notes call out as a wart — goes
// through this interface instead.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// nopLogger discards everything. It is the zero-value Config's default,
// so a caller that never sets Config.Logger gets silence rather than a
// nil-pointer panic.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// logrusLogger adapts a *logrus.Logger (or logrus.FieldLogger, such as a
// *logrus.Entry with fields already attached) to Logger.
type logrusLogger struct {
	fields logrus.FieldLogger
}

// NewLogrusLogger wraps l as a pgwire Logger. Pass a *logrus.Logger
// directly, or a *logrus.Entry produced by WithField/WithFields if the
// caller wants every pgwire log line tagged (e.g. with a connection ID).
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return logrusLogger{fields: l}
}

func (l logrusLogger) Debugf(format string, args ...interface{}) { l.fields.Debugf(format, args...) }
func (l logrusLogger) Infof(format string, args ...interface{})  { l.fields.Infof(format, args...) }
func (l logrusLogger) Warnf(format string, args ...interface{})  { l.fields.Warnf(format, args...) }
func (l logrusLogger) Errorf(format string, args ...interface{}) { l.fields.Errorf(format, args...) }
