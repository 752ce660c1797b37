package plog

import "github.com/sirupsen/logrus"

// logrusLogger adapts *logrus.Logger to Logger, for hosts that want
// structured (JSON) log output instead of the plain stdlib default.
type logrusLogger struct{ l *logrus.Logger }

// NewLogrusLogger builds a Logger backed by logrus with a JSON formatter,
// for installation with SetLogger.
func NewLogrusLogger() Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	return &logrusLogger{l: l}
}

func (a *logrusLogger) Debugf(format string, v ...interface{}) { a.l.Debugf(format, v...) }
func (a *logrusLogger) Printf(format string, v ...interface{}) { a.l.Infof(format, v...) }
func (a *logrusLogger) Errorf(format string, v ...interface{}) { a.l.Errorf(format, v...) }
