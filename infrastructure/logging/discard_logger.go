package logging

import "ethertap/application/logging"

// DiscardLogger drops everything. Used by tests and when no logger is supplied.
type DiscardLogger struct{}

func NewDiscardLogger() logging.Logger {
	return DiscardLogger{}
}

func (DiscardLogger) Printf(string, ...any) {}
func (DiscardLogger) Debugf(string, ...any) {}
func (DiscardLogger) Infof(string, ...any)  {}
func (DiscardLogger) Warnf(string, ...any)  {}
func (DiscardLogger) Errorf(string, ...any) {}

func (d DiscardLogger) WithField(string, any) logging.Logger { return d }
