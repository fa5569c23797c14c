package logging

// Logger is the logging surface shared by every component.
type Logger interface {
	Printf(format string, v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
	WithField(key string, value any) Logger
}
