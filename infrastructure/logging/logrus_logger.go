package logging

import (
	"io"
	"os"

	"ethertap/application/logging"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type logrusAdapter struct {
	entry *logrus.Entry
}

// NewLogrusLogger builds a logger writing to stdout and, if configured, to a
// rotating file.
func NewLogrusLogger(cfg Config) logging.Logger {
	return NewLogrusLoggerWithConsole(cfg, os.Stdout)
}

// NewLogrusLoggerWithConsole replaces stdout with console, e.g. a buffer shown
// by the dashboard. The file appender is kept.
func NewLogrusLoggerWithConsole(cfg Config, console io.Writer) logging.Logger {
	writers := []io.Writer{console}
	if cfg.File.Filename != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File.Filename,
			MaxSize:    cfg.File.MaxSize,    // megabytes
			MaxBackups: cfg.File.MaxBackups, // number of backups
			MaxAge:     cfg.File.MaxAge,     // days
			Compress:   cfg.File.Compress,
		})
	}
	return NewLogrusLoggerTo(cfg, io.MultiWriter(writers...))
}

// NewLogrusLoggerTo is NewLogrusLogger with an explicit sink.
func NewLogrusLoggerTo(cfg Config, out io.Writer) logging.Logger {
	l := logrus.New()
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	timeLayout := cfg.Time
	if timeLayout == "" {
		timeLayout = DefaultTime
	}
	l.SetFormatter(&formatter{pattern: pattern, time: timeLayout})
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetOutput(out)
	return &logrusAdapter{entry: logrus.NewEntry(l)}
}

func (l *logrusAdapter) Printf(format string, v ...any) { l.entry.Printf(format, v...) }
func (l *logrusAdapter) Debugf(format string, v ...any) { l.entry.Debugf(format, v...) }
func (l *logrusAdapter) Infof(format string, v ...any)  { l.entry.Infof(format, v...) }
func (l *logrusAdapter) Warnf(format string, v ...any)  { l.entry.Warnf(format, v...) }
func (l *logrusAdapter) Errorf(format string, v ...any) { l.entry.Errorf(format, v...) }

func (l *logrusAdapter) WithField(key string, value any) logging.Logger {
	return &logrusAdapter{entry: l.entry.WithField(key, value)}
}
