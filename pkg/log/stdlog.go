package log

import (
	stdlog "log"
	"strings"
)

type stdWriter struct {
	logger Logger
	level  Level
}

func (w stdWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	switch w.level {
	case DebugLevel:
		w.logger.Debug(msg)
	case WarnLevel:
		w.logger.Warn(msg)
	case ErrorLevel, FatalLevel:
		w.logger.Error(msg)
	default:
		w.logger.Info(msg)
	}
	return len(p), nil
}

// ToStdLogger adapts logger to a *log.Logger writing at level.
func ToStdLogger(logger Logger, level Level) *stdlog.Logger {
	return stdlog.New(stdWriter{logger: logger, level: level}, "", 0)
}

// RedirectStdLog routes the standard library's default logger through logger.
func RedirectStdLog(logger Logger) {
	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(stdWriter{logger: logger.WithComponent("stdlog"), level: InfoLevel})
}
