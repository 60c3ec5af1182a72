package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Level represents the severity level of a log message.
type Level int

// Log levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Fields is a map of field names to values.
type Fields map[string]interface{}

// Context keys for propagating logging context
const (
	RequestIDKey = "request_id"
	ComponentKey = "component"
	OperationKey = "operation"
)

// Entry represents a single log entry.
type Entry struct {
	Level     Level
	Message   string
	Fields    Fields
	Timestamp time.Time
	Caller    string
	Error     error
}

// Logger defines the core logging interface for gateway components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	// Key-value variants: Infof("listening", "addr", addr)
	Debugf(msg string, args ...interface{})
	Infof(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
	Fatalf(msg string, args ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger
	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger
	WithComponent(component string) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// Formatter defines the interface for formatting log entries.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Output defines the interface for log outputs.
type Output interface {
	Write(entry *Entry, formattedEntry []byte) error
	Close() error
}

// LoggerOption is a function that configures a logger.
type LoggerOption func(*BaseLogger)

// BaseLogger implements the Logger interface.
type BaseLogger struct {
	level      *levelVar
	fields     Fields
	formatter  Formatter
	outputs    []Output
	slogLogger *slog.Logger

	redact   []string
	sampleN  int
	sampleM  int
	exitFunc func(int)
}

// ContextExtractor extracts logging context from a context.Context.
func ContextExtractor(ctx context.Context) Fields {
	fields := Fields{}
	if ctx == nil {
		return fields
	}
	for _, k := range []string{RequestIDKey, ComponentKey, OperationKey} {
		if v := ctx.Value(contextKey(k)); v != nil {
			fields[k] = v
		}
	}
	return fields
}

type contextKey string

// ContextWithRequestID returns a child context carrying a request id picked up
// by WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey(RequestIDKey), id)
}

// NewLogger creates a new logger with the given options.
func NewLogger(options ...LoggerOption) Logger {
	logger := &BaseLogger{
		level:     &levelVar{},
		fields:    Fields{},
		formatter: &JSONFormatter{},
		outputs:   []Output{},
		exitFunc:  os.Exit,
	}
	logger.level.Set(InfoLevel)

	for _, option := range options {
		option(logger)
	}

	if len(logger.outputs) == 0 {
		logger.outputs = append(logger.outputs, NewConsoleOutput())
	}

	h := newBridgeHandler(logger).withRedactions(logger.redact).withSampler(logger.sampleN, logger.sampleM)
	logger.slogLogger = slog.New(h)

	return logger
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(l *BaseLogger) {
		l.level.Set(level)
	}
}

// WithFormatter sets the log formatter.
func WithFormatter(formatter Formatter) LoggerOption {
	return func(l *BaseLogger) {
		l.formatter = formatter
	}
}

// WithOutput adds an output to the logger.
func WithOutput(output Output) LoggerOption {
	return func(l *BaseLogger) {
		l.outputs = append(l.outputs, output)
	}
}

// WithRedaction replaces the values of the given keys with [REDACTED].
func WithRedaction(keys ...string) LoggerOption {
	return func(l *BaseLogger) {
		l.redact = append(l.redact, keys...)
	}
}

// WithSampling logs the first `initial` occurrences of a message and then
// every `thereafter`-th one.
func WithSampling(initial, thereafter int) LoggerOption {
	return func(l *BaseLogger) {
		l.sampleN = initial
		l.sampleM = thereafter
	}
}

func (l *BaseLogger) log(level Level, msg string, fields []Field) {
	if level < l.level.Get() {
		return
	}
	l.slogLogger.LogAttrs(context.Background(), toSlogLevel(level), msg, attrsFromFieldSlice(fields)...)
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

// Fatal logs at error severity and exits the process.
func (l *BaseLogger) Fatal(msg string, fields ...Field) {
	l.log(FatalLevel, msg, fields)
	l.exitFunc(1)
}

func (l *BaseLogger) logf(level Level, msg string, args []interface{}) {
	if level < l.level.Get() {
		return
	}
	l.slogLogger.LogAttrs(context.Background(), toSlogLevel(level), msg, argsToAttrs(args)...)
}

func (l *BaseLogger) Debugf(msg string, args ...interface{}) { l.logf(DebugLevel, msg, args) }
func (l *BaseLogger) Infof(msg string, args ...interface{})  { l.logf(InfoLevel, msg, args) }
func (l *BaseLogger) Warnf(msg string, args ...interface{})  { l.logf(WarnLevel, msg, args) }
func (l *BaseLogger) Errorf(msg string, args ...interface{}) { l.logf(ErrorLevel, msg, args) }

func (l *BaseLogger) Fatalf(msg string, args ...interface{}) {
	l.logf(FatalLevel, msg, args)
	l.exitFunc(1)
}

func (l *BaseLogger) clone(extra Fields) *BaseLogger {
	nl := *l
	nl.fields = make(Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		nl.fields[k] = v
	}
	for k, v := range extra {
		nl.fields[k] = v
	}
	nl.slogLogger = l.slogLogger.With(attrsToAny(attrsFromMap(extra))...)
	return &nl
}

func (l *BaseLogger) WithField(key string, value interface{}) Logger {
	return l.clone(Fields{key: value})
}

func (l *BaseLogger) WithFields(fields Fields) Logger { return l.clone(fields) }

func (l *BaseLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.clone(Fields{"error": err.Error()})
}

func (l *BaseLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	m := make(Fields, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return l.clone(m)
}

func (l *BaseLogger) WithContext(ctx context.Context) Logger {
	fields := ContextExtractor(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.clone(fields)
}

func (l *BaseLogger) WithComponent(component string) Logger {
	return l.clone(Fields{ComponentKey: component})
}

// SetLevel changes the level for this logger and every logger derived from it.
func (l *BaseLogger) SetLevel(level Level) { l.level.Set(level) }

func (l *BaseLogger) GetLevel() Level { return l.level.Get() }

// Close closes every output. Loggers derived via With share outputs.
func (l *BaseLogger) Close() error {
	var first error
	for _, out := range l.outputs {
		if err := out.Close(); err != nil && first == nil {
			first = fmt.Errorf("close output: %w", err)
		}
	}
	return first
}
