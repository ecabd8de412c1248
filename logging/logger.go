package logging

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity level of a log entry
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	case FATAL:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLevel converts a LOG_LEVEL value into a LogLevel. Unknown values map to INFO.
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, true
	case "INFO":
		return INFO, true
	case "WARN", "WARNING":
		return WARN, true
	case "ERROR":
		return ERROR, true
	case "FATAL":
		return FATAL, true
	default:
		return INFO, false
	}
}

// Logger provides structured logging functionality
type Logger struct {
	level     LogLevel
	service   string
	component string
	output    *logrus.Logger
	context   map[string]interface{}
}

var (
	sharedOutput     *logrus.Logger
	sharedOutputOnce sync.Once
)

// NewOutput builds a JSON logrus sink writing to w.
func NewOutput(w io.Writer) *logrus.Logger {
	out := logrus.New()
	out.SetOutput(w)
	out.SetLevel(logrus.DebugLevel)
	out.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})
	return out
}

// defaultOutput writes to LOG_FILE through a rotating file when set, stdout otherwise.
func defaultOutput() *logrus.Logger {
	sharedOutputOnce.Do(func() {
		var w io.Writer = os.Stdout
		if file := os.Getenv("LOG_FILE"); file != "" {
			w = &lumberjack.Logger{
				Filename:   file,
				MaxSize:    500,
				MaxBackups: 10,
				MaxAge:     28,
				Compress:   true,
			}
		}
		sharedOutput = NewOutput(w)
	})
	return sharedOutput
}

// NewLogger creates a new structured logger
func NewLogger(service, component string) *Logger {
	level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))

	return &Logger{
		level:     level,
		service:   service,
		component: component,
		output:    defaultOutput(),
		context:   make(map[string]interface{}),
	}
}

// NewLoggerWithOutput creates a logger bound to an explicit sink and level.
func NewLoggerWithOutput(service, component string, level LogLevel, output *logrus.Logger) *Logger {
	return &Logger{
		level:     level,
		service:   service,
		component: component,
		output:    output,
		context:   make(map[string]interface{}),
	}
}

// Component returns a logger for another component of the same service.
func (l *Logger) Component(component string) *Logger {
	child := l.WithContext(nil)
	child.component = component
	return child
}

// WithContext returns a new logger with additional context fields
func (l *Logger) WithContext(fields map[string]interface{}) *Logger {
	newLogger := &Logger{
		level:     l.level,
		service:   l.service,
		component: l.component,
		output:    l.output,
		context:   make(map[string]interface{}, len(l.context)+len(fields)),
	}

	for k, v := range l.context {
		newLogger.context[k] = v
	}
	for k, v := range fields {
		newLogger.context[k] = v
	}

	return newLogger
}

// WithTraceID returns a new logger with trace ID context
func (l *Logger) WithTraceID(traceID string) *Logger {
	if traceID == "" {
		return l
	}
	return l.WithContext(map[string]interface{}{"trace_id": traceID})
}

// WithToken returns a new logger scoped to a mint
func (l *Logger) WithToken(mint string) *Logger {
	return l.WithContext(map[string]interface{}{"mint": mint})
}

// WithOperation returns a new logger with operation context
func (l *Logger) WithOperation(operation string) *Logger {
	return l.WithContext(map[string]interface{}{"operation": operation})
}

// WithError returns a new logger with error context
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithContext(map[string]interface{}{"error": err.Error()})
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...map[string]interface{}) {
	l.log(DEBUG, message, fields...)
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...map[string]interface{}) {
	l.log(INFO, message, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...map[string]interface{}) {
	l.log(WARN, message, fields...)
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...map[string]interface{}) {
	l.log(ERROR, message, fields...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(message string, fields ...map[string]interface{}) {
	l.log(FATAL, message, fields...)
	os.Exit(1)
}

// IsDebugEnabled reports whether debug entries would be written.
func (l *Logger) IsDebugEnabled() bool {
	return l.level <= DEBUG
}

// TradeEvent logs an order lifecycle step for a mint
func (l *Logger) TradeEvent(mint, event string, success bool, details map[string]interface{}) {
	level := INFO
	if !success {
		level = ERROR
	}

	fields := map[string]interface{}{
		"operation": "trade",
		"event":     event,
		"success":   success,
	}
	for k, v := range details {
		fields[k] = v
	}

	l.WithToken(mint).log(level, fmt.Sprintf("Trade event: %s", event), fields)
}

// RedisOperation logs Redis operation events
func (l *Logger) RedisOperation(operation, traceID string, duration time.Duration, success bool, err error) {
	level := DEBUG
	message := fmt.Sprintf("Redis %s operation completed", operation)

	fields := map[string]interface{}{
		"operation": fmt.Sprintf("redis_%s", strings.ToLower(operation)),
		"duration":  duration.String(),
		"success":   success,
	}

	if !success {
		level = ERROR
		message = fmt.Sprintf("Redis %s operation failed", operation)
		if err != nil {
			fields["error"] = err.Error()
		}
	}

	l.WithTraceID(traceID).log(level, message, fields)
}

// MaintenanceEvent logs sweep events
func (l *Logger) MaintenanceEvent(event, traceID string, details map[string]interface{}) {
	fields := map[string]interface{}{
		"operation": "maintenance",
		"event":     event,
	}
	for k, v := range details {
		fields[k] = v
	}

	l.WithTraceID(traceID).Debug(fmt.Sprintf("Maintenance event: %s", event), fields)
}

// WorkerPoolEvent logs worker pool events
func (l *Logger) WorkerPoolEvent(event string, workerCount, queueSize int) {
	l.Info(fmt.Sprintf("Worker pool event: %s", event), map[string]interface{}{
		"operation":    "worker_pool",
		"event":        event,
		"worker_count": workerCount,
		"queue_size":   queueSize,
	})
}

// SystemEvent logs system-level events
func (l *Logger) SystemEvent(event string, details map[string]interface{}) {
	fields := map[string]interface{}{
		"operation": "system",
		"event":     event,
	}
	for k, v := range details {
		fields[k] = v
	}

	l.Info(fmt.Sprintf("System event: %s", event), fields)
}

// PanicRecovery logs panic recovery events
func (l *Logger) PanicRecovery(mint, component string, panicValue interface{}, stackTrace string) {
	l.WithToken(mint).Error("Panic recovered", map[string]interface{}{
		"operation":   "panic_recovery",
		"component":   component,
		"panic_value": fmt.Sprintf("%v", panicValue),
		"stack_trace": stackTrace,
	})
}

func (l *Logger) log(level LogLevel, message string, fields ...map[string]interface{}) {
	if level < l.level || l.output == nil {
		return
	}

	entryFields := logrus.Fields{
		"level_name": level.String(),
		"service":    l.service,
	}
	if l.component != "" {
		entryFields["component"] = l.component
	}

	if level >= ERROR {
		if pc, file, line, ok := runtime.Caller(2); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				entryFields["caller"] = fmt.Sprintf("%s:%d %s", file, line, fn.Name())
			}
		}
	}

	for k, v := range l.context {
		entryFields[k] = v
	}
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			entryFields[k] = v
		}
	}

	// Fatal exits in Fatal(); logrus must not exit on its own.
	lvl := level.logrusLevel()
	if lvl == logrus.FatalLevel {
		lvl = logrus.ErrorLevel
		entryFields["level_name"] = FATAL.String()
	}
	l.output.WithFields(entryFields).Log(lvl, message)
}
