package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

var levelColors = map[LogLevel]string{
	DEBUG: colorBlue,
	WARN:  colorYellow,
	ERROR: colorRed,
}

// ConsoleLogger writes human readable lines, one per entry. Copies made by
// WithTraceID share the writer and its lock.
type ConsoleLogger struct {
	out     *consoleOut
	level   LogLevel
	traceID string
}

type consoleOut struct {
	mu        sync.Mutex
	writer    io.Writer
	color     bool
	timestamp bool
	redact    bool
	now       func() time.Time
}

// ConsoleLoggerConfig contains configuration for console logger
type ConsoleLoggerConfig struct {
	Writer           io.Writer
	Level            LogLevel
	ColorEnabled     bool
	TimestampEnabled bool
	RedactSensitive  bool
}

// NewConsoleLogger creates a new console logger
func NewConsoleLogger(config ConsoleLoggerConfig) *ConsoleLogger {
	if config.Writer == nil {
		config.Writer = os.Stderr
	}
	return &ConsoleLogger{
		out: &consoleOut{
			writer:    config.Writer,
			color:     config.ColorEnabled,
			timestamp: config.TimestampEnabled,
			redact:    config.RedactSensitive,
			now:       time.Now,
		},
		level: config.Level,
	}
}

func (o *consoleOut) paint(sb *strings.Builder, color, s string) {
	if o.color && color != "" {
		sb.WriteString(color)
		sb.WriteString(s)
		sb.WriteString(colorReset)
		return
	}
	sb.WriteString(s)
}

// format renders: [time] LEVEL [trace] message key=value, key=value
func (l *ConsoleLogger) format(level LogLevel, msg string, fields []Field) string {
	o := l.out
	var sb strings.Builder

	if o.timestamp {
		o.paint(&sb, colorGray, o.now().Format("2006-01-02 15:04:05"))
		sb.WriteByte(' ')
	}
	o.paint(&sb, levelColors[level], fmt.Sprintf("%-5s", level.String()))
	sb.WriteByte(' ')
	if l.traceID != "" {
		o.paint(&sb, colorGray, "["+shortTraceID(l.traceID)+"]")
		sb.WriteByte(' ')
	}

	if o.redact {
		msg = Redact(msg)
		fields = redactFields(fields)
	}
	sb.WriteString(msg)

	for i, field := range fields {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", field.Key, field.Value)
	}
	return sb.String()
}

func (l *ConsoleLogger) log(level LogLevel, msg string, fields ...Field) {
	if level < l.level {
		return
	}
	line := l.format(level, msg, fields)

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	_, _ = fmt.Fprintln(l.out.writer, line)
}

func (l *ConsoleLogger) Debug(msg string, fields ...Field) { l.log(DEBUG, msg, fields...) }
func (l *ConsoleLogger) Info(msg string, fields ...Field)  { l.log(INFO, msg, fields...) }
func (l *ConsoleLogger) Warn(msg string, fields ...Field)  { l.log(WARN, msg, fields...) }
func (l *ConsoleLogger) Error(msg string, fields ...Field) { l.log(ERROR, msg, fields...) }

// WithTraceID returns a copy that prefixes lines with the run's trace ID
func (l *ConsoleLogger) WithTraceID(traceID string) Logger {
	return &ConsoleLogger{out: l.out, level: l.level, traceID: traceID}
}

// WithContext returns a copy carrying the trace ID stored in ctx, if any
func (l *ConsoleLogger) WithContext(ctx context.Context) Logger {
	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		return l
	}
	return l.WithTraceID(traceID)
}

// SetLevel sets the minimum level. Copies made earlier keep their level.
func (l *ConsoleLogger) SetLevel(level LogLevel) {
	l.level = level
}

func shortTraceID(traceID string) string {
	if len(traceID) > 8 {
		return traceID[:8]
	}
	return traceID
}

func (l *ConsoleLogger) Close() error {
	return nil
}
