package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents a logging level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the string representation of Level
func (l Level) String() string {
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

// ParseLevel maps a level name to a Level, defaulting to INFO
func ParseLevel(name string) Level {
	switch strings.ToLower(name) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// Entry is a single structured log record
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Service   string         `json:"service,omitempty"`
	Component string         `json:"component,omitempty"`
	Error     string         `json:"error,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	File      string         `json:"file,omitempty"`
	Line      int            `json:"line,omitempty"`
}

// Logger provides structured logging
type Logger struct {
	mu      sync.RWMutex
	level   Level
	format  string // "json" or "text"
	output  io.Writer
	file    *os.File
	service string
	now     func() time.Time
}

// NewLogger creates a logger writing text at INFO to stdout
func NewLogger() *Logger {
	return &Logger{
		level:   INFO,
		format:  "text",
		output:  os.Stdout,
		service: "bigmart",
		now:     time.Now,
	}
}

// SetLevel sets the minimum level that is written
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetFormat sets the output format ("json" or "text")
func (l *Logger) SetFormat(format string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = strings.ToLower(format)
}

// SetOutput sets the output destination
func (l *Logger) SetOutput(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = output
}

// SetService sets the service name stamped on every entry
func (l *Logger) SetService(service string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.service = service
}

// SetFileOutput appends log lines to filePath, keeping stdout when alsoStdout is set
func (l *Logger) SetFileOutput(filePath string, alsoStdout bool) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
	}
	l.file = file
	if alsoStdout {
		l.output = io.MultiWriter(os.Stdout, file)
	} else {
		l.output = file
	}
	return nil
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.output = os.Stdout
	return err
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(DEBUG, msg, fields...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(INFO, msg, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(WARN, msg, fields...)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Error(err))
	}
	l.log(ERROR, msg, fields...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Error(err))
	}
	l.log(FATAL, msg, fields...)
	os.Exit(1)
}

// WithFields returns a logger that adds fields to every entry
func (l *Logger) WithFields(fields ...Field) *FieldLogger {
	return &FieldLogger{logger: l, fields: fields}
}

func (l *Logger) log(level Level, msg string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if level < l.level {
		return
	}

	entry := &Entry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   msg,
		Service:   l.service,
		Fields:    make(map[string]any),
	}
	if _, file, line, ok := runtime.Caller(2); ok {
		entry.File = filepath.Base(file)
		entry.Line = line
	}
	for _, field := range fields {
		field.Apply(entry)
	}

	var line string
	if l.format == "json" {
		data, err := json.Marshal(entry)
		if err != nil {
			line = fmt.Sprintf("failed to marshal log entry: %v", err)
		} else {
			line = string(data)
		}
	} else {
		line = formatText(entry)
	}
	fmt.Fprintln(l.output, line)
}

// formatText renders an entry as a single line; field keys are sorted so
// output is stable
func formatText(entry *Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", entry.Timestamp, entry.Level, entry.Message)
	if entry.Component != "" {
		fmt.Fprintf(&b, " component=%s", entry.Component)
	}
	if entry.Error != "" {
		fmt.Fprintf(&b, " error=%q", entry.Error)
	}

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}

	if entry.File != "" && entry.Line != 0 {
		fmt.Fprintf(&b, " (%s:%d)", entry.File, entry.Line)
	}
	return b.String()
}

// FieldLogger carries a fixed set of fields
type FieldLogger struct {
	logger *Logger
	fields []Field
}

func (fl *FieldLogger) with(fields []Field) []Field {
	all := make([]Field, 0, len(fl.fields)+len(fields))
	all = append(all, fl.fields...)
	return append(all, fields...)
}

// Debug logs a debug message with fields
func (fl *FieldLogger) Debug(msg string, fields ...Field) {
	fl.logger.log(DEBUG, msg, fl.with(fields)...)
}

// Info logs an info message with fields
func (fl *FieldLogger) Info(msg string, fields ...Field) {
	fl.logger.log(INFO, msg, fl.with(fields)...)
}

// Warn logs a warning message with fields
func (fl *FieldLogger) Warn(msg string, fields ...Field) {
	fl.logger.log(WARN, msg, fl.with(fields)...)
}

// Error logs an error message with fields
func (fl *FieldLogger) Error(msg string, err error, fields ...Field) {
	all := fl.with(fields)
	if err != nil {
		all = append(all, Error(err))
	}
	fl.logger.log(ERROR, msg, all...)
}

// LoggingConfig configures the global logger
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"` // stdout, file, both
	FilePath string `yaml:"file_path"`
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		globalLogger = NewLogger()
	})
	return globalLogger
}

// InitLogger configures the global logger
func InitLogger(cfg LoggingConfig) error {
	logger := GetLogger()
	logger.SetLevel(ParseLevel(cfg.Level))
	if cfg.Format != "" {
		logger.SetFormat(cfg.Format)
	}

	switch strings.ToLower(cfg.Output) {
	case "file":
		if err := logger.SetFileOutput(cfg.FilePath, false); err != nil {
			return fmt.Errorf("failed to set file output: %w", err)
		}
	case "both":
		if err := logger.SetFileOutput(cfg.FilePath, true); err != nil {
			return fmt.Errorf("failed to set file output: %w", err)
		}
	default:
		logger.SetOutput(os.Stdout)
	}
	return nil
}
