package iostreams

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LogLevel orders log severities, most verbose first.
type LogLevel int

const (
	// LevelTrace is maximum verbosity: loop bodies, wire details.
	LevelTrace LogLevel = iota
	// LevelDebug is diagnostic detail: requests, redirects, retries.
	LevelDebug
	// LevelInfo is session progress.
	LevelInfo
	// LevelWarn is recoverable trouble.
	LevelWarn
	// LevelError is unrecoverable trouble.
	LevelError
	// LevelNone disables logging.
	LevelNone
)

// String returns the level name.
func (l LogLevel) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseLogLevel maps a level name to a LogLevel, defaulting to debug
// for unrecognized input.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "none", "off", "silent":
		return LevelNone
	default:
		return LevelDebug
	}
}

// VerbosityToLevel maps a -v count to a level: 0 disables, -v is info,
// -vv is debug, -vvv and up is trace.
func VerbosityToLevel(verbosity int) LogLevel {
	switch {
	case verbosity <= 0:
		return LevelNone
	case verbosity == 1:
		return LevelInfo
	case verbosity == 2:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// LogCategory names a logging domain so the log.categories setting can
// filter the trail down to one subsystem.
type LogCategory string

const (
	// CategoryDSS covers Device Setup Service exchanges.
	CategoryDSS LogCategory = "dss"
	// CategoryCrypto covers key handling and signature verification.
	CategoryCrypto LogCategory = "crypto"
	// CategoryWifi covers scan, associate and disconnect operations.
	CategoryWifi LogCategory = "wifi"
	// CategoryState covers provisionee state transitions.
	CategoryState LogCategory = "state"
	// CategoryConfig covers configuration map access.
	CategoryConfig LogCategory = "config"
)

// LogEntry is one structured log record.
type LogEntry struct {
	Time     time.Time `json:"time"`
	Level    string    `json:"level"`
	Category string    `json:"category,omitempty"`
	Message  string    `json:"message"`
	Error    string    `json:"error,omitempty"`
}

// Logger writes leveled, categorized log lines as text or JSON.
type Logger struct {
	out      io.Writer
	min      LogLevel
	only     map[LogCategory]bool // nil admits every category
	jsonMode bool
}

// NewLogger returns a logger writing to out at debug level and above.
func NewLogger(out io.Writer) *Logger {
	return &Logger{out: out, min: LevelDebug}
}

// SetLevel sets the minimum level emitted.
func (l *Logger) SetLevel(level LogLevel) { l.min = level }

// SetJSONMode switches between text and JSON lines.
func (l *Logger) SetJSONMode(enabled bool) { l.jsonMode = enabled }

// SetCategories restricts output to the given categories; nil clears
// the filter.
func (l *Logger) SetCategories(categories []LogCategory) {
	if categories == nil {
		l.only = nil
		return
	}
	l.only = make(map[LogCategory]bool, len(categories))
	for _, c := range categories {
		l.only[c] = true
	}
}

func (l *Logger) admits(level LogLevel, category LogCategory) bool {
	if level < l.min {
		return false
	}
	return l.only == nil || category == "" || l.only[category]
}

// Log writes one formatted entry.
func (l *Logger) Log(level LogLevel, category LogCategory, format string, args ...any) {
	if !l.admits(level, category) {
		return
	}
	l.emit(LogEntry{
		Time:     time.Now(),
		Level:    level.String(),
		Category: string(category),
		Message:  fmt.Sprintf(format, args...),
	})
}

// LogErr writes one entry carrying an error. A nil error is dropped.
func (l *Logger) LogErr(level LogLevel, category LogCategory, context string, err error) {
	if err == nil || !l.admits(level, category) {
		return
	}
	l.emit(LogEntry{
		Time:     time.Now(),
		Level:    level.String(),
		Category: string(category),
		Message:  context,
		Error:    err.Error(),
	})
}

func (l *Logger) emit(entry LogEntry) {
	if l.jsonMode {
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		fprintf(l.out, "%s\n", data)
		return
	}

	prefix := entry.Level
	if entry.Category != "" {
		prefix += ":" + entry.Category
	}
	if entry.Error != "" {
		fprintf(l.out, "%s: %s: %s\n", prefix, entry.Message, entry.Error)
		return
	}
	fprintf(l.out, "%s: %s\n", prefix, entry.Message)
}

var defaultLogger = NewLogger(os.Stderr)

// ConfigureLogger applies viper settings to the default logger; call it
// once the flag set is bound.
func ConfigureLogger() {
	if verbosity := GetVerbosity(); verbosity > 0 {
		defaultLogger.SetLevel(VerbosityToLevel(verbosity))
	}
	// An explicit log.level wins over the -v count.
	if name := viper.GetString("log.level"); name != "" {
		defaultLogger.SetLevel(ParseLogLevel(name))
	}

	defaultLogger.SetJSONMode(viper.GetBool("log.json"))

	if filter := viper.GetString("log.categories"); filter != "" {
		var categories []LogCategory
		for _, c := range strings.Split(filter, ",") {
			categories = append(categories, LogCategory(strings.TrimSpace(c)))
		}
		defaultLogger.SetCategories(categories)
	}
}

// GetVerbosity returns the -v count from viper.
func GetVerbosity() int {
	return viper.GetInt("verbosity")
}

// Log writes to the default logger. Silent unless verbosity is enabled.
func Log(level LogLevel, category LogCategory, format string, args ...any) {
	if GetVerbosity() <= 0 {
		return
	}
	defaultLogger.Log(level, category, format, args...)
}

// LogErr writes an error entry to the default logger. Silent unless
// verbosity is enabled.
func LogErr(level LogLevel, category LogCategory, context string, err error) {
	if GetVerbosity() <= 0 {
		return
	}
	defaultLogger.LogErr(level, category, context, err)
}

// Logger returns a logger on ErrOut honoring the session's verbosity
// and JSON settings.
func (s *IOStreams) Logger() *Logger {
	logger := NewLogger(s.ErrOut)
	if verbosity := GetVerbosity(); verbosity > 0 {
		logger.SetLevel(VerbosityToLevel(verbosity))
	} else {
		logger.SetLevel(LevelNone)
	}
	logger.SetJSONMode(viper.GetBool("log.json"))
	return logger
}
