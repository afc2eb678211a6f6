package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a zerolog logger bound to one service, optionally narrowed to a
// component, request or subscriber.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// Init builds the process-wide logger from cfg and sets the global level.
// Components that are not handed a logger derive theirs from it.
func Init(cfg *Config) {
	cfg.ApplyDefaults()
	name := cfg.ServiceName
	if name == "" {
		name = defaultService
	}
	l := New(cfg, name)
	globalLogger = l
	log.Logger = l.zl
}

const defaultService = "eventhub"

// New creates a logger from cfg. An unknown level falls back to info.
func New(cfg *Config, serviceName string) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := outputWriter(cfg.Output)
	var zl zerolog.Logger
	if isConsole(cfg.Format) {
		zl = zerolog.New(consoleWriter(out, serviceName, cfg.NoColor))
	} else {
		zl = zerolog.New(out).With().Str("service", serviceName).Logger()
	}

	ctx := zl.With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return &Logger{zl: ctx.Logger(), service: serviceName}
}

// NewWithWriter creates a JSON logger writing to w, for tests that assert on
// log output or discard it.
func NewWithWriter(w io.Writer, serviceName string) *Logger {
	return &Logger{
		zl:      zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger(),
		service: serviceName,
	}
}

// NewDefault creates an info-level console logger on stdout.
func NewDefault(serviceName string) *Logger {
	return New(&Config{Level: "info", Format: "console", Output: "stdout", Timestamp: true}, serviceName)
}

type contextKey struct{}

// ContextWithRequestID stores a request ID that WithContext picks up.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// RequestIDFromContext returns the request ID stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger(), service: l.service}
}

// WithContext adds the request ID carried by ctx. Without one it returns l.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.with(FieldRequestID, id)
	}
	return l
}

// WithComponent tags entries with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.with(FieldComponent, name)
}

// WithSubscriber tags entries with a stream subscriber ID.
func (l *Logger) WithSubscriber(id string) *Logger {
	return l.with(FieldSubscriberID, id)
}

// WithFields adds arbitrary fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger(), service: l.service}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	write(l.zl.Debug(), msg, fields)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	write(l.zl.Info(), msg, fields)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	write(l.zl.Warn(), msg, fields)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	write(l.zl.Error(), msg, fields)
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level string) bool {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return false
	}
	return lvl >= l.zl.GetLevel() && lvl >= zerolog.GlobalLevel()
}

func write(event *zerolog.Event, msg string, fields []map[string]interface{}) {
	for _, fm := range fields {
		event.Fields(fm)
	}
	event.Msg(msg)
}

var globalLogger *Logger

// GetGlobalLogger returns the logger set by Init, or a default console
// logger before Init runs.
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewDefault(defaultService)
	}
	return globalLogger
}

// Info logs through the global logger.
func Info(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Info(msg, fields...)
}

// Warn logs through the global logger.
func Warn(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Warn(msg, fields...)
}

// WithContext derives from the global logger.
func WithContext(ctx context.Context) *Logger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithComponent derives from the global logger.
func WithComponent(name string) *Logger {
	return GetGlobalLogger().WithComponent(name)
}

func isConsole(format string) bool {
	switch strings.ToLower(format) {
	case "console", "pretty":
		return true
	}
	return false
}

func outputWriter(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

var levelTags = map[string]struct {
	short string
	color int
}{
	"DEBUG": {"DBG", 36},
	"INFO":  {"INF", 32},
	"WARN":  {"WRN", 33},
	"ERROR": {"ERR", 31},
	"FATAL": {"FTL", 35},
}

// consoleWriter prints "15:04:05 [EVE][INF] msg key:value".
func consoleWriter(out io.Writer, serviceName string, noColor bool) zerolog.ConsoleWriter {
	paint := func(code int, s string) string {
		if noColor || code == 0 {
			return s
		}
		return fmt.Sprintf("\033[%dm%s\033[0m", code, s)
	}
	tag := ""
	if len(serviceName) >= 3 {
		tag = paint(34, "["+strings.ToUpper(serviceName[:3])+"]")
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			lvl := strings.ToUpper(fmt.Sprint(i))
			t, ok := levelTags[lvl]
			if !ok {
				return tag + "[" + lvl + "]"
			}
			return tag + paint(t.color, "["+t.short+"]")
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprint(i) + ":"
		},
	}
}
