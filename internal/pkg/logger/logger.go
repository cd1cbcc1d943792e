package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format of log output
type Format string

// Formats
const (
	FormatConsole Format = "CONSOLE"
	FormatJSON    Format = "JSON"
)

// Component names used with For
const (
	Main       = "Main"
	Editor     = "Editor"
	Builder    = "Builder"
	NATS       = "NATS client"
	MQTT       = "MQTT client"
	Mongo      = "Mongo"
	SQL        = "SQL"
	Modbus     = "Modbus"
	Webservice = "Webservice"
	Webhook    = "Webhook"
	HMI        = "HMI"
)

// Config selects level and format
type Config struct {
	Level  string `json:"Level" yaml:"level"`
	Format Format `json:"Format" yaml:"format"`
}

var (
	once        sync.Once
	initialized bool
)

func level(l string) zapcore.Level {
	switch strings.ToUpper(l) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
}

// New builds a zap logger writing to stdout.
func New(logLevel string, format Format) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = timeEncoder
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(level(logLevel)))
	return zap.New(core, zap.AddCaller())
}

// Initialize installs the global logger once. Later calls are ignored.
func Initialize(cfg Config) {
	once.Do(func() {
		l := New(cfg.Level, cfg.Format)
		zap.ReplaceGlobals(l)
		initialized = true
		l.Info("Logger initialized", zap.String("level", cfg.Level), zap.String("format", string(cfg.Format)))
	})
}

// For returns a logger named after component.
func For(component string) *zap.SugaredLogger {
	if !initialized {
		Initialize(Config{Level: "INFO", Format: FormatConsole})
	}
	return zap.S().Named(component)
}

// Sync flushes buffered entries
func Sync() error {
	return zap.L().Sync()
}
