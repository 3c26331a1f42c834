// Package logger holds the process-wide structured logger. Output goes to a
// rotating file under the config directory; --debug mirrors it to stderr.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	prefix   = "habitlit"
	fileName = "habitlit.log"
)

// Logger is nil until Init or Use is called. The package helpers no-op while
// it is nil so library code can log unconditionally.
var Logger *log.Logger

// Config holds logger configuration
type Config struct {
	Debug     bool
	ConfigDir string
	// Level is one of debug, info, warn, error. Empty means warn.
	Level string
}

// Init builds the file-backed logger and installs it globally.
func Init(cfg Config) error {
	level, err := resolveLevel(cfg)
	if err != nil {
		return err
	}

	rotator, err := newRotator(filepath.Join(cfg.ConfigDir, "logs"))
	if err != nil {
		return err
	}

	var out io.Writer = rotator
	if cfg.Debug {
		out = io.MultiWriter(os.Stderr, rotator)
	}

	l := New(out, level)
	l.SetReportCaller(cfg.Debug)
	Use(l)
	return nil
}

// New returns a logger writing to w with the habitlit prefix.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          prefix,
	})
}

// Use installs l as the global logger.
func Use(l *log.Logger) {
	Logger = l
}

// Component returns a sub-logger tagged with the given component name. Before
// Init it returns a logger that discards everything.
func Component(name string) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.WithPrefix(prefix + "/" + name)
}

func resolveLevel(cfg Config) (log.Level, error) {
	if cfg.Debug {
		return log.DebugLevel, nil
	}
	if cfg.Level == "" {
		return log.WarnLevel, nil
	}
	return log.ParseLevel(strings.ToLower(cfg.Level))
}

func newRotator(dir string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, fileName),
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}, nil
}

func emit(level log.Level, msg string, keyvals []interface{}) {
	if Logger != nil {
		Logger.Log(level, msg, keyvals...)
	}
}

// Debug logs at debug level.
func Debug(msg string, keyvals ...interface{}) { emit(log.DebugLevel, msg, keyvals) }

// Info logs at info level.
func Info(msg string, keyvals ...interface{}) { emit(log.InfoLevel, msg, keyvals) }

// Warn logs at warn level.
func Warn(msg string, keyvals ...interface{}) { emit(log.WarnLevel, msg, keyvals) }

// Error logs at error level.
func Error(msg string, keyvals ...interface{}) { emit(log.ErrorLevel, msg, keyvals) }
