package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sepehrmoghiseh/musifyyy/bot"
)

// Logger wraps slog.Logger to satisfy bot.Logger.
type Logger struct {
	logger  *slog.Logger
	logFile *os.File
}

// Options controls log output.
type Options struct {
	Level     string
	Format    string
	AddSource bool
	// Dir receives one log file per day. Empty disables file output.
	Dir string
}

// New creates a Logger writing to stdout and, when configured, a daily file.
func New(opts Options) (*Logger, error) {
	var (
		logFile *os.File
		output  io.Writer = os.Stdout
	)
	if strings.TrimSpace(opts.Dir) != "" {
		file, err := openDailyFile(opts.Dir, time.Now())
		if err != nil {
			return nil, err
		}
		logFile = file
		output = io.MultiWriter(os.Stdout, file)
	}

	return &Logger{logger: slog.New(newHandler(output, opts)), logFile: logFile}, nil
}

// NewWithWriter creates a Logger that writes only to w.
func NewWithWriter(w io.Writer, opts Options) *Logger {
	return &Logger{logger: slog.New(newHandler(w, opts))}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard, Options{Level: "error"})
}

func newHandler(w io.Writer, opts Options) slog.Handler {
	options := &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: opts.AddSource,
	}
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		return slog.NewJSONHandler(w, options)
	}
	return slog.NewTextHandler(w, options)
}

// With returns a child logger with additional fields.
func (l *Logger) With(args ...any) bot.Logger {
	return &Logger{logger: l.logger.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

func openDailyFile(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	filePath := filepath.Join(dir, now.Local().Format("2006-01-02")+".log")
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, errors.New("log file handle is nil")
	}
	return file, nil
}

// Close closes the log file handle.
func (l *Logger) Close() error {
	if l == nil || l.logFile == nil {
		return nil
	}
	return l.logFile.Close()
}
