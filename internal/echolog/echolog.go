package echolog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how log lines are written.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	File       string // when set, output is rotated through lumberjack
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	AddSource  bool
}

var (
	loggerLock sync.RWMutex
	logger     = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	rotator    *lumberjack.Logger
)

// Setup replaces the process logger. It is safe to call more than once.
func Setup(opts Options) {
	var out io.Writer = os.Stderr

	loggerLock.Lock()
	defer loggerLock.Unlock()

	if rotator != nil {
		rotator.Close()
		rotator = nil
	}

	if opts.File != `` {
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		out = rotator
	}

	logger = newLogger(out, opts.Level, opts.Format, opts.AddSource)
}

// New builds a standalone logger, mostly for tests that capture output.
func New(out io.Writer, level string, format string) *slog.Logger {
	return newLogger(out, level, format, false)
}

func newLogger(out io.Writer, level string, format string, addSource bool) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(level), AddSource: addSource}

	if strings.EqualFold(format, `json`) {
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts))
}

// SetLogger swaps in an already constructed logger.
func SetLogger(l *slog.Logger) {
	loggerLock.Lock()
	logger = l
	loggerLock.Unlock()
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case `debug`:
		return slog.LevelDebug
	case `warn`, `warning`:
		return slog.LevelWarn
	case `error`:
		return slog.LevelError
	}
	return slog.LevelInfo
}

func get() *slog.Logger {
	loggerLock.RLock()
	defer loggerLock.RUnlock()
	return logger
}

func Debug(msg string, args ...any) {
	log(slog.LevelDebug, msg, args...)
}

func Info(msg string, args ...any) {
	log(slog.LevelInfo, msg, args...)
}

func Warn(msg string, args ...any) {
	log(slog.LevelWarn, msg, args...)
}

func Error(msg string, args ...any) {
	log(slog.LevelError, msg, args...)
}

// log records the caller of Debug/Info/Warn/Error as the source, not this file.
func log(level slog.Level, msg string, args ...any) {
	l := get()
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}

// Close flushes and closes the rotating file, if any.
func Close() error {
	loggerLock.Lock()
	defer loggerLock.Unlock()

	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}
