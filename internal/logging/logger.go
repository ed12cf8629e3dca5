package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/lumi-launcher/backend/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu        sync.RWMutex
	logger    *slog.Logger
	logCloser io.Closer
	discard   = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// Init configures the process-wide logger and redirects the stdlib log package into it.
// Calling Init again replaces the previous sink and closes its rotating file.
func Init(cfg config.LoggingConfig) (*slog.Logger, error) {
	output, closer := buildOutput(cfg)

	options := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(output, options)
	} else {
		handler = slog.NewJSONHandler(output, options)
	}

	next := slog.New(handler)

	mu.Lock()
	previous := logCloser
	logger = next
	logCloser = closer
	mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}

	slog.SetDefault(next)
	log.SetFlags(0)
	log.SetOutput(slogWriter{logger: next})

	return next, nil
}

// L returns the configured logger, or a discarding logger if Init was never called.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return discard
	}
	return logger
}

// Component returns L() tagged with the given component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

// Close flushes and closes any logger resources.
func Close() error {
	mu.Lock()
	closer := logCloser
	logCloser = nil
	mu.Unlock()

	if closer != nil {
		return closer.Close()
	}
	return nil
}

type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}
	w.logger.Info(msg)
	return len(p), nil
}

func buildOutput(cfg config.LoggingConfig) (io.Writer, io.Closer) {
	if strings.TrimSpace(cfg.File) == "" {
		return os.Stdout, nil
	}

	fileLogger := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}

	return io.MultiWriter(os.Stdout, fileLogger), fileLogger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
