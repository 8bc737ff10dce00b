package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// Logger defines the tablekit logging contract.
// Args are slog-style key/value pairs. Implementations must be safe for concurrent use.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Options controls how New builds a logger.
type Options struct {
	Level  string    // debug, info, warn or error
	Writer io.Writer // console sink, defaults to stdout
	SeqURL string    // optional Seq ingestion endpoint
}

// SlogLogger adapts a *slog.Logger to the Logger contract.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps an existing slog logger.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: l}
}

// New creates a console logger, fanned out to Seq when opts.SeqURL is set.
// The returned func flushes and closes any remote sink.
func New(opts Options) (*SlogLogger, func()) {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	console := slog.NewTextHandler(w, handlerOpts)
	if opts.SeqURL == "" {
		return NewSlogLogger(slog.New(console)), func() {}
	}

	_, seqHandler := slogseq.NewLogger(
		opts.SeqURL,
		slogseq.WithBatchSize(10),
		slogseq.WithFlushInterval(500*time.Millisecond),
		slogseq.WithHandlerOptions(handlerOpts),
	)
	if seqHandler == nil {
		return NewSlogLogger(slog.New(console)), func() {}
	}
	multi := &multiHandler{handlers: []slog.Handler{console, seqHandler}}
	return NewSlogLogger(slog.New(multi)), func() { seqHandler.Close() }
}

// ParseLevel maps a level name to a slog level; unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

func (l *SlogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Stack logs err at error level together with the current goroutine's stack.
func Stack(l Logger, msg string, err error, args ...any) {
	if l == nil {
		return
	}
	args = append(args, "error", err, "stack", string(debug.Stack()))
	l.Error(msg, args...)
}

// Discard drops everything.
var Discard Logger = NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

// Default provides a global default logger writing to stdout.
var Default Logger = NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))

// multiHandler forwards log records to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
