package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	providerMu     sync.RWMutex
	globalProvider LoggerProvider = defaultProvider()
)

func defaultProvider() LoggerProvider {
	lv := &slog.LevelVar{}
	lv.Set(slog.LevelInfo)
	return newSlogProvider(newCloudLoggingHandler(os.Stderr, lv), lv)
}

// SetProvider replaces the process-wide logger provider.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	globalProvider = p
}

// Provider returns the current provider, e.g. to restore it after a test.
func Provider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return globalProvider
}

// GetLogger returns the root logger of the current provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return globalProvider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with ComponentKey=name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return globalProvider.GetLoggerWithName(name)
}

// SetLevel changes the minimum level of the current provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	globalProvider.SetLevel(level)
}

// slog backend

type slogProvider struct {
	level  *slog.LevelVar
	logger *slog.Logger
}

func newSlogProvider(h slog.Handler, level *slog.LevelVar) *slogProvider {
	return &slogProvider{level: level, logger: slog.New(h)}
}

func (p *slogProvider) GetLogger() Logger { return &slogLogger{l: p.logger} }

func (p *slogProvider) GetLoggerWithName(name string) Logger {
	return &slogLogger{l: p.logger.With(ComponentKey, name)}
}

func (p *slogProvider) SetLevel(level Level) { p.level.Set(slog.Level(level)) }

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, fields...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, fields...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, fields...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.l.Error(msg, fields...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{l: s.l.With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}

// zerolog backend

type zerologProvider struct {
	mu   sync.Mutex
	base zerolog.Logger
}

func newZerologProvider(w io.Writer, level *slog.LevelVar) *zerologProvider {
	return &zerologProvider{
		base: zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(Level(level.Level()))),
	}
}

func (p *zerologProvider) GetLogger() Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &zerologLogger{z: p.base}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &zerologLogger{z: p.base.With().Str(ComponentKey, name).Logger()}
}

func (p *zerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Level(toZerologLevel(level))
}

type zerologLogger struct {
	z zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.z.Debug().Fields(fields).Msg(msg) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.z.Info().Fields(fields).Msg(msg) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.z.Warn().Fields(fields).Msg(msg) }
func (l *zerologLogger) Error(msg string, fields ...any) { l.z.Error().Fields(fields).Msg(msg) }

func (l *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{z: l.z.With().Fields(fields).Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	zl := toZerologLevel(level)
	return zl >= l.z.GetLevel() && zl >= zerolog.GlobalLevel()
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
