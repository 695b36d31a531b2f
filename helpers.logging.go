package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LoggerContextKey ContextKey = "request.logger"
	megabyte                    = 1 << 20
)

var _ zapcore.WriteSyncer = (*RotatingWriter)(nil)

// RotatingWriter is the zap sink of the App. It appends entries to a
// timestamped file under the logs folder and switches to a new file
// once the next entry would push the current one over the max size.
type RotatingWriter struct {
	mu      sync.Mutex
	clock   Clocker
	folder  string
	isProd  bool
	maxSize int64
	current *os.File
	written int64
}

func NewRotatingWriter(config *Config, clock Clocker) *RotatingWriter {
	return &RotatingWriter{
		clock:   clock,
		folder:  config.LogFolder,
		isProd:  config.IsProduction,
		maxSize: int64(config.LogMaxSize) * megabyte,
	}
}

func logEnv(isProd bool) string {
	if isProd {
		return "prod"
	}
	return "dev"
}

// CreateLogFilePath returns the path of the log file opened at t.
func CreateLogFilePath(folder string, isProd bool, t time.Time) string {
	return filepath.Join(folder, t.Format("20060102.150405")+"."+logEnv(isProd)+".log")
}

// rotate closes the current file, if any, and opens a fresh one.
func (rw *RotatingWriter) rotate() error {
	if rw.current != nil {
		if err := rw.current.Close(); err != nil {
			return err
		}
		rw.current = nil
	}
	path := CreateLogFilePath(rw.folder, rw.isProd, rw.clock.Now())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	rw.current, rw.written = f, 0
	return nil
}

func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	size := int64(len(p))
	if size > rw.maxSize {
		return 0, fmt.Errorf("logging: entry of %d bytes exceeds the max file size of %d bytes", size, rw.maxSize)
	}
	if rw.current == nil || rw.written+size > rw.maxSize {
		if err := rw.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := rw.current.Write(p)
	rw.written += int64(n)
	return n, err
}

func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.current == nil {
		return nil
	}
	return rw.current.Sync()
}

// Close releases the current log file.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.current == nil {
		return nil
	}
	err := rw.current.Close()
	rw.current = nil
	return err
}

// stdoutSyncer skips the Sync call which fails on some terminals.
type stdoutSyncer struct{}

func (stdoutSyncer) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdoutSyncer) Sync() error { return nil }

func encoderConfig(isProd bool) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	if isProd {
		ec = zap.NewProductionEncoderConfig()
	}
	ec.TimeKey = "ts"
	ec.LevelKey = "lvl"
	ec.NameKey = "name"
	ec.CallerKey = "caller"
	ec.MessageKey = "msg"
	ec.StacktraceKey = "skt"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return ec
}

// SetupLogging builds the App logger. Entries are json encoded into w and
// echoed to the console outside production. Each one carries the build
// details and only fatal entries get a stacktrace. The returned func
// flushes the buffered entries.
func SetupLogging(config *Config, w zapcore.WriteSyncer, clock zapcore.Clock) (*zap.Logger, func() error) {
	ec := encoderConfig(config.IsProduction)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(ec), w, config.LogLevel)
	if !config.IsProduction {
		core = zapcore.NewTee(core, zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(stdoutSyncer{}), config.LogLevel))
	}

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel), zap.WithClock(clock)).With(
		zap.String("app.commit", config.GitCommit),
		zap.String("app.tag", config.GitTag),
		zap.String("app.built", config.BuildTime),
	)

	return logger, func() error {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("logging: flush: %w", err)
		}
		return nil
	}
}

// GetLoggerFromContext returns the request scoped logger, or the App logger
// when the request did not go through the request id middleware.
func (api *APIHandler) GetLoggerFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*zap.Logger); ok {
		return logger
	}
	return api.logger
}
