// Package telemetry owns the process-wide diagnostic dispatcher. It is
// initialized once at startup by the application; everything else in the
// module only emits through the handle returned by L and never reconfigures
// filtering or output formatting.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TraceLevel sits one step below zap's debug level so trace < debug < info
// ordering holds for span and event severities.
const TraceLevel = zapcore.DebugLevel - 1

// Options configures the dispatcher
type Options struct {
	// Level is the minimum severity emitted: trace, debug, info, warn or
	// error. Defaults to info.
	Level string

	// Format selects the encoder: json or console. Defaults to json.
	Format string
}

var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(zap.NewNop())
}

// Init builds the process logger from opts and installs it as the global
// dispatcher. It must be called before any wrapped handler executes and
// returns the installed logger so the caller can defer Sync.
func Init(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = levelEncoder

	var enc zapcore.Encoder
	switch opts.Format {
	case "console":
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown telemetry format %q", opts.Format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), zap.NewAtomicLevelAt(level))
	logger := zap.New(core)
	global.Store(logger)
	return logger, nil
}

// L returns the current global dispatcher. The handle is obtained at call
// time so tests can swap it with Replace.
func L() *zap.Logger {
	return global.Load()
}

// Replace swaps the global dispatcher and returns a function that restores
// the previous one. Intended for tests.
func Replace(logger *zap.Logger) func() {
	prev := global.Swap(logger)
	return func() { global.Store(prev) }
}

// Sync flushes buffered entries. Call on shutdown.
func Sync() error {
	return L().Sync()
}

// ParseLevel parses a level name, accepting "trace" in addition to the
// levels zap knows about.
func ParseLevel(name string) (zapcore.Level, error) {
	switch name {
	case "":
		return zapcore.InfoLevel, nil
	case "trace":
		return TraceLevel, nil
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown telemetry level %q", name)
	}
	return level, nil
}

// levelEncoder renders TraceLevel as TRACE and defers to zap for the rest
func levelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == TraceLevel {
		enc.AppendString("TRACE")
		return
	}
	zapcore.CapitalLevelEncoder(l, enc)
}

// correlator extracts correlation fields (trace and span IDs) from a
// context. The trace package registers one at init; the indirection keeps
// this package free of a dependency on span internals.
var correlator atomic.Pointer[func(context.Context) []zap.Field]

// RegisterCorrelator installs the context correlation hook used by
// WithContext. Later registrations win.
func RegisterCorrelator(fn func(context.Context) []zap.Field) {
	correlator.Store(&fn)
}

// WithContext returns the dispatcher enriched with correlation fields for
// the span active in ctx, if any. Handlers use this so their own events
// are attributed to the request's span.
func WithContext(ctx context.Context) *zap.Logger {
	logger := L()
	if fn := correlator.Load(); fn != nil {
		if fields := (*fn)(ctx); len(fields) > 0 {
			return logger.With(fields...)
		}
	}
	return logger
}
