package trace

import (
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Target is the diagnostic category identifier stamped on spans built by
// the canonical factories.
const Target = "traceware"

// Factory builds a new, not-yet-attached span from a request view. It must
// not retain the Info beyond the call and is invoked once per request, so
// a shared factory value may not carry per-request mutable state.
type Factory interface {
	Build(info *Info) *Span
}

// FactoryFunc adapts a plain function to the Factory interface
type FactoryFunc func(info *Info) *Span

// Build implements Factory
func (f FactoryFunc) Build(info *Info) *Span {
	return f(info)
}

// New creates a decorator that instruments every request with a span built
// by factory. This is the only decorator constructor; Request and Context
// are conveniences over it.
func New(factory Factory) *Trace {
	return &Trace{factory: factory}
}

// Request creates a decorator producing an info-level span named "request"
// summarizing the method, path and protocol version.
func Request() *Trace {
	return New(FactoryFunc(func(info *Info) *Span {
		return NewSpan("request", Target, zapcore.InfoLevel,
			zap.String("method", info.Method()),
			zap.String("path", strconv.Quote(info.Path())),
			zap.String("version", info.Version()),
		)
	}))
}

// Context creates a decorator producing a debug-level span named "context"
// whose sole field is the given name. The name is fixed at construction,
// so the decorator is safe to share across routes and requests.
func Context(name string) *Trace {
	return New(FactoryFunc(func(*Info) *Span {
		return NewSpan("context", Target, zapcore.DebugLevel,
			zap.String("name", name),
		)
	}))
}
