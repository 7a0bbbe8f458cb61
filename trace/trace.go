// Package trace instruments pipeline handlers with per-request diagnostic
// spans. A decorator built with New, Request or Context wraps any
// pipeline.Handler; each invocation opens a span, keeps it attached to the
// handler's context for the whole execution, records the terminal outcome
// on it and returns the handler's result untouched.
package trace

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/upb/traceware/pipeline"
	"github.com/upb/traceware/telemetry"
)

// Trace decorates pipeline handlers with spans built by its factory. The
// instrumented handler type is unexported, so decorators built here are the
// only valid instrumented shapes.
type Trace struct {
	factory Factory
}

var _ pipeline.Wrapper = (*Trace)(nil)

// Wrap implements pipeline.Wrapper
func (t *Trace) Wrap(next pipeline.Handler) pipeline.Handler {
	return &withTrace{factory: t.factory, next: next}
}

type withTrace struct {
	factory Factory
	next    pipeline.Handler
}

// Handle runs the inner handler under a fresh span. The span is attached
// to the context handed down, so every event emitted inside the handler,
// on any goroutine, is attributed to it. The span closes in a defer and is
// therefore released on completion, panic and abandonment alike.
func (h *withTrace) Handle(ctx context.Context, req *http.Request) (pipeline.Reply, error) {
	span := h.factory.Build(NewInfo(req))
	if span == nil {
		// Factory failure is fatal for the request; there is no
		// recovery at this layer.
		return nil, pipeline.Internal("span factory produced no span")
	}

	ctx = span.Attach(ctx)
	defer span.Close()

	span.Event(telemetry.TraceLevel, "received request")

	reply, err := h.next.Handle(ctx, req)
	if err != nil {
		if abandoned(ctx, err) {
			// Dropped before a terminal outcome: release the span
			// silently, no completion event.
			return nil, err
		}
		rej := pipeline.RejectionOf(err)
		span.SetField(zap.Int("response.status", rej.Status))
		span.SetField(zap.String("response.error", rej.Error()))
		span.Event(telemetry.TraceLevel, "request rejected")
		return nil, err
	}

	resp := reply.IntoResponse()
	span.SetField(zap.Int("response.status", resp.Status))
	span.Event(zapcore.DebugLevel, "request completed")
	return &Traced{resp: resp}, nil
}

// abandoned reports whether err is the handler giving up because the
// request's own context was cancelled, rather than a rejection.
func abandoned(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Traced marks a reply that has passed through instrumentation. It carries
// the already-materialized response and exposes it unchanged, so outer
// layers can distinguish instrumented replies without re-materializing.
type Traced struct {
	resp *pipeline.Response
}

var _ pipeline.Reply = (*Traced)(nil)

// IntoResponse implements pipeline.Reply
func (t *Traced) IntoResponse() *pipeline.Response {
	return t.resp
}
