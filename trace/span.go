package trace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/upb/traceware/telemetry"
)

type ctxKey struct{}

// Span is a named, leveled diagnostic scope. A factory creates it inactive;
// Attach activates it for a request's context, linking it under any span
// already present there. Exactly one span exists per request passing
// through a given decorator.
type Span struct {
	name   string
	target string
	level  zapcore.Level

	mu       sync.Mutex
	id       string
	traceID  string
	parentID string
	start    time.Time
	end      time.Time
	fields   []zap.Field
	closed   bool
}

// NewSpan creates an inactive span with creation-time fields
func NewSpan(name, target string, level zapcore.Level, fields ...zap.Field) *Span {
	return &Span{
		name:   name,
		target: target,
		level:  level,
		fields: fields,
	}
}

// Name returns the span name
func (s *Span) Name() string { return s.name }

// Target returns the diagnostic category identifier
func (s *Span) Target() string { return s.target }

// Level returns the span severity
func (s *Span) Level() zapcore.Level { return s.level }

// TraceID returns the trace ID, or "" before the span is attached
func (s *Span) TraceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traceID
}

// SpanID returns the span ID, or "" before the span is attached
func (s *Span) SpanID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// ParentID returns the parent span ID, or "" for a root span
func (s *Span) ParentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parentID
}

// Fields returns a snapshot of the span's fields
func (s *Span) Fields() []zap.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]zap.Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Attach activates the span for ctx and returns the derived context. Any
// code running with that context, on any goroutine and across any number
// of resumptions, is attributed to this span. The first call links the
// parent from ctx and starts the clock; later calls only re-derive the
// context.
func (s *Span) Attach(ctx context.Context) context.Context {
	parent := FromContext(ctx)

	s.mu.Lock()
	if s.id == "" {
		s.id = uuid.NewString()
		s.start = time.Now()
		if parent != nil {
			s.traceID = parent.TraceID()
			s.parentID = parent.SpanID()
		} else {
			s.traceID = uuid.NewString()
		}
	}
	s.mu.Unlock()

	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the span active in ctx, or nil
func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(ctxKey{}).(*Span)
	return s
}

// SetField adds a field to the span. Safe for concurrent use; no-op after
// the span has closed.
func (s *Span) SetField(field zap.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fields = append(s.fields, field)
}

// Event emits a diagnostic event through the global dispatcher, carrying
// the span's correlation IDs and current fields. Gated by the dispatcher's
// level like any other log entry.
func (s *Span) Event(level zapcore.Level, msg string, extra ...zap.Field) {
	logger := telemetry.L()
	ce := logger.Check(level, msg)
	if ce == nil {
		return
	}

	s.mu.Lock()
	fields := make([]zap.Field, 0, len(s.fields)+len(extra)+4)
	fields = append(fields,
		zap.String("span", s.name),
		zap.String("target", s.target),
		zap.String("trace_id", s.traceID),
		zap.String("span_id", s.id),
	)
	fields = append(fields, s.fields...)
	s.mu.Unlock()

	fields = append(fields, extra...)
	ce.Write(fields...)
}

// Close ends the span and notifies registered close handlers. Idempotent;
// runs on completion, panic and abandonment alike.
func (s *Span) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.end = time.Now()
	record := Closed{
		Name:     s.name,
		Target:   s.target,
		Level:    s.level,
		TraceID:  s.traceID,
		SpanID:   s.id,
		ParentID: s.parentID,
		Start:    s.start,
		End:      s.end,
		Fields:   append([]zap.Field(nil), s.fields...),
	}
	s.mu.Unlock()

	notifyClose(record)
}

// Closed is the immutable record of a span that has ended
type Closed struct {
	Name     string
	Target   string
	Level    zapcore.Level
	TraceID  string
	SpanID   string
	ParentID string
	Start    time.Time
	End      time.Time
	Fields   []zap.Field
}

// Duration returns the span's total lifetime
func (c Closed) Duration() time.Duration {
	return c.End.Sub(c.Start)
}

var (
	closeMu       sync.RWMutex
	closeHandlers = map[uint64]func(Closed){}
	nextCloseID   uint64
)

// OnSpanClose registers a handler invoked for every span that closes and
// returns a function that removes it. Handlers run synchronously on the
// closing goroutine and must be fast.
func OnSpanClose(fn func(Closed)) (remove func()) {
	closeMu.Lock()
	nextCloseID++
	id := nextCloseID
	closeHandlers[id] = fn
	closeMu.Unlock()

	return func() {
		closeMu.Lock()
		delete(closeHandlers, id)
		closeMu.Unlock()
	}
}

func notifyClose(record Closed) {
	closeMu.RLock()
	handlers := make([]func(Closed), 0, len(closeHandlers))
	for _, fn := range closeHandlers {
		handlers = append(handlers, fn)
	}
	closeMu.RUnlock()

	for _, fn := range handlers {
		fn(record)
	}
}

func init() {
	telemetry.RegisterCorrelator(func(ctx context.Context) []zap.Field {
		s := FromContext(ctx)
		if s == nil {
			return nil
		}
		return []zap.Field{
			zap.String("trace_id", s.TraceID()),
			zap.String("span_id", s.SpanID()),
		}
	})
}
