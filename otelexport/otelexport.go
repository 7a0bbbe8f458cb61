// Package otelexport forwards closed traceware spans to an OpenTelemetry
// tracer, so deployments already standardized on OTel collectors can ingest
// them without a second pipeline.
package otelexport

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/upb/traceware/trace"
)

// Attach registers a span-close handler that replays every closed span onto
// tracer with its original start and end timestamps. It returns a detach
// function. The traceware span identity (trace_id, span_id, parent_id) is
// carried as attributes; OTel assigns its own IDs.
func Attach(tracer oteltrace.Tracer) (detach func()) {
	return trace.OnSpanClose(func(closed trace.Closed) {
		_, span := tracer.Start(context.Background(), closed.Name,
			oteltrace.WithTimestamp(closed.Start),
			oteltrace.WithAttributes(attributes(closed)...),
		)
		span.SetStatus(status(closed))
		span.End(oteltrace.WithTimestamp(closed.End))
	})
}

// attributes converts the closed span's identity and fields to OTel form
func attributes(closed trace.Closed) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(closed.Fields)+4)
	attrs = append(attrs,
		attribute.String("target", closed.Target),
		attribute.String("trace_id", closed.TraceID),
		attribute.String("span_id", closed.SpanID),
	)
	if closed.ParentID != "" {
		attrs = append(attrs, attribute.String("parent_id", closed.ParentID))
	}
	for _, field := range closed.Fields {
		attrs = append(attrs, convert(field))
	}
	return attrs
}

// convert maps a single zap field to an OTel attribute
func convert(field zap.Field) attribute.KeyValue {
	switch field.Type {
	case zapcore.StringType:
		return attribute.String(field.Key, field.String)
	case zapcore.Int64Type, zapcore.Int32Type:
		return attribute.Int64(field.Key, field.Integer)
	case zapcore.BoolType:
		return attribute.Bool(field.Key, field.Integer == 1)
	case zapcore.DurationType:
		return attribute.String(field.Key, time.Duration(field.Integer).String())
	default:
		return attribute.String(field.Key, fmt.Sprint(field.Interface))
	}
}

// status maps the recorded outcome fields to an OTel status
func status(closed trace.Closed) (codes.Code, string) {
	for _, field := range closed.Fields {
		if field.Key == "response.error" {
			return codes.Error, field.String
		}
	}
	return codes.Ok, ""
}
