// Package middleware bridges pipeline handlers onto net/http so they can be
// mounted on any router, and provides per-request ID plumbing.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/upb/traceware/pipeline"
)

// Serve adapts a pipeline handler to net/http. Replies are materialized and
// written as-is; rejections are written as structured JSON errors. When the
// client is already gone nothing is written.
func Serve(h pipeline.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply, err := h.Handle(r.Context(), r)
		if err != nil {
			if r.Context().Err() != nil &&
				(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return
			}
			_ = pipeline.WriteRejection(w, pipeline.RejectionOf(err))
			return
		}
		_ = pipeline.WriteResponse(w, reply.IntoResponse())
	}
}

// Context key type to avoid collisions
type contextKey string

// RequestIDKey is the context key for the request ID
const RequestIDKey contextKey = "request_id"

// RequestID assigns each request a unique ID, stores it in the context and
// echoes it in the X-Request-ID response header. An incoming X-Request-ID
// is honored.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}
