package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/traceware/pipeline"
)

func TestServe(t *testing.T) {
	t.Run("writes a materialized reply", func(t *testing.T) {
		h := pipeline.HandlerFunc(func(context.Context, *http.Request) (pipeline.Reply, error) {
			return pipeline.Text(http.StatusOK, "hello"), nil
		})

		rec := httptest.NewRecorder()
		Serve(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hello", rec.Body.String())
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("writes rejections as JSON errors", func(t *testing.T) {
		h := pipeline.HandlerFunc(func(context.Context, *http.Request) (pipeline.Reply, error) {
			return nil, pipeline.NotFound("no such page")
		})

		rec := httptest.NewRecorder()
		Serve(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"not_found","message":"no such page"}`, rec.Body.String())
	})

	t.Run("plain errors surface as 500", func(t *testing.T) {
		h := pipeline.HandlerFunc(func(context.Context, *http.Request) (pipeline.Reply, error) {
			return nil, assert.AnError
		})

		rec := httptest.NewRecorder()
		Serve(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "internal_error")
	})

	t.Run("writes nothing when the client is gone", func(t *testing.T) {
		h := pipeline.HandlerFunc(func(ctx context.Context, _ *http.Request) (pipeline.Reply, error) {
			return nil, context.Canceled
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodGet, "/gone", nil).WithContext(ctx)

		rec := httptest.NewRecorder()
		Serve(h).ServeHTTP(rec, req)

		assert.Empty(t, rec.Body.String())
	})
}

func TestRequestID(t *testing.T) {
	t.Run("assigns a fresh ID", func(t *testing.T) {
		var fromCtx string
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			fromCtx = GetRequestIDFromContext(r.Context())
		})

		rec := httptest.NewRecorder()
		RequestID(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, fromCtx)
		_, err := uuid.Parse(fromCtx)
		assert.NoError(t, err)
		assert.Equal(t, fromCtx, rec.Header().Get("X-Request-ID"))
	})

	t.Run("honors an incoming ID", func(t *testing.T) {
		var fromCtx string
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			fromCtx = GetRequestIDFromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "incoming-42")

		rec := httptest.NewRecorder()
		RequestID(next).ServeHTTP(rec, req)

		assert.Equal(t, "incoming-42", fromCtx)
		assert.Equal(t, "incoming-42", rec.Header().Get("X-Request-ID"))
	})

	t.Run("missing ID reads as empty", func(t *testing.T) {
		assert.Empty(t, GetRequestIDFromContext(context.Background()))
	})
}
