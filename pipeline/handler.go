// Package pipeline defines the composable request-handling contract that the
// traceware decorators operate on: handlers consume a request and produce
// either a Reply or a Rejection, and wrappers decorate handlers without
// knowing their internals.
package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
)

// Handler processes a single request and returns a Reply on success or an
// error on failure. Errors that carry a status are *Rejection values; any
// other error is projected to an internal-error rejection by RejectionOf.
type Handler interface {
	Handle(ctx context.Context, req *http.Request) (Reply, error)
}

// HandlerFunc adapts a plain function to the Handler interface
type HandlerFunc func(ctx context.Context, req *http.Request) (Reply, error)

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, req *http.Request) (Reply, error) {
	return f(ctx, req)
}

// Wrapper decorates a Handler, producing a new Handler
type Wrapper interface {
	Wrap(next Handler) Handler
}

// Chain applies wrappers to a handler. The first wrapper is the outermost,
// matching the order middleware is registered on a router.
func Chain(h Handler, wrappers ...Wrapper) Handler {
	for i := len(wrappers) - 1; i >= 0; i-- {
		h = wrappers[i].Wrap(h)
	}
	return h
}

// Response is the materialized wire-level form of a reply
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Reply is anything that can materialize into a final Response.
// Materialization must be cheap and must not fail.
type Reply interface {
	IntoResponse() *Response
}

// TextReply is a plain-text reply with an explicit status code
type TextReply struct {
	Status int
	Body   string
}

// Text creates a plain-text reply
func Text(status int, body string) *TextReply {
	return &TextReply{Status: status, Body: body}
}

// IntoResponse implements Reply
func (t *TextReply) IntoResponse() *Response {
	h := make(http.Header)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	return &Response{Status: t.Status, Header: h, Body: []byte(t.Body)}
}

// JSONReply marshals its data as the response body
type JSONReply struct {
	Status int
	Data   interface{}
}

// JSON creates a JSON reply
func JSON(status int, data interface{}) *JSONReply {
	return &JSONReply{Status: status, Data: data}
}

// IntoResponse implements Reply. A marshal failure degrades to a 500
// response rather than failing, since materialization cannot return an
// error.
func (j *JSONReply) IntoResponse() *Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")

	body, err := json.Marshal(j.Data)
	if err != nil {
		return &Response{
			Status: http.StatusInternalServerError,
			Header: h,
			Body:   []byte(`{"error":"internal_error","message":"failed to encode response"}`),
		}
	}
	return &Response{Status: j.Status, Header: h, Body: body}
}
