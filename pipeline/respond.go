package pipeline

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape written for rejections
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteResponse writes a materialized response to the wire
func WriteResponse(w http.ResponseWriter, resp *Response) error {
	for key, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.Status)
	_, err := w.Write(resp.Body)
	return err
}

// WriteRejection writes a rejection as a structured JSON error response
func WriteRejection(w http.ResponseWriter, rej *Rejection) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rej.Status)

	return json.NewEncoder(w).Encode(ErrorBody{
		Error:   errorToken(rej.Status),
		Message: rej.Error(),
	})
}

// errorToken maps a status code to a stable machine-readable error token
func errorToken(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limit_exceeded"
	default:
		return "internal_error"
	}
}
