package trace

import "net/http"

// Info is a read-only view over a single request's metadata, handed to span
// factories. It is only valid for the duration of the factory call and must
// not be retained.
type Info struct {
	req *http.Request
}

// NewInfo creates a view over req
func NewInfo(req *http.Request) *Info {
	return &Info{req: req}
}

// Method returns the request method token, e.g. GET
func (i *Info) Method() string {
	return i.req.Method
}

// Path returns the full request path
func (i *Info) Path() string {
	return i.req.URL.Path
}

// Version returns the protocol version token, e.g. HTTP/1.1
func (i *Info) Version() string {
	return i.req.Proto
}

// RemoteAddr returns the remote network address, or "" when unknown
func (i *Info) RemoteAddr() string {
	return i.req.RemoteAddr
}

// Referer returns the Referer header, or "" when absent
func (i *Info) Referer() string {
	return i.req.Header.Get("Referer")
}

// UserAgent returns the User-Agent header, or "" when absent
func (i *Info) UserAgent() string {
	return i.req.Header.Get("User-Agent")
}

// Host returns the requested host, or "" when absent
func (i *Info) Host() string {
	return i.req.Host
}

// Headers returns the full header collection for advanced factories
func (i *Info) Headers() http.Header {
	return i.req.Header
}
