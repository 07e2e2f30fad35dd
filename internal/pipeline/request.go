package pipeline

import (
	"context"
	"net/http"
	"time"
)

// ResponseKind tells the pipeline how the caller will consume the body.
type ResponseKind int

const (
	ResponseJSON ResponseKind = iota
	ResponseBinary
)

// Request describes one backend call. It is built per call and never stored.
type Request struct {
	Method string
	// Path is relative to the base URL and already escaped.
	Path string
	// Route is the path template used for log and metric labels.
	Route    string
	Body     any
	Header   http.Header
	Response ResponseKind
	// Accept overrides the default Accept header.
	Accept string
	// Out receives the decoded body of a 2xx JSON response. Nil skips decoding.
	Out any
	// Public marks credential-exchange calls: no bearer is attached and a 401
	// means the credentials were rejected, not that a session expired.
	Public bool
}

func (r Request) route() string {
	if r.Route != "" {
		return r.Route
	}
	return r.Path
}

// Result is what the response stage sees and may rewrite.
type Result struct {
	Request    Request
	RequestID  string
	StatusCode int
	Header     http.Header
	Body       []byte
	Err        error
	Elapsed    time.Duration
	// Dispatched is false when a request interceptor stopped the call before
	// it reached the network.
	Dispatched bool
}

// RequestInterceptor runs before dispatch. Returning an error aborts the call.
type RequestInterceptor func(ctx context.Context, httpReq *http.Request, req Request) error

// ResponseInterceptor runs after dispatch, in order, and returns the result
// handed to the next interceptor.
type ResponseInterceptor func(ctx context.Context, res *Result) *Result

// LogoutHook runs after a forced logout has cleared the session.
type LogoutHook func(ctx context.Context)
