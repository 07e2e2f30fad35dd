package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the classification given to every failed backend call.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServerError
	KindNetworkUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindNetworkUnreachable:
		return "network_unreachable"
	default:
		return "unknown"
	}
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrServerError        = errors.New("server error")
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrUnknown            = errors.New("unknown error")

	ErrBodyTooLarge = errors.New("response body too large")
)

func (k Kind) sentinel() error {
	switch k {
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindServerError:
		return ErrServerError
	case KindNetworkUnreachable:
		return ErrNetworkUnreachable
	default:
		return ErrUnknown
	}
}

// Error is a classified backend failure. Message is the backend's own reason
// and is empty when the response body carried none. It matches the sentinel for its Kind
// with errors.Is and unwraps to the underlying transport or decode error.
type Error struct {
	Kind       Kind
	StatusCode int
	Method     string
	Path       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	switch {
	case msg != "":
	case e.Err != nil:
		msg = e.Err.Error()
	case e.StatusCode > 0:
		msg = http.StatusText(e.StatusCode)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: %s (%d): %s", e.Method, e.Path, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf returns the classification carried by err, or KindUnknown when err
// did not come from the pipeline.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindUnknown
}

// ClassifyStatus maps a non-2xx HTTP status to its Kind.
func ClassifyStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500 && status <= 599:
		return KindServerError
	default:
		return KindUnknown
	}
}

// ClassifyTransport maps a failure that produced no response. A caller that
// cancelled its own context did not lose the network, so that case is Unknown.
func ClassifyTransport(err error) Kind {
	if errors.Is(err, context.Canceled) {
		return KindUnknown
	}
	return KindNetworkUnreachable
}
