package archive

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrNoWorks means the search ran fine and matched nothing.
var ErrNoWorks = errors.New("no works found")

// Kind classifies a failed archive request for fallback decisions.
type Kind int

const (
	KindNetwork Kind = iota
	KindTimeout
	KindEmptyResponse
	KindHTTP
	KindParse
)

// Reason is the short label logged when a fallback is used.
func (k Kind) Reason() string {
	switch k {
	case KindTimeout:
		return "ao3_timeout"
	case KindEmptyResponse:
		return "ao3_empty_response"
	case KindNetwork:
		return "network_error"
	case KindHTTP:
		return "ao3_http_error"
	case KindParse:
		return "ao3_parse_error"
	default:
		return "unknown_error"
	}
}

// FetchError is a classified archive failure.
type FetchError struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d", e.Kind.Reason(), e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Kind.Reason(), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ReasonOf labels any error coming out of this package.
func ReasonOf(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind.Reason()
	}
	return "unknown_error"
}

func classify(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	return &FetchError{Kind: KindNetwork, Err: err}
}
