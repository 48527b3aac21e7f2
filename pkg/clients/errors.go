// Package clients holds the HTTP clients for the remote analyzer services:
// vision, agent, XAI attribution, and the phone bridge probe. All clients
// report failures through a small set of named error kinds so callers can
// branch with errors.Is/As.
package clients

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel error kinds shared by all clients.
var (
	// ErrTimeout marks a call that exceeded its per-call deadline.
	ErrTimeout = errors.New("remote call timed out")
	// ErrUnreachable marks a transport-level failure before any response.
	ErrUnreachable = errors.New("remote service unreachable")
	// ErrDisabled marks a call against a feature that is switched off.
	ErrDisabled = errors.New("attribution is disabled")
)

// StatusError reports a non-200 response, carrying the status code and a
// truncated copy of the body.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// DecodeError reports a response body that could not be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// wrapTransport classifies a transport error as timeout or unreachable.
func wrapTransport(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// truncate limits error bodies to a readable size.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
