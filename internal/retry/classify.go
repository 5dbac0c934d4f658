package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Reason codes for failures where no response was received.
const (
	ReasonConnReset   = "ECONNRESET"
	ReasonConnRefused = "ECONNREFUSED"
	ReasonTimeout     = "ETIMEDOUT"
	ReasonNotFound    = "ENOTFOUND"
	ReasonBrokenPipe  = "EPIPE"
)

// NetworkReason classifies a transport error. ok is true when err is a
// connection-level failure worth retrying; reason names it.
//
// Cancellation by the caller is never retryable.
func NetworkReason(err error) (reason string, ok bool) {
	if err == nil || errors.Is(err, context.Canceled) {
		return "", false
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET):
		return ReasonConnReset, true
	case errors.Is(err, syscall.ECONNREFUSED):
		return ReasonConnRefused, true
	case errors.Is(err, syscall.EPIPE):
		return ReasonBrokenPipe, true
	case errors.Is(err, syscall.ETIMEDOUT):
		return ReasonTimeout, true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonNotFound, true
	}

	// Client-side timeouts: http.Client.Timeout, header timeouts, dial timeouts.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout, true
	}

	return "", false
}
