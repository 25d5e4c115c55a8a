package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTimeout is returned when a backend does not answer within the call deadline.
	ErrTimeout = errors.New("generation timed out")
	// ErrTransport is returned for network failures and non-success responses.
	ErrTransport = errors.New("generation transport failure")
	// ErrNoEndpoints is returned when an endpoint pool is built from an empty list.
	ErrNoEndpoints = errors.New("no generation endpoints configured")
)

// classify wraps a failed call so callers can tell timeouts from other
// transport failures with errors.Is. Caller cancellation is passed through.
func classify(endpoint string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, endpoint, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, endpoint, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrTransport, endpoint, err)
}
