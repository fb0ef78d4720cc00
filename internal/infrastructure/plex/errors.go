package plex

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	// ErrTimeout is returned when the server did not answer in time.
	ErrTimeout = errors.New("plex: request timed out")
	// ErrUnreachable is returned when no connection could be made.
	ErrUnreachable = errors.New("plex: server unreachable")
	// ErrMalformedPayload is returned when a whole response cannot be parsed.
	ErrMalformedPayload = errors.New("plex: malformed payload")
)

// HTTPStatusError is a non-200 answer from the server.
type HTTPStatusError struct {
	Code int
	Path string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("plex: %s returned HTTP %d", e.Path, e.Code)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.Code == 401
}

// isRetryable is true for transport failures and bad statuses. Anything
// else (bad URL, request construction) will not get better by retrying.
func isRetryable(err error) bool {
	var statusErr *HTTPStatusError
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnreachable) || errors.As(err, &statusErr)
}

// classify maps a transport error onto the package taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op != "parse" {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return err
}
