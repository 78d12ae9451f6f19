package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Failure kinds. Adapters wrap their errors with one of these so callers can
// branch with errors.Is without knowing which backend produced them.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmbeddingFailed  = errors.New("embedding failed")
	ErrIndexQueryFailed = errors.New("index query failed")
	ErrGenerationFailed = errors.New("generation failed")
	// ErrTimeout is wrapped in addition to one of the kinds above when a deadline expired.
	ErrTimeout = errors.New("timeout")
)

// WrapFailure tags err with kind, and with ErrTimeout when err came from an
// expired deadline or a transport timeout.
func WrapFailure(kind error, err error) error {
	if err == nil {
		return nil
	}
	if IsTimeout(err) {
		return fmt.Errorf("%w: %w: %w", kind, ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// IsTimeout reports whether err is a context deadline or a net.Error timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
