package source

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel kinds for source errors.
var (
	// ErrFetch covers transport failures, HTTP statuses >= 400 and
	// undecodable payloads.
	ErrFetch = errors.New("catalog fetch failed")
	// ErrCancelled means the caller abandoned the load. Callers discard it
	// without reporting.
	ErrCancelled = errors.New("catalog fetch cancelled")
	ErrNoSource  = errors.New("no catalog source configured")
)

// IsCancelled reports whether err stems from an abandoned load.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// contextFailure classifies a finished ctx. Only an explicit cancellation is
// ErrCancelled; an expired deadline is a failed fetch. It returns nil while
// ctx is live.
func contextFailure(ctx context.Context) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	default:
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
}
