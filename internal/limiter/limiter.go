// Package limiter implements fixed-window request rate limiting keyed by an
// arbitrary client key.
package limiter

import (
	"context"
	"errors"
)

type Limiter interface {
	// Allow records one hit for key and reports whether it fits the current
	// window.
	Allow(ctx context.Context, key string) (bool, error)
}

var ErrInvalidLimit = errors.New("limit must be greater than 0")
