package llm

import (
	"errors"
	"math/rand/v2"
	"time"
)

// DefaultMaxRetries bounds transparent retries of transient model errors
// before the deterministic fallback takes over.
const DefaultMaxRetries = 3

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retry attempt n (0-indexed), exponential
// with jitter, capped at 30s.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}
