package notification

import "context"

// UserRateLimiter defines the contract for per-user dispatch rate limiting.
// Implementations live in infra/ratelimit/.
type UserRateLimiter interface {
	// Allow checks whether a dispatch can proceed for the given user ID.
	// Returns true if the dispatch is allowed, false if rate limited.
	Allow(ctx context.Context, userID string) (bool, error)
}
