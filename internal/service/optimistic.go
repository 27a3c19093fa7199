// Package service holds the business rules of the admin console on top of
// the entity repositories.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// DefaultOptimisticRetries is used when no retry budget is configured.
const DefaultOptimisticRetries = 5

// OptimisticConfig returns the retry policy for versioned read-modify-write
// loops. Only version conflicts are retried.
func OptimisticConfig(retries int) resilience.Config {
	if retries <= 0 {
		retries = DefaultOptimisticRetries
	}
	return resilience.Config{MaxRetries: retries, InitialBackoff: 5 * time.Millisecond}
}

// withOptimisticRetry runs attempt until it succeeds, fails with anything
// other than a version conflict, or the budget is spent.
func withOptimisticRetry(ctx context.Context, cfg resilience.Config, resource string, attempt func() error) error {
	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		err := attempt()
		if err == nil || errors.Is(err, port.ErrConflict) {
			return err
		}
		return resilience.Permanent(err)
	})
	err = resilience.Unwrap(err)
	if errors.Is(err, port.ErrConflict) {
		return &domain.ErrConflict{Message: resource + " was modified concurrently, try again"}
	}
	return err
}
