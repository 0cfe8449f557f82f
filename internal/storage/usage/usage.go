// Package usage meters feature consumption per user. The engine checks the
// meter before dispatching paid-tier analysis and increments it afterwards;
// increments are best-effort and never block an already-computed result.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// QuotaError is returned to callers when a metered feature is exhausted.
// It carries the data the caller needs to report the condition; the engine
// never silently downgrades to a cheaper tier instead.
type QuotaError struct {
	Feature   string
	Remaining int
	ResetAt   time.Time
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded for %s, resets at %s", e.Feature, e.ResetAt.Format(time.RFC3339))
}

// IsQuotaError reports whether err is a quota exhaustion condition.
func IsQuotaError(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}

// Meter is the persistence contract for quota accounting. Implementations
// track a rolling daily window per (user, feature).
type Meter interface {
	Allow(ctx context.Context, userID, feature string, quota int) (Decision, error)
	Increment(ctx context.Context, userID, feature string) error
}

// windowStart truncates to the current UTC day; quotas reset at midnight UTC.
func windowStart(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour)
}

func windowReset(now time.Time) time.Time {
	return windowStart(now).Add(24 * time.Hour)
}
