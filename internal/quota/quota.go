// Package quota enforces the per-user monthly cap on receipt processing.
package quota

import (
	"context"
	"log/slog"
	"time"

	"github.com/budgyapp/budgy-backend/internal/common"
)

// UsageStore is the slice of the document store quota needs.
type UsageStore interface {
	UsageCount(ctx context.Context, userID, monthKey string) (int, error)
	IncrementUsage(ctx context.Context, userID, monthKey string) (int, error)
}

// Checker applies the free-tier monthly limit. Premium accounts are unlimited.
//
// The check is check-then-act: a burst of concurrent submissions can slip past
// the cap by a request or two, which is acceptable for a usage limit. The
// recorded count itself never under-counts — increments are atomic at the
// store level.
type Checker struct {
	usage     UsageStore
	freeLimit int
	logger    *slog.Logger
}

func NewChecker(usage UsageStore, freeLimit int, logger *slog.Logger) *Checker {
	if freeLimit <= 0 {
		freeLimit = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{usage: usage, freeLimit: freeLimit, logger: logger}
}

// MonthKey is the calendar-month bucket for a usage counter.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Check returns a QuotaExceeded failure when a free-tier user has already used
// their monthly allowance.
func (c *Checker) Check(ctx context.Context, userID string, premium bool, now time.Time) error {
	if premium {
		return nil
	}
	count, err := c.usage.UsageCount(ctx, userID, MonthKey(now))
	if err != nil {
		return common.NewAppError(common.KindStoreFailure, "reading usage counter", err)
	}
	if count >= c.freeLimit {
		c.logger.Info("quota.exceeded", "user_id", userID, "count", count, "limit", c.freeLimit)
		return common.NewAppError(common.KindQuotaExceeded, "monthly receipt limit reached", nil)
	}
	return nil
}

// Record bumps the monthly counter after a successful processing run.
func (c *Checker) Record(ctx context.Context, userID string, now time.Time) (int, error) {
	return c.usage.IncrementUsage(ctx, userID, MonthKey(now))
}
