// Package budget computes current-month spend against a monthly target.
package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgyapp/budgy-backend/internal/model"
)

// Status buckets the progress ratio. Lower bounds are inclusive.
type Status string

const (
	StatusGood     Status = "good"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Summary is the aggregated view the budget screen renders.
type Summary struct {
	Target    decimal.Decimal `json:"target"`
	Spend     decimal.Decimal `json:"spend"`
	Remaining decimal.Decimal `json:"remaining"`
	Progress  float64         `json:"progress"`
	Status    Status          `json:"status"`
}

// Summarize sums totalAmount over receipts whose effective transaction instant
// (explicitly transaction time, not scan time) falls in now's calendar month,
// local calendar. Receipts without an amount count as zero.
func Summarize(target decimal.Decimal, receipts []model.Receipt, now time.Time) Summary {
	spend := decimal.Zero
	for _, r := range receipts {
		t, ok := r.EffectiveTransactionTime()
		if !ok {
			continue
		}
		if t.Year() != now.Year() || t.Month() != now.Month() {
			continue
		}
		if r.TotalAmount != nil {
			spend = spend.Add(*r.TotalAmount)
		}
	}

	remaining := target.Sub(spend)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	progress := 0.0
	if target.IsPositive() {
		progress, _ = spend.Div(target).Float64()
		if progress > 1 {
			progress = 1
		}
	}

	return Summary{
		Target:    target,
		Spend:     spend,
		Remaining: remaining,
		Progress:  progress,
		Status:    statusFor(progress),
	}
}

func statusFor(progress float64) Status {
	switch {
	case progress >= 0.9:
		return StatusCritical
	case progress >= 0.7:
		return StatusWarning
	default:
		return StatusGood
	}
}
