package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgyapp/budgy-backend/internal/model"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// BudgetSettings is the per-user budget document.
type BudgetSettings struct {
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// UsageEntry is one append-only usage log record.
type UsageEntry struct {
	UserID        string          `json:"userId"`
	Timestamp     time.Time       `json:"timestamp"`
	TextLength    int             `json:"textLength"`
	EstimatedCost decimal.Decimal `json:"estimatedCost"`
}

// Store is the document-store surface the rest of the system depends on.
// Documents are owned per user; the store is responsible for its own
// concurrency control.
type Store interface {
	SaveReceipt(ctx context.Context, userID string, r model.Receipt) error
	GetReceipt(ctx context.Context, userID, receiptID string) (model.Receipt, error)
	ListReceipts(ctx context.Context, userID string) ([]model.Receipt, error)
	DeleteReceipt(ctx context.Context, userID, receiptID string) error

	GetBudget(ctx context.Context, userID string) (BudgetSettings, error)
	SetBudget(ctx context.Context, userID string, b BudgetSettings) error

	// UsageCount returns the processed-receipt count for a month key (YYYY-MM).
	UsageCount(ctx context.Context, userID, monthKey string) (int, error)
	// IncrementUsage atomically bumps the monthly counter and returns the new
	// value. Concurrent callers never lose an update.
	IncrementUsage(ctx context.Context, userID, monthKey string) (int, error)
	// IncrementUsageIfBelow increments only when the current count is below
	// limit, reporting whether the increment happened. This is the
	// transactional check-and-increment for callers that need a hard cap.
	IncrementUsageIfBelow(ctx context.Context, userID, monthKey string, limit int) (count int, incremented bool, err error)
	AppendUsageLog(ctx context.Context, e UsageEntry) error

	Close() error
}
