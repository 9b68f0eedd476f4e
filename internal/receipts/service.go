package receipts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budgyapp/budgy-backend/constants"
	"github.com/budgyapp/budgy-backend/internal/auth"
	"github.com/budgyapp/budgy-backend/internal/budget"
	"github.com/budgyapp/budgy-backend/internal/common"
	"github.com/budgyapp/budgy-backend/internal/llm"
	"github.com/budgyapp/budgy-backend/internal/model"
	"github.com/budgyapp/budgy-backend/internal/quota"
	"github.com/budgyapp/budgy-backend/internal/retry"
	"github.com/budgyapp/budgy-backend/internal/store"
)

// costPerKiloChars is the bookkeeping rate for the usage log, keyed by input
// text length.
var costPerKiloChars = decimal.RequireFromString("0.002")

// IDGenerator generates unique IDs for receipts and items.
type IDGenerator func() string

// TimeSource provides the current time.
type TimeSource func() time.Time

// Service turns extracted receipt text into persisted, budget-attributable
// transactions. It is stateless per request; the store owns all shared state.
type Service struct {
	store      store.Store
	extractor  llm.FieldExtractor
	quota      *quota.Checker
	logger     *slog.Logger
	newID      IDGenerator
	now        TimeSource
	maxRetries int
	retryDelay time.Duration
}

// NewService creates a Service with default ID generator and time source.
func NewService(st store.Store, extractor llm.FieldExtractor, q *quota.Checker, logger *slog.Logger) *Service {
	return NewServiceWithDeps(st, extractor, q, logger, func() string { return uuid.New().String() }, time.Now)
}

// NewServiceWithDeps creates a Service with custom dependencies for testing.
func NewServiceWithDeps(st store.Store, extractor llm.FieldExtractor, q *quota.Checker, logger *slog.Logger, newID IDGenerator, now TimeSource) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      st,
		extractor:  extractor,
		quota:      q,
		logger:     logger,
		newID:      newID,
		now:        now,
		maxRetries: retry.DefaultMaxRetries,
		retryDelay: retry.DefaultBaseDelay,
	}
}

// ProcessRequest is one receipt submission from an authenticated caller.
type ProcessRequest struct {
	Identity      auth.Identity
	UserID        string // optional; must match the verified identity when set
	ExtractedText string
}

// ProcessReceipt runs the relay pipeline: identity check, quota, field
// extraction, normalization, persistence, usage bookkeeping. Steps are
// strictly sequential; independent submissions are idempotent by generated id.
func (s *Service) ProcessReceipt(ctx context.Context, req ProcessRequest) (model.Receipt, error) {
	start := s.now()

	if req.UserID != "" && req.UserID != req.Identity.UserID {
		return model.Receipt{}, common.NewAppError(common.KindUnauthenticated, "token does not match requested user", nil)
	}
	userID := req.Identity.UserID

	text := strings.TrimSpace(req.ExtractedText)
	if text == "" {
		return model.Receipt{}, common.NewAppError(common.KindInvalidInput, "extractedText is required", nil)
	}

	if err := s.quota.Check(ctx, userID, req.Identity.Premium, start); err != nil {
		return model.Receipt{}, err
	}

	s.logger.Info("relay.process.start", "user_id", userID, "text_len", len(text))

	fields, raw, err := s.extractor.ExtractFields(ctx, llm.ExtractRequest{
		ExtractedText:     text,
		AllowedCategories: constants.AsStringSlice(),
	})
	if err != nil {
		// raw present means the provider answered but the output did not
		// conform; absent means we never got a usable response.
		if len(raw) > 0 {
			return model.Receipt{}, common.NewAppError(common.KindGenerationParseFailure, "provider returned non-conforming output", err)
		}
		return model.Receipt{}, common.NewAppError(common.KindGenerationFailure, "generation provider call failed", err)
	}

	receipt := s.buildReceipt(fields, userID, start)

	if err := retry.Do(ctx, func(ctx context.Context) error {
		return s.store.SaveReceipt(ctx, userID, receipt)
	}, retry.WithMaxRetries(s.maxRetries), retry.WithBaseDelay(s.retryDelay)); err != nil {
		return model.Receipt{}, common.NewAppError(common.KindStoreFailure, "persisting receipt", err)
	}

	s.recordUsage(userID, len(text), start)

	s.logger.Info("relay.process.ok",
		"user_id", userID,
		"receipt_id", receipt.ID,
		"items", len(receipt.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return receipt, nil
}

// buildReceipt normalizes extracted fields into the canonical shape, stamping
// generated ids, scan time, and the category default.
func (s *Service) buildReceipt(fields llm.ReceiptFields, userID string, now time.Time) model.Receipt {
	category, _ := constants.Canonicalize(fields.Category)

	r := model.Receipt{
		ID:          s.newID(),
		StoreName:   fields.StoreName,
		Date:        fields.Date,
		TotalAmount: parseAmount(fields.TotalAmount),
		TaxAmount:   parseAmount(fields.TaxAmount),
		TipAmount:   parseAmount(fields.TipAmount),
		ScannedTime: now,
		UserID:      userID,
		Category:    category,
	}

	for _, it := range fields.Items {
		item := model.ReceiptItem{
			ID:       s.newID(),
			Name:     it.Name,
			Price:    parseAmount(it.Price),
			Quantity: parseAmount(it.Quantity),
		}
		if it.Category != "" {
			cat, _ := constants.Canonicalize(it.Category)
			item.Category = cat
		}
		r.Items = append(r.Items, item)
	}
	return r
}

// recordUsage bumps the monthly counter and appends a usage log entry. The
// counter update is synchronous (atomic at the store, so concurrent requests
// never under-count); the log append is fire-and-forget.
func (s *Service) recordUsage(userID string, textLen int, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	count, err := s.quota.Record(ctx, userID, now)
	cancel()
	if err != nil {
		s.logger.Error("relay.usage.counter_failed", "user_id", userID, "error", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cost := costPerKiloChars.Mul(decimal.NewFromInt(int64(textLen))).Div(decimal.NewFromInt(1000))
		err := s.store.AppendUsageLog(ctx, store.UsageEntry{
			UserID:        userID,
			Timestamp:     now,
			TextLength:    textLen,
			EstimatedCost: cost,
		})
		if err != nil {
			s.logger.Error("relay.usage.log_failed", "user_id", userID, "error", err)
			return
		}
		s.logger.Info("relay.usage.recorded", "user_id", userID, "count", count, "text_len", textLen)
	}()
}

// ListReceipts returns the caller's receipts, most recent effective
// transaction first.
func (s *Service) ListReceipts(ctx context.Context, userID string) ([]model.Receipt, error) {
	receipts, err := retry.DoValue(ctx, func(ctx context.Context) ([]model.Receipt, error) {
		return s.store.ListReceipts(ctx, userID)
	}, retry.WithMaxRetries(s.maxRetries), retry.WithBaseDelay(s.retryDelay))
	if err != nil {
		return nil, common.NewAppError(common.KindStoreFailure, "listing receipts", err)
	}
	return receipts, nil
}

// GetReceipt returns one receipt owned by the caller.
func (s *Service) GetReceipt(ctx context.Context, userID, receiptID string) (model.Receipt, error) {
	r, err := s.store.GetReceipt(ctx, userID, receiptID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Receipt{}, common.NewAppError(common.KindNotFound, "receipt not found", err)
		}
		return model.Receipt{}, common.NewAppError(common.KindStoreFailure, "reading receipt", err)
	}
	return r, nil
}

// ReceiptEdit carries the fields the client may change after ingestion.
type ReceiptEdit struct {
	StoreName *string             `json:"storeName,omitempty"`
	Category  *string             `json:"category,omitempty"`
	Items     []model.ReceiptItem `json:"items,omitempty"`
}

// UpdateReceipt applies a user edit to an existing receipt.
func (s *Service) UpdateReceipt(ctx context.Context, userID, receiptID string, edit ReceiptEdit) (model.Receipt, error) {
	r, err := s.GetReceipt(ctx, userID, receiptID)
	if err != nil {
		return model.Receipt{}, err
	}

	if edit.StoreName != nil {
		r.StoreName = strings.TrimSpace(*edit.StoreName)
	}
	if edit.Category != nil {
		cat, _ := constants.Canonicalize(*edit.Category)
		r.Category = cat
	}
	if edit.Items != nil {
		r.Items = edit.Items
		r.EnsureIDs()
	}

	if err := retry.Do(ctx, func(ctx context.Context) error {
		return s.store.SaveReceipt(ctx, userID, r)
	}, retry.WithMaxRetries(s.maxRetries), retry.WithBaseDelay(s.retryDelay)); err != nil {
		return model.Receipt{}, common.NewAppError(common.KindStoreFailure, "saving receipt", err)
	}
	return r, nil
}

// DeleteReceipt removes a receipt by explicit user action.
func (s *Service) DeleteReceipt(ctx context.Context, userID, receiptID string) error {
	err := s.store.DeleteReceipt(ctx, userID, receiptID)
	if errors.Is(err, store.ErrNotFound) {
		return common.NewAppError(common.KindNotFound, "receipt not found", err)
	}
	if err != nil {
		return common.NewAppError(common.KindStoreFailure, "deleting receipt", err)
	}
	return nil
}

// BudgetView is the budget settings document plus the computed current-month
// summary.
type BudgetView struct {
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Summary       budget.Summary  `json:"summary"`
}

// GetBudget returns the caller's budget settings and current-month summary.
// A user who never set a budget gets a zero target.
func (s *Service) GetBudget(ctx context.Context, userID string) (BudgetView, error) {
	settings, err := s.store.GetBudget(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return BudgetView{}, common.NewAppError(common.KindStoreFailure, "reading budget", err)
	}

	receipts, err := s.ListReceipts(ctx, userID)
	if err != nil {
		return BudgetView{}, err
	}

	return BudgetView{
		MonthlyBudget: settings.MonthlyBudget,
		UpdatedAt:     settings.UpdatedAt,
		Summary:       budget.Summarize(settings.MonthlyBudget, receipts, s.now()),
	}, nil
}

// SetBudget stores a new monthly target.
func (s *Service) SetBudget(ctx context.Context, userID string, monthlyBudget decimal.Decimal) (store.BudgetSettings, error) {
	if monthlyBudget.IsNegative() {
		return store.BudgetSettings{}, common.NewAppError(common.KindInvalidInput, "monthlyBudget must be >= 0", nil)
	}
	settings := store.BudgetSettings{
		MonthlyBudget: monthlyBudget,
		UpdatedAt:     s.now(),
	}
	if err := retry.Do(ctx, func(ctx context.Context) error {
		return s.store.SetBudget(ctx, userID, settings)
	}, retry.WithMaxRetries(s.maxRetries), retry.WithBaseDelay(s.retryDelay)); err != nil {
		return store.BudgetSettings{}, common.NewAppError(common.KindStoreFailure, "saving budget", err)
	}
	return settings, nil
}

func parseAmount(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}
