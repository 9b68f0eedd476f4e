package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/budgyapp/budgy-backend/internal/model"
)

// Service produces XLSX bytes for receipt exports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ReceiptsXLSX returns an XLSX workbook (as bytes) for a receipt list. The
// caller passes receipts already scoped to one user and sorted for display.
func (s *Service) ReceiptsXLSX(userID string, receipts []model.Receipt) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Receipts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date",
		"Store",
		"Category",
		"Total",
		"Tax",
		"Tip",
		"Items",
		"Scanned",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range receipts {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if t, ok := r.EffectiveTransactionTime(); ok {
			write(1, t.Format("2006-01-02"))
		} else {
			write(1, "")
		}

		store := r.StoreName
		if store == "" {
			store = "—"
		}
		write(2, store)
		write(3, string(r.Category))
		write(4, amountString(r.TotalAmount))
		write(5, amountString(r.TaxAmount))
		write(6, amountString(r.TipAmount))
		write(7, len(r.Items))
		if !r.ScannedTime.IsZero() {
			write(8, r.ScannedTime.Format(time.RFC3339))
		}

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 28) // store
	_ = f.SetColWidth(sheet, "C", "C", 18) // category
	_ = f.SetColWidth(sheet, "D", "F", 10) // amounts
	_ = f.SetColWidth(sheet, "H", "H", 22) // scanned

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID,
		"rows", len(receipts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func amountString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
