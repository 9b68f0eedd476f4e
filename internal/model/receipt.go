package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budgyapp/budgy-backend/constants"
)

// Receipt is the canonical, normalized record of one purchase transaction.
// Amounts are decimal strings on the wire (never floats).
type Receipt struct {
	ID                  string              `json:"id"`
	StoreName           string              `json:"storeName,omitempty"`
	Date                string              `json:"date,omitempty"` // free-form, kept for backward compatibility
	TransactionDateTime *time.Time          `json:"transactionDateTime,omitempty"`
	TotalAmount         *decimal.Decimal    `json:"totalAmount,omitempty"`
	TaxAmount           *decimal.Decimal    `json:"taxAmount,omitempty"`
	TipAmount           *decimal.Decimal    `json:"tipAmount,omitempty"`
	Items               []ReceiptItem       `json:"items,omitempty"`
	ScannedTime         time.Time           `json:"scannedTime"`
	UserID              string              `json:"userId,omitempty"`
	Category            constants.Category  `json:"category"`
}

// ReceiptItem is one line item on a receipt. Quantity is decimal so fractional
// quantities (e.g. produce sold by weight) survive.
type ReceiptItem struct {
	ID       string             `json:"id"`
	Name     string             `json:"name,omitempty"`
	Price    *decimal.Decimal   `json:"price,omitempty"`
	Quantity *decimal.Decimal   `json:"quantity,omitempty"`
	Category constants.Category `json:"category,omitempty"`
}

// EnsureIDs populates any missing receipt or item IDs. Every record has a
// non-empty id after this, even when the source omitted one.
func (r *Receipt) EnsureIDs() {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	for i := range r.Items {
		if r.Items[i].ID == "" {
			r.Items[i].ID = uuid.New().String()
		}
	}
}

// EffectiveTransactionTime resolves the best-available instant for when the
// purchase happened: transactionDateTime, then the parsed date string (midnight
// local when the string carries no time), then scannedTime. The second return
// is false when nothing resolves.
func (r *Receipt) EffectiveTransactionTime() (time.Time, bool) {
	if r.TransactionDateTime != nil && !r.TransactionDateTime.IsZero() {
		return *r.TransactionDateTime, true
	}
	if t, ok := ParseReceiptDate(r.Date); ok {
		return t, true
	}
	if !r.ScannedTime.IsZero() {
		return r.ScannedTime, true
	}
	return time.Time{}, false
}

// SortByEffectiveTime orders receipts most recent first. Receipts with no
// resolvable instant are treated as earliest-possible, so they land last.
func SortByEffectiveTime(receipts []Receipt) {
	sort.SliceStable(receipts, func(i, j int) bool {
		ti, _ := receipts[i].EffectiveTransactionTime()
		tj, _ := receipts[j].EffectiveTransactionTime()
		return ti.After(tj)
	})
}

// dateTimeLayouts carry a time component; dateOnlyLayouts resolve to midnight
// local time.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04",
}

var dateOnlyLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
}

// ParseReceiptDate parses the free-form date string printed on receipts. It is
// never an error for the string to be unparseable; callers fall through to the
// next link of the resolution chain.
func ParseReceiptDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
