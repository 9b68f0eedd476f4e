package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgyapp/budgy-backend/constants"
)

// ParseReceiptDocument turns an untyped store document into a Receipt. It is a
// two-stage parse: a strict typed decode first, then a field-by-field tolerant
// extraction when the document has drifted structurally. A field that is absent
// or mistyped resolves to its zero value; the record as a whole is only dropped
// when nothing recognizable remains.
func ParseReceiptDocument(id string, raw map[string]any) (Receipt, error) {
	if len(raw) == 0 && id == "" {
		return Receipt{}, fmt.Errorf("parse receipt document: no recognizable fields")
	}

	if b, err := json.Marshal(raw); err == nil {
		var r Receipt
		if err := json.Unmarshal(b, &r); err == nil {
			finishDecode(&r, id)
			return r, nil
		}
	}

	r := decodeReceiptFields(raw)
	finishDecode(&r, id)
	return r, nil
}

func finishDecode(r *Receipt, id string) {
	if r.ID == "" {
		r.ID = id
	}
	r.EnsureIDs()
	if cat, ok := constants.Canonicalize(string(r.Category)); ok {
		r.Category = cat
	} else {
		r.Category = constants.Other
	}
	for i := range r.Items {
		if r.Items[i].Category != "" {
			cat, _ := constants.Canonicalize(string(r.Items[i].Category))
			r.Items[i].Category = cat
		}
	}
}

func decodeReceiptFields(raw map[string]any) Receipt {
	r := Receipt{
		ID:                  asString(raw["id"]),
		StoreName:           asString(raw["storeName"]),
		Date:                asString(raw["date"]),
		TransactionDateTime: asTimestamp(raw["transactionDateTime"]),
		TotalAmount:         asAmount(raw["totalAmount"]),
		TaxAmount:           asAmount(raw["taxAmount"]),
		TipAmount:           asAmount(raw["tipAmount"]),
		UserID:              asString(raw["userId"]),
		Category:            constants.Category(asString(raw["category"])),
	}
	if st := asTimestamp(raw["scannedTime"]); st != nil {
		r.ScannedTime = *st
	}
	if items, ok := raw["items"].([]any); ok {
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			r.Items = append(r.Items, ReceiptItem{
				ID:       asString(m["id"]),
				Name:     asString(m["name"]),
				Price:    asAmount(m["price"]),
				Quantity: asAmount(m["quantity"]),
				Category: constants.Category(asString(m["category"])),
			})
		}
	}
	return r
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asAmount accepts decimal strings and JSON numbers; anything else is absent.
func asAmount(v any) *decimal.Decimal {
	switch t := v.(type) {
	case string:
		if d, err := decimal.NewFromString(t); err == nil {
			return &d
		}
	case float64:
		d := decimal.NewFromFloat(t)
		return &d
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return &d
		}
	case int:
		d := decimal.NewFromInt(int64(t))
		return &d
	}
	return nil
}

// asTimestamp accepts RFC3339 strings, free-form date strings, epoch numbers
// (seconds or milliseconds), and provider-native {seconds,nanos} objects.
func asTimestamp(v any) *time.Time {
	switch t := v.(type) {
	case string:
		if ts, ok := ParseReceiptDate(t); ok {
			return &ts
		}
	case float64:
		ts := fromEpoch(int64(t))
		return &ts
	case json.Number:
		if n, err := t.Int64(); err == nil {
			ts := fromEpoch(n)
			return &ts
		}
	case map[string]any:
		for _, key := range []string{"seconds", "_seconds"} {
			if secs, ok := t[key].(float64); ok {
				ts := time.Unix(int64(secs), 0)
				return &ts
			}
		}
	}
	return nil
}

func fromEpoch(n int64) time.Time {
	// values past the year ~33658 in seconds are millisecond epochs
	if n > 1e12 {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}
