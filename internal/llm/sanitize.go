package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

var moneyFields = []string{"totalAmount", "taxAmount", "tipAmount"}

// NormalizeAndSanitizeJSON
// - Drops null/empty optionals
// - Coerces numeric -> string for money-ish fields (top level and per item)
// - Snaps off-enum categories to "Other" when a taxonomy is provided
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, allowedCategories []string, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string

	for _, k := range moneyFields {
		coerceMoney(m, k, 2, &dropped)
	}

	// trim obvious strings; empty after trim means absent
	for _, k := range []string{"storeName", "date", "category"} {
		if v, ok := m[k].(string); ok {
			s := strings.TrimSpace(v)
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}

	snapCategory(m, allowedCategories, &dropped)

	// items: keep only well-typed entries, sanitize each
	if rawItems, ok := m["items"].([]any); ok {
		items := make([]any, 0, len(rawItems))
		for i, it := range rawItems {
			im, ok := it.(map[string]any)
			if !ok {
				dropped = append(dropped, fmt.Sprintf("items[%d](type)", i))
				continue
			}
			coerceMoney(im, "price", 2, &dropped)
			coerceMoney(im, "quantity", 3, &dropped)
			if v, ok := im["name"].(string); ok {
				if s := strings.TrimSpace(v); s != "" {
					im["name"] = s
				} else {
					delete(im, "name")
				}
			}
			snapCategory(im, allowedCategories, &dropped)
			stripUnknown(im, []string{"name", "price", "quantity", "category"}, &dropped)
			items = append(items, im)
		}
		m["items"] = items
	} else if _, present := m["items"]; present {
		// mistyped items → replace with empty list so required:["items"] holds
		m["items"] = []any{}
		dropped = append(dropped, "items(type)")
	}

	stripUnknown(m, []string{"storeName", "date", "totalAmount", "taxAmount", "tipAmount", "category", "items"}, &dropped)

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// coerceMoney normalizes m[k] to a plain decimal string with at most `places`
// decimals, deleting values that cannot be read as a number.
func coerceMoney(m map[string]any, k string, places int, dropped *[]string) {
	v, ok := m[k]
	if !ok {
		return
	}
	switch t := v.(type) {
	case float64:
		m[k] = strconv.FormatFloat(t, 'f', places, 64)
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		if s == "" || strings.EqualFold(s, "null") {
			delete(m, k)
			*dropped = append(*dropped, k+"(empty)")
			return
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			delete(m, k)
			*dropped = append(*dropped, k+"(value)")
			return
		}
		m[k] = strconv.FormatFloat(f, 'f', places, 64)
	case nil:
		delete(m, k)
		*dropped = append(*dropped, k+"(null)")
	default:
		delete(m, k)
		*dropped = append(*dropped, k+"(type)")
	}
}

// snapCategory replaces a category outside the allowed enum with "Other" so
// the document can still validate.
func snapCategory(m map[string]any, allowed []string, dropped *[]string) {
	if len(allowed) == 0 {
		return
	}
	v, ok := m["category"].(string)
	if !ok {
		return
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(v), a) {
			m["category"] = a
			return
		}
	}
	m["category"] = "Other"
	*dropped = append(*dropped, "category(enum)")
}

func stripUnknown(m map[string]any, allowed []string, dropped *[]string) {
	set := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		set[k] = struct{}{}
	}
	for k := range m {
		if _, ok := set[k]; !ok {
			delete(m, k)
			*dropped = append(*dropped, k+"(unknown)")
		}
	}
}

// StripCodeFences removes a markdown ```json fence some providers wrap around
// their output despite instructions.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
