package llm

// BuildReceiptJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We send it to the provider as an output constraint and also use
// it locally to validate what came back.
func BuildReceiptJSONSchema(allowedCategories []string) map[string]any {
	categoryProp := map[string]any{"type": "string", "minLength": 1}
	if len(allowedCategories) > 0 {
		categoryProp = map[string]any{
			"type": "string",
			"enum": allowedCategories,
		}
	}

	itemProps := map[string]any{
		"name":     map[string]any{"type": "string"},
		"price":    decimalProp(),
		"quantity": quantityProp(),
		"category": categoryProp,
	}

	props := map[string]any{
		"storeName":   map[string]any{"type": "string", "minLength": 1},
		"date":        map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"totalAmount": decimalProp(),
		"taxAmount":   decimalProp(),
		"tipAmount":   decimalProp(),
		"category":    categoryProp,
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           itemProps,
			},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"items"},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^\d+(\.\d{1,2})?$`, // amounts are non-negative
	}
}

func quantityProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^\d+(\.\d{1,3})?$`, // weight-priced items carry 3 decimals
	}
}
