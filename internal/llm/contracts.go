package llm

import "context"

// ReceiptFields is the normalized shape we want from the generation provider.
// Money fields are decimal strings.
type ReceiptFields struct {
	StoreName   string       `json:"storeName,omitempty"`
	Date        string       `json:"date,omitempty"` // YYYY-MM-DD
	TotalAmount string       `json:"totalAmount,omitempty"`
	TaxAmount   string       `json:"taxAmount,omitempty"`
	TipAmount   string       `json:"tipAmount,omitempty"`
	Category    string       `json:"category,omitempty"` // must match AllowedCategories if provided
	Items       []ItemFields `json:"items,omitempty"`
}

// ItemFields is one parsed line item.
type ItemFields struct {
	Name     string `json:"name,omitempty"`
	Price    string `json:"price,omitempty"`    // decimal
	Quantity string `json:"quantity,omitempty"` // decimal, fractional allowed
	Category string `json:"category,omitempty"`
}

// ExtractRequest carries the OCR text plus parsing context.
type ExtractRequest struct {
	ExtractedText     string
	AllowedCategories []string
	Timezone          string
}

// FieldExtractor is the interface the relay pipeline depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (ReceiptFields, []byte /*rawJSON*/, error)
}
