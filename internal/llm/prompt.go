package llm

import (
	"strings"
)

// BuildSystemPrompt composes the system message with the allowed category enum
// and strict-but-practical formatting rules.
func BuildSystemPrompt(req ExtractRequest) string {
	var catLine string
	if len(req.AllowedCategories) > 0 {
		catLine = "When you include a 'category' it MUST be exactly one of the allowed enum. " +
			"If uncertain, choose 'Other'. Allowed categories (enum): " + strings.Join(req.AllowedCategories, ", ") + ". "
	} else {
		catLine = "When you include a 'category' it must be a short, sensible label. If uncertain, use 'Other'. "
	}

	parts := []string{
		"You are a receipts parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		catLine,
		"Extract 'storeName' from the merchant header lines, not from addresses or slogans.",
		"List every purchased line item under 'items' with its printed price; fractional quantities are allowed (e.g. produce by weight).",
		"Put the final charged amount in 'totalAmount'; taxes go in 'taxAmount' and tips in 'tipAmount', never folded into item prices.",
		"All money values are decimal strings with up to two decimal places.",
		"Never output null. If a field is not present on the receipt, omit it.",
	}

	if tz := strings.TrimSpace(req.Timezone); tz != "" {
		parts = append(parts, "If dates are ambiguous, prefer timezone: "+tz+".")
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the extracted receipt text. Long OCR dumps are
// truncated; anything past ~3k chars is footer noise on real receipts.
func BuildUserPrompt(req ExtractRequest) string {
	text := strings.TrimSpace(req.ExtractedText)

	var b strings.Builder
	b.WriteString("Receipt text (OCR):\n")
	if len(text) > 3000 {
		b.WriteString(text[:3000])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	b.WriteString("\n\nReturn ONLY JSON that matches the provided schema.")
	return b.String()
}
