package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/budgyapp/budgy-backend/internal/llm"
)

// Client implements llm.FieldExtractor using Google Gemini.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

// NewClient creates a Gemini-backed extractor. Sampling stays deterministic
// (low temperature, bounded output), matching the OpenAI path.
func NewClient(apiKey, modelName string, temperature float32, maxTokens int, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash-001"
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"

	return &Client{client: client, model: model, logger: logger}, nil
}

// ExtractFields sends the extracted receipt text and parses the JSON reply
// through the same strict-then-lenient validation as the OpenAI client.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.ReceiptFields, []byte, error) {
	start := time.Now()

	schema := llm.BuildReceiptJSONSchema(req.AllowedCategories)
	prompt := llm.BuildSystemPrompt(req) + "\n\nJSON Schema:\n" + mustJSON(schema) + "\n\n" + llm.BuildUserPrompt(req)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error("llm.extract.http_error", "provider", "gemini", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.ReceiptFields{}, nil, fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return llm.ReceiptFields{}, nil, fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	content := llm.StripCodeFences(text.String())
	rawContent := []byte(content)

	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		cleaned, dropped, sErr := llm.NormalizeAndSanitizeJSON(rawContent, req.AllowedCategories, c.logger)
		if sErr != nil {
			return llm.ReceiptFields{}, rawContent, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			return llm.ReceiptFields{}, rawContent, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.logger.Warn("llm.extract.lenient_sanitize_applied", "provider", "gemini", "dropped", dropped)
		rawContent = cleaned
	}

	var out llm.ReceiptFields
	if err := json.Unmarshal(rawContent, &out); err != nil {
		return llm.ReceiptFields{}, rawContent, fmt.Errorf("unmarshal fields: %w", err)
	}

	c.logger.Info("llm.extract.ok", "provider", "gemini",
		"store", out.StoreName, "items", len(out.Items),
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, rawContent, nil
}

// Close closes the underlying Gemini client.
func (c *Client) Close() error {
	return c.client.Close()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
