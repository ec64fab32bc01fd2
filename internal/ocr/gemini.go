package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/llm"
)

const geminiReceiptPrompt = `Extract every purchased line item from this receipt image.
Respond with ONLY a JSON array, no commentary and no markdown. Each element must be
an object with "description" (string, as printed) and "total_amount" (number, the
line total). Skip subtotals, taxes, tips and payment lines.`

// GeminiVision reads receipts with a multimodal Gemini model.
type GeminiVision struct {
	api   *llm.GeminiAPI
	model string
}

// NewGeminiVision creates a Gemini-backed OCR provider. An empty baseURL
// selects the public endpoint.
func NewGeminiVision(apiKey, baseURL, model string, timeout time.Duration) (*GeminiVision, error) {
	api, err := llm.NewGeminiAPI(apiKey, baseURL, timeout)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiVision{api: api, model: model}, nil
}

func (g *GeminiVision) LineItems(ctx context.Context, imagePath string) ([]LineItem, error) {
	mime, err := ImageMIMEType(imagePath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read receipt image: %w", err)
	}

	resp, err := g.api.GenerateContent(ctx, g.model, &llm.GenerateContentRequest{
		Contents: []llm.Content{{
			Role: "user",
			Parts: []llm.Part{
				{InlineData: &llm.Blob{MimeType: mime, Data: base64.StdEncoding.EncodeToString(data)}},
				{Text: geminiReceiptPrompt},
			},
		}},
	})
	if err != nil {
		return nil, err
	}
	text, err := llm.CandidateText(resp)
	if err != nil {
		return nil, err
	}
	return parseLineItemsJSON(text)
}

// parseLineItemsJSON decodes a JSON array of line items, tolerating a
// surrounding markdown code fence.
func parseLineItemsJSON(text string) ([]LineItem, error) {
	text = stripCodeFence(text)

	var raw []struct {
		Description string           `json:"description"`
		TotalAmount *decimal.Decimal `json:"total_amount"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse line items: %w", err)
	}

	items := make([]LineItem, 0, len(raw))
	for _, r := range raw {
		if r.TotalAmount == nil {
			continue
		}
		items = append(items, LineItem{Description: strings.TrimSpace(r.Description), TotalAmount: *r.TotalAmount})
	}
	return items, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
