package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultMindeeEndpoint = "https://api.mindee.net/v1/products/mindee/expense_receipts/v5/predict"

// MindeeClient calls the Mindee receipt (expense_receipts v5) prediction API.
type MindeeClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewMindeeClient creates a Mindee client. An empty endpoint selects the
// public receipts v5 endpoint.
func NewMindeeClient(apiKey, endpoint string, timeout time.Duration) (*MindeeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("mindee API key is required")
	}
	if endpoint == "" {
		endpoint = defaultMindeeEndpoint
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &MindeeClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     apiKey,
	}, nil
}

// LineItems uploads the image and returns the predicted line items.
func (c *MindeeClient) LineItems(ctx context.Context, imagePath string) ([]LineItem, error) {
	body, contentType, err := multipartDocument(imagePath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mindee request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read mindee response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("mindee API error (status %d): %s", resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed mindeeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse mindee response: %w", err)
	}

	lines := parsed.Document.Inference.Prediction.LineItems
	items := make([]LineItem, 0, len(lines))
	for _, li := range lines {
		if li.TotalAmount == nil {
			continue
		}
		items = append(items, LineItem{
			Description: strings.TrimSpace(li.Description),
			TotalAmount: *li.TotalAmount,
		})
	}
	return items, nil
}

func multipartDocument(imagePath string) (io.Reader, string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("open receipt image: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("document", filepath.Base(imagePath))
	if err != nil {
		return nil, "", fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy receipt image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// mindeeResponse is the subset of the receipts v5 payload we read.
type mindeeResponse struct {
	Document struct {
		ID        string `json:"id"`
		Inference struct {
			Prediction struct {
				LineItems []struct {
					Description string           `json:"description"`
					Quantity    *float64         `json:"quantity"`
					UnitPrice   *decimal.Decimal `json:"unit_price"`
					TotalAmount *decimal.Decimal `json:"total_amount"`
				} `json:"line_items"`
			} `json:"prediction"`
		} `json:"inference"`
	} `json:"document"`
}
