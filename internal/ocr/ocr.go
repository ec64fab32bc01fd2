// Package ocr turns receipt images into line items using a hosted OCR
// service and stamps them as dashboard items.
package ocr

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is one purchased entry as reported by the OCR service.
type LineItem struct {
	Description string
	TotalAmount decimal.Decimal
}

// Provider extracts the ordered line items printed on a receipt image.
type Provider interface {
	LineItems(ctx context.Context, imagePath string) ([]LineItem, error)
}

const (
	ProviderMindee = "mindee"
	ProviderGemini = "gemini"
)

var (
	// ErrExtractionFailed wraps any failure of the OCR service.
	ErrExtractionFailed = errors.New("receipt extraction failed")
	// ErrNoLineItems means the service answered but found nothing to record.
	ErrNoLineItems = errors.New("no line items found on receipt")
	// ErrUnsupportedImage is returned for files other than JPEG or PNG.
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ImageMIMEType returns the MIME type for a supported receipt image path.
func ImageMIMEType(path string) (string, error) {
	mime, ok := imageTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", ErrUnsupportedImage
	}
	return mime, nil
}

// SupportedExtension reports whether the file name has a .jpg, .jpeg or .png extension.
func SupportedExtension(name string) bool {
	_, err := ImageMIMEType(name)
	return err == nil
}
