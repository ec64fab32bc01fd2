package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finsight/internal/core"
)

// Extractor converts receipt images into dashboard items.
type Extractor struct {
	provider Provider
	logger   *slog.Logger
	now      func() time.Time
}

// NewExtractor creates an extractor over the given OCR provider.
func NewExtractor(provider Provider, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{provider: provider, logger: logger, now: time.Now}
}

// Extract runs OCR on the image and returns one item per priced line, dated
// today, categorized Other and tagged Need.
//
// It never returns a nil slice. On provider failure the error wraps
// ErrExtractionFailed; when the receipt yields nothing usable it is
// ErrNoLineItems. Both come back with an empty list.
func (e *Extractor) Extract(ctx context.Context, imagePath string) ([]core.Item, error) {
	start := time.Now()
	lines, err := e.provider.LineItems(ctx, imagePath)
	if err != nil {
		e.logger.WarnContext(ctx, "OCR provider failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return []core.Item{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	today := core.DateOf(e.now())
	items := make([]core.Item, 0, len(lines))
	for _, li := range lines {
		if li.TotalAmount.IsNegative() {
			e.logger.DebugContext(ctx, "Skipping negative receipt line", "description", li.Description, "amount", li.TotalAmount.String())
			continue
		}
		name := li.Description
		if name == "" {
			name = "Unnamed item"
		}
		items = append(items, core.NewItem(name, li.TotalAmount.Round(2), today))
	}

	if len(items) == 0 {
		return []core.Item{}, ErrNoLineItems
	}

	e.logger.InfoContext(ctx, "Receipt extracted",
		"item_count", len(items),
		"total", core.Sum(items).StringFixed(2),
		"duration_ms", time.Since(start).Milliseconds())
	return items, nil
}
