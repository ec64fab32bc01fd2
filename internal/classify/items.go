package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"finsight/internal/core"
	"finsight/internal/llm"
)

// ErrClassificationFailed wraps any LLM failure during batch classification.
var ErrClassificationFailed = errors.New("item classification failed")

const (
	wantOrNeedPrompt = "Is this item a want or a need? Answer with just 'Want' or 'Need':\nItem: %s\nPrice: $%s"
	categoryPrompt   = "Categorize this item into one of these categories: %s.\nAnswer with just the category name:\nItem: %s\nPrice: $%s"
)

// ProgressFunc is told how many items of a batch have been classified.
type ProgressFunc func(done, total int)

// ItemClassifier asks a language model for each item's want/need tag and
// category, falling back to keyword matching when the category is unusable.
type ItemClassifier struct {
	client   llm.Client
	logger   *slog.Logger
	progress ProgressFunc
}

// Option configures an ItemClassifier.
type Option func(*ItemClassifier)

// WithProgress reports per-item progress, e.g. to a terminal progress bar.
func WithProgress(fn ProgressFunc) Option {
	return func(c *ItemClassifier) { c.progress = fn }
}

// WithLogger sets the classifier's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ItemClassifier) { c.logger = logger }
}

// NewItemClassifier creates a classifier backed by client.
func NewItemClassifier(client llm.Client, opts ...Option) *ItemClassifier {
	c := &ItemClassifier{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns a classified copy of items. Items are processed one at a
// time, two prompts each. Any LLM failure aborts the whole batch: the
// returned slice is then an unmodified copy of the input and the error wraps
// ErrClassificationFailed.
func (c *ItemClassifier) Classify(ctx context.Context, items []core.Item) ([]core.Item, error) {
	out := make([]core.Item, len(items))
	copy(out, items)

	for i := range out {
		if err := c.classifyOne(ctx, &out[i]); err != nil {
			c.logger.WarnContext(ctx, "Item classification aborted",
				"error", err,
				"item_index", i,
				"item_count", len(items))
			original := make([]core.Item, len(items))
			copy(original, items)
			return original, fmt.Errorf("%w: item %d (%q): %w", ErrClassificationFailed, i, items[i].Name, err)
		}
		if c.progress != nil {
			c.progress(i+1, len(out))
		}
	}

	c.logger.DebugContext(ctx, "Items classified", "item_count", len(out))
	return out, nil
}

func (c *ItemClassifier) classifyOne(ctx context.Context, item *core.Item) error {
	price := item.Price.StringFixed(2)

	answer, err := c.client.Generate(ctx, fmt.Sprintf(wantOrNeedPrompt, item.Name, price))
	if err != nil {
		return fmt.Errorf("want or need: %w", err)
	}
	won, perr := core.ParseWantOrNeed(answer)
	if perr != nil {
		c.logger.WarnContext(ctx, "Unrecognized want/need answer, defaulting to Need",
			"item", item.Name, "answer", strings.TrimSpace(answer))
		won = core.Need
	}
	item.WantOrNeed = won

	answer, err = c.client.Generate(ctx, fmt.Sprintf(categoryPrompt, categoryList(), item.Name, price))
	if err != nil {
		return fmt.Errorf("category: %w", err)
	}
	cat, perr := core.ParseCategory(answer)
	if perr != nil {
		cat = ByKeyword(item.Name)
		c.logger.DebugContext(ctx, "Category answer outside fixed set, used keywords",
			"item", item.Name, "answer", strings.TrimSpace(answer), "category", cat)
	}
	item.Category = cat
	return nil
}

func categoryList() string {
	cats := core.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
