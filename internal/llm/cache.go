package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"finsight/internal/cache"
)

// CachingClient memoizes completions by prompt. Concurrent calls for the same
// prompt share one upstream request.
type CachingClient struct {
	next   Client
	cache  *cache.LRUCache[string]
	group  singleflight.Group
	prefix string
}

// NewCachingClient wraps next with an LRU completion cache. Failed calls are
// never cached.
func NewCachingClient(next Client, size int, ttl time.Duration, namespace string) *CachingClient {
	if size <= 0 {
		size = 512
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachingClient{
		next:   next,
		cache:  cache.NewLRUCache[string](size, ttl),
		prefix: namespace,
	}
}

func (c *CachingClient) Generate(ctx context.Context, prompt string) (string, error) {
	key := c.key(prompt)
	if out, ok := c.cache.Get(key); ok {
		slog.DebugContext(ctx, "LLM cache hit", "prompt_key", key[:12])
		return out, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		out, err := c.next.Generate(ctx, prompt)
		if err != nil {
			return "", err
		}
		c.cache.Set(key, out)
		return out, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		slog.DebugContext(ctx, "LLM call shared with concurrent caller", "prompt_key", key[:12])
	}
	return v.(string), nil
}

// Cache exposes the underlying cache so it can be registered for cleanup.
func (c *CachingClient) Cache() *cache.LRUCache[string] {
	return c.cache
}

func (c *CachingClient) key(prompt string) string {
	sum := sha256.Sum256([]byte(c.prefix + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}
