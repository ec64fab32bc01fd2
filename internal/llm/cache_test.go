package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (c *countingClient) Generate(_ context.Context, prompt string) (string, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return "", c.err
	}
	return "answer:" + prompt, nil
}

func TestCachingClientReusesCompletion(t *testing.T) {
	next := &countingClient{}
	client := NewCachingClient(next, 10, time.Minute, "test")

	for i := 0; i < 3; i++ {
		out, err := client.Generate(context.Background(), "same prompt")
		require.NoError(t, err)
		assert.Equal(t, "answer:same prompt", out)
	}
	assert.Equal(t, int32(1), next.calls.Load())

	_, err := client.Generate(context.Background(), "other prompt")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, 2, client.Cache().Size())
}

func TestCachingClientDoesNotCacheErrors(t *testing.T) {
	next := &countingClient{err: errors.New("boom")}
	client := NewCachingClient(next, 10, time.Minute, "test")

	_, err := client.Generate(context.Background(), "p")
	require.Error(t, err)
	_, err = client.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, 0, client.Cache().Size())
}

func TestCachingClientCollapsesConcurrentCalls(t *testing.T) {
	next := &countingClient{delay: 50 * time.Millisecond}
	client := NewCachingClient(next, 10, time.Minute, "test")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := client.Generate(context.Background(), "p")
			assert.NoError(t, err)
			assert.Equal(t, "answer:p", out)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestNewClientFactory(t *testing.T) {
	_, err := NewClient(Config{Provider: "mystery"})
	require.Error(t, err)

	c, err := NewClient(Config{Provider: ProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	_, cached := c.(*CachingClient)
	assert.False(t, cached)

	c, err = NewClient(Config{Provider: ProviderOpenAI, APIKey: "k", CacheSize: 4})
	require.NoError(t, err)
	_, cached = c.(*CachingClient)
	assert.True(t, cached)
}
