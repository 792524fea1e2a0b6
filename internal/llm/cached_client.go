package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/caira-ai/caira-engine/internal/cache"
	"github.com/caira-ai/caira-engine/internal/logger"
)

// cachedClient wraps another Client and memoizes successful completions in a
// TTL cache keyed by the prompt text and sampling configuration. Failures
// are never cached.
type cachedClient struct {
	delegate Client
	store    *cache.Cache
}

// NewCachedClient returns a Client that consults the cache before delegating.
func NewCachedClient(base Client, store *cache.Cache) Client {
	if base == nil || store == nil {
		return base
	}
	return &cachedClient{delegate: base, store: store}
}

func (c *cachedClient) GetModelName() string {
	return c.delegate.GetModelName()
}

func (c *cachedClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.CompleteWithRequest(ctx, &CompletionRequest{
		Messages: []*Message{
			{Role: "user", Content: prompt},
		},
		Temperature: 1.0,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *cachedClient) CompleteWithRequest(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	key := c.cacheKey(req)

	if text, ok := c.store.Get(key); ok {
		logger.Debug("Response cache hit for key %s", key[:8])
		return &CompletionResponse{Content: text, StopReason: "cached"}, nil
	}

	resp, err := c.delegate.CompleteWithRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	c.store.Put(key, resp.Content)
	return resp, nil
}

// cacheKey derives a stable digest from the exact prompt contents and every
// sampling knob, so two requests that differ in any parameter never share a
// cache entry.
func (c *cachedClient) cacheKey(req *CompletionRequest) string {
	var b strings.Builder
	b.WriteString(c.delegate.GetModelName())
	b.WriteByte(0)
	if req != nil {
		b.WriteString(req.SystemPrompt)
		b.WriteByte(0)
		for _, m := range req.Messages {
			if m == nil {
				continue
			}
			b.WriteString(m.Role)
			b.WriteByte(0)
			b.WriteString(m.Content)
			b.WriteByte(0)
		}
		fmt.Fprintf(&b, "t=%g|p=%g|n=%d|stop=%s",
			req.Temperature, req.TopP, req.MaxTokens, strings.Join(req.Stop, ","))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}
