package llm

import (
	"context"
	"testing"
	"time"

	"github.com/caira-ai/caira-engine/internal/cache"
)

func routerRequest(text string) *CompletionRequest {
	return &CompletionRequest{
		Messages:    []*Message{{Role: "user", Content: text}},
		Temperature: 0.1,
		MaxTokens:   500,
		TopP:        0.9,
		Stop:        []string{"</s>"},
	}
}

func TestCachedClientMemoizesIdenticalRequests(t *testing.T) {
	base := &scriptedClient{response: `{"action_type": "FINAL_RESPONSE"}`}
	client := NewCachedClient(base, cache.New(5*time.Minute))

	first, err := client.CompleteWithRequest(context.Background(), routerRequest("show unread emails"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := client.CompleteWithRequest(context.Background(), routerRequest("show unread emails"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if base.calls != 1 {
		t.Errorf("delegate calls = %d, want 1", base.calls)
	}
	if second.Content != first.Content {
		t.Errorf("cached content = %q, want %q", second.Content, first.Content)
	}
	if second.StopReason != "cached" {
		t.Errorf("cached stop reason = %q, want %q", second.StopReason, "cached")
	}
}

func TestCachedClientDistinguishesRequests(t *testing.T) {
	base := &scriptedClient{response: "ok"}
	client := NewCachedClient(base, cache.New(5*time.Minute))

	reqs := []*CompletionRequest{
		routerRequest("show unread emails"),
		routerRequest("summarize my inbox"),
	}
	// Same prompt, different sampling knobs.
	hotter := routerRequest("show unread emails")
	hotter.Temperature = 0.7
	reqs = append(reqs, hotter)

	for _, req := range reqs {
		if _, err := client.CompleteWithRequest(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if base.calls != 3 {
		t.Errorf("delegate calls = %d, want 3 (distinct requests must not share entries)", base.calls)
	}
}

func TestCachedClientDoesNotCacheFailures(t *testing.T) {
	base := &scriptedClient{failures: 1, response: "eventually"}
	store := cache.New(5 * time.Minute)
	client := NewCachedClient(base, store)

	if _, err := client.CompleteWithRequest(context.Background(), routerRequest("hello")); err == nil {
		t.Fatal("expected first call to fail")
	}
	if store.Len() != 0 {
		t.Fatalf("cache entries after failure = %d, want 0", store.Len())
	}

	resp, err := client.CompleteWithRequest(context.Background(), routerRequest("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "eventually" {
		t.Errorf("content = %q, want %q", resp.Content, "eventually")
	}
	if base.calls != 2 {
		t.Errorf("delegate calls = %d, want 2", base.calls)
	}
}
