package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caira-ai/caira-engine/internal/consts"
	"github.com/caira-ai/caira-engine/internal/logger"
)

// RetryPolicy describes how completion attempts are retried. Sleep is
// injectable so backoff behavior can be tested without real delays.
type RetryPolicy struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	Backoff        func(attempt int) time.Duration
	Sleep          func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, linear
// backoff of base delay times the attempt number, bounded per-attempt
// timeout.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    consts.CompletionMaxAttempts,
		AttemptTimeout: consts.CompletionAttemptTimeout,
		Backoff: func(attempt int) time.Duration {
			return consts.CompletionBackoffBase * time.Duration(attempt)
		},
		Sleep: sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryClient wraps another Client and retries transport failures with
// backoff between attempts.
type retryClient struct {
	delegate Client
	policy   RetryPolicy
}

// NewRetryClient returns a Client that retries failed completions according
// to the policy.
func NewRetryClient(base Client, policy RetryPolicy) Client {
	if base == nil {
		return base
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = consts.CompletionMaxAttempts
	}
	if policy.Backoff == nil {
		policy.Backoff = DefaultRetryPolicy().Backoff
	}
	if policy.Sleep == nil {
		policy.Sleep = sleepContext
	}
	return &retryClient{delegate: base, policy: policy}
}

func (c *retryClient) GetModelName() string {
	return c.delegate.GetModelName()
}

func (c *retryClient) Complete(ctx context.Context, prompt string) (string, error) {
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

func (c *retryClient) CompleteWithRequest(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// Caller cancellation is not retryable
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil, err
		}

		if attempt >= c.policy.MaxAttempts {
			break
		}

		delay := c.policy.Backoff(attempt)
		logger.Warn("Completion attempt %d/%d failed, retrying in %v: %v",
			attempt, c.policy.MaxAttempts, delay, err)
		if sleepErr := c.policy.Sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
	}

	return nil, fmt.Errorf("completion failed after %d attempts: %w", c.policy.MaxAttempts, lastErr)
}

func (c *retryClient) attempt(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if c.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.AttemptTimeout)
		defer cancel()
	}
	return c.delegate.CompleteWithRequest(ctx, req)
}
