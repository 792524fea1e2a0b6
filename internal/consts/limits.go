package consts

import "time"

// Conversation history limits
const (
	// MaxHistoryTurns caps a session's stored turns (6 user/ai exchanges).
	// Older pairs are evicted first.
	MaxHistoryTurns = 12
)

// Sampling budgets per model call
const (
	// RouterMaxTokens bounds the routing call, sized for a short JSON object
	RouterMaxTokens = 500
	// RouterTemperature favors deterministic classification
	RouterTemperature = 0.1

	// SummaryMaxTokens bounds the summarization call
	SummaryMaxTokens = 1500
	// SummaryTemperature allows natural prose in summaries
	SummaryTemperature = 0.3

	// AnswerMaxTokens bounds the question-answering call
	AnswerMaxTokens = 1000
	// AnswerTemperature keeps answers close to the source emails
	AnswerTemperature = 0.2

	// QueryBuilderMaxTokens bounds the fallback Gmail query refinement call
	QueryBuilderMaxTokens = 200
	// QueryBuilderTemperature keeps the refined query deterministic
	QueryBuilderTemperature = 0.1

	// DefaultTopP is the nucleus sampling parameter used on every call
	DefaultTopP = 0.9
)

// Prompt size bounds
const (
	// ContextBodyPreviewChars truncates the current-email body in the
	// routing prompt
	ContextBodyPreviewChars = 200
	// SummaryBodyPreviewChars truncates each email body in the
	// summarization prompt
	SummaryBodyPreviewChars = 1000
	// AnswerBodyPreviewChars truncates each email body in the
	// question-answering prompt
	AnswerBodyPreviewChars = 1200
)

// Retry and attempt limits
const (
	// CompletionMaxAttempts is the retry budget for one model call
	CompletionMaxAttempts = 3
	// CompletionBackoffBase scales linearly with the attempt number
	CompletionBackoffBase = 1 * time.Second
	// CompletionAttemptTimeout bounds a single attempt so a hung upstream
	// call cannot block a request indefinitely
	CompletionAttemptTimeout = 60 * time.Second
)

// Cache limits
const (
	// ResponseCacheTTL is how long an identical (prompt, sampling config)
	// pair returns the memoized completion
	ResponseCacheTTL = 5 * time.Minute
	// ResponseCacheSweepInterval drives the optional background purge
	ResponseCacheSweepInterval = 1 * time.Minute
)

// Health probe limits
const (
	// HealthProbeMaxTokens bounds the liveness completion
	HealthProbeMaxTokens = 10
	// HealthProbeTimeout bounds the liveness check end to end
	HealthProbeTimeout = 10 * time.Second
)
