// Package engine implements the workflow router and follow-up resolver:
// it classifies free-text commands into structured decisions via the model
// client and maintains the session conversation history around each call.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caira-ai/caira-engine/internal/consts"
	"github.com/caira-ai/caira-engine/internal/conversation"
	"github.com/caira-ai/caira-engine/internal/llm"
	"github.com/caira-ai/caira-engine/internal/logger"
	"github.com/caira-ai/caira-engine/internal/workflow"
)

// ErrInvalidFollowUp signals a follow-up request naming an unrecognized
// action. It is raised before any model call is attempted.
var ErrInvalidFollowUp = errors.New("unknown follow-up action")

var stopSequences = []string{"</s>"}

var (
	searchKeywords    = []string{"show", "find", "search", "list", "get"}
	summarizeKeywords = []string{"summarize", "summary", "overview"}
)

// userFacingFollowUpError is the only failure text exposed to callers;
// details stay in the log.
const userFacingFollowUpError = "The assistant could not process the fetched emails. Please try again."

// Engine routes commands and resolves follow-ups. All model traffic goes
// through the configured client, which is expected to already carry the
// retry and cache wrappers.
type Engine struct {
	client llm.Client
	store  *conversation.Store
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the metadata timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine on top of a model client and a conversation store.
func New(client llm.Client, store *conversation.Store, opts ...Option) *Engine {
	e := &Engine{
		client: client,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessCommand handles the first call of a workflow: it routes the
// command into a Decision. It is total — any model or parse failure
// degrades to the deterministic keyword heuristics, so the caller always
// receives a valid Decision.
func (e *Engine) ProcessCommand(ctx context.Context, sessionID, command string, profile *workflow.UserProfile, emailCtx *workflow.EmailContext) workflow.Decision {
	logger.Info("Processing initial command for session %s", sessionID)

	history := e.store.History(sessionID)
	prompt := routerPrompt(command, profile, emailCtx, history)

	decision, ok := e.route(ctx, prompt)
	if !ok {
		decision = e.fallback(ctx, command)
	}

	decision.Stamp(e.client.GetModelName(), e.now())
	e.store.Append(sessionID, command, decision)
	return decision
}

// route performs the model call and parse/normalize step. A false return
// means the heuristics should take over; it never surfaces an error.
func (e *Engine) route(ctx context.Context, prompt string) (workflow.Decision, bool) {
	resp, err := e.client.CompleteWithRequest(ctx, &llm.CompletionRequest{
		Messages:    []*llm.Message{{Role: "user", Content: prompt}},
		Temperature: consts.RouterTemperature,
		MaxTokens:   consts.RouterMaxTokens,
		TopP:        consts.DefaultTopP,
		Stop:        stopSequences,
	})
	if err != nil {
		logger.Warn("Routing call failed, falling back to heuristics: %v", err)
		return workflow.Decision{}, false
	}

	var decision workflow.Decision
	if err := llm.ExtractJSON(resp.Content, &decision); err != nil {
		logger.Warn("Routing response unparseable, falling back to heuristics: %v", err)
		return workflow.Decision{}, false
	}
	if !decision.Normalize() {
		logger.Warn("Routing response missing action_type, falling back to heuristics")
		return workflow.Decision{}, false
	}
	return decision, true
}

// fallback classifies the command with deterministic keyword heuristics.
// It always yields a valid Decision and never raises.
func (e *Engine) fallback(ctx context.Context, command string) workflow.Decision {
	logger.Info("Using fallback command processing")
	lower := strings.ToLower(command)

	// Search keywords take precedence: "show me a summary of my emails" is
	// a search command, not a summarize command.
	if containsAny(lower, searchKeywords) {
		// Best effort refinement; its failure degrades to the literal
		// command and must never propagate.
		if search, err := e.refineQuery(ctx, command); err == nil && strings.TrimSpace(search) != "" {
			return workflow.QueryDecision(search, "Generated via fallback processing")
		}
		return workflow.QueryDecision(command, "Direct command passthrough")
	}

	if containsAny(lower, summarizeKeywords) {
		return workflow.SummarizeDecision(command)
	}

	return workflow.QueryDecision(command, "Direct command passthrough")
}

func (e *Engine) refineQuery(ctx context.Context, command string) (string, error) {
	resp, err := e.client.CompleteWithRequest(ctx, &llm.CompletionRequest{
		Messages:    []*llm.Message{{Role: "user", Content: queryBuilderPrompt(command)}},
		Temperature: consts.QueryBuilderTemperature,
		MaxTokens:   consts.QueryBuilderMaxTokens,
		TopP:        consts.DefaultTopP,
		Stop:        stopSequences,
	})
	if err != nil {
		logger.Debug("Query refinement failed: %v", err)
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// ProcessFollowUp handles the second call of a two-call workflow. An
// unrecognized action returns ErrInvalidFollowUp without any model call;
// every other failure is converted into a terminal ERROR Decision so the
// caller-facing contract stays uniform.
func (e *Engine) ProcessFollowUp(ctx context.Context, sessionID string, action workflow.FollowUpAction, items []workflow.EmailItem, originalCommand string) (workflow.Decision, error) {
	if !action.Valid() {
		return workflow.Decision{}, fmt.Errorf("%w: %s", ErrInvalidFollowUp, action)
	}

	logger.Info("Processing follow-up %s for session %s (%d items)", action, sessionID, len(items))

	var (
		prompt       string
		maxTokens    int
		temperature  float64
		responseType string
	)
	switch action {
	case workflow.FollowUpSummarize:
		prompt = summarizePrompt(items, originalCommand)
		maxTokens = consts.SummaryMaxTokens
		temperature = consts.SummaryTemperature
		responseType = "summary"
	case workflow.FollowUpAnswer:
		prompt = answerPrompt(items, originalCommand)
		maxTokens = consts.AnswerMaxTokens
		temperature = consts.AnswerTemperature
		responseType = "answer"
	}

	resp, err := e.client.CompleteWithRequest(ctx, &llm.CompletionRequest{
		Messages:    []*llm.Message{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopP:        consts.DefaultTopP,
		Stop:        stopSequences,
	})
	if err != nil {
		logger.Error("Follow-up %s failed: %v", action, err)
		decision := workflow.ErrorDecision(userFacingFollowUpError)
		decision.Stamp(e.client.GetModelName(), e.now())
		return decision, nil
	}

	decision := workflow.FinalDecision(resp.Content, responseType, len(items))
	decision.Stamp(e.client.GetModelName(), e.now())

	systemNote := fmt.Sprintf("System: Processed %s for %d emails", action, len(items))
	e.store.AppendSystem(sessionID, systemNote, decision)

	return decision, nil
}

// History returns the ordered turns for a session.
func (e *Engine) History(sessionID string) []conversation.Turn {
	return e.store.History(sessionID)
}

// ClearHistory removes a session's turns and reports whether any existed.
func (e *Engine) ClearHistory(sessionID string) bool {
	return e.store.Clear(sessionID)
}

// Sessions lists the currently tracked session ids.
func (e *Engine) Sessions() []string {
	return e.store.Sessions()
}

// Healthy probes the completion capability with a trivial prompt and
// reports whether non-empty text came back.
func (e *Engine) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, consts.HealthProbeTimeout)
	defer cancel()

	resp, err := e.client.CompleteWithRequest(ctx, &llm.CompletionRequest{
		Messages:    []*llm.Message{{Role: "user", Content: "Test connection - respond with 'OK'"}},
		Temperature: consts.RouterTemperature,
		MaxTokens:   consts.HealthProbeMaxTokens,
	})
	if err != nil {
		logger.Warn("Health probe failed: %v", err)
		return false
	}
	return strings.TrimSpace(resp.Content) != ""
}

// ModelInfo describes the configured model for diagnostics.
type ModelInfo struct {
	Model        string   `json:"model"`
	Provider     string   `json:"provider"`
	Capabilities []string `json:"capabilities"`
}

// Info returns the current model configuration report.
func (e *Engine) Info() ModelInfo {
	return ModelInfo{
		Model:        e.client.GetModelName(),
		Provider:     "Together AI",
		Capabilities: []string{"text_generation", "json_output", "conversation_history"},
	}
}
