package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/caira-ai/caira-engine/internal/consts"
)

const togetherDefaultBaseURL = "https://api.together.xyz/v1"

// defaultSystemPrompt keeps the model anchored to JSON output for routing
// calls; per-request system prompts override it.
const defaultSystemPrompt = "You are Caira, an intelligent email assistant AI. You are precise, helpful, and always follow instructions exactly."

// TogetherClient implements the Client interface against Together AI's
// OpenAI-compatible chat completions endpoint.
type TogetherClient struct {
	api   openai.Client
	model string
}

// NewTogetherClient constructs a client for the Together AI API. baseURL may
// be empty, in which case the public endpoint is used.
func NewTogetherClient(apiKey, baseURL, modelName string) (*TogetherClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("together client requires an API key")
	}

	model := strings.TrimSpace(modelName)
	if model == "" {
		return nil, fmt.Errorf("model name is required for together provider")
	}

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = togetherDefaultBaseURL
	}

	api := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(base),
		option.WithHTTPClient(&http.Client{Timeout: consts.CompletionAttemptTimeout}),
	)

	return &TogetherClient{api: api, model: model}, nil
}

func (c *TogetherClient) GetModelName() string {
	return c.model
}

func (c *TogetherClient) Complete(ctx context.Context, prompt string) (string, error) {
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

func (c *TogetherClient) CompleteWithRequest(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("together completion request cannot be nil")
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: buildTogetherMessages(req),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(req.TopP)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if len(req.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: req.Stop}
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &TransportError{Provider: "together", Err: err}
	}

	if len(completion.Choices) == 0 {
		return &CompletionResponse{StopReason: "stop"}, nil
	}

	choice := completion.Choices[0]
	stopReason := string(choice.FinishReason)
	if strings.TrimSpace(stopReason) == "" {
		stopReason = "stop"
	}

	return &CompletionResponse{
		Content:    strings.TrimSpace(choice.Message.Content),
		StopReason: stopReason,
	}, nil
}

func buildTogetherMessages(req *CompletionRequest) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)

	system := req.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = defaultSystemPrompt
	}
	msgs = append(msgs, openai.SystemMessage(system))

	for _, m := range req.Messages {
		if m == nil {
			continue
		}
		switch m.Role {
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	return msgs
}
