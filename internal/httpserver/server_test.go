package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caira-ai/caira-engine/internal/conversation"
	"github.com/caira-ai/caira-engine/internal/engine"
	"github.com/caira-ai/caira-engine/internal/llm"
)

// fixedModel answers every completion with the same content (or error).
type fixedModel struct {
	content string
	err     error
}

func (m *fixedModel) GetModelName() string { return "mistralai/Mistral-7B-Instruct-v0.1" }

func (m *fixedModel) Complete(ctx context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.content, nil
}

func (m *fixedModel) CompleteWithRequest(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.content, StopReason: "stop"}, nil
}

func newTestServer(model llm.Client) *Server {
	eng := engine.New(model, conversation.NewStore(12))
	return NewServer(eng, ":0")
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestRootEndpoint(t *testing.T) {
	s := newTestServer(&fixedModel{content: "OK"})
	rec := doJSON(t, s, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Caira AI Engine", body["service"])
	assert.NotEmpty(t, body["endpoints"])
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(&fixedModel{content: "OK"})
	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])

	down := newTestServer(&fixedModel{err: errors.New("no route to host")})
	rec = doJSON(t, down, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCommandEndpoint(t *testing.T) {
	s := newTestServer(&fixedModel{
		content: `{"action_type": "GMAIL_QUERY_GENERATED", "payload": {"gmail_search_string": "from:john"}}`,
	})

	rec := doJSON(t, s, http.MethodPost, "/command", map[string]interface{}{
		"session_id":   "s1",
		"command_text": "show emails from john",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var decision map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, "GMAIL_QUERY_GENERATED", decision["action_type"])
	assert.Equal(t, "success", decision["status"])
	assert.NotNil(t, decision["metadata"])
}

func TestCommandEndpointValidation(t *testing.T) {
	s := newTestServer(&fixedModel{content: "irrelevant"})

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "missing session id", body: map[string]interface{}{"command_text": "hi"}},
		{name: "missing command text", body: map[string]interface{}{"session_id": "s1"}},
		{name: "blank fields", body: map[string]interface{}{"session_id": "  ", "command_text": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/command", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/command", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFollowUpEndpoint(t *testing.T) {
	s := newTestServer(&fixedModel{content: "Both emails are about the quarterly review."})

	rec := doJSON(t, s, http.MethodPost, "/follow-up", map[string]interface{}{
		"session_id":       "s1",
		"follow_up_action": "SUMMARIZE_CONTENT",
		"original_command": "summarize these",
		"email_data": []map[string]interface{}{
			{"subject": "Review prep", "sender": "a@example.com", "body": "Prep notes"},
			{"subject": "Review agenda", "sender": "b@example.com", "body": "Agenda"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var decision map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, "FINAL_RESPONSE", decision["action_type"])

	payload, ok := decision["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), payload["processed_emails"])
	assert.Equal(t, "summary", payload["response_type"])
}

func TestFollowUpEndpointInvalidAction(t *testing.T) {
	s := newTestServer(&fixedModel{content: "irrelevant"})

	rec := doJSON(t, s, http.MethodPost, "/follow-up", map[string]interface{}{
		"session_id":       "s1",
		"follow_up_action": "EXPLODE",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Contains(t, body.Message, "unknown follow-up action")
}

func TestFollowUpEndpointModelFailure(t *testing.T) {
	s := newTestServer(&fixedModel{err: errors.New("upstream 500")})

	rec := doJSON(t, s, http.MethodPost, "/follow-up", map[string]interface{}{
		"session_id":       "s1",
		"follow_up_action": "ANSWER_QUESTION",
		"original_command": "what changed?",
	})

	// Transport failures come back as a 200 with a terminal ERROR decision.
	require.Equal(t, http.StatusOK, rec.Code)
	var decision map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, "ERROR", decision["action_type"])
	assert.Equal(t, "error", decision["status"])
}

func TestHistoryEndpoints(t *testing.T) {
	s := newTestServer(&fixedModel{
		content: `{"action_type": "GMAIL_QUERY_GENERATED", "payload": {}}`,
	})

	doJSON(t, s, http.MethodPost, "/command", map[string]interface{}{
		"session_id":   "s1",
		"command_text": "show emails",
	})

	rec := doJSON(t, s, http.MethodGet, "/history/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	assert.Equal(t, "s1", hist.SessionID)
	assert.Equal(t, 2, hist.TotalTurns)
	require.Len(t, hist.History, 2)

	// Unknown session returns an empty list, not an error.
	rec = doJSON(t, s, http.MethodGet, "/history/unknown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	assert.Equal(t, 0, hist.TotalTurns)
	assert.NotNil(t, hist.History)

	rec = doJSON(t, s, http.MethodDelete, "/history/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cleared clearResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	assert.True(t, cleared.Cleared)

	rec = doJSON(t, s, http.MethodDelete, "/history/s1", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	assert.False(t, cleared.Cleared)
}

func TestSessionsEndpoint(t *testing.T) {
	s := newTestServer(&fixedModel{
		content: `{"action_type": "GMAIL_QUERY_GENERATED", "payload": {}}`,
	})

	for _, id := range []string{"bravo", "alpha"} {
		doJSON(t, s, http.MethodPost, "/command", map[string]interface{}{
			"session_id":   id,
			"command_text": "show emails",
		})
	}

	rec := doJSON(t, s, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body sessionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.TotalSessions)
	assert.Equal(t, []string{"alpha", "bravo"}, body.ActiveSessions)
}
