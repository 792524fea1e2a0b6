package workflow

import (
	"encoding/json"
	"time"
)

// Status values carried by every Decision.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metadata annotates a Decision with provenance.
type Metadata struct {
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model,omitempty"`
	WorkflowType Kind      `json:"workflow_type,omitempty"`
}

// Decision is the structured output of routing a command. Every Decision
// has a non-empty ActionType and a non-nil Payload; Normalize enforces
// this before a Decision is stored or returned.
type Decision struct {
	Status     string                 `json:"status"`
	ActionType ActionType             `json:"action_type"`
	Payload    map[string]interface{} `json:"payload"`
	Metadata   *Metadata              `json:"metadata,omitempty"`
}

// Normalize coerces a decoded model object into a valid Decision: a missing
// payload becomes an empty mapping and a missing status becomes success.
// It reports false when the required action_type is absent, which callers
// treat the same as a parse failure.
func (d *Decision) Normalize() bool {
	if d.ActionType == "" {
		return false
	}
	if d.Payload == nil {
		d.Payload = map[string]interface{}{}
	}
	if d.Status == "" {
		d.Status = StatusSuccess
	}
	return true
}

// Stamp attaches provenance metadata derived from the action type.
func (d *Decision) Stamp(model string, now time.Time) {
	d.Metadata = &Metadata{
		Timestamp:    now,
		Model:        model,
		WorkflowType: d.ActionType.Kind(),
	}
}

// ErrorDecision builds a terminal error Decision with a human-readable
// message in the payload. Internal diagnostics never leak past msg.
func ErrorDecision(msg string) Decision {
	return Decision{
		Status:     StatusError,
		ActionType: ActionError,
		Payload:    map[string]interface{}{"error": msg},
	}
}

// GmailQueryPayload is the typed payload for GMAIL_QUERY_GENERATED.
type GmailQueryPayload struct {
	GmailSearchString string `json:"gmail_search_string"`
	Explanation       string `json:"explanation,omitempty"`
}

// ActionRequiredPayload is the typed payload for ACTION_REQUIRED, keyed by
// a nested action field (block/delete/archive/mark/label/forward/reply).
type ActionRequiredPayload struct {
	Action               string                 `json:"action"`
	Parameters           map[string]interface{} `json:"parameters"`
	ConfirmationRequired bool                   `json:"confirmation_required,omitempty"`
}

// FetchPayload is the typed payload for the two-call fetch actions; it
// carries enough for the caller to fetch supporting data.
type FetchPayload struct {
	GmailSearchString string `json:"gmail_search_string"`
	MaxResults        int    `json:"max_results,omitempty"`
	IncludeBody       bool   `json:"include_body,omitempty"`
}

// FinalResponsePayload is the typed payload for FINAL_RESPONSE.
type FinalResponsePayload struct {
	TextResponse    string `json:"text_response"`
	ResponseType    string `json:"response_type,omitempty"`
	ProcessedEmails int    `json:"processed_emails"`
}

// DecodePayload unmarshals the free-form payload mapping into a typed
// payload struct. Unknown action types keep their raw mapping; this is the
// forward-compatible passthrough path.
func (d *Decision) DecodePayload(target interface{}) error {
	raw, err := json.Marshal(d.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

// payloadMap converts a typed payload struct back into the generic mapping
// a Decision carries.
func payloadMap(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

// QueryDecision builds a successful GMAIL_QUERY_GENERATED Decision.
func QueryDecision(search, explanation string) Decision {
	return Decision{
		Status:     StatusSuccess,
		ActionType: ActionGmailQuery,
		Payload:    payloadMap(GmailQueryPayload{GmailSearchString: search, Explanation: explanation}),
	}
}

// SummarizeDecision builds a successful FETCH_AND_SUMMARIZE Decision.
func SummarizeDecision(search string) Decision {
	return Decision{
		Status:     StatusSuccess,
		ActionType: ActionFetchAndSummarize,
		Payload:    payloadMap(FetchPayload{GmailSearchString: search}),
	}
}

// FinalDecision builds a terminal FINAL_RESPONSE Decision.
func FinalDecision(text, responseType string, processed int) Decision {
	return Decision{
		Status:     StatusSuccess,
		ActionType: ActionFinalResponse,
		Payload: payloadMap(FinalResponsePayload{
			TextResponse:    text,
			ResponseType:    responseType,
			ProcessedEmails: processed,
		}),
	}
}
