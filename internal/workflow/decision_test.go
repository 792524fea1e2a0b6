package workflow

import (
	"testing"
	"time"
)

func TestDecisionNormalize(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		ok       bool
	}{
		{
			name:     "complete decision",
			decision: Decision{Status: StatusSuccess, ActionType: ActionGmailQuery, Payload: map[string]interface{}{}},
			ok:       true,
		},
		{
			name:     "missing payload and status",
			decision: Decision{ActionType: ActionFetchAndSummarize},
			ok:       true,
		},
		{
			name:     "missing action type",
			decision: Decision{Status: StatusSuccess, Payload: map[string]interface{}{}},
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok := tt.decision.Normalize()
			if ok != tt.ok {
				t.Fatalf("Normalize() = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if tt.decision.Payload == nil {
				t.Error("Normalize() must leave a non-nil payload")
			}
			if tt.decision.Status == "" {
				t.Error("Normalize() must default the status")
			}
		})
	}
}

func TestDecisionStamp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	d := SummarizeDecision("in:inbox")
	d.Stamp("mistralai/Mistral-7B-Instruct-v0.1", now)

	if d.Metadata == nil {
		t.Fatal("Stamp() must attach metadata")
	}
	if d.Metadata.Model != "mistralai/Mistral-7B-Instruct-v0.1" {
		t.Errorf("model = %q", d.Metadata.Model)
	}
	if !d.Metadata.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", d.Metadata.Timestamp, now)
	}
	if d.Metadata.WorkflowType != KindTwoCall {
		t.Errorf("workflow type = %q, want %q", d.Metadata.WorkflowType, KindTwoCall)
	}
}

func TestErrorDecision(t *testing.T) {
	d := ErrorDecision("something went wrong")
	if d.Status != StatusError || d.ActionType != ActionError {
		t.Errorf("ErrorDecision() = %+v", d)
	}
	if d.Payload["error"] != "something went wrong" {
		t.Errorf("payload = %v", d.Payload)
	}
}

func TestDecodePayloadRoundTrip(t *testing.T) {
	d := QueryDecision("from:john is:unread", "emails from John")

	var payload GmailQueryPayload
	if err := d.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if payload.GmailSearchString != "from:john is:unread" {
		t.Errorf("search string = %q", payload.GmailSearchString)
	}
	if payload.Explanation != "emails from John" {
		t.Errorf("explanation = %q", payload.Explanation)
	}
}

func TestFinalDecisionPayload(t *testing.T) {
	d := FinalDecision("Here is your summary.", "summary", 4)

	var payload FinalResponsePayload
	if err := d.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if payload.TextResponse != "Here is your summary." {
		t.Errorf("text = %q", payload.TextResponse)
	}
	if payload.ResponseType != "summary" {
		t.Errorf("response type = %q", payload.ResponseType)
	}
	if payload.ProcessedEmails != 4 {
		t.Errorf("processed = %d, want 4", payload.ProcessedEmails)
	}
}
