package workflow

import "testing"

func TestActionTypeKind(t *testing.T) {
	tests := []struct {
		action ActionType
		want   Kind
	}{
		{ActionDraftEmail, KindOneCall},
		{ActionUpdatedDraft, KindOneCall},
		{ActionSendEmail, KindOneCall},
		{ActionRequired, KindOneCall},
		{ActionBlockSender, KindOneCall},
		{ActionMarkAsSpam, KindOneCall},
		{ActionSortToFolder, KindOneCall},
		{ActionDeleteEmails, KindOneCall},
		{ActionDraftAutoresponder, KindOneCall},
		{ActionGmailQuery, KindOneCall},
		{ActionFetchAndSummarize, KindTwoCall},
		{ActionFetchAndAnswer, KindTwoCall},
		{ActionFinalResponse, KindUnknown},
		{ActionError, KindUnknown},
		{ActionType("SOMETHING_NEW"), KindUnknown},
		{ActionType(""), KindUnknown},
	}

	for _, tt := range tests {
		if got := tt.action.Kind(); got != tt.want {
			t.Errorf("Kind(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestFollowUpActionValid(t *testing.T) {
	if !FollowUpSummarize.Valid() {
		t.Error("SUMMARIZE_CONTENT should be valid")
	}
	if !FollowUpAnswer.Valid() {
		t.Error("ANSWER_QUESTION should be valid")
	}
	for _, bad := range []FollowUpAction{"", "DELETE_EVERYTHING", "summarize_content"} {
		if bad.Valid() {
			t.Errorf("%q should be invalid", bad)
		}
	}
}
