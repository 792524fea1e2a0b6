// Package workflow defines the structured vocabulary shared by the routing
// engine, the conversation store, and the HTTP surface: action types, the
// one-call/two-call partition, and the Decision value passed between them.
package workflow

// ActionType classifies a routed user command.
type ActionType string

// Single-call actions complete with the routing response alone.
const (
	ActionDraftEmail         ActionType = "DRAFT_EMAIL"
	ActionUpdatedDraft       ActionType = "UPDATED_DRAFT"
	ActionSendEmail          ActionType = "SEND_EMAIL"
	ActionRequired           ActionType = "ACTION_REQUIRED"
	ActionBlockSender        ActionType = "BLOCK_SENDER"
	ActionMarkAsSpam         ActionType = "MARK_AS_SPAM"
	ActionSortToFolder       ActionType = "SORT_TO_FOLDER"
	ActionDeleteEmails       ActionType = "DELETE_EMAILS"
	ActionDraftAutoresponder ActionType = "DRAFT_AUTORESPONDER"
	ActionGmailQuery         ActionType = "GMAIL_QUERY_GENERATED"
)

// Two-call actions require the caller to fetch data and invoke the
// follow-up resolver.
const (
	ActionFetchAndSummarize ActionType = "FETCH_AND_SUMMARIZE"
	ActionFetchAndAnswer    ActionType = "FETCH_AND_ANSWER"
)

// Terminal actions produced by the engine itself.
const (
	ActionFinalResponse ActionType = "FINAL_RESPONSE"
	ActionError         ActionType = "ERROR"
)

// Kind partitions action types by how many model calls they need.
type Kind string

const (
	KindOneCall Kind = "one-call"
	KindTwoCall Kind = "two-call"
	KindUnknown Kind = "unknown"
)

var oneCallActions = map[ActionType]bool{
	ActionDraftEmail:         true,
	ActionUpdatedDraft:       true,
	ActionSendEmail:          true,
	ActionRequired:           true,
	ActionBlockSender:        true,
	ActionMarkAsSpam:         true,
	ActionSortToFolder:       true,
	ActionDeleteEmails:       true,
	ActionDraftAutoresponder: true,
	ActionGmailQuery:         true,
}

var twoCallActions = map[ActionType]bool{
	ActionFetchAndSummarize: true,
	ActionFetchAndAnswer:    true,
}

// Kind returns the workflow class of the action type. Types outside the
// known enumeration resolve to KindUnknown; the router passes them through
// and downstream callers decide whether to reject them.
func (a ActionType) Kind() Kind {
	switch {
	case oneCallActions[a]:
		return KindOneCall
	case twoCallActions[a]:
		return KindTwoCall
	default:
		return KindUnknown
	}
}

// FollowUpAction names the second call of a two-call workflow.
type FollowUpAction string

const (
	FollowUpSummarize FollowUpAction = "SUMMARIZE_CONTENT"
	FollowUpAnswer    FollowUpAction = "ANSWER_QUESTION"
)

// Valid reports whether the follow-up action is recognized.
func (f FollowUpAction) Valid() bool {
	return f == FollowUpSummarize || f == FollowUpAnswer
}
