package workflow

// UserProfile carries the profile fields rendered into the routing prompt.
// Zero values are defaulted at render time.
type UserProfile struct {
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Language string `json:"language,omitempty"`
}

// EmailContext is the currently viewed email supplied with an initial
// command. Only a bounded preview of the body reaches the prompt.
type EmailContext struct {
	Subject  string `json:"subject,omitempty"`
	Sender   string `json:"sender,omitempty"`
	Body     string `json:"body,omitempty"`
	Received string `json:"timestamp,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
}

// EmailItem is one fetched email supplied to the follow-up resolver.
type EmailItem struct {
	Subject  string   `json:"subject"`
	Sender   string   `json:"sender"`
	Body     string   `json:"body"`
	Received string   `json:"timestamp,omitempty"`
	ThreadID string   `json:"thread_id,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}
