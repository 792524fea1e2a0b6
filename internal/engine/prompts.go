package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/caira-ai/caira-engine/internal/consts"
	"github.com/caira-ai/caira-engine/internal/conversation"
	"github.com/caira-ai/caira-engine/internal/workflow"
)

// noHistoryMarker is rendered instead of an empty string so the routing
// prompt never contains an ambiguous blank section.
const noHistoryMarker = "No previous conversation history."

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// renderHistory serializes session turns as compact one-line records.
func renderHistory(turns []conversation.Turn) string {
	if len(turns) == 0 {
		return noHistoryMarker
	}

	var b strings.Builder
	for _, turn := range turns {
		switch turn.Role {
		case conversation.RoleAI:
			if turn.Decision != nil {
				raw, err := json.Marshal(turn.Decision)
				if err != nil {
					continue
				}
				fmt.Fprintf(&b, "ai: %s\n", raw)
			}
		default:
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderEmailContext(ctx *workflow.EmailContext) string {
	if ctx == nil {
		return ""
	}
	return fmt.Sprintf(`
Current Email Context:
- Subject: %s
- Sender: %s
- Body Preview: %s
`,
		orDefault(ctx.Subject, "N/A"),
		orDefault(ctx.Sender, "N/A"),
		truncateRunes(orDefault(ctx.Body, "N/A"), consts.ContextBodyPreviewChars))
}

// routerPrompt renders the master routing prompt. The instruction format
// follows Mistral's [INST] convention.
func routerPrompt(command string, profile *workflow.UserProfile, emailCtx *workflow.EmailContext, turns []conversation.Turn) string {
	if profile == nil {
		profile = &workflow.UserProfile{}
	}

	return fmt.Sprintf(`<s>[INST] You are the Caira AI Engine's Master Router. Analyze the user's email command and return ONLY a JSON response.

User Profile:
- Email: %s
- Timezone: %s
- Language: %s
%s
Conversation History:
%s

User Command: "%s"

CLASSIFICATION RULES:

1. GMAIL_QUERY_GENERATED (One-Call):
   - Search, find, show, list emails
   - Example: "Show emails from John" -> {"action_type": "GMAIL_QUERY_GENERATED", "payload": {"gmail_search_string": "from:john"}}

2. ACTION_REQUIRED (One-Call):
   - Direct actions: block, delete, archive, mark, label, forward, reply
   - Example: "Block sender X" -> {"action_type": "ACTION_REQUIRED", "payload": {"action": "BLOCK_SENDER", "parameters": {"email": "x@example.com"}}}

3. FETCH_AND_SUMMARIZE (Two-Call):
   - Summaries, overviews
   - Example: "Summarize HR emails" -> {"action_type": "FETCH_AND_SUMMARIZE", "payload": {"gmail_search_string": "from:hr"}}

4. FETCH_AND_ANSWER (Two-Call):
   - Specific questions about content
   - Example: "What time is the meeting?" -> {"action_type": "FETCH_AND_ANSWER", "payload": {"gmail_search_string": "meeting"}}

Respond with ONLY valid JSON: [/INST]`,
		orDefault(profile.Email, "N/A"),
		orDefault(profile.Timezone, "UTC"),
		orDefault(profile.Language, "en"),
		renderEmailContext(emailCtx),
		renderHistory(turns),
		command)
}

func renderEmailItems(items []workflow.EmailItem, bodyLimit int) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, `
Email %d:
Subject: %s
From: %s
Content: %s
---
`,
			i+1,
			orDefault(item.Subject, "No Subject"),
			orDefault(item.Sender, "Unknown"),
			truncateRunes(orDefault(item.Body, "No content"), bodyLimit))
	}
	return b.String()
}

// summarizePrompt renders the second-call summarization prompt.
func summarizePrompt(items []workflow.EmailItem, originalCommand string) string {
	return fmt.Sprintf(`<s>[INST] You are Caira, an intelligent email assistant. The user requested: "%s"

Here are the emails to summarize:
%s
Provide a clear summary focusing on:
1. Key information and main points
2. Important dates/times/deadlines
3. Action items or requests
4. Overall themes

Be conversational and helpful. [/INST]`,
		originalCommand,
		renderEmailItems(items, consts.SummaryBodyPreviewChars))
}

// answerPrompt renders the second-call question-answering prompt.
func answerPrompt(items []workflow.EmailItem, originalCommand string) string {
	return fmt.Sprintf(`<s>[INST] You are Caira, an intelligent email assistant. The user asked: "%s"

Here are the relevant emails:
%s
Answer the user's question based on the email content. Be specific and quote relevant details when possible. If the information isn't available, say so honestly. [/INST]`,
		originalCommand,
		renderEmailItems(items, consts.AnswerBodyPreviewChars))
}

// queryBuilderPrompt renders the narrow fallback prompt that refines a raw
// command into a Gmail search string.
func queryBuilderPrompt(command string) string {
	return fmt.Sprintf(`<s>[INST] Convert this request into a Gmail search query.

Request: "%s"

Gmail operators: from:, to:, subject:, has:attachment, is:unread, after:YYYY/MM/DD, newer_than:7d

Examples:
- "emails from john" -> from:john
- "unread emails from HR" -> from:hr is:unread
- "emails about project" -> subject:project OR project

Respond with ONLY the search string: [/INST]`, command)
}
