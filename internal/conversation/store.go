// Package conversation keeps short-lived per-session history used to
// resolve pronoun and reference context across turns. State is process
// local and ephemeral; there is no persistence.
package conversation

import (
	"sort"
	"sync"
	"time"

	"github.com/caira-ai/caira-engine/internal/consts"
	"github.com/caira-ai/caira-engine/internal/workflow"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser   Role = "user"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
)

// Turn is one entry in a session's history: a user (or synthetic system)
// message, or an AI decision.
type Turn struct {
	Role      Role               `json:"role"`
	Text      string             `json:"text,omitempty"`
	Decision  *workflow.Decision `json:"decision,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

type session struct {
	mu    sync.Mutex
	turns []Turn
}

// Store owns all session histories, keyed by an opaque session id.
// Sessions are created implicitly on first append. Each session carries its
// own lock so unrelated sessions never serialize on each other.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	maxTurns int
	now      func() time.Time
}

// NewStore creates a Store with the given turn cap per session. A
// non-positive cap falls back to the default.
func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = consts.MaxHistoryTurns
	}
	return &Store{
		sessions: make(map[string]*session),
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

func (s *Store) session(id string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	sess = &session{}
	s.sessions[id] = sess
	return sess
}

// Append adds a user turn followed by an AI turn and trims the oldest pairs
// past the cap. Both the two-entry append and the trim happen under one
// lock, so concurrent appends never interleave half a pair.
func (s *Store) Append(sessionID, userText string, decision workflow.Decision) {
	s.appendPair(sessionID, RoleUser, userText, decision)
}

// AppendSystem records a synthetic system turn (e.g. follow-up completion)
// plus the final decision, with the same atomicity as Append.
func (s *Store) AppendSystem(sessionID, systemText string, decision workflow.Decision) {
	s.appendPair(sessionID, RoleSystem, systemText, decision)
}

func (s *Store) appendPair(sessionID string, role Role, text string, decision workflow.Decision) {
	sess := s.session(sessionID)
	now := s.now()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.turns = append(sess.turns,
		Turn{Role: role, Text: text, Timestamp: now},
		Turn{Role: RoleAI, Decision: &decision, Timestamp: now},
	)
	if excess := len(sess.turns) - s.maxTurns; excess > 0 {
		sess.turns = append([]Turn(nil), sess.turns[excess:]...)
	}
}

// History returns the ordered turns for a session, oldest first. Unknown
// sessions yield an empty slice. The returned slice is a copy.
func (s *Store) History(sessionID string) []Turn {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	turns := make([]Turn, len(sess.turns))
	copy(turns, sess.turns)
	return turns
}

// Clear removes all turns for a session and reports whether any existed.
func (s *Store) Clear(sessionID string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return len(sess.turns) > 0
}

// Sessions returns the ids of all currently tracked sessions, sorted for
// stable diagnostics output.
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
