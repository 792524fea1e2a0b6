// Package httpserver exposes the engine over HTTP. It is a thin adapter:
// request decoding and status mapping only, no orchestration logic.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/caira-ai/caira-engine/internal/conversation"
	"github.com/caira-ai/caira-engine/internal/engine"
	"github.com/caira-ai/caira-engine/internal/logger"
	"github.com/caira-ai/caira-engine/internal/workflow"
)

// Server provides the HTTP interface for the engine
type Server struct {
	engine *engine.Engine
	addr   string
	server *http.Server
	router *httprouter.Router
	log    *logger.Logger
}

// NewServer creates a new engine server
func NewServer(eng *engine.Engine, addr string) *Server {
	s := &Server{
		engine: eng,
		addr:   addr,
		router: httprouter.New(),
		log:    logger.Global().WithPrefix("http"),
	}

	s.setupRoutes()
	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	s.log.Info("Starting engine server on %s", s.addr)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/health", s.handleHealth)

	s.router.POST("/command", s.handleCommand)
	s.router.POST("/follow-up", s.handleFollowUp)

	s.router.GET("/history/:session_id", s.handleHistory)
	s.router.DELETE("/history/:session_id", s.handleClear)
	s.router.GET("/sessions", s.handleSessions)
}

type commandRequest struct {
	SessionID    string                 `json:"session_id"`
	CommandText  string                 `json:"command_text"`
	UserProfile  *workflow.UserProfile  `json:"user_profile,omitempty"`
	EmailContext *workflow.EmailContext `json:"email_context,omitempty"`
}

type followUpRequest struct {
	SessionID       string               `json:"session_id"`
	FollowUpAction  string               `json:"follow_up_action"`
	EmailData       []workflow.EmailItem `json:"email_data"`
	OriginalCommand string               `json:"original_command"`
}

type historyResponse struct {
	SessionID  string              `json:"session_id"`
	History    []conversation.Turn `json:"history"`
	TotalTurns int                 `json:"total_turns"`
}

type clearResponse struct {
	SessionID string `json:"session_id"`
	Cleared   bool   `json:"cleared"`
	Message   string `json:"message"`
}

type sessionsResponse struct {
	ActiveSessions []string `json:"active_sessions"`
	TotalSessions  int      `json:"total_sessions"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":        "Caira AI Engine",
		"workflow_model": "hybrid",
		"endpoints": map[string]string{
			"command":   "POST /command - process initial user command",
			"follow-up": "POST /follow-up - process follow-up with email data",
			"history":   "GET /history/{session_id} - get conversation history",
			"clear":     "DELETE /history/{session_id} - clear conversation history",
			"sessions":  "GET /sessions - list active sessions",
			"health":    "GET /health - system health check",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	healthy := s.engine.Healthy(r.Context())
	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"model_info": s.engine.Info(),
	})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.CommandText) == "" {
		writeError(w, http.StatusBadRequest, "session_id and command_text are required")
		return
	}

	decision := s.engine.ProcessCommand(r.Context(), req.SessionID, req.CommandText, req.UserProfile, req.EmailContext)
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req followUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	decision, err := s.engine.ProcessFollowUp(
		r.Context(),
		req.SessionID,
		workflow.FollowUpAction(req.FollowUpAction),
		req.EmailData,
		req.OriginalCommand,
	)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidFollowUp) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "follow-up processing failed")
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	sessionID := ps.ByName("session_id")
	history := s.engine.History(sessionID)
	if history == nil {
		history = []conversation.Turn{}
	}
	writeJSON(w, http.StatusOK, historyResponse{
		SessionID:  sessionID,
		History:    history,
		TotalTurns: len(history),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	sessionID := ps.ByName("session_id")
	cleared := s.engine.ClearHistory(sessionID)

	msg := "No history found for this session"
	if cleared {
		msg = "Conversation history cleared"
	}
	writeJSON(w, http.StatusOK, clearResponse{
		SessionID: sessionID,
		Cleared:   cleared,
		Message:   msg,
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	sessions := s.engine.Sessions()
	writeJSON(w, http.StatusOK, sessionsResponse{
		ActiveSessions: sessions,
		TotalSessions:  len(sessions),
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Status: "error", Message: msg})
}
