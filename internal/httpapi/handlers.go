package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ragagent/ragagent/internal/agent"
	"github.com/ragagent/ragagent/internal/stream"
	"github.com/ragagent/ragagent/pkg/models"
)

type streamRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

// handleStream implements POST /agent/stream (C9). Authentication and
// decoding happen before any SSE header is written, so a malformed request
// always gets a plain JSON error response rather than a half-opened stream.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := s.auth.CurrentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("UNAUTHENTICATED", "missing session user"))
		return
	}

	var req streamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("INVALID_INPUT", "request body is not valid JSON"))
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("INVALID_INPUT", "message is required"))
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = models.NewAgentConversationID(uuid.NewString())
	} else if !models.IsAgentConversation(conversationID) {
		writeJSON(w, http.StatusBadRequest, errorBody("INVALID_INPUT", "conversationId must be an agent conversation"))
		return
	}

	tail, err := s.store.Tail(ctx, conversationID, s.config.ContextWindow)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("STORE_ERROR", "failed to load conversation history"))
		return
	}

	memory := agent.NewMemoryFromTail(s.config.ContextWindow, tail)
	provider, decision := s.router.Route(req.Message)
	loop := agent.NewLoop(provider, s.tools, s.loopConfig)

	sw, err := stream.NewWriter(w, s.config.StreamPace)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("STREAM_UNSUPPORTED", err.Error()))
		return
	}

	// The model call and the write that persists its result must survive a
	// client disconnect: net/http cancels r.Context() the moment the
	// connection drops, but an in-flight call runs to completion regardless
	// of whether anyone is still listening to the stream. Only the SSE
	// pacing loop below is allowed to stop early on ctx cancellation.
	runCtx := context.WithoutCancel(ctx)

	requestStart := time.Now()
	result, runErr := loop.Run(runCtx, decision.ModelID, memory, req.Message)
	status := "success"
	if runErr != nil {
		status = "error"
	}
	s.metrics.RecordProviderRequest(provider.Name(), decision.ModelID, status, time.Since(requestStart).Seconds(), 0, 0)

	if runErr == nil {
		userMsg := &models.Message{ConversationID: conversationID, UserID: userID, Role: models.RoleUser, Content: req.Message}
		assistantMsg := &models.Message{ConversationID: conversationID, UserID: userID, Role: models.RoleAssistant, Content: result.Text}
		if err := s.store.AppendTurn(runCtx, userMsg, assistantMsg); err != nil {
			runErr = agent.StoreError(err)
		}
	}

	if err := sw.WriteTurn(ctx, result, runErr, conversationID); err != nil {
		if s.logger != nil {
			s.logger.Error(ctx, "stream write failed", "error", err, "conversationId", conversationID)
		}
	}
}

// handleHistory implements GET /agent/history/{conversationId}.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := s.auth.CurrentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("UNAUTHENTICATED", "missing session user"))
		return
	}

	conversationID := r.PathValue("conversationId")
	history, err := s.store.History(ctx, conversationID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("STORE_ERROR", "failed to load history"))
		return
	}
	if !ownsConversation(history, userID) {
		writeJSON(w, http.StatusNotFound, errorBody("NOT_FOUND", "conversation not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": history})
}

// handleListConversations implements GET /agent/conversations.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := s.auth.CurrentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("UNAUTHENTICATED", "missing session user"))
		return
	}

	ids, err := s.store.ConversationsFor(ctx, userID, models.ConversationPrefixAgent)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("STORE_ERROR", "failed to list conversations"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"conversations": ids})
}

// handleDeleteConversation implements DELETE /agent/conversations/{conversationId}.
func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := s.auth.CurrentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("UNAUTHENTICATED", "missing session user"))
		return
	}

	conversationID := r.PathValue("conversationId")
	history, err := s.store.History(ctx, conversationID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("STORE_ERROR", "failed to load history"))
		return
	}
	if !ownsConversation(history, userID) {
		writeJSON(w, http.StatusNotFound, errorBody("NOT_FOUND", "conversation not found"))
		return
	}

	if err := s.store.Delete(ctx, conversationID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("STORE_ERROR", "failed to delete conversation"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownsConversation reports whether userID authored at least one message in
// history. An empty history (conversation never existed, or already
// belongs to nobody) is never owned by anyone.
func ownsConversation(history []models.Message, userID string) bool {
	for _, m := range history {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func errorBody(kind, message string) map[string]any {
	return map[string]any{"kind": kind, "message": message}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
