package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	convmodel "github.com/voxlane/callpilot/backend/internal/model/conversation"
	conversationservice "github.com/voxlane/callpilot/backend/internal/service/conversation"
	"github.com/voxlane/callpilot/backend/internal/service/session"
	"github.com/voxlane/callpilot/backend/pkg/utils"
)

// Orchestrator abstracts the conversation service for testing.
type Orchestrator interface {
	HandleTurn(ctx context.Context, sessionID, userMessage string) (conversationservice.Result, error)
}

// Handler exposes the conversational turn and session management endpoints.
type Handler struct {
	orchestrator Orchestrator
	store        session.Store
}

// New creates the conversation handler.
func New(orchestrator Orchestrator, store session.Store) *Handler {
	return &Handler{orchestrator: orchestrator, store: store}
}

// RegisterRoutes mounts the conversation endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/converse", h.handleConverse)
	r.Post("/clear-session", h.handleClearSession)
}

func (h *Handler) handleConverse(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}

	// A missing or malformed body is treated like an empty message.
	_ = json.NewDecoder(r.Body).Decode(&payload)

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = convmodel.DefaultSessionID
	}

	result, err := h.orchestrator.HandleTurn(r.Context(), sessionID, payload.Message)
	if err != nil {
		if errors.Is(err, conversationservice.ErrEmptyMessage) {
			utils.RespondError(w, http.StatusBadRequest, "No message provided")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"intent":     result.Intent,
		"confidence": result.Confidence,
		"reasoning":  result.Reasoning,
		"response":   result.Response,
	})
}

func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = convmodel.DefaultSessionID
	}

	if err := h.store.Clear(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Session cleared",
	})
}
