package stream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	convmodel "github.com/voxlane/callpilot/backend/internal/model/conversation"
	"github.com/voxlane/callpilot/backend/pkg/utils"
)

const maxChunkMemory = 32 << 20 // 32MB

// Accumulator abstracts the transcript accumulator for testing.
type Accumulator interface {
	Start(sessionID string)
	SubmitChunk(ctx context.Context, sessionID string, audio []byte, format string) string
	Status(sessionID string) string
	Stop(sessionID string) string
}

// Handler exposes the chunked live-transcription endpoints.
type Handler struct {
	accumulator Accumulator
}

// New creates the stream handler.
func New(accumulator Accumulator) *Handler {
	return &Handler{accumulator: accumulator}
}

// RegisterRoutes mounts the streaming endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/stream", func(streamRouter chi.Router) {
		streamRouter.Post("/start", h.handleStart)
		streamRouter.Post("/chunk", h.handleChunk)
		streamRouter.Get("/status", h.handleStatus)
		streamRouter.Post("/stop", h.handleStop)
	})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromBody(r)
	if sessionID == "" {
		sessionID = convmodel.DefaultSessionID
	}

	h.accumulator.Start(sessionID)

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"session_id": sessionID,
	})
}

func (h *Handler) handleChunk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxChunkMemory); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		sessionID = convmodel.DefaultSessionID
	}

	partial := h.accumulator.SubmitChunk(r.Context(), sessionID, audio, inferAudioFormat(header.Filename))

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"partial":    partial,
		"transcript": h.accumulator.Status(sessionID),
		"session_id": sessionID,
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = convmodel.DefaultSessionID
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"transcript": h.accumulator.Status(sessionID),
		"session_id": sessionID,
	})
}

func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromBody(r)
	if sessionID == "" {
		sessionID = convmodel.DefaultSessionID
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"transcript": h.accumulator.Stop(sessionID),
		"session_id": sessionID,
	})
}

func sessionIDFromBody(r *http.Request) string {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)
	return strings.TrimSpace(payload.SessionID)
}

func inferAudioFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".webm":
		return "webm"
	case ".ogg":
		return "ogg"
	default:
		return "wav"
	}
}
