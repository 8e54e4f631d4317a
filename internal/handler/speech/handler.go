package speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	convmodel "github.com/voxlane/callpilot/backend/internal/model/conversation"
	speechmodel "github.com/voxlane/callpilot/backend/internal/model/speech"
	"github.com/voxlane/callpilot/backend/pkg/utils"
)

const maxUploadMemory = 32 << 20 // 32MB

// SpeechService abstracts the transport adapter for testing.
type SpeechService interface {
	Transcribe(ctx context.Context, req *speechmodel.ASRRequest) speechmodel.TranscriptResult
	Synthesize(ctx context.Context, req *speechmodel.TTSRequest) speechmodel.SynthesisResult
	TranscribeEnabled() bool
	SynthesizeEnabled() bool
}

// Handler exposes one-shot transcription and synthesis.
type Handler struct {
	speechSvc SpeechService
	aiEnabled bool
}

// New creates the speech handler. aiEnabled only feeds the health report.
func New(speechSvc SpeechService, aiEnabled bool) *Handler {
	return &Handler{speechSvc: speechSvc, aiEnabled: aiEnabled}
}

// RegisterRoutes mounts the speech endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/transcribe", h.handleTranscribe)
	r.Post("/synthesize", h.handleSynthesize)
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
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

	result := h.speechSvc.Transcribe(r.Context(), &speechmodel.ASRRequest{
		SessionID: convmodel.DefaultSessionID,
		Audio:     audio,
		Format:    inferAudioFormat(header.Filename),
	})

	if !result.Recognized {
		utils.RespondJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Could not transcribe audio",
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"transcript": result.Text,
	})
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text      string `json:"text"`
		SessionID string `json:"session_id"`
		Voice     string `json:"voice"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "No text provided")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = convmodel.DefaultSessionID
	}

	result := h.speechSvc.Synthesize(r.Context(), &speechmodel.TTSRequest{
		SessionID: sessionID,
		Text:      payload.Text,
		Voice:     payload.Voice,
	})

	if !result.Available {
		utils.RespondError(w, http.StatusInternalServerError, "Could not synthesize speech")
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Audio)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"transcription": h.speechSvc.TranscribeEnabled(),
		"synthesis":     h.speechSvc.SynthesizeEnabled(),
		"conversation":  h.aiEnabled,
	})
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
