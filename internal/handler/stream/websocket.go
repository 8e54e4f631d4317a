package stream

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketHandler carries live transcription over one socket: binary frames
// are audio chunks, each answered with a transcript update; the text frame
// "stop" answers with the final transcript and closes.
type WebSocketHandler struct {
	accumulator Accumulator
	upgrader    websocket.Upgrader
}

// NewWebSocketHandler creates the live-transcription socket handler.
func NewWebSocketHandler(accumulator Accumulator) *WebSocketHandler {
	return &WebSocketHandler{
		accumulator: accumulator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint next to the chunked API.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/ws", h.handleWebSocket)
}

type transcriptFrame struct {
	Event      string `json:"event"`
	Partial    string `json:"partial,omitempty"`
	Transcript string `json:"transcript"`
	SessionID  string `json:"session_id"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[stream] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	h.accumulator.Start(sessionID)
	log.Printf("[stream] websocket opened for session=%s", sessionID)

	if err := conn.WriteJSON(transcriptFrame{Event: "started", SessionID: sessionID}); err != nil {
		return
	}

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[stream] websocket read failed for session=%s: %v", sessionID, err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			partial := h.accumulator.SubmitChunk(r.Context(), sessionID, payload, "webm")
			frame := transcriptFrame{
				Event:      "partial",
				Partial:    partial,
				Transcript: h.accumulator.Status(sessionID),
				SessionID:  sessionID,
			}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case websocket.TextMessage:
			if strings.TrimSpace(string(payload)) != "stop" {
				continue
			}
			frame := transcriptFrame{
				Event:      "stopped",
				Transcript: h.accumulator.Stop(sessionID),
				SessionID:  sessionID,
			}
			_ = conn.WriteJSON(frame)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stopped"))
			return
		}
	}
}
