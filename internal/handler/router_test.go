package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	conversationService "github.com/voxlane/callpilot/backend/internal/service/conversation"
	"github.com/voxlane/callpilot/backend/internal/service/session"
	speechService "github.com/voxlane/callpilot/backend/internal/service/speech"
	"github.com/voxlane/callpilot/backend/internal/service/transcript"
)

// newTestRouter builds a router with only in-memory services, no providers.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store := session.NewMemoryStore(0)
	t.Cleanup(store.Close)

	speechSvc := speechService.NewService(nil, nil)
	orchestrator := conversationService.NewService(store, nil, nil)
	accumulator := transcript.New(speechSvc, 0)
	t.Cleanup(accumulator.Close)

	return NewRouter(store, orchestrator, accumulator, speechSvc, false)
}

func TestRouterNotFound(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/no-such-route", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var body map[string]string
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["error"] != "Not found" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRouterConverseFallback(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/converse", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["intent"] != "other" {
		t.Fatalf("unexpected intent: %v", body["intent"])
	}
	if body["response"] != conversationService.FallbackResponse {
		t.Fatalf("unexpected response: %v", body["response"])
	}
}

func TestRouterConverseEmptyMessage(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/converse", strings.NewReader(`{"message":""}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestRouterStreamLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/stream/start", strings.NewReader(`{"session_id":"call-1"}`))
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("start status: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stream/status?session_id=call-1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status status: %d", rr.Code)
	}
	var body map[string]any
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["transcript"] != "" {
		t.Fatalf("expected empty transcript, got %v", body["transcript"])
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/stream/stop", strings.NewReader(`{"session_id":"call-1"}`))
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("stop status: %d", rr.Code)
	}
}

func TestRouterClearSession(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/clear-session", strings.NewReader(`{"session_id":"call-2"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var body map[string]any
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["message"] != "Session cleared" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var body map[string]any
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["transcription"] != false || body["synthesis"] != false || body["conversation"] != false {
		t.Fatalf("unexpected health body: %v", body)
	}
}
