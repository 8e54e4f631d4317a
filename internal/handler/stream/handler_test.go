package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeAccumulator struct {
	started    []string
	transcript string
	partial    string
	lastFormat string
	lastAudio  []byte
}

func (f *fakeAccumulator) Start(sessionID string) {
	f.started = append(f.started, sessionID)
	f.transcript = ""
}

func (f *fakeAccumulator) SubmitChunk(_ context.Context, sessionID string, audio []byte, format string) string {
	f.lastAudio = audio
	f.lastFormat = format
	if f.partial != "" {
		f.transcript = strings.TrimSpace(f.transcript + " " + f.partial)
	}
	return f.partial
}

func (f *fakeAccumulator) Status(string) string { return f.transcript }
func (f *fakeAccumulator) Stop(string) string   { return f.transcript }

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	return body
}

func TestStartEchoesSessionID(t *testing.T) {
	handler := New(&fakeAccumulator{})

	req := httptest.NewRequest(http.MethodPost, "/stream/start", strings.NewReader(`{"session_id":"s1"}`))
	rr := httptest.NewRecorder()
	handler.handleStart(rr, req)

	body := decodeBody(t, rr)
	if body["success"] != true || body["session_id"] != "s1" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestStartDefaultsSessionID(t *testing.T) {
	acc := &fakeAccumulator{}
	handler := New(acc)

	req := httptest.NewRequest(http.MethodPost, "/stream/start", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	handler.handleStart(rr, req)

	body := decodeBody(t, rr)
	if body["session_id"] != "default" {
		t.Fatalf("expected the default session id, got %v", body["session_id"])
	}
	if len(acc.started) != 1 || acc.started[0] != "default" {
		t.Fatalf("accumulator not started for default session: %v", acc.started)
	}
}

func newChunkRequest(t *testing.T, sessionID, filename string, audio []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if sessionID != "" {
		if err := writer.WriteField("session_id", sessionID); err != nil {
			t.Fatalf("WriteField err: %v", err)
		}
	}
	if filename != "" {
		part, err := writer.CreateFormFile("audio", filename)
		if err != nil {
			t.Fatalf("CreateFormFile err: %v", err)
		}
		if _, err := part.Write(audio); err != nil {
			t.Fatalf("write audio err: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close err: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/stream/chunk", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestChunkMissingAudio(t *testing.T) {
	handler := New(&fakeAccumulator{})

	rr := httptest.NewRecorder()
	handler.handleChunk(rr, newChunkRequest(t, "s1", "", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["error"] != "No audio file provided" {
		t.Fatalf("unexpected error: %v", body)
	}
}

func TestChunkAppendsAndReportsTranscript(t *testing.T) {
	acc := &fakeAccumulator{partial: "hello"}
	handler := New(acc)

	rr := httptest.NewRecorder()
	handler.handleChunk(rr, newChunkRequest(t, "s1", "chunk.webm", []byte("audio-bytes")))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["partial"] != "hello" || body["transcript"] != "hello" || body["session_id"] != "s1" {
		t.Fatalf("unexpected body: %v", body)
	}
	if acc.lastFormat != "webm" {
		t.Fatalf("format not inferred from filename: %q", acc.lastFormat)
	}
	if string(acc.lastAudio) != "audio-bytes" {
		t.Fatalf("audio not forwarded: %q", acc.lastAudio)
	}
}

func TestChunkDefaultsSessionID(t *testing.T) {
	acc := &fakeAccumulator{}
	handler := New(acc)

	rr := httptest.NewRecorder()
	handler.handleChunk(rr, newChunkRequest(t, "", "chunk.wav", []byte("a")))

	body := decodeBody(t, rr)
	if body["session_id"] != "default" {
		t.Fatalf("expected default session id, got %v", body["session_id"])
	}
}

func TestStatusAndStop(t *testing.T) {
	acc := &fakeAccumulator{transcript: "hello world"}
	handler := New(acc)

	req := httptest.NewRequest(http.MethodGet, "/stream/status?session_id=s1", nil)
	rr := httptest.NewRecorder()
	handler.handleStatus(rr, req)

	body := decodeBody(t, rr)
	if body["transcript"] != "hello world" || body["session_id"] != "s1" {
		t.Fatalf("unexpected status body: %v", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/stream/stop", strings.NewReader(`{"session_id":"s1"}`))
	rr = httptest.NewRecorder()
	handler.handleStop(rr, req)

	body = decodeBody(t, rr)
	if body["transcript"] != "hello world" || body["success"] != true {
		t.Fatalf("unexpected stop body: %v", body)
	}
}
