package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	speechmodel "github.com/voxlane/callpilot/backend/internal/model/speech"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*AzureSTTClient, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	client := NewAzureSTTClient("test-key", "eastus", "en-US", 5*time.Second)
	client.baseURL = server.URL
	return client, server.Close
}

func TestRecognizeSuccess(t *testing.T) {
	client, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "test-key" {
			t.Errorf("missing subscription key header")
		}
		if r.URL.Query().Get("language") != "en-US" {
			t.Errorf("unexpected language: %s", r.URL.Query().Get("language"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"RecognitionStatus":"Success","NBest":[{"Confidence":0.93,"Display":"hello world"}]}`))
	})
	defer closeFn()

	result, err := client.Recognize(context.Background(), &speechmodel.ASRRequest{
		SessionID: "s1",
		Audio:     []byte("fake-wav"),
		Format:    "wav",
	})
	if err != nil {
		t.Fatalf("Recognize err: %v", err)
	}
	if !result.Recognized {
		t.Fatal("expected recognized result")
	}
	if result.Text != "hello world" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Confidence != 0.93 {
		t.Fatalf("unexpected confidence: %v", result.Confidence)
	}
}

func TestRecognizeNoMatchIsSilentNotError(t *testing.T) {
	client, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"RecognitionStatus":"NoMatch"}`))
	})
	defer closeFn()

	result, err := client.Recognize(context.Background(), &speechmodel.ASRRequest{
		SessionID: "s1",
		Audio:     []byte("silence"),
	})
	if err != nil {
		t.Fatalf("NoMatch must not be an error: %v", err)
	}
	if result.Recognized || result.Text != "" {
		t.Fatalf("expected unrecognized result, got %+v", result)
	}
}

func TestRecognizeProviderError(t *testing.T) {
	client, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	defer closeFn()

	result, err := client.Recognize(context.Background(), &speechmodel.ASRRequest{
		SessionID: "s1",
		Audio:     []byte("fake"),
	})
	if err == nil {
		t.Fatal("expected error for provider failure")
	}
	if result.Recognized {
		t.Fatal("failed call must not report a recognized result")
	}
}

func TestRecognizeEmptyAudio(t *testing.T) {
	client := NewAzureSTTClient("k", "eastus", "en-US", time.Second)
	if _, err := client.Recognize(context.Background(), &speechmodel.ASRRequest{SessionID: "s1"}); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestServiceFailsSoftWhenUnconfigured(t *testing.T) {
	svc := NewService(nil, nil)

	tr := svc.Transcribe(context.Background(), &speechmodel.ASRRequest{SessionID: "s1", Audio: []byte("a")})
	if tr.Recognized {
		t.Fatal("unconfigured transcription must be unrecognized")
	}

	sy := svc.Synthesize(context.Background(), &speechmodel.TTSRequest{SessionID: "s1", Text: "hi"})
	if sy.Available {
		t.Fatal("unconfigured synthesis must be unavailable")
	}
}

func TestContentTypeForFormat(t *testing.T) {
	cases := map[string]string{
		"wav":  "audio/wav; codecs=audio/pcm; samplerate=16000",
		"webm": "audio/webm; codecs=opus",
		"ogg":  "audio/ogg; codecs=opus",
		"":     "audio/wav; codecs=audio/pcm; samplerate=16000",
	}
	for format, want := range cases {
		if got := contentTypeForFormat(format); got != want {
			t.Fatalf("format %q: got %q want %q", format, got, want)
		}
	}
}
