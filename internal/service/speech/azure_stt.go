package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	speechmodel "github.com/voxlane/callpilot/backend/internal/model/speech"
)

// AzureSTTClient calls the Azure Speech short-audio REST endpoint. Each
// request carries one complete audio payload and yields at most one
// recognition result.
type AzureSTTClient struct {
	key      string
	language string
	baseURL  string
	client   *http.Client
}

// NewAzureSTTClient builds the recognition client. The timeout is the ceiling
// for one provider round trip.
func NewAzureSTTClient(key, region, language string, timeout time.Duration) *AzureSTTClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AzureSTTClient{
		key:      key,
		language: language,
		baseURL:  fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", region),
		client:   &http.Client{Timeout: timeout},
	}
}

type azureRecognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		Confidence float64 `json:"Confidence"`
		Display    string  `json:"Display"`
	} `json:"NBest"`
}

// Recognize submits the audio and parses the detailed recognition response.
// A NoMatch status is not an error; it yields an unrecognized result.
func (c *AzureSTTClient) Recognize(ctx context.Context, req *speechmodel.ASRRequest) (speechmodel.TranscriptResult, error) {
	unrecognized := speechmodel.TranscriptResult{SessionID: req.SessionID, CreatedAt: time.Now().UTC()}

	if len(req.Audio) == 0 {
		return unrecognized, fmt.Errorf("audio payload is empty")
	}

	language := req.Language
	if language == "" {
		language = c.language
	}

	url := fmt.Sprintf("%s?language=%s&format=detailed", c.baseURL, language)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req.Audio))
	if err != nil {
		return unrecognized, fmt.Errorf("failed to build recognition request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	httpReq.Header.Set("Content-Type", contentTypeForFormat(req.Format))
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return unrecognized, fmt.Errorf("recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return unrecognized, fmt.Errorf("failed to read recognition response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return unrecognized, fmt.Errorf("recognition provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed azureRecognitionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return unrecognized, fmt.Errorf("failed to decode recognition response: %w", err)
	}

	if !strings.EqualFold(parsed.RecognitionStatus, "Success") {
		// NoMatch, InitialSilenceTimeout and friends: silence, not failure.
		return unrecognized, nil
	}

	text := parsed.DisplayText
	confidence := 0.0
	if len(parsed.NBest) > 0 {
		text = parsed.NBest[0].Display
		confidence = parsed.NBest[0].Confidence
	}
	if strings.TrimSpace(text) == "" {
		return unrecognized, nil
	}

	return speechmodel.TranscriptResult{
		SessionID:  req.SessionID,
		Text:       strings.TrimSpace(text),
		Confidence: confidence,
		Recognized: true,
		RequestID:  uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func contentTypeForFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "webm":
		return "audio/webm; codecs=opus"
	case "ogg":
		return "audio/ogg; codecs=opus"
	default:
		return "audio/wav; codecs=audio/pcm; samplerate=16000"
	}
}
