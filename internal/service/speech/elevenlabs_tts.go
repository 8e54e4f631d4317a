package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/haguro/elevenlabs-go"

	speechmodel "github.com/voxlane/callpilot/backend/internal/model/speech"
)

// ElevenLabsClient synthesizes speech through the ElevenLabs API. Output is
// always MP3.
type ElevenLabsClient struct {
	apiKey  string
	voiceID string
	modelID string
	timeout time.Duration
}

// NewElevenLabsClient builds the synthesis client with the configured default
// voice and model.
func NewElevenLabsClient(apiKey, voiceID, modelID string, timeout time.Duration) *ElevenLabsClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ElevenLabsClient{
		apiKey:  apiKey,
		voiceID: voiceID,
		modelID: modelID,
		timeout: timeout,
	}
}

// Synthesize converts text to MP3 audio.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (speechmodel.SynthesisResult, error) {
	unavailable := speechmodel.SynthesisResult{SessionID: req.SessionID, CreatedAt: time.Now().UTC()}

	voiceID := strings.TrimSpace(req.Voice)
	if voiceID == "" {
		voiceID = c.voiceID
	}

	client := elevenlabs.NewClient(ctx, c.apiKey, c.timeout)
	audio, err := client.TextToSpeech(voiceID, elevenlabs.TextToSpeechRequest{
		Text:    req.Text,
		ModelID: c.modelID,
		VoiceSettings: &elevenlabs.VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
	})
	if err != nil {
		return unavailable, fmt.Errorf("synthesis request failed: %w", err)
	}
	if len(audio) == 0 {
		return unavailable, fmt.Errorf("synthesis returned no audio")
	}

	return speechmodel.SynthesisResult{
		SessionID:   req.SessionID,
		Audio:       audio,
		ContentType: "audio/mpeg",
		Available:   true,
		RequestID:   uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
	}, nil
}
