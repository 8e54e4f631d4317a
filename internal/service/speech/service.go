package speech

import (
	"context"
	"log"
	"strings"
	"time"

	speechmodel "github.com/voxlane/callpilot/backend/internal/model/speech"
)

// Service is the outbound boundary for the speech providers. Every call is
// fail-soft: provider errors, unsupported audio, and missing configuration all
// come back as an unavailable result, never as an error. A hard failure here
// must degrade to a conversational fallback rather than end the interaction.
type Service struct {
	stt *AzureSTTClient
	tts *ElevenLabsClient
}

// NewService wires the configured provider clients. Either client may be nil
// when its provider is unconfigured; the matching operations then report
// unavailable results.
func NewService(stt *AzureSTTClient, tts *ElevenLabsClient) *Service {
	return &Service{stt: stt, tts: tts}
}

// TranscribeEnabled reports whether a recognition provider is configured.
func (s *Service) TranscribeEnabled() bool { return s != nil && s.stt != nil }

// SynthesizeEnabled reports whether a synthesis provider is configured.
func (s *Service) SynthesizeEnabled() bool { return s != nil && s.tts != nil }

// Transcribe converts one audio payload to text. An unrecognized result covers
// provider errors and no-speech alike.
func (s *Service) Transcribe(ctx context.Context, req *speechmodel.ASRRequest) speechmodel.TranscriptResult {
	if !s.TranscribeEnabled() {
		log.Printf("[speech] transcription requested but provider is not configured")
		return speechmodel.TranscriptResult{SessionID: req.SessionID, CreatedAt: time.Now().UTC()}
	}

	result, err := s.stt.Recognize(ctx, req)
	if err != nil {
		log.Printf("[speech] transcription failed for session=%s: %v", req.SessionID, err)
		return speechmodel.TranscriptResult{SessionID: req.SessionID, CreatedAt: time.Now().UTC()}
	}
	return result
}

// Synthesize converts text to audio bytes.
func (s *Service) Synthesize(ctx context.Context, req *speechmodel.TTSRequest) speechmodel.SynthesisResult {
	if !s.SynthesizeEnabled() {
		log.Printf("[speech] synthesis requested but provider is not configured")
		return speechmodel.SynthesisResult{SessionID: req.SessionID, CreatedAt: time.Now().UTC()}
	}

	if strings.TrimSpace(req.Text) == "" {
		return speechmodel.SynthesisResult{SessionID: req.SessionID, CreatedAt: time.Now().UTC()}
	}

	result, err := s.tts.Synthesize(ctx, req)
	if err != nil {
		log.Printf("[speech] synthesis failed for session=%s: %v", req.SessionID, err)
		return speechmodel.SynthesisResult{SessionID: req.SessionID, CreatedAt: time.Now().UTC()}
	}
	return result
}
