package speech

import "time"

// TranscriptResult is the fail-soft outcome of a transcription call.
// Recognized is false for provider errors, unsupported audio, and
// no-speech-detected alike; callers branch on it instead of handling errors.
type TranscriptResult struct {
	SessionID  string    `json:"session_id"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Recognized bool      `json:"recognized"`
	RequestID  string    `json:"request_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SynthesisResult is the fail-soft outcome of a synthesis call. Available is
// false when the provider is unconfigured or the call failed; Audio is only
// valid when Available is true.
type SynthesisResult struct {
	SessionID   string    `json:"session_id"`
	Audio       []byte    `json:"-"`
	ContentType string    `json:"content_type"`
	Available   bool      `json:"available"`
	RequestID   string    `json:"request_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
