package speech

// ASRRequest carries one audio payload to the speech-to-text provider.
type ASRRequest struct {
	SessionID string `json:"session_id"`
	Audio     []byte `json:"-"`
	Format    string `json:"format"`   // wav, webm, ogg
	Language  string `json:"language"` // en-US, etc.
}

// TTSRequest carries text to the text-to-speech provider.
type TTSRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Voice     string `json:"voice,omitempty"` // provider voice id, empty uses the configured default
}
