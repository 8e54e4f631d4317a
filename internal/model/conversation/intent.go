package conversation

import "strings"

// Intent is the coarse classification of a user message driving response tone.
type Intent string

const (
	IntentQuestion  Intent = "question"
	IntentComplaint Intent = "complaint"
	IntentOther     Intent = "other"
)

// ParseIntent normalizes a raw classifier label. Unrecognized values report
// false so callers fall back to IntentOther explicitly.
func ParseIntent(raw string) (Intent, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "question":
		return IntentQuestion, true
	case "complaint":
		return IntentComplaint, true
	case "other":
		return IntentOther, true
	default:
		return "", false
	}
}

// Classification is the per-message intent result. It is returned with the
// turn response and never persisted.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float32 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}
