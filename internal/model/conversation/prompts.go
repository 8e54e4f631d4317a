package conversation

// System instructions selected by classified intent. The set is closed; any
// unrecognized intent falls through to the "other" instruction.
const (
	questionPrompt = "You are a helpful virtual assistant. The user has asked a question. " +
		"Provide a clear, concise, and helpful response. If you need more context, ask a follow-up question. " +
		"Be conversational and natural in your response."

	complaintPrompt = "You are an empathetic customer service assistant. The user has raised a complaint or concern. " +
		"Acknowledge their concern, show empathy, and offer to help resolve the issue. " +
		"Be warm, understanding, and professional in your response."

	otherPrompt = "You are a friendly and professional virtual assistant. " +
		"Engage naturally with the user. Keep responses brief and conversational. " +
		"If appropriate, you can ask how you can help them today."
)

// SystemPromptFor returns the generation instruction for an intent.
func SystemPromptFor(intent Intent) string {
	switch intent {
	case IntentQuestion:
		return questionPrompt
	case IntentComplaint:
		return complaintPrompt
	default:
		return otherPrompt
	}
}
