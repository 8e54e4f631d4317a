package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/voxlane/callpilot/backend/internal/model/conversation"
)

// Service classifies user messages into question/complaint/other with an LLM.
// Every failure path degrades to an "other" classification with zero
// confidence; callers never see a classification error.
type Service struct {
	classifier compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the classifier chain. chatModel may reuse the instance
// that drives response generation; a nil model yields a disabled service.
func NewService(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	svc := &Service{}
	if chatModel == nil {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage("{message}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile intent classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether a classifier chain is available.
func (s *Service) Enabled() bool {
	return s != nil && s.classifier != nil
}

// Classify returns the intent for a single message. History is deliberately
// not part of the classifier input.
func (s *Service) Classify(ctx context.Context, message string) conversation.Classification {
	if !s.Enabled() {
		return fallbackClassification("classifier not configured")
	}

	msg, err := s.classifier.Invoke(ctx, map[string]any{"message": message})
	if err != nil {
		log.Printf("[intent] classifier invoke failed: %v", err)
		return fallbackClassification(fmt.Sprintf("classification error: %v", err))
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return fallbackClassification("classifier returned no content")
	}

	payload, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Printf("[intent] classifier output parse failed: %v", err)
		return fallbackClassification(fmt.Sprintf("unparseable classification: %v", err))
	}

	intent, ok := conversation.ParseIntent(payload.Intent)
	if !ok {
		intent = conversation.IntentOther
	}

	result := conversation.Classification{
		Intent:     intent,
		Confidence: clampConfidence(payload.Confidence),
		Reasoning:  strings.TrimSpace(payload.Reasoning),
	}
	log.Printf("[intent] classified as %s (confidence: %.2f)", result.Intent, result.Confidence)
	return result
}

func fallbackClassification(reason string) conversation.Classification {
	return conversation.Classification{
		Intent:     conversation.IntentOther,
		Confidence: 0,
		Reasoning:  reason,
	}
}

// parseClassifierOutput extracts the JSON object from the model output, which
// may be wrapped in prose or code fences.
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func clampConfidence(val float32) float32 {
	if val < 0 {
		return 0
	}
	if val > 1 {
		return 1
	}
	return val
}

type classifierPayload struct {
	Intent     string  `json:"intent"`
	Confidence float32 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

const classifierSystemPrompt = "You are an intent classifier. Classify user messages into one of these categories:\n" +
	"- question: the user is asking for information or clarification\n" +
	"- complaint: the user is expressing dissatisfaction or reporting an issue\n" +
	"- other: general conversation, greeting, or non-specific intent\n\n" +
	"Respond ONLY with a JSON object containing three fields: intent (one of question, complaint, other), " +
	"confidence (a number between 0 and 1), and reasoning (a brief explanation). Do not output anything else."
