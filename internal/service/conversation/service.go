package conversation

import (
	"context"
	"errors"
	"log"
	"strings"

	convmodel "github.com/voxlane/callpilot/backend/internal/model/conversation"
	"github.com/voxlane/callpilot/backend/internal/service/session"
)

// ErrEmptyMessage rejects blank conversational input before any provider call.
var ErrEmptyMessage = errors.New("message is empty")

// historyWindow is the fixed number of trailing turns passed to generation.
const historyWindow = 6

// FallbackResponse replaces the assistant reply when generation fails. The
// turn still counts as successful and the fallback text is what gets stored.
const FallbackResponse = "I apologize, but I'm having trouble understanding. Could you please rephrase that?"

// Classifier produces the intent classification for a single message.
type Classifier interface {
	Classify(ctx context.Context, message string) convmodel.Classification
}

// Generator produces the assistant reply for a turn.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []convmodel.Turn, userMessage string) (string, error)
}

// Result is the outcome of one conversational turn.
type Result struct {
	Intent     convmodel.Intent `json:"intent"`
	Confidence float32          `json:"confidence"`
	Reasoning  string           `json:"reasoning"`
	Response   string           `json:"response"`
}

// Service orchestrates one conversational turn: classify the message, generate
// a reply conditioned on intent and trailing history, then record the exchange.
type Service struct {
	store      session.Store
	classifier Classifier
	generator  Generator
}

// NewService wires the orchestrator. classifier and generator may be nil when
// the AI provider is unconfigured; turns then degrade to the fallback reply.
func NewService(store session.Store, classifier Classifier, generator Generator) *Service {
	return &Service{store: store, classifier: classifier, generator: generator}
}

// HandleTurn runs the full classify-generate-record cycle for one user
// message. History is only updated after a reply (possibly the fallback) is
// settled, so a rejected message leaves the session untouched.
func (s *Service) HandleTurn(ctx context.Context, sessionID, userMessage string) (Result, error) {
	if strings.TrimSpace(userMessage) == "" {
		return Result{}, ErrEmptyMessage
	}

	history, err := s.store.History(ctx, sessionID)
	if err != nil {
		log.Printf("[conversation] failed to load history for session=%s: %v", sessionID, err)
		history = nil
	}

	classification := s.classify(ctx, userMessage)

	response := s.generate(ctx, classification.Intent, trailingWindow(history), userMessage)

	if _, err := s.store.AppendTurn(ctx, sessionID, convmodel.RoleUser, userMessage); err != nil {
		log.Printf("[conversation] failed to record user turn for session=%s: %v", sessionID, err)
	} else if _, err := s.store.AppendTurn(ctx, sessionID, convmodel.RoleAssistant, response); err != nil {
		log.Printf("[conversation] failed to record assistant turn for session=%s: %v", sessionID, err)
	}

	return Result{
		Intent:     classification.Intent,
		Confidence: classification.Confidence,
		Reasoning:  classification.Reasoning,
		Response:   response,
	}, nil
}

func (s *Service) classify(ctx context.Context, userMessage string) convmodel.Classification {
	if s.classifier == nil {
		return convmodel.Classification{
			Intent:    convmodel.IntentOther,
			Reasoning: "classifier not configured",
		}
	}
	return s.classifier.Classify(ctx, userMessage)
}

func (s *Service) generate(ctx context.Context, intent convmodel.Intent, history []convmodel.Turn, userMessage string) string {
	if s.generator == nil {
		log.Printf("[conversation] generation requested but provider is not configured")
		return FallbackResponse
	}

	response, err := s.generator.Generate(ctx, convmodel.SystemPromptFor(intent), history, userMessage)
	if err != nil {
		log.Printf("[conversation] generation failed: %v", err)
		return FallbackResponse
	}
	if strings.TrimSpace(response) == "" {
		return FallbackResponse
	}
	return strings.TrimSpace(response)
}

// trailingWindow drops everything but the last historyWindow turns.
func trailingWindow(history []convmodel.Turn) []convmodel.Turn {
	if len(history) <= historyWindow {
		return history
	}
	return history[len(history)-historyWindow:]
}
