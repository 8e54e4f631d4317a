package conversation

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	convmodel "github.com/voxlane/callpilot/backend/internal/model/conversation"
)

// LLMGenerator produces replies through a compiled chat chain.
type LLMGenerator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewLLMGenerator compiles the generation chain around the supplied model.
func NewLLMGenerator(ctx context.Context, chatModel model.ChatModel) (*LLMGenerator, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile generation chain: %w", err)
	}

	return &LLMGenerator{chain: runnable}, nil
}

// Generate runs one completion with the intent-selected system instruction,
// the supplied history window, and the user message last.
func (g *LLMGenerator) Generate(ctx context.Context, systemPrompt string, history []convmodel.Turn, userMessage string) (string, error) {
	response, err := g.chain.Invoke(ctx, map[string]any{
		"system":  systemPrompt,
		"history": toSchemaMessages(history),
		"query":   userMessage,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run generation chain: %w", err)
	}
	if response == nil {
		return "", fmt.Errorf("generation chain returned no message")
	}
	return response.Content, nil
}

func toSchemaMessages(history []convmodel.Turn) []*schema.Message {
	if len(history) == 0 {
		return nil
	}

	messages := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case convmodel.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case convmodel.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return messages
}
