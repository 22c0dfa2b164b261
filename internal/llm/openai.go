// Package llm wraps the OpenAI chat completion API behind a small
// interface. Classification, extraction and answer generation all go
// through the same call, differing only by prompt and output parsing.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    string
	Content string
}

// Request is a chat-style generation request.
type Request struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	JSONObject  bool // request a single JSON object as output
}

// ChatModel is the generation service contract.
type ChatModel interface {
	Chat(ctx context.Context, req Request) (string, error)
}

// chatCompleter is the slice of the OpenAI client we use; it exists so
// tests can substitute a fake.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest, opts ...openai.ChatCompletionRequestOption) (openai.ChatCompletionResponse, error)
}

// OpenAIChat is a ChatModel backed by the OpenAI API.
type OpenAIChat struct {
	client chatCompleter
	model  string
}

// NewOpenAIChat creates a chat client for the given model.
func NewOpenAIChat(apiKey, model string) *OpenAIChat {
	config := openai.DefaultConfig(apiKey)
	return &OpenAIChat{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Chat sends the messages and returns the first choice's trimmed content.
func (c *OpenAIChat) Chat(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONObject {
		openaiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ ChatModel = (*OpenAIChat)(nil)
