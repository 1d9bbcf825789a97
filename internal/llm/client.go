// Package llm wraps the chat-completion capability behind a small interface
// so the debate engine and suggestion service can be tested with fakes.
package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Message is one prior turn in a model conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client is the completion capability consumed by the engine. Any error is
// treated identically by callers: they fall back, they never retry.
type Client interface {
	// Complete sends a system prompt, prior windowed turns, and the new user
	// turn, and returns the model's reply text.
	Complete(ctx context.Context, systemPrompt string, history []Message, userTurn string) (string, error)
}

// ErrEmptyCompletion is returned when the upstream call succeeds but carries
// no choices.
var ErrEmptyCompletion = errors.New("llm: completion returned no choices")

// Options configure a chat client.
type Options struct {
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// ChatClient is a Client backed by an OpenAI-compatible chat endpoint
// (NVIDIA NIM in production).
type ChatClient struct {
	api  *openai.Client
	opts Options
}

// NewChatClient builds a client for the given API key. Returns nil when the
// key is empty: a nil Client signals "model capability not configured" to the
// engine, which then uses its offline paths.
func NewChatClient(apiKey string, opts Options) *ChatClient {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &ChatClient{
		api:  openai.NewClientWithConfig(cfg),
		opts: opts,
	}
}

// Complete implements Client.
func (c *ChatClient) Complete(ctx context.Context, systemPrompt string, history []Message, userTurn string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userTurn,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    messages,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
