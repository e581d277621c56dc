// Package llm implements the outbound language-model call issued for a
// single credential. Retry and key rotation live in pkg/keypool; this
// package only knows how to turn one prompt into text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// Generation parameters for every model call
const (
	DefaultModel = openai.GPT4oMini

	temperature     = 0.7
	topP            = 0.95
	maxOutputTokens = 2048
)

// Generator issues chat completion requests, holding one client per
// configured credential so the scheduler can rotate freely between keys
type Generator struct {
	model string

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// NewGenerator creates a generator for the given model name.
// An empty model falls back to DefaultModel.
func NewGenerator(model string) *Generator {
	if model == "" {
		model = DefaultModel
	}

	return &Generator{
		model:   model,
		clients: make(map[string]*openai.Client),
	}
}

// Generate issues a single completion request with the given credential key
func (g *Generator) Generate(ctx context.Context, key string, prompt string) (string, error) {
	resp, err := g.client(key).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// client returns the cached client for the credential, creating it on first use
func (g *Generator) client(key string) *openai.Client {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[key]; ok {
		return c
	}

	c := openai.NewClient(key)
	g.clients[key] = c
	return c
}
