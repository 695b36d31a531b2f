package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

var _ TextGenerator = (*openAIGenerator)(nil) // ensure openAIGenerator implements TextGenerator.

// openAIGenerator generates text with an OpenAI compatible chat completion api.
type openAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator provides a chat completion based text generator.
// The base url can target any OpenAI compatible server.
func NewOpenAIGenerator(config *GeneratorConfig) TextGenerator {
	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: config.Timeout}
	return &openAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  config.Model,
	}
}

// Generate returns the text of the first completion choice.
func (g *openAIGenerator) Generate(ctx context.Context, prompt Prompt, maxTokens int) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
