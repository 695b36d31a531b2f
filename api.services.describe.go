package main

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// DescriptionSystemPrompt is the instruction sent along every description request.
const DescriptionSystemPrompt = "You are a book shop assistant who generates book descriptions."

// Prompt is a text generation request made of a system
// instruction and the user text.
type Prompt struct {
	System string
	User   string
}

// TextGenerator is the external text generation provider.
type TextGenerator interface {
	Generate(ctx context.Context, prompt Prompt, maxTokens int) (string, error)
}

// DescriptionServiceProvider generates book descriptions.
type DescriptionServiceProvider interface {
	GenerateDescription(ctx context.Context, input string) (string, error)
}

type DescriptionService struct {
	logger    *zap.Logger
	generator TextGenerator
	maxTokens int
}

func NewDescriptionService(logger *zap.Logger, config *GeneratorConfig, generator TextGenerator) DescriptionServiceProvider {
	maxTokens := 100
	if config != nil && config.MaxTokens > 0 {
		maxTokens = config.MaxTokens
	}
	return &DescriptionService{
		logger:    logger,
		generator: generator,
		maxTokens: maxTokens,
	}
}

// GenerateDescription asks the provider for a description of the input text.
// The provider failure details are logged and never returned to the caller.
func (ds *DescriptionService) GenerateDescription(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", &InputError{Message: "Please provide a text to describe"}
	}
	text, err := ds.generator.Generate(ctx, Prompt{System: DescriptionSystemPrompt, User: input}, ds.maxTokens)
	if err != nil {
		ds.logger.Error("generator: provider call failed", zap.Int("generator.max_tokens", ds.maxTokens), zap.Error(err))
		return "", ErrGenerationFailed
	}
	return text, nil
}
