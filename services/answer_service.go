package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/AYushgupta4387/airtribe-hackathon/config"
)

// Generator produces a natural-language answer from a system prompt and a
// user message.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// OpenAIGenerator answers with an OpenAI chat completion.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a chat-completion generator.
func NewOpenAIGenerator(oc config.OpenAIConfig, model string) (*OpenAIGenerator, error) {
	if oc.APIKey == "" {
		return nil, errors.New("openai api key not set")
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(openAIClientConfig(oc)),
		model:  model,
	}, nil
}

// Complete implements Generator.
func (g *OpenAIGenerator) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// geminiModels is the part of genai.Models the generator uses.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator answers with a single Gemini GenerateContent call.
type GeminiGenerator struct {
	models geminiModels
	model  string
}

// NewGeminiGenerator connects to the Gemini API.
func NewGeminiGenerator(ctx context.Context, gc config.GeminiConfig, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  gc.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{models: client.Models, model: model}, nil
}

// Complete implements Generator.
func (g *GeminiGenerator) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	result, err := g.models.GenerateContent(ctx, g.model, genai.Text(userMessage), &genai.GenerateContentConfig{
		SystemInstruction: genai.Text(systemPrompt)[0],
	})
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}

	var answer strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" {
			answer.WriteString(p.Text)
		}
	}
	return answer.String(), nil
}

// NewGenerator builds the generator selected by cfg.Generator.Provider.
func NewGenerator(ctx context.Context, cfg config.Config) (Generator, error) {
	switch cfg.Generator.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg.OpenAI, cfg.Generator.Model)
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.Gemini, cfg.Generator.Model)
	default:
		return nil, fmt.Errorf("unknown generator provider: %q", cfg.Generator.Provider)
	}
}
