package llmservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"pizza-rag/internal/config"
	"pizza-rag/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

var thinkRe = regexp.MustCompile(models.ThinkTag)

// New returns the chat model described by llmConfig
func New(llmConfig *config.LLMConfig) (llms.Model, error) {
	log.Debug().Str("provider", llmConfig.Provider).Str("base_url", llmConfig.BaseURL).Str("model", llmConfig.Model).Msg("Creating language model client")

	var (
		llm llms.Model
		err error
	)
	switch llmConfig.Provider {
	case config.ProviderOllama:
		llm, err = ollama.New(
			ollama.WithServerURL(llmConfig.BaseURL),
			ollama.WithModel(llmConfig.Model),
		)
	case config.ProviderOpenAI:
		llm, err = openai.New(
			openai.WithBaseURL(llmConfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", llmConfig.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s client: %w", llmConfig.Provider, err)
	}
	return llm, nil
}

// call llm
func GenerateContent(ctx context.Context, llm llms.Model, prompt string) (string, error) {
	msgContent := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	res, err := llm.GenerateContent(ctx, msgContent)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return StripThinking(res.Choices[0].Content), nil
}

// StripThinking drops <think> blocks emitted by reasoning models.
func StripThinking(content string) string {
	if !strings.Contains(content, "<think>") {
		return content
	}
	return strings.TrimSpace(thinkRe.ReplaceAllString(content, ""))
}
