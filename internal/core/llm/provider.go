package llm

import (
	"context"
	"fmt"
)

// Provider generates a reply for one user message under a system
// prompt. maxTokens carries the per-client response-length budget.
type Provider interface {
	GenerateResponse(ctx context.Context, systemPrompt, userMessage string, maxTokens int) (string, error)
	GetProviderName() string
}

type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGroq   ProviderType = "groq"
)

// NewProvider builds a provider from its type, API key and model
// (empty model uses the provider default).
func NewProvider(providerType ProviderType, apiKey, model string) (Provider, error) {
	switch providerType {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		return NewOpenAIProvider(apiKey, model), nil
	case ProviderGroq:
		if apiKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required")
		}
		return NewGroqProvider(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s", providerType)
	}
}
