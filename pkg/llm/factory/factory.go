package factory

import (
	"fmt"

	"curator-bot/pkg/llm"
	"curator-bot/pkg/llm/anthropic"
	"curator-bot/pkg/llm/ollama"
	"curator-bot/pkg/llm/openai"
)

type Settings struct {
	Provider      string
	Model         string
	OllamaBaseURL string
	OpenAIKey     string
	OpenAIBaseURL string
	AnthropicKey  string
}

func NewLLMProvider(s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "ollama", "":
		baseURL := s.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, s.Model), nil
	case "openai":
		return openai.NewOpenAIProvider(s.OpenAIKey, s.OpenAIBaseURL, s.Model), nil
	case "anthropic":
		return anthropic.NewAnthropicProvider(s.AnthropicKey, s.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
