package embedder

import (
	"github.com/tmc/langchaingo/llms/openai"
)

func newOpenAIClient(config *Config) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithToken(config.OpenAIAPIKey),
		openai.WithEmbeddingModel(config.OpenAIModel),
	}
	if config.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.OpenAIBaseURL))
	}

	config.Logger.WithField("model", config.OpenAIModel).Debug("Creating OpenAI embedding client")
	return openai.New(opts...)
}
