package embedder

import (
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms/ollama"
)

func newOllamaClient(config *Config) (*ollama.LLM, error) {
	config.Logger.WithFields(logrus.Fields{
		"model":      config.OllamaModel,
		"server_url": config.OllamaServerURL,
	}).Debug("Creating Ollama embedding client")

	return ollama.New(
		ollama.WithServerURL(config.OllamaServerURL),
		ollama.WithModel(config.OllamaModel),
	)
}
