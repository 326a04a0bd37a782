package embedder

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Supported embedding backends
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderHash   = "hash"
)

type Config struct {
	Provider string

	// OpenAI
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Ollama
	OllamaServerURL string
	OllamaModel     string

	// Feature hashing
	HashDim int

	// Texts per upstream request when embedding documents
	BatchSize int

	Logger *logrus.Logger
}

// NewConfig creates a Config from environment variables
func NewConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist in production
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	hashDim, _ := strconv.Atoi(getEnvOrDefault("HASH_EMBEDDING_DIM", "512"))
	batchSize, _ := strconv.Atoi(getEnvOrDefault("EMBEDDING_BATCH_SIZE", "100"))

	config := &Config{
		Provider:        strings.ToLower(getEnvOrDefault("EMBEDDING_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_EMBEDDING_MODEL"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_EMBEDDING_MODEL"),
		OllamaServerURL: os.Getenv("OLLAMA_SERVER_URL"),
		OllamaModel:     os.Getenv("OLLAMA_EMBEDDING_MODEL"),
		HashDim:         hashDim,
		BatchSize:       batchSize,
		Logger:          logrus.StandardLogger(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}

	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
		if c.OpenAIModel == "" {
			c.OpenAIModel = "text-embedding-3-small"
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini embedding provider")
		}
		if c.GeminiModel == "" {
			c.GeminiModel = "text-embedding-004"
		}
	case ProviderOllama:
		if c.OllamaServerURL == "" {
			c.OllamaServerURL = "http://localhost:11434"
		}
		if c.OllamaModel == "" {
			c.OllamaModel = "nomic-embed-text"
		}
	case ProviderHash:
		if c.HashDim <= 0 {
			c.HashDim = 512
		}
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Provider)
	}

	return nil
}

// Helper function to get environment variable with default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
