// Package masatwitter reads tweets through the Masa protocol's Twitter
// search API. It is an alternative tweet source for deployments without
// Twitter API credentials.
package masatwitter

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultAPIEndpoint is the search endpoint of a local Masa node
	DefaultAPIEndpoint = "http://localhost:8080/api/v1/data/twitter/tweets/recent"
	// DefaultRequestTimeout bounds one search request, in seconds
	DefaultRequestTimeout = 120
	// DefaultTweetsPerRequest is the search size used when a caller asks for no limit
	DefaultTweetsPerRequest = 200
)

// Config holds the Masa Twitter API settings.
// Environment variables:
//   - MASA_TWITTER_API_ENDPOINT: search endpoint URL
//   - MASA_TWITTER_REQUEST_TIMEOUT: request timeout in seconds (default: 120)
//   - MASA_TWITTER_TWEETS_PER_REQUEST: tweets requested per search (default: 200)
type Config struct {
	APIEndpoint      string
	RequestTimeout   time.Duration
	TweetsPerRequest int
	Logger           *logrus.Logger
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	timeout, err := strconv.Atoi(getEnvOrDefault("MASA_TWITTER_REQUEST_TIMEOUT", strconv.Itoa(DefaultRequestTimeout)))
	if err != nil {
		return nil, fmt.Errorf("invalid MASA_TWITTER_REQUEST_TIMEOUT: %w", err)
	}

	perRequest, err := strconv.Atoi(getEnvOrDefault("MASA_TWITTER_TWEETS_PER_REQUEST", strconv.Itoa(DefaultTweetsPerRequest)))
	if err != nil {
		return nil, fmt.Errorf("invalid MASA_TWITTER_TWEETS_PER_REQUEST: %w", err)
	}

	config := &Config{
		APIEndpoint:      getEnvOrDefault("MASA_TWITTER_API_ENDPOINT", DefaultAPIEndpoint),
		RequestTimeout:   time.Duration(timeout) * time.Second,
		TweetsPerRequest: perRequest,
		Logger:           logrus.StandardLogger(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the settings:
//   - APIEndpoint must not be empty
//   - Logger must be set
//   - RequestTimeout must be at least 1 second
//   - TweetsPerRequest must be positive
func (c *Config) Validate() error {
	if c.APIEndpoint == "" {
		return fmt.Errorf("masatwitter: API endpoint is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("masatwitter: logger is required")
	}
	if c.RequestTimeout < time.Second {
		return fmt.Errorf("masatwitter: request timeout must be at least 1 second, got %v", c.RequestTimeout)
	}
	if c.TweetsPerRequest < 1 {
		return fmt.Errorf("masatwitter: tweets per request must be positive, got %d", c.TweetsPerRequest)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
