package twitter

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type TwitterConfig struct {
	// API Authentication
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
	BearerToken       string

	// API Endpoints
	BaseURL      string
	UserEndpoint string

	// Rate Limiting: RateLimit requests per RateWindow minutes
	RateLimit  int
	RateWindow int

	// Per-request deadline applied when the caller's context has none
	RequestTimeout time.Duration

	// API Fields Configuration (based on Twitter v2 data dictionary)
	DefaultFields []string

	// General Config
	Logger *logrus.Logger
}

func NewTwitterConfig() (*TwitterConfig, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// Load rate limiting from env or use defaults
	rateLimit, _ := strconv.Atoi(getEnvOrDefault("TWITTER_RATE_LIMIT", "180"))
	rateWindow, _ := strconv.Atoi(getEnvOrDefault("TWITTER_RATE_WINDOW", "15"))

	config := &TwitterConfig{
		// API Authentication
		ConsumerKey:       os.Getenv("TWITTER_CONSUMER_KEY"),
		ConsumerSecret:    os.Getenv("TWITTER_CONSUMER_SECRET"),
		AccessToken:       os.Getenv("TWITTER_ACCESS_TOKEN"),
		AccessTokenSecret: os.Getenv("TWITTER_ACCESS_TOKEN_SECRET"),
		BearerToken:       os.Getenv("TWITTER_BEARER_TOKEN"),

		// API Endpoints
		BaseURL:      getEnvOrDefault("TWITTER_API_BASE_URL", "https://api.twitter.com/2"),
		UserEndpoint: "/users",

		// Rate Limiting
		RateLimit:  rateLimit,
		RateWindow: rateWindow,

		RequestTimeout: 30 * time.Second,

		DefaultFields: []string{"id", "text", "created_at", "note_tweet"},

		Logger: logrus.StandardLogger(),
	}

	config.Logger.WithFields(logrus.Fields{
		"consumer_key_exists": config.ConsumerKey != "",
		"bearer_token_exists": config.BearerToken != "",
		"base_url":            config.BaseURL,
		"rate_limit":          config.RateLimit,
	}).Debug("Twitter config initialized")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate requires one credential set and fills the endpoint defaults.
// OAuth 1.0a user context wins over a bearer token when both are present.
func (c *TwitterConfig) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if !c.HasUserContext() && c.BearerToken == "" {
		return fmt.Errorf("either OAuth 1.0a credentials (TWITTER_CONSUMER_KEY, TWITTER_CONSUMER_SECRET, " +
			"TWITTER_ACCESS_TOKEN, TWITTER_ACCESS_TOKEN_SECRET) or TWITTER_BEARER_TOKEN must be provided")
	}
	if c.RateLimit < 1 || c.RateWindow < 1 {
		return fmt.Errorf("rate limit must be positive, got %d requests per %d minutes", c.RateLimit, c.RateWindow)
	}

	if c.BaseURL == "" {
		c.BaseURL = "https://api.twitter.com/2"
	}
	if c.UserEndpoint == "" {
		c.UserEndpoint = "/users"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if len(c.DefaultFields) == 0 {
		c.DefaultFields = []string{"id", "text", "created_at", "note_tweet"}
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

// GetEndpoint returns the full URL for a given endpoint
func (c *TwitterConfig) GetEndpoint(endpoint string) string {
	return c.BaseURL + endpoint
}

// HasUserContext returns true if OAuth 1.0a credentials are configured
func (c *TwitterConfig) HasUserContext() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" &&
		c.AccessToken != "" && c.AccessTokenSecret != ""
}

// rateInterval is the spacing between requests that keeps within the window
func (c *TwitterConfig) rateInterval() time.Duration {
	return time.Duration(c.RateWindow) * time.Minute / time.Duration(c.RateLimit)
}
