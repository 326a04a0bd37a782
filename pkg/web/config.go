package web

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port    string
	GinMode string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Logger *logrus.Logger
}

func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Port:    getEnvOrDefault("PORT", "5000"),
		GinMode: getEnvOrDefault("GIN_MODE", gin.ReleaseMode),
		// ingestion embeds up to 200 tweets inline, so writes get a long budget
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    5 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
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
	if c.Port == "" {
		c.Port = "5000"
	}
	switch c.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	case "":
		c.GinMode = gin.ReleaseMode
	default:
		return fmt.Errorf("invalid GIN_MODE %q", c.GinMode)
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	return nil
}

// Addr is the listen address
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Helper function to get environment variable with default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
