package predict

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Inverse regularization strength
	C             float64
	MaxIterations int
	Logger        *logrus.Logger
}

func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	c, err := strconv.ParseFloat(getEnvOrDefault("PREDICT_C", "1.0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PREDICT_C: %w", err)
	}
	maxIterations, err := strconv.Atoi(getEnvOrDefault("PREDICT_MAX_ITERATIONS", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid PREDICT_MAX_ITERATIONS: %w", err)
	}

	config := &Config{
		C:             c,
		MaxIterations: maxIterations,
		Logger:        logrus.StandardLogger(),
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
	if c.C < 0 {
		return fmt.Errorf("PREDICT_C must be positive")
	}
	if c.C == 0 {
		c.C = 1.0
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 100
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
