package db

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Dialect identifies the SQL engine behind a connection string
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type DBConfig struct {
	// Connection
	URL     string
	Dialect Dialect

	// Schema management
	RunMigrations bool

	// Pool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Queries slower than this are logged at warn level
	SlowThreshold time.Duration

	Logger *logrus.Logger
}

// NewDBConfig builds the database configuration from the environment.
// DATABASE_URL wins; otherwise the URL is assembled from the DB_* parts.
func NewDBConfig() (*DBConfig, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	url := os.Getenv("DATABASE_URL")
	if url == "" && os.Getenv("DB_HOST") != "" {
		url = constructDBURL()
	}

	runMigrations, _ := strconv.ParseBool(getEnvOrDefault("DB_RUN_MIGRATIONS", "true"))
	maxOpen, _ := strconv.Atoi(getEnvOrDefault("DB_MAX_OPEN_CONNS", "25"))
	maxIdle, _ := strconv.Atoi(getEnvOrDefault("DB_MAX_IDLE_CONNS", "10"))

	config := &DBConfig{
		URL:             url,
		RunMigrations:   runMigrations,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: time.Hour,
		SlowThreshold:   200 * time.Millisecond,
		Logger:          logrus.StandardLogger(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *DBConfig) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.URL == "" {
		return fmt.Errorf("either DATABASE_URL or DB_HOST must be provided")
	}
	if c.Dialect == "" {
		c.Dialect = detectDialect(c.URL)
	}
	if c.Dialect == DialectSQLite {
		// a single connection keeps in-memory databases alive and serializes writers
		c.MaxOpenConns = 1
		c.MaxIdleConns = 1
		c.RunMigrations = false
	}
	if c.MaxOpenConns < 1 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns < 0 {
		c.MaxIdleConns = 0
	}
	if c.SlowThreshold == 0 {
		c.SlowThreshold = 200 * time.Millisecond
	}
	return nil
}

// DSN returns the connection string in the form the dialect's driver expects
func (c *DBConfig) DSN() string {
	if c.Dialect == DialectSQLite {
		return strings.TrimPrefix(c.URL, "sqlite://")
	}
	return c.URL
}

// detectDialect guesses the engine from the connection string
func detectDialect(url string) Dialect {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"),
		strings.Contains(url, "host="):
		return DialectPostgres
	default:
		return DialectSQLite
	}
}

// constructDBURL creates the database URL from environment variables
func constructDBURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		getEnvOrDefault("DB_PORT", "5432"),
		os.Getenv("DB_NAME"),
		getEnvOrDefault("DB_SSLMODE", "disable"),
	)
}

// Helper function to get environment variable with default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
