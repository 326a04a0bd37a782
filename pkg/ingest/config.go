package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/twitoff/pkg/interfaces/twitter"
)

// DefaultExampleUsers are re-ingested by UpdateExampleUsers
var DefaultExampleUsers = []string{"austen", "elonmusk", "KingJames", "kylegriffin1"}

// Tweet sources selectable with TWEET_SOURCE
const (
	SourceTwitter = "twitter"
	SourceMasa    = "masa"
)

type Config struct {
	// Source names the tweet backend the process wires in
	Source        string
	ExampleUsers  []string
	TimelineLimit int
	Logger        *logrus.Logger
}

func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Source:        strings.ToLower(strings.TrimSpace(os.Getenv("TWEET_SOURCE"))),
		ExampleUsers:  splitUsers(os.Getenv("TWITOFF_EXAMPLE_USERS")),
		TimelineLimit: twitter.DefaultTimelineLimit,
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
	switch c.Source {
	case SourceTwitter, SourceMasa:
	case "":
		c.Source = SourceTwitter
	default:
		return fmt.Errorf("unknown tweet source %q", c.Source)
	}
	if len(c.ExampleUsers) == 0 {
		c.ExampleUsers = append([]string(nil), DefaultExampleUsers...)
	}
	if c.TimelineLimit <= 0 {
		c.TimelineLimit = twitter.DefaultTimelineLimit
	}
	return nil
}

func splitUsers(raw string) []string {
	var users []string
	for _, u := range strings.Split(raw, ",") {
		if u = NormalizeUsername(u); u != "" {
			users = append(users, u)
		}
	}
	return users
}

// NormalizeUsername strips whitespace and a leading @ from a handle
func NormalizeUsername(username string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}
