package masatwitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Client searches tweets through a Masa node
type Client struct {
	config *Config
	client *http.Client
	logger *logrus.Logger
}

// SearchRequest is the body of a search call
type SearchRequest struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.RequestTimeout,
		},
		logger: config.Logger,
	}, nil
}

// Search runs query and returns at most count tweets. A count of zero
// uses the configured default.
func (c *Client) Search(ctx context.Context, query string, count int) ([]Tweet, error) {
	if count <= 0 {
		count = c.config.TweetsPerRequest
	}

	log := c.logger.WithFields(logrus.Fields{
		"method": "Search",
		"query":  query,
		"count":  count,
	})

	body, err := json.Marshal(SearchRequest{Query: query, Count: count})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Debug("Sending search request")

	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Error("Search request failed")
		return nil, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if resp.StatusCode == StatusRateLimit {
			log.Warn("Rate limit exceeded")
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, bytes.TrimSpace(msg))
		}
		log.WithField("status_code", resp.StatusCode).Error("Unexpected status code")
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(msg)),
		}
	}

	var response struct {
		Data []struct {
			Tweet Tweet `json:"Tweet"`
		} `json:"data"`
		WorkerPeerID string `json:"workerPeerId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	tweets := make([]Tweet, len(response.Data))
	for i, item := range response.Data {
		tweets[i] = item.Tweet
	}

	log.WithFields(logrus.Fields{
		"tweets": len(tweets),
		"worker": response.WorkerPeerID,
	}).Debug("Search completed")

	return tweets, nil
}
