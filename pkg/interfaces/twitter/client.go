package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ClientOption allows for customization of the client
type ClientOption func(*TwitterClient)

// WithHTTPClient replaces the authenticated HTTP client, mostly for tests
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *TwitterClient) {
		c.auth.client = httpClient
	}
}

// WithLimiter replaces the request rate limiter
func WithLimiter(limiter *rate.Limiter) ClientOption {
	return func(c *TwitterClient) {
		c.limiter = limiter
	}
}

type TwitterClient struct {
	config  *TwitterConfig
	auth    *Authenticator
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewTwitterClient creates a new Twitter API client
func NewTwitterClient(config *TwitterConfig, opts ...ClientOption) (*TwitterClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	auth, err := NewAuthenticator(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	client := &TwitterClient{
		config:  config,
		auth:    auth,
		limiter: rate.NewLimiter(rate.Every(config.rateInterval()), config.RateLimit),
		logger:  config.Logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// handleResponse checks for API errors in the response
func (c *TwitterClient) handleResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	// v2 problem details and the older errors array both show up
	var errResp struct {
		Title  string         `json:"title"`
		Detail string         `json:"detail"`
		Type   string         `json:"type"`
		Errors []TwitterError `json:"errors"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		apiErr.Detail = string(body)
		return apiErr
	}

	apiErr.Title = errResp.Title
	apiErr.Detail = errResp.Detail
	apiErr.Type = errResp.Type
	if len(errResp.Errors) > 0 {
		first := errResp.Errors[0]
		if apiErr.Title == "" {
			apiErr.Title = first.Title
		}
		if apiErr.Detail == "" {
			apiErr.Detail = first.Message + first.Detail
		}
	}

	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"title":       apiErr.Title,
		"detail":      apiErr.Detail,
	}).Error("Twitter API error")

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrUserNotFound, apiErr)
	}
	return apiErr
}

// getJSON performs a rate limited GET and decodes the body into out
func (c *TwitterClient) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	fullURL := c.config.GetEndpoint(endpoint)
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	c.auth.SetAuthHeader(req)

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"query":    query.Encode(),
	}).Debug("Sending Twitter API request")

	resp, err := c.auth.GetClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.handleResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
