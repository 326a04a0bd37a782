package masatwitter

import (
	"errors"
	"fmt"
	"time"
)

// StatusRateLimit is returned by the node when its worker pool is saturated
const StatusRateLimit = 429

// ErrRateLimited marks a search rejected for rate limiting
var ErrRateLimited = errors.New("masatwitter: rate limit exceeded")

// Tweet is one search result as returned by a Masa worker
type Tweet struct {
	ID        string `json:"ID"`
	Text      string `json:"Text"`
	UserID    string `json:"UserID"`
	Username  string `json:"Username"`
	Name      string `json:"Name"`
	Timestamp int64  `json:"Timestamp"`
	IsReply   bool   `json:"IsReply"`
	IsRetweet bool   `json:"IsRetweet"`
}

// CreatedAt converts the unix timestamp of the tweet
func (t Tweet) CreatedAt() time.Time {
	if t.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(t.Timestamp, 0).UTC()
}

// APIError is a non-200 answer from the node
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("masatwitter: status %d: %s", e.StatusCode, e.Message)
}

// ConnectionError wraps a transport failure reaching the node
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("masatwitter: connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
