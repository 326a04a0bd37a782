package twitter

import (
	"errors"
	"fmt"
)

// ErrUserNotFound is returned when a username does not resolve to an account
var ErrUserNotFound = errors.New("twitter user not found")

// Tweet represents a Twitter post with the v2 API fields we request
type Tweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	AuthorID  string `json:"author_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`

	// NoteTweet carries the untruncated text of long posts
	NoteTweet *struct {
		Text string `json:"text"`
	} `json:"note_tweet,omitempty"`

	ReferencedTweets []struct {
		Type string `json:"type"` // "retweeted" or "quoted" or "replied_to"
		ID   string `json:"id"`
	} `json:"referenced_tweets,omitempty"`
}

// FullText returns the long-form text when present, else the regular text
func (t Tweet) FullText() string {
	if t.NoteTweet != nil && t.NoteTweet.Text != "" {
		return t.NoteTweet.Text
	}
	return t.Text
}

// TweetResponse represents the Twitter API response format
type TweetResponse struct {
	Data   []Tweet        `json:"data"`
	Errors []TwitterError `json:"errors,omitempty"`
	Meta   *Meta          `json:"meta,omitempty"`
}

// User represents a Twitter user object
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	CreatedAt   string `json:"created_at,omitempty"`
	Description string `json:"description,omitempty"`
	Protected   bool   `json:"protected,omitempty"`
}

// UserResponse wraps a single user lookup
type UserResponse struct {
	Data   *User          `json:"data,omitempty"`
	Errors []TwitterError `json:"errors,omitempty"`
}

// Meta holds the pagination details of a list response
type Meta struct {
	ResultCount int    `json:"result_count,omitempty"`
	NextToken   string `json:"next_token,omitempty"`
	NewestID    string `json:"newest_id,omitempty"`
	OldestID    string `json:"oldest_id,omitempty"`
}

// TwitterError represents a partial error entry returned by the Twitter API
type TwitterError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Title   string `json:"title,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Type    string `json:"type,omitempty"`
	Value   string `json:"value,omitempty"`
}

func (e *TwitterError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("Twitter API error: %s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("Twitter API error %d: %s", e.Code, e.Message)
}

// APIError is a non-2xx response from the Twitter API
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
	Type       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitter api error: status=%d title=%q detail=%q", e.StatusCode, e.Title, e.Detail)
}
