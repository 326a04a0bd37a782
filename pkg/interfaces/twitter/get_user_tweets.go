package twitter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	minPageSize = 5
	maxPageSize = 100
)

// GetUserTweetsParams holds the parameters for the GetUserTweets request
type GetUserTweetsParams struct {
	UserID          string
	SinceID         string
	PaginationToken string
	MaxResults      int      // per page
	MaxTotal        int      // stop paginating after this many tweets, 0 for all
	Exclude         []string // "replies", "retweets"
}

func (p GetUserTweetsParams) query(fields []string) url.Values {
	q := url.Values{}
	q.Set("tweet.fields", strings.Join(fields, ","))

	size := p.MaxResults
	if size < minPageSize {
		size = minPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	q.Set("max_results", strconv.Itoa(size))

	if p.SinceID != "" {
		q.Set("since_id", p.SinceID)
	}
	if p.PaginationToken != "" {
		q.Set("pagination_token", p.PaginationToken)
	}
	if len(p.Exclude) > 0 {
		q.Set("exclude", strings.Join(p.Exclude, ","))
	}
	return q
}

// GetUserTweets retrieves tweets posted by a specific user, newest first,
// one page per value on the data channel.
// Rate limit: 1500/15m (app), 900/15m (user)
func (c *TwitterClient) GetUserTweets(ctx context.Context, params GetUserTweetsParams) (chan *TweetResponse, chan error) {
	dataChan := make(chan *TweetResponse)
	errChan := make(chan error, 1)

	go func() {
		defer close(dataChan)
		defer close(errChan)

		log := c.logger.WithFields(logrus.Fields{
			"method":  "GetUserTweets",
			"user_id": params.UserID,
		})

		endpoint := fmt.Sprintf("%s/%s/tweets", c.config.UserEndpoint, url.PathEscape(params.UserID))
		pageSize := params.MaxResults
		received := 0

		for {
			if params.MaxTotal > 0 {
				remaining := params.MaxTotal - received
				if pageSize <= 0 || remaining < pageSize {
					params.MaxResults = remaining
				}
			}
			query := params.query(c.config.DefaultFields)

			log.WithFields(logrus.Fields{
				"endpoint": endpoint,
				"params":   query.Encode(),
			}).Debug("Fetching user tweets")

			var tweetResp TweetResponse
			if err := c.getJSON(ctx, endpoint, query, &tweetResp); err != nil {
				log.WithError(err).Error("Failed to fetch user tweets")
				errChan <- fmt.Errorf("failed to fetch user tweets: %w", err)
				return
			}

			// Send the page unless the consumer has gone away
			select {
			case dataChan <- &tweetResp:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
			received += len(tweetResp.Data)

			if params.MaxTotal > 0 && received >= params.MaxTotal {
				log.WithField("received", received).Debug("Reached requested tweet count")
				return
			}

			// Check if we have more pages
			if tweetResp.Meta == nil || tweetResp.Meta.NextToken == "" {
				log.Debug("No more pages to fetch")
				return
			}

			// Update pagination token for next request
			params.PaginationToken = tweetResp.Meta.NextToken
			log.WithField("next_token", params.PaginationToken).Debug("Fetching next page")
		}
	}()

	return dataChan, errChan
}
