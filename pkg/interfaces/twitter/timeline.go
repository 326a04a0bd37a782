package twitter

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DefaultTimelineLimit is the number of tweets pulled per ingestion
const DefaultTimelineLimit = 200

// RecentOriginalTweets collects up to limit of the account's newest tweets
// that are neither replies nor retweets, newer than sinceID when given.
func (c *TwitterClient) RecentOriginalTweets(ctx context.Context, userID, sinceID string, limit int) ([]Tweet, error) {
	if limit <= 0 {
		limit = DefaultTimelineLimit
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dataChan, errChan := c.GetUserTweets(ctx, GetUserTweetsParams{
		UserID:     userID,
		SinceID:    sinceID,
		MaxResults: limit,
		MaxTotal:   limit,
		Exclude:    []string{"replies", "retweets"},
	})

	var tweets []Tweet
	for dataChan != nil || errChan != nil {
		select {
		case page, ok := <-dataChan:
			if !ok {
				dataChan = nil
				continue
			}
			tweets = append(tweets, page.Data...)
			if len(tweets) >= limit {
				tweets = tweets[:limit]
				c.logger.WithFields(logrus.Fields{
					"user_id": userID,
					"count":   len(tweets),
				}).Debug("Reached tweet limit")
				return tweets, nil
			}
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			return nil, err
		}
	}

	c.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"since_id": sinceID,
		"count":    len(tweets),
	}).Debug("Fetched recent original tweets")

	return tweets, nil
}
