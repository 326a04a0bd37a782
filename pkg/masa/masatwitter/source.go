package masatwitter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/twitoff/pkg/interfaces/twitter"
)

// Source adapts search results to the account and timeline lookups the
// ingestor needs. The search API only filters by handle, so handles seen
// by GetUserByUsername are remembered per account id.
type Source struct {
	client *Client
	logger *logrus.Logger

	mu      sync.RWMutex
	handles map[string]string
}

func NewSource(client *Client) *Source {
	return &Source{
		client:  client,
		logger:  client.logger,
		handles: make(map[string]string),
	}
}

// GetUserByUsername resolves a handle from its most recent tweet. An
// account without any searchable tweet is reported as not found.
func (s *Source) GetUserByUsername(ctx context.Context, username string) (*twitter.User, error) {
	tweets, err := s.client.Search(ctx, "from:"+username, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to search tweets of %s: %w", username, err)
	}

	for _, tw := range tweets {
		if tw.UserID == "" || !strings.EqualFold(tw.Username, username) {
			continue
		}

		s.mu.Lock()
		s.handles[tw.UserID] = tw.Username
		s.mu.Unlock()

		return &twitter.User{
			ID:       tw.UserID,
			Username: tw.Username,
			Name:     tw.Name,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", twitter.ErrUserNotFound, username)
}

// RecentOriginalTweets returns up to limit tweets of userID newer than
// sinceID, excluding replies and retweets, newest first
func (s *Source) RecentOriginalTweets(ctx context.Context, userID, sinceID string, limit int) ([]twitter.Tweet, error) {
	s.mu.RLock()
	handle, ok := s.handles[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown account id %s, resolve the username first", userID)
	}

	var since int64
	query := fmt.Sprintf("from:%s -filter:replies -filter:retweets", handle)
	if sinceID != "" {
		var err error
		if since, err = strconv.ParseInt(sinceID, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid since id %q: %w", sinceID, err)
		}
		query += " since_id:" + sinceID
	}

	results, err := s.client.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search tweets of %s: %w", handle, err)
	}

	type ranked struct {
		id    int64
		tweet twitter.Tweet
	}
	var kept []ranked
	seen := make(map[int64]struct{}, len(results))
	for _, tw := range results {
		if tw.IsReply || tw.IsRetweet || tw.UserID != userID {
			continue
		}
		id, err := strconv.ParseInt(tw.ID, 10, 64)
		if err != nil || id <= since {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		out := twitter.Tweet{
			ID:       tw.ID,
			Text:     tw.Text,
			AuthorID: tw.UserID,
		}
		if created := tw.CreatedAt(); !created.IsZero() {
			out.CreatedAt = created.Format(time.RFC3339)
		}
		kept = append(kept, ranked{id: id, tweet: out})
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].id > kept[j].id })
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}

	tweets := make([]twitter.Tweet, len(kept))
	for i, k := range kept {
		tweets[i] = k.tweet
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"username": handle,
		"since_id": sinceID,
		"fetched":  len(results),
		"kept":     len(tweets),
	}).Debug("Collected original tweets")

	return tweets, nil
}
