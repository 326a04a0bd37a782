package twitter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// GetUserByUsername resolves a handle to its account
// Rate limit: 300/15m (app), 900/15m (user)
func (c *TwitterClient) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")

	log := c.logger.WithFields(logrus.Fields{
		"method":   "GetUserByUsername",
		"username": username,
	})

	endpoint := fmt.Sprintf("%s/by/username/%s", c.config.UserEndpoint, url.PathEscape(username))
	query := url.Values{}
	query.Set("user.fields", "created_at,description,protected")

	var resp UserResponse
	if err := c.getJSON(ctx, endpoint, query, &resp); err != nil {
		log.WithError(err).Error("Failed to look up user")
		return nil, err
	}

	// unknown handles come back as 200 with only an errors array
	if resp.Data == nil {
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, resp.Errors[0].Error())
		}
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	log.WithField("user_id", resp.Data.ID).Debug("Resolved user")
	return resp.Data, nil
}
