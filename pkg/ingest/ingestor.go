// Package ingest pulls an account's recent original tweets, embeds the ones
// not stored yet and saves them together with the account in one commit.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/lisanmuaddib/twitoff/pkg/apperr"
	"github.com/lisanmuaddib/twitoff/pkg/db/models"
	"github.com/lisanmuaddib/twitoff/pkg/interfaces/twitter"
	"github.com/lisanmuaddib/twitoff/pkg/metrics"
)

// TweetSource resolves accounts and lists their recent original tweets
type TweetSource interface {
	GetUserByUsername(ctx context.Context, username string) (*twitter.User, error)
	RecentOriginalTweets(ctx context.Context, userID, sinceID string, limit int) ([]twitter.Tweet, error)
}

// Store is the persistence the ingestor writes through
type Store interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	KnownTweetIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)
	SaveIngestion(ctx context.Context, user *models.User, tweets []models.Tweet) error
}

// Result reports one successful ingestion
type Result struct {
	User  *models.User
	Added int
}

type Ingestor struct {
	config   *Config
	source   TweetSource
	store    Store
	embedder embeddings.Embedder
	logger   *logrus.Logger
}

func NewIngestor(config *Config, source TweetSource, store Store, embedder embeddings.Embedder) (*Ingestor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil || store == nil || embedder == nil {
		return nil, fmt.Errorf("tweet source, store and embedder are required")
	}

	return &Ingestor{
		config:   config,
		source:   source,
		store:    store,
		embedder: embedder,
		logger:   config.Logger,
	}, nil
}

// AddOrUpdateUser ingests the newest original tweets of username. On any
// failure nothing is written and the error carries the username.
func (i *Ingestor) AddOrUpdateUser(ctx context.Context, username string) (*Result, error) {
	start := time.Now()
	metrics.IngestRuns.Inc()
	defer metrics.ObserveIngestDuration(start)

	name := NormalizeUsername(username)
	if name == "" {
		err := apperr.New(apperr.CodeEmptyInput, "Please enter a username", nil)
		metrics.IncIngestError(apperr.CodeEmptyInput)
		return nil, err
	}

	log := i.logger.WithFields(logrus.Fields{
		"method":   "AddOrUpdateUser",
		"username": name,
	})
	log.Debug("Starting ingestion")

	result, err := i.ingest(ctx, name, log)
	if err != nil {
		metrics.IncIngestError(apperr.CodeOf(err))
		log.WithError(err).Error("Ingestion failed")
		return nil, err
	}

	metrics.IngestTweets.Add(float64(result.Added))
	log.WithFields(logrus.Fields{
		"user_id":  result.User.ID,
		"added":    result.Added,
		"duration": time.Since(start).String(),
	}).Info("Ingestion completed")

	return result, nil
}

func (i *Ingestor) ingest(ctx context.Context, name string, log *logrus.Entry) (*Result, error) {
	account, err := i.source.GetUserByUsername(ctx, name)
	if err != nil {
		if errors.Is(err, twitter.ErrUserNotFound) {
			return nil, apperr.ForUser(apperr.CodeUnknownAccount, name, "Unknown Twitter account", err)
		}
		return nil, apperr.ForUser(apperr.CodeUpstreamFailure, name, "Failed to look up account", err)
	}

	userID, err := strconv.ParseInt(account.ID, 10, 64)
	if err != nil {
		return nil, apperr.ForUser(apperr.CodeUpstreamFailure, name, "Invalid account id", err)
	}

	user, err := i.store.GetUser(ctx, userID)
	switch {
	case apperr.Is(err, apperr.CodeNotFound):
		user = &models.User{ID: userID}
		log.WithField("user_id", userID).Debug("Creating new user")
	case err != nil:
		return nil, apperr.ForUser(apperr.CodeStorageFailure, name, "Failed to load user", err)
	}

	user.Name = account.Username
	if user.Name == "" {
		user.Name = name
	}

	var sinceID string
	if user.NewestTweetID != nil {
		sinceID = strconv.FormatInt(*user.NewestTweetID, 10)
	}

	fetched, err := i.source.RecentOriginalTweets(ctx, account.ID, sinceID, i.config.TimelineLimit)
	if err != nil {
		return nil, apperr.ForUser(apperr.CodeUpstreamFailure, name, "Failed to fetch tweets", err)
	}

	log.WithFields(logrus.Fields{
		"user_id":  userID,
		"since_id": sinceID,
		"fetched":  len(fetched),
	}).Debug("Fetched tweets")

	ids := make([]int64, 0, len(fetched))
	parsed := make([]twitter.Tweet, 0, len(fetched))
	for _, tw := range fetched {
		id, err := strconv.ParseInt(tw.ID, 10, 64)
		if err != nil {
			return nil, apperr.ForUser(apperr.CodeUpstreamFailure, name, "Invalid tweet id", err)
		}
		if user.NewestTweetID == nil || id > *user.NewestTweetID {
			newest := id
			user.NewestTweetID = &newest
		}
		ids = append(ids, id)
		parsed = append(parsed, tw)
	}

	known, err := i.store.KnownTweetIDs(ctx, ids)
	if err != nil {
		return nil, apperr.ForUser(apperr.CodeStorageFailure, name, "Failed to check stored tweets", err)
	}

	var (
		fresh []twitter.Tweet
		texts []string
	)
	for idx, tw := range parsed {
		if _, ok := known[ids[idx]]; ok {
			continue
		}
		known[ids[idx]] = struct{}{}
		fresh = append(fresh, tw)
		texts = append(texts, tw.FullText())
	}

	records := make([]models.Tweet, 0, len(fresh))
	if len(fresh) > 0 {
		vectors, err := i.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, apperr.ForUser(apperr.CodeUpstreamFailure, name, "Failed to embed tweets", err)
		}
		if len(vectors) != len(fresh) {
			return nil, apperr.ForUser(apperr.CodeUpstreamFailure, name, "Failed to embed tweets",
				fmt.Errorf("got %d embeddings for %d tweets", len(vectors), len(fresh)))
		}

		for idx, tw := range fresh {
			id, _ := strconv.ParseInt(tw.ID, 10, 64)
			record := models.Tweet{
				ID:        id,
				Text:      models.TruncateText(texts[idx]),
				Embedding: models.Vector(vectors[idx]),
				UserID:    userID,
			}
			if created, err := time.Parse(time.RFC3339, tw.CreatedAt); err == nil {
				record.CreatedAt = created.UTC()
			}
			records = append(records, record)
		}
	}

	if err := i.store.SaveIngestion(ctx, user, records); err != nil {
		if apperr.CodeOf(err) != "" {
			return nil, err
		}
		return nil, apperr.ForUser(apperr.CodeStorageFailure, name, "Failed to save tweets", err)
	}

	return &Result{User: user, Added: len(records)}, nil
}

// UpdateExampleUsers re-ingests every configured example user. Each user is
// committed on its own; the failures are returned joined.
func (i *Ingestor) UpdateExampleUsers(ctx context.Context) ([]Result, error) {
	var (
		results []Result
		errs    []error
	)

	for _, name := range i.config.ExampleUsers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		result, err := i.AddOrUpdateUser(ctx, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, *result)
	}

	i.logger.WithFields(logrus.Fields{
		"updated": len(results),
		"failed":  len(errs),
	}).Info("Example users updated")

	return results, errors.Join(errs...)
}

// ExampleUsers returns the configured example usernames
func (i *Ingestor) ExampleUsers() []string {
	return append([]string(nil), i.config.ExampleUsers...)
}
