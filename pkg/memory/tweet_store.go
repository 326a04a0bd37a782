package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lisanmuaddib/twitoff/pkg/apperr"
	"github.com/lisanmuaddib/twitoff/pkg/db"
	"github.com/lisanmuaddib/twitoff/pkg/db/models"
)

// insertBatchSize bounds the rows per INSERT statement
const insertBatchSize = 100

// TweetStore persists ingested users and their embedded tweets
type TweetStore struct {
	// reset drops tables, so it excludes every other operation
	mu     sync.RWMutex
	logger *logrus.Logger
	db     *gorm.DB
}

func NewTweetStore(logger *logrus.Logger, db *gorm.DB) *TweetStore {
	return &TweetStore{
		logger: logger,
		db:     db,
	}
}

// GetUser returns the user with the given account id
func (s *TweetStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("user %d not found", id), nil)
		}
		return nil, apperr.New(apperr.CodeStorageFailure, "failed to load user", err)
	}
	return &user, nil
}

// FindUserByName looks a user up by handle, ignoring case
func (s *TweetStore) FindUserByName(ctx context.Context, name string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findUserByName(ctx, name)
}

func (s *TweetStore) findUserByName(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)

	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		Order("updated_at DESC").
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ForUser(apperr.CodeNotFound, name, "User not found", nil)
		}
		return nil, apperr.ForUser(apperr.CodeStorageFailure, name, "failed to load user", err)
	}
	return &user, nil
}

// ListUsers returns every stored user ordered by handle
func (s *TweetStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []models.User
	if err := s.db.WithContext(ctx).Order("LOWER(name)").Find(&users).Error; err != nil {
		return nil, apperr.New(apperr.CodeStorageFailure, "failed to list users", err)
	}
	return users, nil
}

// TweetsForUser returns a user's tweets, newest first
func (s *TweetStore) TweetsForUser(ctx context.Context, userID int64) ([]models.Tweet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tweetsForUser(ctx, userID)
}

func (s *TweetStore) tweetsForUser(ctx context.Context, userID int64) ([]models.Tweet, error) {
	var tweets []models.Tweet
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&tweets).Error
	if err != nil {
		return nil, apperr.New(apperr.CodeStorageFailure, "failed to load tweets", err)
	}
	return tweets, nil
}

// TweetsByUserName resolves a handle and returns the user with its tweets
func (s *TweetStore) TweetsByUserName(ctx context.Context, name string) (*models.User, []models.Tweet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, err := s.findUserByName(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	tweets, err := s.tweetsForUser(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, tweets, nil
}

// KnownTweetIDs returns the subset of ids that are already stored
func (s *TweetStore) KnownTweetIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	known := make(map[int64]struct{}, len(ids))
	if len(ids) == 0 {
		return known, nil
	}

	var found []int64
	err := s.db.WithContext(ctx).
		Model(&models.Tweet{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, apperr.New(apperr.CodeStorageFailure, "failed to check stored tweets", err)
	}

	for _, id := range found {
		known[id] = struct{}{}
	}
	return known, nil
}

// EmbeddingsForUser returns the embedding of every tweet of a user
func (s *TweetStore) EmbeddingsForUser(ctx context.Context, userID int64) ([]models.Vector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tweets []models.Tweet
	err := s.db.WithContext(ctx).
		Select("id", "embedding").
		Where("user_id = ?", userID).
		Order("id").
		Find(&tweets).Error
	if err != nil {
		return nil, apperr.New(apperr.CodeStorageFailure, "failed to load embeddings", err)
	}

	vectors := make([]models.Vector, len(tweets))
	for i := range tweets {
		vectors[i] = tweets[i].Embedding
	}
	return vectors, nil
}

// SaveIngestion upserts the user and inserts its new tweets in one
// transaction. Tweets whose id already exists are skipped.
func (s *TweetStore) SaveIngestion(ctx context.Context, user *models.User, tweets []models.Tweet) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Name,
		"tweets":   len(tweets),
	})
	log.Debug("Saving ingestion batch")

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "newest_tweet_id", "updated_at"}),
			}).
			Create(user).Error
		if err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		if len(tweets) == 0 {
			return nil
		}

		for i := range tweets {
			tweets[i].UserID = user.ID
		}

		err = tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(tweets, insertBatchSize).Error
		if err != nil {
			return fmt.Errorf("failed to insert tweets: %w", err)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Ingestion batch rolled back")
		return apperr.ForUser(apperr.CodeStorageFailure, user.Name, "failed to save tweets", err)
	}

	log.Info("Ingestion batch committed")
	return nil
}

// CountTweets returns the number of stored tweets across all users
func (s *TweetStore) CountTweets(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Tweet{}).Count(&count).Error; err != nil {
		return 0, apperr.New(apperr.CodeStorageFailure, "failed to count tweets", err)
	}
	return count, nil
}

// CountTweetsForUser returns the number of stored tweets of one user
func (s *TweetStore) CountTweetsForUser(ctx context.Context, userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Tweet{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, apperr.New(apperr.CodeStorageFailure, "failed to count tweets", err)
	}
	return count, nil
}

// Reset drops and recreates the whole schema
func (s *TweetStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Warn("Resetting database schema")

	if err := db.ResetSchema(ctx, s.db); err != nil {
		return apperr.New(apperr.CodeStorageFailure, "failed to reset database", err)
	}

	s.logger.Info("Database schema recreated")
	return nil
}

// Ping checks the database connection
func (s *TweetStore) Ping(ctx context.Context) error {
	return db.Ping(ctx, s.db)
}
