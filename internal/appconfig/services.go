package appconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/twitoff/pkg/db"
	"github.com/lisanmuaddib/twitoff/pkg/embedder"
	"github.com/lisanmuaddib/twitoff/pkg/ingest"
	"github.com/lisanmuaddib/twitoff/pkg/interfaces/twitter"
	"github.com/lisanmuaddib/twitoff/pkg/masa/masatwitter"
	"github.com/lisanmuaddib/twitoff/pkg/memory"
	"github.com/lisanmuaddib/twitoff/pkg/predict"
	"github.com/lisanmuaddib/twitoff/pkg/web"
)

// Services holds every long-lived component of the process
type Services struct {
	DB        *gorm.DB
	Store     *memory.TweetStore
	Source    ingest.TweetSource
	Embedder  *embedder.Embedder
	Ingestor  *ingest.Ingestor
	Predictor *predict.Predictor
	Server    *web.Server
}

// ConfigureServices reads every component's configuration from the
// environment and wires the components together
func ConfigureServices(ctx context.Context, logger *logrus.Logger) (*Services, error) {
	dbConfig, err := db.NewDBConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create database config: %w", err)
	}
	dbConfig.Logger = logger

	database, err := db.SetupDatabase(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	services := &Services{
		DB:    database,
		Store: memory.NewTweetStore(logger, database),
	}

	if err := services.configureClients(ctx, logger); err != nil {
		_ = services.Close()
		return nil, err
	}

	return services, nil
}

func (s *Services) configureClients(ctx context.Context, logger *logrus.Logger) error {
	ingestConfig, err := ingest.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to create ingest config: %w", err)
	}
	ingestConfig.Logger = logger

	s.Source, err = newTweetSource(ingestConfig.Source, logger)
	if err != nil {
		return err
	}

	embedderConfig, err := embedder.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to create embedder config: %w", err)
	}
	embedderConfig.Logger = logger

	s.Embedder, err = embedder.New(ctx, embedderConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	s.Ingestor, err = ingest.NewIngestor(ingestConfig, s.Source, s.Store, s.Embedder)
	if err != nil {
		return fmt.Errorf("failed to create ingestor: %w", err)
	}

	predictConfig, err := predict.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to create predict config: %w", err)
	}
	predictConfig.Logger = logger

	s.Predictor, err = predict.NewPredictor(predictConfig, s.Store, s.Embedder)
	if err != nil {
		return fmt.Errorf("failed to create predictor: %w", err)
	}

	webConfig, err := web.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to create web config: %w", err)
	}
	webConfig.Logger = logger

	s.Server, err = web.NewServer(webConfig, s.Store, s.Ingestor, s.Predictor)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	return nil
}

// newTweetSource builds the tweet backend named by TWEET_SOURCE
func newTweetSource(name string, logger *logrus.Logger) (ingest.TweetSource, error) {
	switch name {
	case ingest.SourceMasa:
		masaConfig, err := masatwitter.NewConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create Masa config: %w", err)
		}
		masaConfig.Logger = logger

		client, err := masatwitter.NewClient(masaConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create Masa client: %w", err)
		}
		return masatwitter.NewSource(client), nil
	default:
		twitterConfig, err := twitter.NewTwitterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create Twitter config: %w", err)
		}
		// Override logger to use our main logger
		twitterConfig.Logger = logger

		client, err := twitter.NewTwitterClient(twitterConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create Twitter client: %w", err)
		}
		return client, nil
	}
}

// Close releases the embedder and the database pool
func (s *Services) Close() error {
	var errs []error
	if s.Embedder != nil {
		errs = append(errs, s.Embedder.Close())
	}
	if s.DB != nil {
		errs = append(errs, db.Close(s.DB))
	}
	return errors.Join(errs...)
}
