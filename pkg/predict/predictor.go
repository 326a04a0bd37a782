// Package predict guesses which of a handful of stored users most likely
// wrote a piece of text, by fitting a fresh classifier over their tweet
// embeddings for every request.
package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/lisanmuaddib/twitoff/pkg/apperr"
	"github.com/lisanmuaddib/twitoff/pkg/db/models"
	"github.com/lisanmuaddib/twitoff/pkg/metrics"
)

// Store is what the predictor reads training data from
type Store interface {
	FindUserByName(ctx context.Context, name string) (*models.User, error)
	EmbeddingsForUser(ctx context.Context, userID int64) ([]models.Vector, error)
}

// Prediction is the outcome of one request
type Prediction struct {
	Username string
	Text     string
	// Candidates are the stored handles in class order
	Candidates    []string
	Probabilities map[string]float64
}

type Predictor struct {
	config   *Config
	store    Store
	embedder embeddings.Embedder
	logger   *logrus.Logger
}

func NewPredictor(config *Config, store Store, embedder embeddings.Embedder) (*Predictor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil || embedder == nil {
		return nil, fmt.Errorf("store and embedder are required")
	}

	return &Predictor{
		config:   config,
		store:    store,
		embedder: embedder,
		logger:   config.Logger,
	}, nil
}

// PredictUser validates the raw form input and runs a prediction
func (p *Predictor) PredictUser(ctx context.Context, slots []string, text string) (*Prediction, error) {
	sel, err := ParseSelection(slots, text)
	if err != nil {
		metrics.IncPrediction(apperr.CodeOf(err))
		return nil, err
	}
	return p.Predict(ctx, sel)
}

// Predict fits a classifier over the selected users' embeddings and returns
// the user whose class is most probable for the text
func (p *Predictor) Predict(ctx context.Context, sel Selection) (*Prediction, error) {
	start := time.Now()
	defer metrics.ObservePredictionDuration(start)

	// re-validate so callers building a Selection by hand get the same rules
	sel, err := ParseSelection(sel.Usernames, sel.Text)
	if err != nil {
		metrics.IncPrediction(apperr.CodeOf(err))
		return nil, err
	}

	prediction, err := p.predict(ctx, sel)
	if err != nil {
		metrics.IncPrediction(apperr.CodeOf(err))
		p.logger.WithError(err).WithField("users", sel.Usernames).Warn("Prediction failed")
		return nil, err
	}

	metrics.IncPrediction("ok")
	p.logger.WithFields(logrus.Fields{
		"users":     prediction.Candidates,
		"predicted": prediction.Username,
		"duration":  time.Since(start).String(),
	}).Info("Prediction completed")

	return prediction, nil
}

func (p *Predictor) predict(ctx context.Context, sel Selection) (*Prediction, error) {
	var (
		rows       [][]float64
		labels     []int
		candidates []string
		dim        = -1
	)

	for class, name := range sel.Usernames {
		user, err := p.store.FindUserByName(ctx, name)
		if err != nil {
			return nil, err
		}

		vectors, err := p.store.EmbeddingsForUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if len(vectors) == 0 {
			return nil, apperr.ForUser(apperr.CodeInsufficientSelection, user.Name,
				fmt.Sprintf("User %s has no stored tweets", user.Name), nil)
		}

		for _, v := range vectors {
			if dim == -1 {
				dim = len(v)
			}
			if len(v) != dim || dim == 0 {
				return nil, apperr.ForUser(apperr.CodeIncompatibleEmbeddings, user.Name,
					"Stored embeddings have different sizes; reset and re-ingest users", nil)
			}
			rows = append(rows, v.Float64s())
			labels = append(labels, class)
		}
		candidates = append(candidates, user.Name)
	}

	query, err := p.embedder.EmbedQuery(ctx, sel.Text)
	if err != nil {
		return nil, apperr.New(apperr.CodeUpstreamFailure, "Failed to embed text", err)
	}
	if len(query) != dim {
		return nil, apperr.New(apperr.CodeIncompatibleEmbeddings,
			fmt.Sprintf("Text embedding has %d dimensions but stored tweets have %d", len(query), dim), nil)
	}

	p.logger.WithFields(logrus.Fields{
		"users": candidates,
		"rows":  len(rows),
		"dim":   dim,
	}).Debug("Fitting classifier")

	model := NewLogisticRegression()
	model.C = p.config.C
	model.MaxIterations = p.config.MaxIterations

	if err := model.Fit(rows, labels, len(candidates)); err != nil {
		return nil, fmt.Errorf("failed to fit classifier: %w", err)
	}

	proba, err := model.PredictProba(models.Vector(query).Float64s())
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}

	prediction := &Prediction{
		Text:          sel.Text,
		Candidates:    candidates,
		Probabilities: make(map[string]float64, len(candidates)),
	}
	best := 0
	for class, name := range candidates {
		prediction.Probabilities[name] = proba[class]
		if proba[class] > proba[best] {
			best = class
		}
	}
	prediction.Username = candidates[best]

	return prediction, nil
}
