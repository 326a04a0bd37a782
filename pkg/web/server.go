// Package web serves the HTML interface: listing users, ingesting them,
// showing their tweets and comparing them against a hypothetical tweet.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/twitoff/pkg/db/models"
	"github.com/lisanmuaddib/twitoff/pkg/ingest"
	"github.com/lisanmuaddib/twitoff/pkg/metrics"
	"github.com/lisanmuaddib/twitoff/pkg/predict"
)

//go:embed templates/*.html
var templateFS embed.FS

// Store is the read and reset side of the tweet store
type Store interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	TweetsByUserName(ctx context.Context, name string) (*models.User, []models.Tweet, error)
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Ingestor adds users and refreshes the example set
type Ingestor interface {
	AddOrUpdateUser(ctx context.Context, username string) (*ingest.Result, error)
	UpdateExampleUsers(ctx context.Context) ([]ingest.Result, error)
}

// Predictor picks the likeliest author among the selected users
type Predictor interface {
	PredictUser(ctx context.Context, slots []string, text string) (*predict.Prediction, error)
}

type Server struct {
	config    *Config
	store     Store
	ingestor  Ingestor
	predictor Predictor
	router    *gin.Engine
	logger    *logrus.Logger
}

func NewServer(config *Config, store Store, ingestor Ingestor, predictor Predictor) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	gin.SetMode(config.GinMode)

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		config:    config,
		store:     store,
		ingestor:  ingestor,
		predictor: predictor,
		logger:    config.Logger,
	}

	router := gin.New()
	router.Use(RequestID(), RequestLogger(config.Logger), gin.Recovery())
	router.SetHTMLTemplate(tmpl)
	s.routes(router)
	s.router = router

	return s, nil
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/", s.handleIndex)
	r.POST("/user", s.handleAddUser)
	r.GET("/user/:name", s.handleUser)
	r.POST("/compare", s.handleCompare)
	r.GET("/update", s.handleUpdate)
	r.GET("/reset", s.handleReset)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

var templateFuncs = template.FuncMap{
	"percent": func(p float64) string {
		return fmt.Sprintf("%.1f%%", p*100)
	},
}
