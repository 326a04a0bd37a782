package web

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/twitoff/pkg/apperr"
	"github.com/lisanmuaddib/twitoff/pkg/db/models"
	"github.com/lisanmuaddib/twitoff/pkg/predict"
)

// candidate is one row of the prediction breakdown
type candidate struct {
	Name        string
	Probability float64
	Predicted   bool
}

// statusFor maps an error to the HTTP status of the page rendering it
func statusFor(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeEmptyInput, apperr.CodeInsufficientSelection, apperr.CodeIncompatibleEmbeddings:
		return http.StatusBadRequest
	case apperr.CodeNotFound, apperr.CodeUnknownAccount:
		return http.StatusNotFound
	case apperr.CodeUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// renderHome renders the user list with an optional status message
func (s *Server) renderHome(c *gin.Context, status int, title, message string) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		requestLog(s.logger, c).WithError(err).Error("Failed to list users")
		_ = c.Error(err)
		status = statusFor(err)
		message = strings.TrimSpace(message + " " + apperr.MessageOf(err))
	}

	c.HTML(status, "base.html", gin.H{
		"title":   title,
		"message": message,
		"users":   users,
		"slots":   []int{1, 2, 3, 4},
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderHome(c, http.StatusOK, "Home", "")
}

func (s *Server) handleAddUser(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("user_name"))
	log := requestLog(s.logger, c).WithField("username", name)

	result, err := s.ingestor.AddOrUpdateUser(c.Request.Context(), name)
	if err != nil {
		log.WithError(err).Warn("Failed to add user")
		_ = c.Error(err)
		c.HTML(statusFor(err), "user.html", gin.H{
			"title":   name,
			"message": fmt.Sprintf("Error adding %s: %s", name, apperr.MessageOf(err)),
		})
		return
	}

	user, tweets, err := s.store.TweetsByUserName(c.Request.Context(), result.User.Name)
	if err != nil {
		log.WithError(err).Error("Failed to load tweets after ingestion")
		_ = c.Error(err)
		c.HTML(statusFor(err), "user.html", gin.H{
			"title":   name,
			"message": apperr.MessageOf(err),
		})
		return
	}

	c.HTML(http.StatusOK, "user.html", gin.H{
		"title":   user.Name,
		"message": fmt.Sprintf("User %s successfully added!", user.Name),
		"added":   result.Added,
		"user":    user,
		"tweets":  tweets,
	})
}

func (s *Server) handleUser(c *gin.Context) {
	name := c.Param("name")

	user, tweets, err := s.store.TweetsByUserName(c.Request.Context(), name)
	if err != nil {
		requestLog(s.logger, c).WithError(err).WithField("username", name).Warn("Failed to load user")
		_ = c.Error(err)
		c.HTML(statusFor(err), "user.html", gin.H{
			"title":   name,
			"message": apperr.MessageOf(err),
		})
		return
	}

	c.HTML(http.StatusOK, "user.html", gin.H{
		"title":  user.Name,
		"user":   user,
		"tweets": tweets,
	})
}

func (s *Server) handleCompare(c *gin.Context) {
	slots := make([]string, 0, predict.MaxCandidates)
	for i := 1; i <= predict.MaxCandidates; i++ {
		slots = append(slots, c.PostForm(fmt.Sprintf("user%d", i)))
	}
	text := c.PostForm("tweet_text")

	prediction, err := s.predictor.PredictUser(c.Request.Context(), slots, text)
	if err != nil {
		requestLog(s.logger, c).WithError(err).Warn("Prediction failed")
		_ = c.Error(err)
		c.HTML(statusFor(err), "prediction.html", gin.H{
			"title":   "Prediction",
			"message": apperr.MessageOf(err),
		})
		return
	}

	candidates := make([]candidate, 0, len(prediction.Candidates))
	for _, name := range prediction.Candidates {
		candidates = append(candidates, candidate{
			Name:        name,
			Probability: prediction.Probabilities[name],
			Predicted:   name == prediction.Username,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Probability > candidates[j].Probability
	})

	c.HTML(http.StatusOK, "prediction.html", gin.H{
		"title":      "Prediction",
		"message":    fmt.Sprintf("\"%s\" is more likely to be said by %s", prediction.Text, prediction.Username),
		"prediction": prediction,
		"candidates": candidates,
	})
}

func (s *Server) handleUpdate(c *gin.Context) {
	results, err := s.ingestor.UpdateExampleUsers(c.Request.Context())

	updated := make([]string, 0, len(results))
	for _, r := range results {
		updated = append(updated, fmt.Sprintf("%s (+%d)", r.User.Name, r.Added))
	}

	status := http.StatusOK
	message := "Updated " + strings.Join(updated, ", ")
	if len(updated) == 0 {
		message = "No users updated"
	}

	if err != nil {
		requestLog(s.logger, c).WithError(err).WithFields(logrus.Fields{
			"updated": len(results),
		}).Warn("Some example users failed to update")
		_ = c.Error(err)
		if len(results) == 0 {
			status = statusFor(err)
		}
		message = fmt.Sprintf("%s. Errors: %s", message, strings.Join(failureMessages(err), "; "))
	}

	s.renderHome(c, status, "Users updated!", message)
}

// failureMessages lists one message per error joined into err
func failureMessages(err error) []string {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		var appErr *apperr.Error
		if errors.As(e, &appErr) && appErr.Username != "" {
			messages = append(messages, fmt.Sprintf("%s: %s", appErr.Username, apperr.MessageOf(e)))
			continue
		}
		messages = append(messages, apperr.MessageOf(e))
	}
	return messages
}

func (s *Server) handleReset(c *gin.Context) {
	if err := s.store.Reset(c.Request.Context()); err != nil {
		requestLog(s.logger, c).WithError(err).Error("Failed to reset database")
		_ = c.Error(err)
		c.HTML(statusFor(err), "base.html", gin.H{
			"title":   "Reset database!",
			"message": apperr.MessageOf(err),
			"slots":   []int{1, 2, 3, 4},
		})
		return
	}

	c.HTML(http.StatusOK, "base.html", gin.H{
		"title": "Reset database!",
		"users": []models.User{},
		"slots": []int{1, 2, 3, 4},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unavailable",
			"database": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "ok",
	})
}
