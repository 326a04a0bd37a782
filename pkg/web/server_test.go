package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/twitoff/pkg/apperr"
	"github.com/lisanmuaddib/twitoff/pkg/db"
	"github.com/lisanmuaddib/twitoff/pkg/db/models"
	"github.com/lisanmuaddib/twitoff/pkg/ingest"
	"github.com/lisanmuaddib/twitoff/pkg/memory"
	"github.com/lisanmuaddib/twitoff/pkg/predict"
	"github.com/lisanmuaddib/twitoff/pkg/web"
)

// fakeIngestor writes straight into the store
type fakeIngestor struct {
	store   *memory.TweetStore
	err     error
	results []ingest.Result
}

func (f *fakeIngestor) AddOrUpdateUser(ctx context.Context, username string) (*ingest.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	newest := int64(11)
	user := &models.User{ID: 7, Name: username, NewestTweetID: &newest}
	tweets := []models.Tweet{
		{ID: 10, Text: "first tweet", Embedding: models.Vector{1, 0}},
		{ID: 11, Text: "second tweet", Embedding: models.Vector{0, 1}},
	}
	if err := f.store.SaveIngestion(ctx, user, tweets); err != nil {
		return nil, err
	}
	return &ingest.Result{User: user, Added: len(tweets)}, nil
}

func (f *fakeIngestor) UpdateExampleUsers(context.Context) ([]ingest.Result, error) {
	return f.results, f.err
}

type fakePredictor struct {
	prediction *predict.Prediction
	err        error
	slots      []string
}

func (f *fakePredictor) PredictUser(_ context.Context, slots []string, text string) (*predict.Prediction, error) {
	f.slots = slots
	if f.err != nil {
		return nil, f.err
	}
	if _, err := predict.ParseSelection(slots, text); err != nil {
		return nil, err
	}
	return f.prediction, nil
}

var _ = Describe("Server", func() {
	var (
		ctx       context.Context
		testDB    *gorm.DB
		store     *memory.TweetStore
		ingestor  *fakeIngestor
		predictor *fakePredictor
		handler   http.Handler
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := logrus.New()
		logger.SetOutput(io.Discard)

		var err error
		testDB, err = db.OpenInMemory(logger)
		Expect(err).NotTo(HaveOccurred())
		store = memory.NewTweetStore(logger, testDB)

		ingestor = &fakeIngestor{store: store}
		predictor = &fakePredictor{}

		server, err := web.NewServer(&web.Config{GinMode: gin.TestMode, Logger: logger}, store, ingestor, predictor)
		Expect(err).NotTo(HaveOccurred())
		handler = server.Handler()
	})

	AfterEach(func() {
		Expect(db.Close(testDB)).To(Succeed())
	})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		handler.ServeHTTP(rec, req)
		return rec
	}

	post := func(path string, form url.Values) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		handler.ServeHTTP(rec, req)
		return rec
	}

	seed := func(id int64, name string) {
		user := &models.User{ID: id, Name: name}
		Expect(store.SaveIngestion(ctx, user, []models.Tweet{
			{ID: id * 100, Text: name + " says hi", Embedding: models.Vector{1, 1}},
		})).To(Succeed())
	}

	Describe("GET /", func() {
		It("should list stored users with four compare slots", func() {
			seed(1, "elonmusk")
			seed(2, "austen")

			rec := get("/")
			Expect(rec.Code).To(Equal(http.StatusOK))
			body := rec.Body.String()
			Expect(body).To(ContainSubstring("TwitOff - Home"))
			Expect(body).To(ContainSubstring(`href="/user/austen"`))
			Expect(strings.Index(body, "/user/austen")).To(BeNumerically("<", strings.Index(body, "/user/elonmusk")))
			for _, slot := range []string{"user1", "user2", "user3", "user4"} {
				Expect(body).To(ContainSubstring(`name="` + slot + `"`))
			}
			Expect(body).To(ContainSubstring(`name="tweet_text"`))
		})

		It("should set a request id", func() {
			rec := get("/")
			Expect(rec.Header().Get("X-Request-ID")).NotTo(BeEmpty())
		})

		It("should keep the caller's request id", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", "abc-123")
			handler.ServeHTTP(rec, req)
			Expect(rec.Header().Get("X-Request-ID")).To(Equal("abc-123"))
		})
	})

	Describe("POST /user", func() {
		It("should add the user and show its tweets", func() {
			rec := post("/user", url.Values{"user_name": {"nasa"}})
			Expect(rec.Code).To(Equal(http.StatusOK))
			body := rec.Body.String()
			Expect(body).To(ContainSubstring("User nasa successfully added!"))
			Expect(body).To(ContainSubstring("second tweet"))
			Expect(body).To(ContainSubstring("2 stored tweets, 2 new"))
		})

		It("should report unknown accounts", func() {
			ingestor.err = apperr.ForUser(apperr.CodeUnknownAccount, "ghost", "Unknown Twitter account", errors.New("not found"))

			rec := post("/user", url.Values{"user_name": {"ghost"}})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(rec.Body.String()).To(ContainSubstring("Error adding ghost: Unknown Twitter account"))
		})

		It("should report upstream failures as bad gateway", func() {
			ingestor.err = apperr.ForUser(apperr.CodeUpstreamFailure, "nasa", "Failed to fetch tweets", errors.New("timeout"))

			rec := post("/user", url.Values{"user_name": {"nasa"}})
			Expect(rec.Code).To(Equal(http.StatusBadGateway))
			Expect(rec.Body.String()).To(ContainSubstring("Failed to fetch tweets: timeout"))
		})

		It("should reject blank names", func() {
			ingestor.err = apperr.New(apperr.CodeEmptyInput, "Please enter a username", nil)

			rec := post("/user", url.Values{"user_name": {"  "}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("Please enter a username"))
		})
	})

	Describe("GET /user/:name", func() {
		It("should show a stored user regardless of case", func() {
			seed(1, "elonmusk")

			rec := get("/user/ElonMusk")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("elonmusk says hi"))
		})

		It("should return not found for unknown users", func() {
			rec := get("/user/nobody")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(rec.Body.String()).To(ContainSubstring("User not found"))
		})
	})

	Describe("POST /compare", func() {
		It("should render the predicted user and the breakdown", func() {
			predictor.prediction = &predict.Prediction{
				Username:      "elonmusk",
				Text:          "to the moon",
				Candidates:    []string{"austen", "elonmusk"},
				Probabilities: map[string]float64{"austen": 0.25, "elonmusk": 0.75},
			}

			rec := post("/compare", url.Values{
				"user1":      {"elonmusk"},
				"user2":      {"austen"},
				"tweet_text": {"to the moon"},
			})
			Expect(rec.Code).To(Equal(http.StatusOK))
			body := rec.Body.String()
			Expect(body).To(ContainSubstring("is more likely to be said by elonmusk"))
			Expect(body).To(ContainSubstring("75.0%"))
			Expect(body).To(ContainSubstring("25.0%"))
			Expect(strings.Index(body, "75.0%")).To(BeNumerically("<", strings.Index(body, "25.0%")))
			Expect(predictor.slots).To(Equal([]string{"elonmusk", "austen", "", ""}))
		})

		It("should reject a single user", func() {
			rec := post("/compare", url.Values{
				"user1":      {"elonmusk"},
				"user2":      {"elonmusk"},
				"tweet_text": {"hello"},
			})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("Please select two or more different users"))
		})

		It("should reject empty text", func() {
			rec := post("/compare", url.Values{
				"user1": {"elonmusk"},
				"user2": {"austen"},
			})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("Please enter a hypothetical tweet"))
		})
	})

	Describe("GET /update", func() {
		It("should summarise updated users and failures", func() {
			ingestor.results = []ingest.Result{{User: &models.User{Name: "elonmusk"}, Added: 3}}
			ingestor.err = errors.Join(apperr.ForUser(apperr.CodeUnknownAccount, "ghost", "Unknown Twitter account", nil))

			rec := get("/update")
			Expect(rec.Code).To(Equal(http.StatusOK))
			body := rec.Body.String()
			Expect(body).To(ContainSubstring("Users updated!"))
			Expect(body).To(ContainSubstring("Updated elonmusk (+3)"))
			Expect(body).To(ContainSubstring("ghost: Unknown Twitter account"))
		})

		It("should fail when no user could be updated", func() {
			ingestor.err = apperr.ForUser(apperr.CodeUpstreamFailure, "elonmusk", "Failed to fetch tweets", errors.New("rate limited"))

			rec := get("/update")
			Expect(rec.Code).To(Equal(http.StatusBadGateway))
			Expect(rec.Body.String()).To(ContainSubstring("No users updated"))
		})
	})

	Describe("GET /reset", func() {
		It("should drop every stored user", func() {
			seed(1, "elonmusk")

			rec := get("/reset")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("Reset database!"))

			users, err := store.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(BeEmpty())
		})
	})

	Describe("GET /health", func() {
		It("should report a healthy database", func() {
			rec := get("/health")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var body map[string]string
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("status", "ok"))
		})
	})

	Describe("GET /metrics", func() {
		It("should expose prometheus metrics", func() {
			rec := get("/metrics")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("twitoff_"))
		})
	})

	Describe("Config", func() {
		It("should reject an unknown gin mode", func() {
			config := &web.Config{GinMode: "chaos", Logger: logrus.New()}
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should listen on port 5000 by default", func() {
			config := &web.Config{Logger: logrus.New()}
			Expect(config.Validate()).To(Succeed())
			Expect(config.Addr()).To(Equal(":5000"))
		})
	})
})
