package memory_test

import (
	"context"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/twitoff/pkg/apperr"
	"github.com/lisanmuaddib/twitoff/pkg/db"
	"github.com/lisanmuaddib/twitoff/pkg/db/models"
	"github.com/lisanmuaddib/twitoff/pkg/memory"
)

func int64Ptr(v int64) *int64 { return &v }

var _ = Describe("TweetStore", func() {
	var (
		store  *memory.TweetStore
		testDB *gorm.DB
		ctx    context.Context
	)

	BeforeEach(func() {
		logger := logrus.New()
		logger.SetOutput(io.Discard)

		var err error
		testDB, err = db.OpenInMemory(logger)
		Expect(err).NotTo(HaveOccurred(), "Failed to setup database")

		store = memory.NewTweetStore(logger, testDB)
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(db.Close(testDB)).To(Succeed())
	})

	seed := func(id int64, name string, tweetIDs ...int64) {
		user := &models.User{ID: id, Name: name}
		var tweets []models.Tweet
		for _, tid := range tweetIDs {
			tweets = append(tweets, models.Tweet{ID: tid, Text: "tweet", Embedding: models.Vector{float32(tid), 1}})
			if user.NewestTweetID == nil || tid > *user.NewestTweetID {
				user.NewestTweetID = int64Ptr(tid)
			}
		}
		Expect(store.SaveIngestion(ctx, user, tweets)).To(Succeed())
	}

	Describe("SaveIngestion", func() {
		It("should store the user and its tweets", func() {
			seed(1, "nasa", 10, 11)

			user, err := store.GetUser(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Name).To(Equal("nasa"))
			Expect(*user.NewestTweetID).To(Equal(int64(11)))

			count, err := store.CountTweetsForUser(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
		})

		It("should update an existing user in place", func() {
			seed(1, "nasa", 10)
			seed(1, "NASA", 12)

			users, err := store.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users[0].Name).To(Equal("NASA"))
			Expect(*users[0].NewestTweetID).To(Equal(int64(12)))

			total, err := store.CountTweets(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))
		})

		It("should skip tweets that are already stored", func() {
			seed(1, "nasa", 10, 11)
			seed(1, "nasa", 11, 12)

			total, err := store.CountTweets(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(3)))
		})

		It("should roll back the user when a tweet cannot be stored", func() {
			user := &models.User{ID: 7, Name: "espn"}
			tweets := []models.Tweet{{ID: 70, Text: "ok", Embedding: nil}}

			err := store.SaveIngestion(ctx, user, tweets)
			Expect(err).To(HaveOccurred())
			Expect(apperr.Is(err, apperr.CodeStorageFailure)).To(BeTrue())

			_, err = store.GetUser(ctx, 7)
			Expect(apperr.Is(err, apperr.CodeNotFound)).To(BeTrue())
		})
	})

	Describe("lookups", func() {
		BeforeEach(func() {
			seed(1, "nasa", 10, 11)
			seed(2, "espn", 20)
		})

		It("should find users by name ignoring case", func() {
			user, err := store.FindUserByName(ctx, "NaSa")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(int64(1)))
		})

		It("should report unknown names as not found", func() {
			_, err := store.FindUserByName(ctx, "nobody")
			Expect(apperr.Is(err, apperr.CodeNotFound)).To(BeTrue())
		})

		It("should list users ordered by name", func() {
			users, err := store.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
			Expect(users[0].Name).To(Equal("espn"))
			Expect(users[1].Name).To(Equal("nasa"))
		})

		It("should return a user's tweets newest first", func() {
			user, tweets, err := store.TweetsByUserName(ctx, "nasa")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(int64(1)))
			Expect(tweets).To(HaveLen(2))
			Expect(tweets[0].ID).To(Equal(int64(11)))
			Expect(tweets[1].ID).To(Equal(int64(10)))
		})

		It("should report which tweet ids are known", func() {
			known, err := store.KnownTweetIDs(ctx, []int64{10, 20, 30})
			Expect(err).NotTo(HaveOccurred())
			Expect(known).To(HaveKey(int64(10)))
			Expect(known).To(HaveKey(int64(20)))
			Expect(known).NotTo(HaveKey(int64(30)))

			empty, err := store.KnownTweetIDs(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(empty).To(BeEmpty())
		})

		It("should return the stored embeddings of a user", func() {
			vectors, err := store.EmbeddingsForUser(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(vectors).To(ConsistOf(models.Vector{10, 1}, models.Vector{11, 1}))
		})
	})

	Describe("Reset", func() {
		It("should leave no users behind", func() {
			seed(1, "nasa", 10)

			Expect(store.Reset(ctx)).To(Succeed())

			users, err := store.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(BeEmpty())

			total, err := store.CountTweets(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeZero())
		})
	})
})
