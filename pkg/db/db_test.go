package db_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/twitoff/pkg/db"
	"github.com/lisanmuaddib/twitoff/pkg/db/models"
)

var _ = Describe("SetupDatabase", func() {
	var (
		testDB *gorm.DB
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		testDB, err = db.OpenInMemory(quietLogger())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close(testDB)).To(Succeed())
	})

	It("should create the users and tweets tables", func() {
		Expect(testDB.Migrator().HasTable(&models.User{})).To(BeTrue())
		Expect(testDB.Migrator().HasTable(&models.Tweet{})).To(BeTrue())
		Expect(db.Ping(ctx, testDB)).To(Succeed())
	})

	It("should store embeddings as blobs", func() {
		newest := int64(11)
		Expect(testDB.Create(&models.User{ID: 1, Name: "nasa", NewestTweetID: &newest}).Error).To(Succeed())
		Expect(testDB.Create(&models.Tweet{ID: 11, Text: "launch", Embedding: models.Vector{1, 2, 3}, UserID: 1}).Error).To(Succeed())

		var tweet models.Tweet
		Expect(testDB.First(&tweet, 11).Error).To(Succeed())
		Expect(tweet.Embedding).To(Equal(models.Vector{1, 2, 3}))
	})

	It("should reject tweets of unknown users", func() {
		err := testDB.Create(&models.Tweet{ID: 12, Text: "orphan", Embedding: models.Vector{1}, UserID: 404}).Error
		Expect(err).To(HaveOccurred())
	})

	Describe("ResetSchema", func() {
		It("should leave empty tables behind", func() {
			Expect(testDB.Create(&models.User{ID: 1, Name: "nasa"}).Error).To(Succeed())
			Expect(testDB.Create(&models.Tweet{ID: 2, Text: "hi", Embedding: models.Vector{1}, UserID: 1}).Error).To(Succeed())

			Expect(db.ResetSchema(ctx, testDB)).To(Succeed())

			var users, tweets int64
			Expect(testDB.Model(&models.User{}).Count(&users).Error).To(Succeed())
			Expect(testDB.Model(&models.Tweet{}).Count(&tweets).Error).To(Succeed())
			Expect(users).To(BeZero())
			Expect(tweets).To(BeZero())
		})
	})
})
