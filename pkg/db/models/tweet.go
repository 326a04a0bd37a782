// Package models holds the GORM models of the users and tweets we store.
package models

import (
	"time"
	"unicode/utf8"
)

// MaxTweetTextLength is the number of characters of tweet text we keep
const MaxTweetTextLength = 300

// User represents the database model for a Twitter account we have ingested
type User struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false;column:id"`
	Name string `gorm:"column:name;size:15;not null;index"`

	// NewestTweetID is the low-water mark for incremental fetches. Nil until
	// the first tweet has been stored.
	NewestTweetID *int64 `gorm:"column:newest_tweet_id"`

	Tweets []Tweet `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// Tweet represents the database model for tweets
type Tweet struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false;column:id"`
	Text      string    `gorm:"column:text;size:300"`
	Embedding Vector    `gorm:"column:embedding;not null"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for the Tweet model
func (Tweet) TableName() string {
	return "tweets"
}

// TruncateText cuts s to at most MaxTweetTextLength characters
func TruncateText(s string) string {
	if utf8.RuneCountInString(s) <= MaxTweetTextLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxTweetTextLength])
}

// All returns every model in dependency order, parents first
func All() []interface{} {
	return []interface{}{&User{}, &Tweet{}}
}
