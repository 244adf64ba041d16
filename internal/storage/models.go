package storage

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is the persistent identity record. Password always holds a bcrypt
// digest after creation; RefreshToken, when set, is the single value accepted
// for the next rotation.
type User struct {
	ID           bson.ObjectID   `bson:"_id,omitempty"`
	Username     string          `bson:"username"`
	Email        string          `bson:"email"`
	FullName     string          `bson:"fullName"`
	Avatar       string          `bson:"avatar"`
	CoverImage   string          `bson:"coverImage,omitempty"`
	WatchHistory []bson.ObjectID `bson:"watchHistory,omitempty"`
	Password     string          `bson:"password"`
	RefreshToken string          `bson:"refreshToken,omitempty"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

// ChannelProfile is the public aggregated view of a user's channel.
type ChannelProfile struct {
	ID                        bson.ObjectID `bson:"_id" json:"id"`
	Username                  string        `bson:"username" json:"username"`
	Email                     string        `bson:"email" json:"email"`
	FullName                  string        `bson:"fullName" json:"fullName"`
	Avatar                    string        `bson:"avatar" json:"avatar"`
	CoverImage                string        `bson:"coverImage" json:"coverImage,omitempty"`
	SubscribersCount          int64         `bson:"subscribersCount" json:"subscribersCount"`
	ChannelsSubscribedToCount int64         `bson:"channelsSubscribedToCount" json:"channelsSubscribedToCount"`
	IsSubscribed              bool          `bson:"isSubscribed" json:"isSubscribed"`
}

// WatchOwner is the public slice of a video owner embedded in history rows.
type WatchOwner struct {
	ID       bson.ObjectID `bson:"_id" json:"id"`
	Username string        `bson:"username" json:"username"`
	FullName string        `bson:"fullName" json:"fullName"`
	Avatar   string        `bson:"avatar" json:"avatar"`
}

// WatchVideo is one entry of a user's watch history.
type WatchVideo struct {
	ID          bson.ObjectID `bson:"_id" json:"id"`
	VideoFile   string        `bson:"videoFile" json:"videoFile"`
	Thumbnail   string        `bson:"thumbnail" json:"thumbnail"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Duration    float64       `bson:"duration" json:"duration"`
	Views       int64         `bson:"views" json:"views"`
	Owner       WatchOwner    `bson:"owner" json:"owner"`
}
