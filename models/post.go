package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a feed post about a game
type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AuthorID    primitive.ObjectID `bson:"authorId" json:"authorId"`
	GameTitle   string             `bson:"gameTitle" json:"gameTitle"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Description string             `bson:"description" json:"description"`
	Rating      int                `bson:"rating" json:"rating"`

	LikesCount    int                  `bson:"likesCount" json:"likesCount"`
	CommentsCount int                  `bson:"commentsCount" json:"commentsCount"`
	Likes         []primitive.ObjectID `bson:"likes" json:"likes"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
