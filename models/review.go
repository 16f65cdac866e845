package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review represents a member review of a catalog game. One review per
// (game, author) pair.
type Review struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	GameID   primitive.ObjectID `bson:"gameId" json:"gameId"`
	AuthorID primitive.ObjectID `bson:"authorId" json:"authorId"`
	Score    int                `bson:"score" json:"score"`
	Text     string             `bson:"text,omitempty" json:"text,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
