package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GuideStep is a single step inside a guide
type GuideStep struct {
	StepNumber int    `bson:"stepNumber" json:"stepNumber"`
	Content    string `bson:"content" json:"content"`
	ImageURL   string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
}

// Guide represents a step-by-step game guide
type Guide struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AuthorID    primitive.ObjectID `bson:"authorId" json:"authorId"`
	Title       string             `bson:"title" json:"title"`
	Game        string             `bson:"game" json:"game"`
	Description string             `bson:"description" json:"description"`
	Steps       []GuideStep        `bson:"steps" json:"steps"`

	UsefulCount   int                  `bson:"usefulCount" json:"usefulCount"`
	UsefulBy      []primitive.ObjectID `bson:"usefulBy" json:"usefulBy"`
	CommentsCount int                  `bson:"commentsCount" json:"commentsCount"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
