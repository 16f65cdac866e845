package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Game represents a catalog entry managed by admins
type Game struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Genre       []string           `bson:"genre" json:"genre"`
	Platform    []string           `bson:"platform" json:"platform"`
	Developer   string             `bson:"developer" json:"developer"`
	Publisher   string             `bson:"publisher" json:"publisher"`
	ReleaseDate time.Time          `bson:"releaseDate" json:"releaseDate"`
	Rating      string             `bson:"rating" json:"rating"`
	CoverURL    string             `bson:"coverUrl,omitempty" json:"coverUrl,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`

	ReviewsCount int     `bson:"reviewsCount" json:"reviewsCount"`
	ScoreSum     int     `bson:"scoreSum" json:"-"`
	AvgScore     float64 `bson:"avgScore" json:"avgScore"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
