package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GuideComment represents a comment on a guide. Unlike post comments these
// are soft-deleted so threads keep their shape.
type GuideComment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	GuideID   primitive.ObjectID `bson:"guideId" json:"guideId"`
	AuthorID  primitive.ObjectID `bson:"authorId" json:"authorId"`
	Content   string             `bson:"content" json:"content"`
	IsEdited  bool               `bson:"isEdited" json:"isEdited"`
	IsDeleted bool               `bson:"isDeleted" json:"isDeleted"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
