package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment represents a comment on a feed post. Post comments and guide
// comments live in separate collections with disjoint id namespaces.
type Comment struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PostID   primitive.ObjectID `bson:"postId" json:"postId"`
	AuthorID primitive.ObjectID `bson:"authorId" json:"authorId"`
	Content  string             `bson:"content" json:"content"`

	ReadBy []primitive.ObjectID `bson:"readBy" json:"readBy"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
