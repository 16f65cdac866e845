package databases

// go generate: mockery --name GuideCommentDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/playzone/playzone-api/models"
)

const guideCommentCollection = "guidecomments"

// GuideCommentDatabase contains the methods to use with the guide-comment
// collection
type GuideCommentDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.GuideComment, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.GuideComment, error)
	InsertOne(ctx context.Context, comment models.GuideComment) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteMany(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	CountRecentByAuthor(ctx context.Context, authorID primitive.ObjectID) (int64, error)
}

type guideCommentDatabase struct {
	db DatabaseHelper
}

// NewGuideCommentDatabase initializes a new instance of guide comment
// database with the provided db connection
func NewGuideCommentDatabase(db DatabaseHelper) GuideCommentDatabase {
	return &guideCommentDatabase{
		db: db,
	}
}

func (g *guideCommentDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.GuideComment, error) {
	comment := &models.GuideComment{}
	err := g.db.Collection(guideCommentCollection).FindOne(ctx, bson.M{"_id": id}).Decode(comment)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (g *guideCommentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.GuideComment, error) {
	var comments []models.GuideComment
	err := g.db.Collection(guideCommentCollection).Find(ctx, filter, opts...).Decode(&comments)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (g *guideCommentDatabase) InsertOne(ctx context.Context, comment models.GuideComment) (interface{}, error) {
	res, err := g.db.Collection(guideCommentCollection).InsertOne(ctx, comment)
	if err != nil {
		return nil, err
	}
	return res.InsertedID(), nil
}

func (g *guideCommentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return g.db.Collection(guideCommentCollection).UpdateOne(ctx, filter, update, opts...)
}

func (g *guideCommentDatabase) DeleteMany(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return g.db.Collection(guideCommentCollection).DeleteMany(ctx, filter)
}

func (g *guideCommentDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return g.db.Collection(guideCommentCollection).CountDocuments(ctx, filter)
}

// CountRecentByAuthor counts live comments by authorID inside the rolling
// rate-limit window. Soft-deleted comments do not count against the cap.
func (g *guideCommentDatabase) CountRecentByAuthor(ctx context.Context, authorID primitive.ObjectID) (int64, error) {
	windowStart := time.Now().Add(-CommentWindow)
	return g.CountDocuments(ctx, bson.M{
		"authorId":  authorID,
		"createdAt": bson.M{"$gte": windowStart},
		"isDeleted": false,
	})
}
