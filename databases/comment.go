package databases

// go generate: mockery --name CommentDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/playzone/playzone-api/models"
)

const commentCollection = "comments"

// CommentWindow is the rolling window used to rate limit comment creation.
const CommentWindow = time.Hour

// MaxCommentsPerWindow caps comments per author inside CommentWindow.
const MaxCommentsPerWindow = 10

// CommentDatabase contains the methods to use with the post-comment
// collection
type CommentDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Comment, error)
	InsertOne(ctx context.Context, comment models.Comment) (interface{}, error)
	DeleteMany(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	CountRecentByAuthor(ctx context.Context, authorID primitive.ObjectID) (int64, error)
}

type commentDatabase struct {
	db DatabaseHelper
}

// NewCommentDatabase initializes a new instance of comment database with the
// provided db connection
func NewCommentDatabase(db DatabaseHelper) CommentDatabase {
	return &commentDatabase{
		db: db,
	}
}

func (c *commentDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	comment := &models.Comment{}
	err := c.db.Collection(commentCollection).FindOne(ctx, bson.M{"_id": id}).Decode(comment)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (c *commentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Comment, error) {
	var comments []models.Comment
	err := c.db.Collection(commentCollection).Find(ctx, filter, opts...).Decode(&comments)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *commentDatabase) InsertOne(ctx context.Context, comment models.Comment) (interface{}, error) {
	res, err := c.db.Collection(commentCollection).InsertOne(ctx, comment)
	if err != nil {
		return nil, err
	}
	return res.InsertedID(), nil
}

func (c *commentDatabase) DeleteMany(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return c.db.Collection(commentCollection).DeleteMany(ctx, filter)
}

func (c *commentDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(commentCollection).CountDocuments(ctx, filter)
}

// CountRecentByAuthor counts comments by authorID inside the rolling
// rate-limit window.
func (c *commentDatabase) CountRecentByAuthor(ctx context.Context, authorID primitive.ObjectID) (int64, error) {
	windowStart := time.Now().Add(-CommentWindow)
	return c.CountDocuments(ctx, bson.M{
		"authorId":  authorID,
		"createdAt": bson.M{"$gte": windowStart},
	})
}
