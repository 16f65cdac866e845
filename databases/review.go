package databases

// go generate: mockery --name ReviewDatabase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/playzone/playzone-api/models"
)

const reviewCollection = "reviews"

// ReviewDatabase contains the methods to use with the review collection
type ReviewDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	FindByGameAndAuthor(ctx context.Context, gameID, authorID primitive.ObjectID) (*models.Review, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Review, error)
	InsertOne(ctx context.Context, review models.Review) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type reviewDatabase struct {
	db DatabaseHelper
}

// NewReviewDatabase initializes a new instance of review database with the
// provided db connection
func NewReviewDatabase(db DatabaseHelper) ReviewDatabase {
	return &reviewDatabase{
		db: db,
	}
}

func (r *reviewDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	review := &models.Review{}
	err := r.db.Collection(reviewCollection).FindOne(ctx, bson.M{"_id": id}).Decode(review)
	if err != nil {
		return nil, err
	}
	return review, nil
}

// FindByGameAndAuthor returns the author's review of a game, or nil when the
// author has not reviewed it.
func (r *reviewDatabase) FindByGameAndAuthor(ctx context.Context, gameID, authorID primitive.ObjectID) (*models.Review, error) {
	review := &models.Review{}
	err := r.db.Collection(reviewCollection).FindOne(ctx, bson.M{"gameId": gameID, "authorId": authorID}).Decode(review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (r *reviewDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.Collection(reviewCollection).Find(ctx, filter, opts...).Decode(&reviews)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewDatabase) InsertOne(ctx context.Context, review models.Review) (interface{}, error) {
	res, err := r.db.Collection(reviewCollection).InsertOne(ctx, review)
	if err != nil {
		return nil, err
	}
	return res.InsertedID(), nil
}

func (r *reviewDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return r.db.Collection(reviewCollection).UpdateOne(ctx, filter, update, opts...)
}

func (r *reviewDatabase) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return r.db.Collection(reviewCollection).DeleteOne(ctx, filter)
}

func (r *reviewDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return r.db.Collection(reviewCollection).CountDocuments(ctx, filter)
}
