package databases

// go generate: mockery --name PostDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/playzone/playzone-api/models"
)

const postCollection = "posts"

// PostDatabase contains the methods to use with the post collection
type PostDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Post, error)
	InsertOne(ctx context.Context, post models.Post) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type postDatabase struct {
	db DatabaseHelper
}

// NewPostDatabase initializes a new instance of post database with the
// provided db connection
func NewPostDatabase(db DatabaseHelper) PostDatabase {
	return &postDatabase{
		db: db,
	}
}

func (p *postDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	post := &models.Post{}
	err := p.db.Collection(postCollection).FindOne(ctx, bson.M{"_id": id}).Decode(post)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (p *postDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Post, error) {
	var posts []models.Post
	err := p.db.Collection(postCollection).Find(ctx, filter, opts...).Decode(&posts)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (p *postDatabase) InsertOne(ctx context.Context, post models.Post) (interface{}, error) {
	res, err := p.db.Collection(postCollection).InsertOne(ctx, post)
	if err != nil {
		return nil, err
	}
	return res.InsertedID(), nil
}

func (p *postDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return p.db.Collection(postCollection).UpdateOne(ctx, filter, update, opts...)
}

func (p *postDatabase) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return p.db.Collection(postCollection).DeleteOne(ctx, filter)
}

func (p *postDatabase) DeleteMany(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return p.db.Collection(postCollection).DeleteMany(ctx, filter)
}

func (p *postDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return p.db.Collection(postCollection).CountDocuments(ctx, filter)
}
