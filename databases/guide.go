package databases

// go generate: mockery --name GuideDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/playzone/playzone-api/models"
)

const guideCollection = "guides"

// GuideDatabase contains the methods to use with the guide collection
type GuideDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Guide, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Guide, error)
	InsertOne(ctx context.Context, guide models.Guide) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type guideDatabase struct {
	db DatabaseHelper
}

// NewGuideDatabase initializes a new instance of guide database with the
// provided db connection
func NewGuideDatabase(db DatabaseHelper) GuideDatabase {
	return &guideDatabase{
		db: db,
	}
}

func (g *guideDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Guide, error) {
	guide := &models.Guide{}
	err := g.db.Collection(guideCollection).FindOne(ctx, bson.M{"_id": id}).Decode(guide)
	if err != nil {
		return nil, err
	}
	return guide, nil
}

func (g *guideDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Guide, error) {
	var guides []models.Guide
	err := g.db.Collection(guideCollection).Find(ctx, filter, opts...).Decode(&guides)
	if err != nil {
		return nil, err
	}
	return guides, nil
}

func (g *guideDatabase) InsertOne(ctx context.Context, guide models.Guide) (interface{}, error) {
	res, err := g.db.Collection(guideCollection).InsertOne(ctx, guide)
	if err != nil {
		return nil, err
	}
	return res.InsertedID(), nil
}

func (g *guideDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return g.db.Collection(guideCollection).UpdateOne(ctx, filter, update, opts...)
}

func (g *guideDatabase) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return g.db.Collection(guideCollection).DeleteOne(ctx, filter)
}

func (g *guideDatabase) DeleteMany(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return g.db.Collection(guideCollection).DeleteMany(ctx, filter)
}

func (g *guideDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return g.db.Collection(guideCollection).CountDocuments(ctx, filter)
}
