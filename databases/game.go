package databases

// go generate: mockery --name GameDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/playzone/playzone-api/models"
)

const gameCollection = "games"

// GameDatabase contains the methods to use with the game catalog collection
type GameDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Game, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Game, error)
	InsertOne(ctx context.Context, game models.Game) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type gameDatabase struct {
	db DatabaseHelper
}

// NewGameDatabase initializes a new instance of game database with the
// provided db connection
func NewGameDatabase(db DatabaseHelper) GameDatabase {
	return &gameDatabase{
		db: db,
	}
}

func (g *gameDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Game, error) {
	game := &models.Game{}
	err := g.db.Collection(gameCollection).FindOne(ctx, bson.M{"_id": id}).Decode(game)
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (g *gameDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Game, error) {
	var games []models.Game
	err := g.db.Collection(gameCollection).Find(ctx, filter, opts...).Decode(&games)
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (g *gameDatabase) InsertOne(ctx context.Context, game models.Game) (interface{}, error) {
	res, err := g.db.Collection(gameCollection).InsertOne(ctx, game)
	if err != nil {
		return nil, err
	}
	return res.InsertedID(), nil
}

func (g *gameDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return g.db.Collection(gameCollection).UpdateOne(ctx, filter, update, opts...)
}

func (g *gameDatabase) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return g.db.Collection(gameCollection).DeleteOne(ctx, filter)
}

func (g *gameDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return g.db.Collection(gameCollection).CountDocuments(ctx, filter)
}
