package databases

// go generate: mockery --name ReportDatabase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/playzone/playzone-api/models"
)

const reportCollection = "reports"

// ReportWindow is the rolling window used to rate limit report creation.
const ReportWindow = 24 * time.Hour

// MaxReportsPerWindow caps reports per reporter inside ReportWindow.
const MaxReportsPerWindow = 10

// ReportDatabase contains the methods to use with the report collection
type ReportDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Report, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Report, error)
	InsertOne(ctx context.Context, report models.Report) (interface{}, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Report, error)
	DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	CountByStatus(ctx context.Context) (models.ReportStats, error)
	ExistsReport(ctx context.Context, contentID, contentType string, reporterID primitive.ObjectID) (*models.Report, error)
	CountRecentReports(ctx context.Context, reporterID primitive.ObjectID) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type reportDatabase struct {
	db DatabaseHelper
}

// NewReportDatabase initializes a new instance of report database with the
// provided db connection
func NewReportDatabase(db DatabaseHelper) ReportDatabase {
	return &reportDatabase{
		db: db,
	}
}

func (r *reportDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Report, error) {
	report := &models.Report{}
	err := r.db.Collection(reportCollection).FindOne(ctx, filter).Decode(report)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *reportDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.Collection(reportCollection).Find(ctx, filter, opts...).Decode(&reports)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportDatabase) InsertOne(ctx context.Context, report models.Report) (interface{}, error) {
	res, err := r.db.Collection(reportCollection).InsertOne(ctx, report)
	if err != nil {
		return nil, err
	}
	return res.InsertedID(), nil
}

func (r *reportDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Report, error) {
	report := &models.Report{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.db.Collection(reportCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(report)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *reportDatabase) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return r.db.Collection(reportCollection).DeleteOne(ctx, filter)
}

func (r *reportDatabase) DeleteMany(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return r.db.Collection(reportCollection).DeleteMany(ctx, filter)
}

func (r *reportDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return r.db.Collection(reportCollection).CountDocuments(ctx, filter)
}

// CountByStatus groups the collection by status for the dashboard stats.
func (r *reportDatabase) CountByStatus(ctx context.Context) (models.ReportStats, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}
	cursor, err := r.db.Collection(reportCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return models.ReportStats{}, err
	}

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.Decode(&rows); err != nil {
		return models.ReportStats{}, err
	}

	stats := models.ReportStats{}
	for _, row := range rows {
		switch row.Status {
		case models.ReportStatusPending:
			stats.Pending = row.Count
		case models.ReportStatusReviewing:
			stats.Reviewing = row.Count
		case models.ReportStatusResolved:
			stats.Resolved = row.Count
		case models.ReportStatusDismissed:
			stats.Dismissed = row.Count
		}
	}
	return stats, nil
}

// ExistsReport returns the existing report for the (content, reporter) pair,
// or nil when the reporter has not flagged that content yet.
func (r *reportDatabase) ExistsReport(ctx context.Context, contentID, contentType string, reporterID primitive.ObjectID) (*models.Report, error) {
	report, err := r.FindOne(ctx, bson.M{
		"content_id":       contentID,
		"content_type":     contentType,
		"reporter_user_id": reporterID,
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// CountRecentReports counts reports filed by reporterID inside the rolling
// rate-limit window.
func (r *reportDatabase) CountRecentReports(ctx context.Context, reporterID primitive.ObjectID) (int64, error) {
	windowStart := time.Now().Add(-ReportWindow)
	return r.CountDocuments(ctx, bson.M{
		"reporter_user_id": reporterID,
		"created_at":       bson.M{"$gte": windowStart},
	})
}

// EnsureIndexes creates the unique duplicate-guard index. The application
// duplicate check is advisory; this index is what actually prevents a
// double-insert under concurrent submissions.
func (r *reportDatabase) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "content_id", Value: 1},
			{Key: "content_type", Value: 1},
			{Key: "reporter_user_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	return r.db.Collection(reportCollection).EnsureIndex(ctx, model)
}
