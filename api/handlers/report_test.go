package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/playzone/playzone-api/api"
	"github.com/playzone/playzone-api/api/handlers"
	"github.com/playzone/playzone-api/databases/mocks"
	"github.com/playzone/playzone-api/models"
)

func identityRequest(t *testing.T, method, target string, body interface{}, identity api.Identity) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	return req.WithContext(api.WithIdentity(context.Background(), identity))
}

func TestReport_CreateReportHandler(t *testing.T) {
	reporter := primitive.NewObjectID()
	author := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	pdb := &mocks.PostDatabase{}

	rdb.On("CountRecentReports", mock.Anything, reporter).Return(int64(0), nil)
	rdb.On("ExistsReport", mock.Anything, postID.Hex(), models.ContentTypePost, reporter).Return(nil, nil)
	pdb.On("FindByID", mock.Anything, postID).Return(&models.Post{
		ID:          postID,
		AuthorID:    author,
		GameTitle:   "Hollow Knight",
		Description: "spam spam spam",
	}, nil)
	insertedID := primitive.NewObjectID()
	rdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(r models.Report) bool {
		return r.Status == models.ReportStatusPending &&
			r.ReporterUserID == reporter &&
			r.ReportedUserID != nil && *r.ReportedUserID == author
	})).Return(insertedID, nil)

	h := handlers.Report{RDB: rdb, Resolver: handlers.ContentResolver{PDB: pdb}}

	req := identityRequest(t, "POST", "/api/v1/reports", map[string]interface{}{
		"content_id":   postID.Hex(),
		"content_type": "post",
		"reason":       "spam",
	}, api.Identity{UserID: reporter, Role: models.RoleUser})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.Report
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, insertedID, got.ID)
	assert.Equal(t, models.ReportStatusPending, got.Status)
}

func TestReport_CreateReportHandlerDuplicate(t *testing.T) {
	reporter := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("CountRecentReports", mock.Anything, reporter).Return(int64(2), nil)
	rdb.On("ExistsReport", mock.Anything, postID.Hex(), models.ContentTypePost, reporter).
		Return(&models.Report{ID: primitive.NewObjectID()}, nil)

	h := handlers.Report{RDB: rdb}

	req := identityRequest(t, "POST", "/api/v1/reports", map[string]interface{}{
		"content_id":   postID.Hex(),
		"content_type": "post",
		"reason":       "spam",
	}, api.Identity{UserID: reporter, Role: models.RoleUser})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestReport_CreateReportHandlerRateLimited(t *testing.T) {
	reporter := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("CountRecentReports", mock.Anything, reporter).Return(int64(10), nil)

	h := handlers.Report{RDB: rdb}

	req := identityRequest(t, "POST", "/api/v1/reports", map[string]interface{}{
		"content_id":   primitive.NewObjectID().Hex(),
		"content_type": "post",
		"reason":       "spam",
	}, api.Identity{UserID: reporter, Role: models.RoleUser})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	rdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestReport_CreateReportHandlerUnknownContentType(t *testing.T) {
	h := handlers.Report{}

	req := identityRequest(t, "POST", "/api/v1/reports", map[string]interface{}{
		"content_id":   primitive.NewObjectID().Hex(),
		"content_type": "wiki",
		"reason":       "spam",
	}, api.Identity{UserID: primitive.NewObjectID(), Role: models.RoleUser})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReport_CreateReportHandlerContentGone(t *testing.T) {
	reporter := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	pdb := &mocks.PostDatabase{}
	rdb.On("CountRecentReports", mock.Anything, reporter).Return(int64(0), nil)
	rdb.On("ExistsReport", mock.Anything, postID.Hex(), models.ContentTypePost, reporter).Return(nil, nil)
	pdb.On("FindByID", mock.Anything, postID).Return(nil, mongo.ErrNoDocuments)

	h := handlers.Report{RDB: rdb, Resolver: handlers.ContentResolver{PDB: pdb}}

	req := identityRequest(t, "POST", "/api/v1/reports", map[string]interface{}{
		"content_id":   postID.Hex(),
		"content_type": "post",
		"reason":       "spam",
	}, api.Identity{UserID: reporter, Role: models.RoleUser})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestReport_CreateReportHandlerInsertRace(t *testing.T) {
	reporter := primitive.NewObjectID()
	author := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	pdb := &mocks.PostDatabase{}
	rdb.On("CountRecentReports", mock.Anything, reporter).Return(int64(0), nil)
	rdb.On("ExistsReport", mock.Anything, postID.Hex(), models.ContentTypePost, reporter).Return(nil, nil)
	pdb.On("FindByID", mock.Anything, postID).Return(&models.Post{ID: postID, AuthorID: author}, nil)

	dupErr := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	rdb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, dupErr)

	h := handlers.Report{RDB: rdb, Resolver: handlers.ContentResolver{PDB: pdb}}

	req := identityRequest(t, "POST", "/api/v1/reports", map[string]interface{}{
		"content_id":   postID.Hex(),
		"content_type": "post",
		"reason":       "harassment",
	}, api.Identity{UserID: reporter, Role: models.RoleUser})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestReport_CreateReportHandlerUserTarget(t *testing.T) {
	reporter := primitive.NewObjectID()
	target := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	udb := &mocks.UserDatabase{}
	rdb.On("CountRecentReports", mock.Anything, reporter).Return(int64(0), nil)
	rdb.On("ExistsReport", mock.Anything, target.Hex(), models.ContentTypeUser, reporter).Return(nil, nil)
	udb.On("FindByID", mock.Anything, target).Return(&models.User{ID: target, Name: "griefer"}, nil)
	rdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(r models.Report) bool {
		return r.ReportedUserID != nil && *r.ReportedUserID == target
	})).Return(primitive.NewObjectID(), nil)

	h := handlers.Report{RDB: rdb, Resolver: handlers.ContentResolver{UDB: udb}}

	req := identityRequest(t, "POST", "/api/v1/reports", map[string]interface{}{
		"content_id":   target.Hex(),
		"content_type": "user",
		"reason":       "harassment",
	}, api.Identity{UserID: reporter, Role: models.RoleUser})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestReport_CheckDuplicateHandler(t *testing.T) {
	reporter := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("ExistsReport", mock.Anything, postID.Hex(), models.ContentTypePost, reporter).
		Return(&models.Report{ID: primitive.NewObjectID()}, nil)

	h := handlers.Report{RDB: rdb}

	req := identityRequest(t, "GET", "/api/v1/reports/check?content_id="+postID.Hex()+"&content_type=post", nil,
		api.Identity{UserID: reporter, Role: models.RoleUser})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CheckDuplicateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"reported": true}`, rr.Body.String())
}

func TestReport_UpdateReportStatusHandler(t *testing.T) {
	reviewer := primitive.NewObjectID()
	reportID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": reportID}, mock.MatchedBy(func(update interface{}) bool {
		u, ok := update.(bson.M)
		if !ok {
			return false
		}
		set, ok := u["$set"].(bson.M)
		if !ok {
			return false
		}
		if set["status"] != models.ReportStatusReviewing {
			return false
		}
		if set["reviewed_by"] != reviewer {
			return false
		}
		_, hasReviewedAt := set["reviewed_at"].(time.Time)
		return hasReviewedAt
	})).Return(&models.Report{ID: reportID, Status: models.ReportStatusReviewing}, nil)

	h := handlers.Report{RDB: rdb}

	req := identityRequest(t, "PATCH", "/api/v1/admin/reports/"+reportID.Hex(), map[string]interface{}{
		"status": "reviewing",
	}, api.Identity{UserID: reviewer, Role: models.RoleModerator})
	req = muxVars(req, map[string]string{"report_id": reportID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.UpdateReportStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReport_UpdateReportStatusHandlerNotFound(t *testing.T) {
	reportID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": reportID}, mock.Anything).
		Return(nil, mongo.ErrNoDocuments)

	h := handlers.Report{RDB: rdb}

	req := identityRequest(t, "PATCH", "/api/v1/admin/reports/"+reportID.Hex(), map[string]interface{}{
		"status": "resolved",
	}, api.Identity{UserID: primitive.NewObjectID(), Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"report_id": reportID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.UpdateReportStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReport_UpdateReportStatusHandlerStorageError(t *testing.T) {
	reportID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": reportID}, mock.Anything).
		Return(nil, errors.New("connection reset"))

	h := handlers.Report{RDB: rdb}

	req := identityRequest(t, "PATCH", "/api/v1/admin/reports/"+reportID.Hex(), map[string]interface{}{
		"status": "resolved",
	}, api.Identity{UserID: primitive.NewObjectID(), Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"report_id": reportID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.UpdateReportStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestReport_UpdateReportStatusHandlerBadStatus(t *testing.T) {
	h := handlers.Report{}

	reportID := primitive.NewObjectID()
	req := identityRequest(t, "PATCH", "/api/v1/admin/reports/"+reportID.Hex(), map[string]interface{}{
		"status": "pending",
	}, api.Identity{UserID: primitive.NewObjectID(), Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"report_id": reportID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.UpdateReportStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReport_DeleteReportHandlerNotFound(t *testing.T) {
	reportID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("DeleteOne", mock.Anything, bson.M{"_id": reportID}).
		Return(&mongo.DeleteResult{DeletedCount: 0}, nil)

	h := handlers.Report{RDB: rdb}

	req := identityRequest(t, "DELETE", "/api/v1/admin/reports/"+reportID.Hex(), nil,
		api.Identity{UserID: primitive.NewObjectID(), Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"report_id": reportID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.DeleteReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
