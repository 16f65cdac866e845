package handlers_test

import (
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

func TestAdmin_ApproveReportHandler(t *testing.T) {
	reviewer := primitive.NewObjectID()
	reportID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("FindOne", mock.Anything, bson.M{"_id": reportID}).
		Return(&models.Report{ID: reportID, Status: models.ReportStatusPending}, nil)
	rdb.On("FindOneAndUpdate", mock.Anything,
		bson.M{"_id": reportID, "status": models.ReportStatusPending},
		mock.MatchedBy(func(update interface{}) bool {
			set := update.(bson.M)["$set"].(bson.M)
			return set["status"] == models.ReportStatusResolved && set["reviewed_by"] == reviewer
		})).Return(&models.Report{ID: reportID, Status: models.ReportStatusResolved}, nil)

	a := handlers.Admin{RDB: rdb}

	req := identityRequest(t, "POST", "/api/v1/admin/reports/"+reportID.Hex()+"/approve",
		map[string]string{"action": "content_removed"},
		api.Identity{UserID: reviewer, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"report_id": reportID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.ApproveReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdmin_ApproveReportHandlerAlreadyReviewed(t *testing.T) {
	reportID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("FindOne", mock.Anything, bson.M{"_id": reportID}).
		Return(&models.Report{ID: reportID, Status: models.ReportStatusDismissed}, nil)

	a := handlers.Admin{RDB: rdb}

	req := identityRequest(t, "POST", "/api/v1/admin/reports/"+reportID.Hex()+"/approve", nil,
		api.Identity{UserID: primitive.NewObjectID(), Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"report_id": reportID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.ApproveReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	rdb.AssertNotCalled(t, "FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmin_ApproveReportHandlerStorageError(t *testing.T) {
	reportID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("FindOne", mock.Anything, bson.M{"_id": reportID}).
		Return(nil, errors.New("connection reset"))

	a := handlers.Admin{RDB: rdb}

	req := identityRequest(t, "POST", "/api/v1/admin/reports/"+reportID.Hex()+"/approve", nil,
		api.Identity{UserID: primitive.NewObjectID(), Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"report_id": reportID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.ApproveReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestAdmin_ApproveReportHandlerNotFound(t *testing.T) {
	reportID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("FindOne", mock.Anything, bson.M{"_id": reportID}).
		Return(nil, mongo.ErrNoDocuments)

	a := handlers.Admin{RDB: rdb}

	req := identityRequest(t, "POST", "/api/v1/admin/reports/"+reportID.Hex()+"/approve", nil,
		api.Identity{UserID: primitive.NewObjectID(), Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"report_id": reportID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.ApproveReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdmin_RejectReportHandlerDefaultsNoAction(t *testing.T) {
	reviewer := primitive.NewObjectID()
	reportID := primitive.NewObjectID()

	rdb := &mocks.ReportDatabase{}
	rdb.On("FindOne", mock.Anything, bson.M{"_id": reportID}).
		Return(&models.Report{ID: reportID, Status: models.ReportStatusPending}, nil)
	rdb.On("FindOneAndUpdate", mock.Anything,
		bson.M{"_id": reportID, "status": models.ReportStatusPending},
		mock.MatchedBy(func(update interface{}) bool {
			set := update.(bson.M)["$set"].(bson.M)
			return set["status"] == models.ReportStatusDismissed && set["action"] == models.ReportActionNoAction
		})).Return(&models.Report{ID: reportID, Status: models.ReportStatusDismissed}, nil)

	a := handlers.Admin{RDB: rdb}

	req := identityRequest(t, "POST", "/api/v1/admin/reports/"+reportID.Hex()+"/reject", nil,
		api.Identity{UserID: reviewer, Role: models.RoleModerator})
	req = muxVars(req, map[string]string{"report_id": reportID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.RejectReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdmin_BanUserHandlerSelfBan(t *testing.T) {
	admin := primitive.NewObjectID()

	a := handlers.Admin{}

	req := identityRequest(t, "POST", "/api/v1/admin/users/"+admin.Hex()+"/ban",
		map[string]interface{}{"reason": "spam"},
		api.Identity{UserID: admin, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"user_id": admin.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.BanUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdmin_BanUserHandlerStaffImmune(t *testing.T) {
	admin := primitive.NewObjectID()
	target := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindByID", mock.Anything, target).
		Return(&models.User{ID: target, Role: models.RoleModerator}, nil)

	a := handlers.Admin{UDB: udb}

	req := identityRequest(t, "POST", "/api/v1/admin/users/"+target.Hex()+"/ban",
		map[string]interface{}{"reason": "spam"},
		api.Identity{UserID: admin, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.BanUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	udb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmin_BanUserHandlerModeratorForbidden(t *testing.T) {
	moderator := primitive.NewObjectID()
	target := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindByID", mock.Anything, target).
		Return(&models.User{ID: target, Role: models.RoleUser}, nil)

	a := handlers.Admin{UDB: udb}

	req := identityRequest(t, "POST", "/api/v1/admin/users/"+target.Hex()+"/ban",
		map[string]interface{}{"reason": "spam"},
		api.Identity{UserID: moderator, Role: models.RoleModerator})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.BanUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	udb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmin_BanUserHandlerTemporary(t *testing.T) {
	admin := primitive.NewObjectID()
	target := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindByID", mock.Anything, target).
		Return(&models.User{ID: target, Role: models.RoleUser}, nil)
	udb.On("UpdateOne", mock.Anything, bson.M{"_id": target}, mock.MatchedBy(func(update interface{}) bool {
		set := update.(bson.M)["$set"].(bson.M)
		if set["isBanned"] != true || set["banReason"] != "repeat spam" {
			return false
		}
		until, ok := set["banUntil"].(*time.Time)
		if !ok || until == nil {
			return false
		}
		remaining := time.Until(*until)
		return remaining > 6*24*time.Hour && remaining <= 7*24*time.Hour
	})).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	a := handlers.Admin{UDB: udb}

	req := identityRequest(t, "POST", "/api/v1/admin/users/"+target.Hex()+"/ban",
		map[string]interface{}{"reason": "repeat spam", "durationDays": 7},
		api.Identity{UserID: admin, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.BanUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	udb.AssertCalled(t, "UpdateOne", mock.Anything, bson.M{"_id": target}, mock.Anything)
}

func TestAdmin_BanUserHandlerIndefinite(t *testing.T) {
	admin := primitive.NewObjectID()
	target := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindByID", mock.Anything, target).
		Return(&models.User{ID: target, Role: models.RoleUser}, nil)
	udb.On("UpdateOne", mock.Anything, bson.M{"_id": target}, mock.MatchedBy(func(update interface{}) bool {
		set := update.(bson.M)["$set"].(bson.M)
		until, _ := set["banUntil"].(*time.Time)
		return set["isBanned"] == true && until == nil
	})).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	a := handlers.Admin{UDB: udb}

	req := identityRequest(t, "POST", "/api/v1/admin/users/"+target.Hex()+"/ban",
		map[string]interface{}{"reason": "ban evasion"},
		api.Identity{UserID: admin, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.BanUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdmin_BanUserHandlerNegativeDurationIndefinite(t *testing.T) {
	admin := primitive.NewObjectID()
	target := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindByID", mock.Anything, target).
		Return(&models.User{ID: target, Role: models.RoleUser}, nil)
	udb.On("UpdateOne", mock.Anything, bson.M{"_id": target}, mock.MatchedBy(func(update interface{}) bool {
		set := update.(bson.M)["$set"].(bson.M)
		until, _ := set["banUntil"].(*time.Time)
		return set["isBanned"] == true && until == nil
	})).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	a := handlers.Admin{UDB: udb}

	req := identityRequest(t, "POST", "/api/v1/admin/users/"+target.Hex()+"/ban",
		map[string]interface{}{"reason": "harassment", "durationDays": -3},
		api.Identity{UserID: admin, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.BanUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	udb.AssertExpectations(t)
}

func TestAdmin_UnbanUserHandlerNotBanned(t *testing.T) {
	admin := primitive.NewObjectID()
	target := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindByID", mock.Anything, target).
		Return(&models.User{ID: target, Role: models.RoleUser, IsBanned: false}, nil)

	a := handlers.Admin{UDB: udb}

	req := identityRequest(t, "POST", "/api/v1/admin/users/"+target.Hex()+"/unban", nil,
		api.Identity{UserID: admin, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.UnbanUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	udb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmin_DeleteUserHandlerCascades(t *testing.T) {
	admin := primitive.NewObjectID()
	target := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	rdb := &mocks.ReportDatabase{}
	pdb := &mocks.PostDatabase{}
	gdb := &mocks.GuideDatabase{}
	cdb := &mocks.CommentDatabase{}
	gcdb := &mocks.GuideCommentDatabase{}

	udb.On("FindByID", mock.Anything, target).
		Return(&models.User{ID: target, Role: models.RoleUser}, nil)
	authored := bson.M{"authorId": target}
	pdb.On("DeleteMany", mock.Anything, authored).Return(&mongo.DeleteResult{DeletedCount: 3}, nil)
	gdb.On("DeleteMany", mock.Anything, authored).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)
	cdb.On("DeleteMany", mock.Anything, authored).Return(&mongo.DeleteResult{DeletedCount: 5}, nil)
	gcdb.On("DeleteMany", mock.Anything, authored).Return(&mongo.DeleteResult{DeletedCount: 2}, nil)
	rdb.On("DeleteMany", mock.Anything, bson.M{"reporter_user_id": target}).
		Return(&mongo.DeleteResult{DeletedCount: 1}, nil)
	udb.On("DeleteOne", mock.Anything, bson.M{"_id": target}).
		Return(&mongo.DeleteResult{DeletedCount: 1}, nil)

	a := handlers.Admin{UDB: udb, RDB: rdb, PDB: pdb, GDB: gdb, CDB: cdb, GCDB: gcdb}

	req := identityRequest(t, "DELETE", "/api/v1/admin/users/"+target.Hex(), nil,
		api.Identity{UserID: admin, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.DeleteUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	pdb.AssertExpectations(t)
	gdb.AssertExpectations(t)
	cdb.AssertExpectations(t)
	gcdb.AssertExpectations(t)
	rdb.AssertExpectations(t)
	udb.AssertExpectations(t)
}

func TestAdmin_DeleteUserHandlerModeratorForbidden(t *testing.T) {
	moderator := primitive.NewObjectID()
	target := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	pdb := &mocks.PostDatabase{}
	udb.On("FindByID", mock.Anything, target).
		Return(&models.User{ID: target, Role: models.RoleUser}, nil)

	a := handlers.Admin{UDB: udb, PDB: pdb}

	req := identityRequest(t, "DELETE", "/api/v1/admin/users/"+target.Hex(), nil,
		api.Identity{UserID: moderator, Role: models.RoleModerator})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.DeleteUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	pdb.AssertNotCalled(t, "DeleteMany", mock.Anything, mock.Anything)
	udb.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestAdmin_DeleteUserHandlerAdminTarget(t *testing.T) {
	admin := primitive.NewObjectID()
	target := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindByID", mock.Anything, target).
		Return(&models.User{ID: target, Role: models.RoleAdmin}, nil)

	a := handlers.Admin{UDB: udb}

	req := identityRequest(t, "DELETE", "/api/v1/admin/users/"+target.Hex(), nil,
		api.Identity{UserID: admin, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.DeleteUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdmin_UpdateUserRoleHandler(t *testing.T) {
	admin := primitive.NewObjectID()
	target := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindByID", mock.Anything, target).
		Return(&models.User{ID: target, Role: models.RoleUser}, nil)
	udb.On("UpdateOne", mock.Anything, bson.M{"_id": target}, mock.MatchedBy(func(update interface{}) bool {
		set := update.(bson.M)["$set"].(bson.M)
		return set["role"] == models.RoleModerator
	})).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	a := handlers.Admin{UDB: udb}

	req := identityRequest(t, "PATCH", "/api/v1/admin/users/"+target.Hex()+"/role",
		map[string]string{"role": "moderator"},
		api.Identity{UserID: admin, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.UpdateUserRoleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"previousRole":"user"`)
	assert.Contains(t, rr.Body.String(), `"newRole":"moderator"`)
}

func TestAdmin_UpdateUserRoleHandlerModeratorForbidden(t *testing.T) {
	moderator := primitive.NewObjectID()
	target := primitive.NewObjectID()

	a := handlers.Admin{}

	req := identityRequest(t, "PATCH", "/api/v1/admin/users/"+target.Hex()+"/role",
		map[string]string{"role": "moderator"},
		api.Identity{UserID: moderator, Role: models.RoleModerator})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.UpdateUserRoleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdmin_UpdateUserRoleHandlerSelfDemotion(t *testing.T) {
	admin := primitive.NewObjectID()

	a := handlers.Admin{}

	req := identityRequest(t, "PATCH", "/api/v1/admin/users/"+admin.Hex()+"/role",
		map[string]string{"role": "user"},
		api.Identity{UserID: admin, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"user_id": admin.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.UpdateUserRoleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdmin_UpdateUserRoleHandlerInvalidRole(t *testing.T) {
	admin := primitive.NewObjectID()
	target := primitive.NewObjectID()

	a := handlers.Admin{}

	req := identityRequest(t, "PATCH", "/api/v1/admin/users/"+target.Hex()+"/role",
		map[string]string{"role": "supreme_leader"},
		api.Identity{UserID: admin, Role: models.RoleAdmin})
	req = muxVars(req, map[string]string{"user_id": target.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.UpdateUserRoleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
