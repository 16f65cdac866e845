package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

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

func TestComment_CreateCommentHandler(t *testing.T) {
	author := primitive.NewObjectID()
	postID := primitive.NewObjectID()
	commentID := primitive.NewObjectID()

	cdb := &mocks.CommentDatabase{}
	gcdb := &mocks.GuideCommentDatabase{}
	pdb := &mocks.PostDatabase{}

	cdb.On("CountRecentByAuthor", mock.Anything, author).Return(int64(2), nil)
	gcdb.On("CountRecentByAuthor", mock.Anything, author).Return(int64(1), nil)
	pdb.On("FindByID", mock.Anything, postID).Return(&models.Post{ID: postID}, nil)
	cdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(c models.Comment) bool {
		return c.PostID == postID && c.AuthorID == author && c.Content == "gg wp"
	})).Return(commentID, nil)
	pdb.On("UpdateOne", mock.Anything, bson.M{"_id": postID}, bson.M{"$inc": bson.M{"commentsCount": 1}}).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	c := handlers.Comment{DB: cdb, GCDB: gcdb, PDB: pdb}

	req := identityRequest(t, "POST", "/api/v1/posts/"+postID.Hex()+"/comments",
		map[string]string{"content": "gg wp"},
		api.Identity{UserID: author, Role: models.RoleUser})
	req = muxVars(req, map[string]string{"post_id": postID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), commentID.Hex())
	pdb.AssertExpectations(t)
}

func TestComment_CreateCommentHandlerRateLimitedAcrossStores(t *testing.T) {
	author := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	cdb := &mocks.CommentDatabase{}
	gcdb := &mocks.GuideCommentDatabase{}

	// 6 post comments plus 4 guide comments exhausts the shared budget
	cdb.On("CountRecentByAuthor", mock.Anything, author).Return(int64(6), nil)
	gcdb.On("CountRecentByAuthor", mock.Anything, author).Return(int64(4), nil)

	c := handlers.Comment{DB: cdb, GCDB: gcdb}

	req := identityRequest(t, "POST", "/api/v1/posts/"+postID.Hex()+"/comments",
		map[string]string{"content": "one more"},
		api.Identity{UserID: author, Role: models.RoleUser})
	req = muxVars(req, map[string]string{"post_id": postID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	cdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestComment_CreateCommentHandlerEmptyContent(t *testing.T) {
	author := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	c := handlers.Comment{}

	req := identityRequest(t, "POST", "/api/v1/posts/"+postID.Hex()+"/comments",
		map[string]string{"content": ""},
		api.Identity{UserID: author, Role: models.RoleUser})
	req = muxVars(req, map[string]string{"post_id": postID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestComment_CreateCommentHandlerPostGone(t *testing.T) {
	author := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	cdb := &mocks.CommentDatabase{}
	gcdb := &mocks.GuideCommentDatabase{}
	pdb := &mocks.PostDatabase{}

	cdb.On("CountRecentByAuthor", mock.Anything, author).Return(int64(0), nil)
	gcdb.On("CountRecentByAuthor", mock.Anything, author).Return(int64(0), nil)
	pdb.On("FindByID", mock.Anything, postID).Return(nil, mongo.ErrNoDocuments)

	c := handlers.Comment{DB: cdb, GCDB: gcdb, PDB: pdb}

	req := identityRequest(t, "POST", "/api/v1/posts/"+postID.Hex()+"/comments",
		map[string]string{"content": "where did it go"},
		api.Identity{UserID: author, Role: models.RoleUser})
	req = muxVars(req, map[string]string{"post_id": postID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestComment_DeleteCommentHandlerNotAuthor(t *testing.T) {
	author := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	commentID := primitive.NewObjectID()

	cdb := &mocks.CommentDatabase{}
	cdb.On("FindByID", mock.Anything, commentID).
		Return(&models.Comment{ID: commentID, AuthorID: author, Content: "mine"}, nil)

	c := handlers.Comment{DB: cdb}

	req := identityRequest(t, "DELETE", "/api/v1/comments/"+commentID.Hex(), nil,
		api.Identity{UserID: stranger, Role: models.RoleUser})
	req = muxVars(req, map[string]string{"comment_id": commentID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.DeleteCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	cdb.AssertNotCalled(t, "DeleteMany", mock.Anything, mock.Anything)
}

func TestComment_DeleteCommentHandlerModerator(t *testing.T) {
	author := primitive.NewObjectID()
	moderator := primitive.NewObjectID()
	commentID := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	cdb := &mocks.CommentDatabase{}
	pdb := &mocks.PostDatabase{}
	cdb.On("FindByID", mock.Anything, commentID).
		Return(&models.Comment{ID: commentID, PostID: postID, AuthorID: author}, nil)
	cdb.On("DeleteMany", mock.Anything, bson.M{"_id": commentID}).
		Return(&mongo.DeleteResult{DeletedCount: 1}, nil)
	pdb.On("UpdateOne", mock.Anything, bson.M{"_id": postID}, bson.M{"$inc": bson.M{"commentsCount": -1}}).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	c := handlers.Comment{DB: cdb, PDB: pdb}

	req := identityRequest(t, "DELETE", "/api/v1/comments/"+commentID.Hex(), nil,
		api.Identity{UserID: moderator, Role: models.RoleModerator})
	req = muxVars(req, map[string]string{"comment_id": commentID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.DeleteCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	cdb.AssertExpectations(t)
	pdb.AssertExpectations(t)
}
