package handlers_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/playzone/playzone-api/api/handlers"
	"github.com/playzone/playzone-api/databases/mocks"
	"github.com/playzone/playzone-api/models"
)

func TestContentResolver_ResolvePost(t *testing.T) {
	postID := primitive.NewObjectID()
	author := primitive.NewObjectID()

	pdb := &mocks.PostDatabase{}
	pdb.On("FindByID", mock.Anything, postID).
		Return(&models.Post{ID: postID, AuthorID: author, Description: "finally beat the final boss"}, nil)

	cr := handlers.ContentResolver{PDB: pdb}

	resolved, err := cr.Resolve(context.Background(), postID.Hex(), models.ContentTypePost)
	assert.Nil(t, err)
	assert.True(t, resolved.Exists)
	assert.Equal(t, "finally beat the final boss", resolved.Preview)
	assert.Equal(t, author, *resolved.OwnerID)
}

func TestContentResolver_ResolvePostGone(t *testing.T) {
	postID := primitive.NewObjectID()

	pdb := &mocks.PostDatabase{}
	pdb.On("FindByID", mock.Anything, postID).Return(nil, mongo.ErrNoDocuments)

	cr := handlers.ContentResolver{PDB: pdb}

	resolved, err := cr.Resolve(context.Background(), postID.Hex(), models.ContentTypePost)
	assert.Nil(t, err)
	assert.False(t, resolved.Exists)
}

func TestContentResolver_ResolveCommentFromPosts(t *testing.T) {
	commentID := primitive.NewObjectID()
	author := primitive.NewObjectID()

	cdb := &mocks.CommentDatabase{}
	gcdb := &mocks.GuideCommentDatabase{}
	cdb.On("FindByID", mock.Anything, commentID).
		Return(&models.Comment{ID: commentID, AuthorID: author, Content: "nice clip"}, nil)

	cr := handlers.ContentResolver{CDB: cdb, GCDB: gcdb}

	resolved, err := cr.Resolve(context.Background(), commentID.Hex(), models.ContentTypeComment)
	assert.Nil(t, err)
	assert.True(t, resolved.Exists)
	assert.Equal(t, "nice clip", resolved.Preview)
	gcdb.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestContentResolver_ResolveCommentFallsBackToGuides(t *testing.T) {
	commentID := primitive.NewObjectID()
	author := primitive.NewObjectID()

	cdb := &mocks.CommentDatabase{}
	gcdb := &mocks.GuideCommentDatabase{}
	cdb.On("FindByID", mock.Anything, commentID).Return(nil, mongo.ErrNoDocuments)
	gcdb.On("FindByID", mock.Anything, commentID).
		Return(&models.GuideComment{ID: commentID, AuthorID: author, Content: "step 3 is outdated"}, nil)

	cr := handlers.ContentResolver{CDB: cdb, GCDB: gcdb}

	resolved, err := cr.Resolve(context.Background(), commentID.Hex(), models.ContentTypeComment)
	assert.Nil(t, err)
	assert.True(t, resolved.Exists)
	assert.Equal(t, "step 3 is outdated", resolved.Preview)
	assert.Equal(t, author, *resolved.OwnerID)
}

func TestContentResolver_ResolveCommentSoftDeleted(t *testing.T) {
	commentID := primitive.NewObjectID()

	cdb := &mocks.CommentDatabase{}
	gcdb := &mocks.GuideCommentDatabase{}
	cdb.On("FindByID", mock.Anything, commentID).Return(nil, mongo.ErrNoDocuments)
	gcdb.On("FindByID", mock.Anything, commentID).
		Return(&models.GuideComment{ID: commentID, Content: "removed rant", IsDeleted: true}, nil)

	cr := handlers.ContentResolver{CDB: cdb, GCDB: gcdb}

	resolved, err := cr.Resolve(context.Background(), commentID.Hex(), models.ContentTypeComment)
	assert.Nil(t, err)
	assert.False(t, resolved.Exists)
}

func TestContentResolver_ResolveMalformedID(t *testing.T) {
	cr := handlers.ContentResolver{}

	resolved, err := cr.Resolve(context.Background(), "not-a-hex-id", models.ContentTypePost)
	assert.Nil(t, err)
	assert.False(t, resolved.Exists)
}

func TestContentResolver_ResolveUnknownType(t *testing.T) {
	cr := handlers.ContentResolver{}

	_, err := cr.Resolve(context.Background(), primitive.NewObjectID().Hex(), "playlist")
	assert.NotNil(t, err)
}

func TestContentResolver_PreviewTruncated(t *testing.T) {
	guideID := primitive.NewObjectID()
	author := primitive.NewObjectID()
	longTitle := strings.Repeat("speedrun ", 30)

	gdb := &mocks.GuideDatabase{}
	gdb.On("FindByID", mock.Anything, guideID).
		Return(&models.Guide{ID: guideID, AuthorID: author, Title: longTitle}, nil)

	cr := handlers.ContentResolver{GDB: gdb}

	resolved, err := cr.Resolve(context.Background(), guideID.Hex(), models.ContentTypeGuide)
	assert.Nil(t, err)
	assert.True(t, resolved.Exists)
	assert.Equal(t, 123, len([]rune(resolved.Preview)))
	assert.True(t, strings.HasSuffix(resolved.Preview, "..."))
}
