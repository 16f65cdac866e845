package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/playzone/playzone-api/api"
	"github.com/playzone/playzone-api/config"
	"github.com/playzone/playzone-api/databases"
	"github.com/playzone/playzone-api/models"
)

// Comment exported for testing purposes
type Comment struct {
	DB   databases.CommentDatabase
	GCDB databases.GuideCommentDatabase
	PDB  databases.PostDatabase
}

type createCommentRequest struct {
	Content string `json:"content"`
}

const maxCommentLength = 500

// commentRateLimited counts the caller's recent comments across both
// comment stores against the shared hourly budget
func commentRateLimited(r *http.Request, cdb databases.CommentDatabase, gcdb databases.GuideCommentDatabase, authorID primitive.ObjectID) (bool, error) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	postComments, err := cdb.CountRecentByAuthor(ctx, authorID)
	if err != nil {
		return false, err
	}
	guideComments, err := gcdb.CountRecentByAuthor(ctx, authorID)
	if err != nil {
		return false, err
	}
	return postComments+guideComments >= databases.MaxCommentsPerWindow, nil
}

// CreateCommentHandler adds a comment to a post, subject to the hourly
// comment budget
func (c Comment) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	postID := mux.Vars(r)["post_id"]
	pID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Content == "" || len(req.Content) > maxCommentLength {
		config.ErrorStatus("content must be between 1 and 500 characters", http.StatusBadRequest, w, nil)
		return
	}

	limited, err := commentRateLimited(r, c.DB, c.GCDB, identity.UserID)
	if err != nil {
		config.ErrorStatus("failed to check comment rate", http.StatusInternalServerError, w, err)
		return
	}
	if limited {
		config.ErrorStatus("comment limit reached, try again later", http.StatusTooManyRequests, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := c.PDB.FindByID(ctx, pID); err != nil {
		config.ErrorStatus("post not found", http.StatusNotFound, w, err)
		return
	}

	now := time.Now()
	comment := models.Comment{
		PostID:    pID,
		AuthorID:  identity.UserID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	insertedID, err := c.DB.InsertOne(ctx, comment)
	if err != nil {
		config.ErrorStatus("failed to insert comment", http.StatusInternalServerError, w, err)
		return
	}
	if oid, ok := insertedID.(primitive.ObjectID); ok {
		comment.ID = oid
	}

	if _, err := c.PDB.UpdateOne(ctx,
		bson.M{"_id": pID},
		bson.M{"$inc": bson.M{"commentsCount": 1}},
	); err != nil {
		config.ErrorStatus("failed to update post counters", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(comment)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CommentsHandler lists a post's comments oldest first
func (c Comment) CommentsHandler(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["post_id"]
	pID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	page, limit := pageParams(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"postId": pID}
	opts := databases.PaginatedOpts(limit, page).SetSort(bson.M{"createdAt": 1})

	comments, err := c.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get comments", http.StatusInternalServerError, w, err)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	total, err := c.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count comments", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"comments":   comments,
		"pagination": models.NewPagination(page, limit, total),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteCommentHandler removes a comment. The author may delete their
// own; staff may delete any.
func (c Comment) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	commentID := mux.Vars(r)["comment_id"]
	cID, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	comment, err := c.DB.FindByID(ctx, cID)
	if err != nil {
		config.ErrorStatus("comment not found", http.StatusNotFound, w, err)
		return
	}

	if comment.AuthorID != identity.UserID && !identity.IsStaff() {
		config.ErrorStatus("you may only delete your own comments", http.StatusForbidden, w, nil)
		return
	}

	if _, err := c.DB.DeleteMany(ctx, bson.M{"_id": cID}); err != nil {
		config.ErrorStatus("failed to delete comment", http.StatusInternalServerError, w, err)
		return
	}

	if _, err := c.PDB.UpdateOne(ctx,
		bson.M{"_id": comment.PostID},
		bson.M{"$inc": bson.M{"commentsCount": -1}},
	); err != nil {
		config.ErrorStatus("failed to update post counters", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"success": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
