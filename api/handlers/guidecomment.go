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

// GuideComment exported for testing purposes
type GuideComment struct {
	DB  databases.GuideCommentDatabase
	CDB databases.CommentDatabase
	GDB databases.GuideDatabase
}

// CreateGuideCommentHandler adds a comment to a guide. The hourly comment
// budget is shared with post comments.
func (gc GuideComment) CreateGuideCommentHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	guideID := mux.Vars(r)["guide_id"]
	gID, err := primitive.ObjectIDFromHex(guideID)
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

	limited, err := commentRateLimited(r, gc.CDB, gc.DB, identity.UserID)
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

	if _, err := gc.GDB.FindByID(ctx, gID); err != nil {
		config.ErrorStatus("guide not found", http.StatusNotFound, w, err)
		return
	}

	now := time.Now()
	comment := models.GuideComment{
		GuideID:   gID,
		AuthorID:  identity.UserID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	insertedID, err := gc.DB.InsertOne(ctx, comment)
	if err != nil {
		config.ErrorStatus("failed to insert comment", http.StatusInternalServerError, w, err)
		return
	}
	if oid, ok := insertedID.(primitive.ObjectID); ok {
		comment.ID = oid
	}

	if _, err := gc.GDB.UpdateOne(ctx,
		bson.M{"_id": gID},
		bson.M{"$inc": bson.M{"commentsCount": 1}},
	); err != nil {
		config.ErrorStatus("failed to update guide counters", http.StatusInternalServerError, w, err)
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

// GuideCommentsHandler lists a guide's visible comments oldest first.
// Soft-deleted comments are excluded.
func (gc GuideComment) GuideCommentsHandler(w http.ResponseWriter, r *http.Request) {
	guideID := mux.Vars(r)["guide_id"]
	gID, err := primitive.ObjectIDFromHex(guideID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	page, limit := pageParams(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"guideId": gID, "isDeleted": false}
	opts := databases.PaginatedOpts(limit, page).SetSort(bson.M{"createdAt": 1})

	comments, err := gc.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get comments", http.StatusInternalServerError, w, err)
		return
	}
	if comments == nil {
		comments = []models.GuideComment{}
	}

	total, err := gc.DB.CountDocuments(ctx, filter)
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

// UpdateGuideCommentHandler lets the author edit their own comment
func (gc GuideComment) UpdateGuideCommentHandler(w http.ResponseWriter, r *http.Request) {
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

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Content == "" || len(req.Content) > maxCommentLength {
		config.ErrorStatus("content must be between 1 and 500 characters", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	comment, err := gc.DB.FindByID(ctx, cID)
	if err != nil || comment.IsDeleted {
		config.ErrorStatus("comment not found", http.StatusNotFound, w, err)
		return
	}

	if comment.AuthorID != identity.UserID {
		config.ErrorStatus("you may only edit your own comments", http.StatusForbidden, w, nil)
		return
	}

	now := time.Now()
	if _, err := gc.DB.UpdateOne(ctx,
		bson.M{"_id": cID},
		bson.M{"$set": bson.M{"content": req.Content, "isEdited": true, "updatedAt": now}},
	); err != nil {
		config.ErrorStatus("failed to update comment", http.StatusInternalServerError, w, err)
		return
	}

	comment.Content = req.Content
	comment.IsEdited = true
	comment.UpdatedAt = now

	b, err := json.Marshal(comment)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteGuideCommentHandler soft-deletes a guide comment so threads keep
// their shape. The author may delete their own; staff may delete any.
func (gc GuideComment) DeleteGuideCommentHandler(w http.ResponseWriter, r *http.Request) {
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

	comment, err := gc.DB.FindByID(ctx, cID)
	if err != nil {
		config.ErrorStatus("comment not found", http.StatusNotFound, w, err)
		return
	}

	if comment.AuthorID != identity.UserID && !identity.IsStaff() {
		config.ErrorStatus("you may only delete your own comments", http.StatusForbidden, w, nil)
		return
	}

	if _, err := gc.DB.UpdateOne(ctx,
		bson.M{"_id": cID},
		bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": time.Now()}},
	); err != nil {
		config.ErrorStatus("failed to delete comment", http.StatusInternalServerError, w, err)
		return
	}

	if _, err := gc.GDB.UpdateOne(ctx,
		bson.M{"_id": comment.GuideID},
		bson.M{"$inc": bson.M{"commentsCount": -1}},
	); err != nil {
		config.ErrorStatus("failed to update guide counters", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"success": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
