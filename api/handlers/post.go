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

// Post exported for testing purposes
type Post struct {
	DB  databases.PostDatabase
	UDB databases.UserDatabase
}

type createPostRequest struct {
	GameTitle   string `json:"gameTitle"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
	Rating      int    `json:"rating"`
}

// CreatePostHandler publishes a new post for the signed-in user
func (p Post) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.GameTitle == "" {
		config.ErrorStatus("gameTitle is required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := time.Now()
	post := models.Post{
		AuthorID:    identity.UserID,
		GameTitle:   req.GameTitle,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Rating:      req.Rating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	insertedID, err := p.DB.InsertOne(ctx, post)
	if err != nil {
		config.ErrorStatus("failed to insert post", http.StatusInternalServerError, w, err)
		return
	}
	if oid, ok := insertedID.(primitive.ObjectID); ok {
		post.ID = oid
	}

	if _, err := p.UDB.UpdateOne(ctx,
		bson.M{"_id": identity.UserID},
		bson.M{"$inc": bson.M{"postsCount": 1}},
	); err != nil {
		config.ErrorStatus("failed to update author counters", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(post)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// PostHandler returns a post given a postID
func (p Post) PostHandler(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["post_id"]
	pID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	post, err := p.DB.FindByID(ctx, pID)
	if err != nil {
		config.ErrorStatus("failed to get post by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(post)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// FeedHandler lists posts newest first, optionally filtered to a single
// author or game title
func (p Post) FeedHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	filter := bson.M{}
	if author := r.URL.Query().Get("author_id"); author != "" {
		aID, err := primitive.ObjectIDFromHex(author)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		filter["authorId"] = aID
	}
	if game := r.URL.Query().Get("game"); game != "" {
		filter["gameTitle"] = bson.M{"$regex": game, "$options": "i"}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PaginatedOpts(limit, page).SetSort(bson.M{"createdAt": -1})
	posts, err := p.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get posts", http.StatusInternalServerError, w, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	total, err := p.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count posts", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"posts":      posts,
		"pagination": models.NewPagination(page, limit, total),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// LikePostHandler toggles the caller's like on a post and keeps the
// likesCount denormalized counter in step
func (p Post) LikePostHandler(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	post, err := p.DB.FindByID(ctx, pID)
	if err != nil {
		config.ErrorStatus("post not found", http.StatusNotFound, w, err)
		return
	}

	liked := false
	for _, id := range post.Likes {
		if id == identity.UserID {
			liked = true
			break
		}
	}

	var update bson.M
	if liked {
		update = bson.M{
			"$pull": bson.M{"likes": identity.UserID},
			"$inc":  bson.M{"likesCount": -1},
		}
	} else {
		update = bson.M{
			"$addToSet": bson.M{"likes": identity.UserID},
			"$inc":      bson.M{"likesCount": 1},
		}
	}

	if _, err := p.DB.UpdateOne(ctx, bson.M{"_id": pID}, update); err != nil {
		config.ErrorStatus("failed to update post likes", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"liked": !liked})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeletePostHandler removes a post. The author may delete their own;
// staff may delete any.
func (p Post) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	post, err := p.DB.FindByID(ctx, pID)
	if err != nil {
		config.ErrorStatus("post not found", http.StatusNotFound, w, err)
		return
	}

	if post.AuthorID != identity.UserID && !identity.IsStaff() {
		config.ErrorStatus("you may only delete your own posts", http.StatusForbidden, w, nil)
		return
	}

	if _, err := p.DB.DeleteOne(ctx, bson.M{"_id": pID}); err != nil {
		config.ErrorStatus("failed to delete post", http.StatusInternalServerError, w, err)
		return
	}

	if _, err := p.UDB.UpdateOne(ctx,
		bson.M{"_id": post.AuthorID},
		bson.M{"$inc": bson.M{"postsCount": -1}},
	); err != nil {
		config.ErrorStatus("failed to update author counters", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"success": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
