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

// Guide exported for testing purposes
type Guide struct {
	DB  databases.GuideDatabase
	UDB databases.UserDatabase
}

type createGuideRequest struct {
	Title       string             `json:"title"`
	Game        string             `json:"game"`
	Description string             `json:"description"`
	Steps       []models.GuideStep `json:"steps"`
}

// CreateGuideHandler publishes a new guide for the signed-in user
func (g Guide) CreateGuideHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	var req createGuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	var details []string
	if req.Title == "" {
		details = append(details, "title is required")
	}
	if req.Game == "" {
		details = append(details, "game is required")
	}
	if len(req.Steps) == 0 {
		details = append(details, "at least one step is required")
	}
	if len(details) > 0 {
		config.ErrorDetails("validation failed", details, http.StatusBadRequest, w)
		return
	}

	for i := range req.Steps {
		req.Steps[i].StepNumber = i + 1
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := time.Now()
	guide := models.Guide{
		AuthorID:    identity.UserID,
		Title:       req.Title,
		Game:        req.Game,
		Description: req.Description,
		Steps:       req.Steps,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	insertedID, err := g.DB.InsertOne(ctx, guide)
	if err != nil {
		config.ErrorStatus("failed to insert guide", http.StatusInternalServerError, w, err)
		return
	}
	if oid, ok := insertedID.(primitive.ObjectID); ok {
		guide.ID = oid
	}

	if _, err := g.UDB.UpdateOne(ctx,
		bson.M{"_id": identity.UserID},
		bson.M{"$inc": bson.M{"guidesCount": 1}},
	); err != nil {
		config.ErrorStatus("failed to update author counters", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(guide)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// GuideHandler returns a guide given a guideID
func (g Guide) GuideHandler(w http.ResponseWriter, r *http.Request) {
	guideID := mux.Vars(r)["guide_id"]
	gID, err := primitive.ObjectIDFromHex(guideID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	guide, err := g.DB.FindByID(ctx, gID)
	if err != nil {
		config.ErrorStatus("failed to get guide by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(guide)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// GuidesHandler lists guides newest first, with optional game and author
// filters
func (g Guide) GuidesHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	filter := bson.M{}
	if game := r.URL.Query().Get("game"); game != "" {
		filter["game"] = bson.M{"$regex": game, "$options": "i"}
	}
	if author := r.URL.Query().Get("author_id"); author != "" {
		aID, err := primitive.ObjectIDFromHex(author)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		filter["authorId"] = aID
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PaginatedOpts(limit, page).SetSort(bson.M{"createdAt": -1})
	guides, err := g.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get guides", http.StatusInternalServerError, w, err)
		return
	}
	if guides == nil {
		guides = []models.Guide{}
	}

	total, err := g.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count guides", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"guides":     guides,
		"pagination": models.NewPagination(page, limit, total),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MarkUsefulHandler toggles the caller's "useful" vote on a guide
func (g Guide) MarkUsefulHandler(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	guide, err := g.DB.FindByID(ctx, gID)
	if err != nil {
		config.ErrorStatus("guide not found", http.StatusNotFound, w, err)
		return
	}

	voted := false
	for _, id := range guide.UsefulBy {
		if id == identity.UserID {
			voted = true
			break
		}
	}

	var update bson.M
	if voted {
		update = bson.M{
			"$pull": bson.M{"usefulBy": identity.UserID},
			"$inc":  bson.M{"usefulCount": -1},
		}
	} else {
		update = bson.M{
			"$addToSet": bson.M{"usefulBy": identity.UserID},
			"$inc":      bson.M{"usefulCount": 1},
		}
	}

	if _, err := g.DB.UpdateOne(ctx, bson.M{"_id": gID}, update); err != nil {
		config.ErrorStatus("failed to update guide votes", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"useful": !voted})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type updateGuideRequest struct {
	Title       *string            `json:"title"`
	Game        *string            `json:"game"`
	Description *string            `json:"description"`
	Steps       []models.GuideStep `json:"steps"`
}

// UpdateGuideHandler lets the author edit their guide
func (g Guide) UpdateGuideHandler(w http.ResponseWriter, r *http.Request) {
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

	var req updateGuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	guide, err := g.DB.FindByID(ctx, gID)
	if err != nil {
		config.ErrorStatus("guide not found", http.StatusNotFound, w, err)
		return
	}
	if guide.AuthorID != identity.UserID {
		config.ErrorStatus("you may only edit your own guides", http.StatusForbidden, w, nil)
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Game != nil {
		set["game"] = *req.Game
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Steps != nil {
		for i := range req.Steps {
			req.Steps[i].StepNumber = i + 1
		}
		set["steps"] = req.Steps
	}

	if _, err := g.DB.UpdateOne(ctx, bson.M{"_id": gID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update guide", http.StatusInternalServerError, w, err)
		return
	}

	updated, err := g.DB.FindByID(ctx, gID)
	if err != nil {
		config.ErrorStatus("failed to get guide", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteGuideHandler removes a guide. The author may delete their own;
// staff may delete any.
func (g Guide) DeleteGuideHandler(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	guide, err := g.DB.FindByID(ctx, gID)
	if err != nil {
		config.ErrorStatus("guide not found", http.StatusNotFound, w, err)
		return
	}
	if guide.AuthorID != identity.UserID && !identity.IsStaff() {
		config.ErrorStatus("you may only delete your own guides", http.StatusForbidden, w, nil)
		return
	}

	if _, err := g.DB.DeleteOne(ctx, bson.M{"_id": gID}); err != nil {
		config.ErrorStatus("failed to delete guide", http.StatusInternalServerError, w, err)
		return
	}

	if _, err := g.UDB.UpdateOne(ctx,
		bson.M{"_id": guide.AuthorID},
		bson.M{"$inc": bson.M{"guidesCount": -1}},
	); err != nil {
		config.ErrorStatus("failed to update author counters", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"success": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
