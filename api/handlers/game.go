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

// Game exported for testing purposes
type Game struct {
	DB databases.GameDatabase
}

type gameRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Genre       []string  `json:"genre"`
	Platform    []string  `json:"platform"`
	Developer   string    `json:"developer"`
	Publisher   string    `json:"publisher"`
	ReleaseDate time.Time `json:"releaseDate"`
	Rating      string    `json:"rating"`
	CoverURL    string    `json:"coverUrl"`
}

// GamesHandler lists active catalog games, optionally filtered by title
// or genre
func (g Game) GamesHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	filter := bson.M{"isActive": true}
	if title := r.URL.Query().Get("title"); title != "" {
		filter["title"] = bson.M{"$regex": title, "$options": "i"}
	}
	if genre := r.URL.Query().Get("genre"); genre != "" {
		filter["genre"] = genre
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PaginatedOpts(limit, page).SetSort(bson.M{"title": 1})
	games, err := g.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get games", http.StatusInternalServerError, w, err)
		return
	}
	if games == nil {
		games = []models.Game{}
	}

	total, err := g.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count games", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"games":      games,
		"pagination": models.NewPagination(page, limit, total),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// GameHandler returns a catalog game given a gameID
func (g Game) GameHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["game_id"]
	gID, err := primitive.ObjectIDFromHex(gameID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	game, err := g.DB.FindByID(ctx, gID)
	if err != nil {
		config.ErrorStatus("failed to get game by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(game)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateGameHandler adds a catalog entry. Admin dashboard only.
func (g Game) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Title == "" {
		config.ErrorStatus("title is required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := time.Now()
	game := models.Game{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		Platform:    req.Platform,
		Developer:   req.Developer,
		Publisher:   req.Publisher,
		ReleaseDate: req.ReleaseDate,
		Rating:      req.Rating,
		CoverURL:    req.CoverURL,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	insertedID, err := g.DB.InsertOne(ctx, game)
	if err != nil {
		config.ErrorStatus("failed to insert game", http.StatusInternalServerError, w, err)
		return
	}
	if oid, ok := insertedID.(primitive.ObjectID); ok {
		game.ID = oid
	}

	b, err := json.Marshal(game)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateGameHandler edits a catalog entry. Admin dashboard only.
func (g Game) UpdateGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["game_id"]
	gID, err := primitive.ObjectIDFromHex(gameID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	// Counters and score fields are recomputed from reviews, never set
	// directly
	delete(req, "_id")
	delete(req, "reviewsCount")
	delete(req, "scoreSum")
	delete(req, "avgScore")
	delete(req, "createdAt")
	req["updatedAt"] = time.Now()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := g.DB.UpdateOne(ctx, bson.M{"_id": gID}, bson.M{"$set": req}); err != nil {
		config.ErrorStatus("failed to update game", http.StatusInternalServerError, w, err)
		return
	}

	game, err := g.DB.FindByID(ctx, gID)
	if err != nil {
		config.ErrorStatus("game not found", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(game)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeactivateGameHandler hides a catalog entry from the public list
// without discarding its reviews
func (g Game) DeactivateGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["game_id"]
	gID, err := primitive.ObjectIDFromHex(gameID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	result, err := g.DB.UpdateOne(ctx,
		bson.M{"_id": gID},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		config.ErrorStatus("failed to deactivate game", http.StatusInternalServerError, w, err)
		return
	}
	if result == nil || result.MatchedCount == 0 {
		config.ErrorStatus("game not found", http.StatusNotFound, w, nil)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"success": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
