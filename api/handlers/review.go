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

// Review exported for testing purposes
type Review struct {
	DB     databases.ReviewDatabase
	GameDB databases.GameDatabase
}

type reviewRequest struct {
	Score int    `json:"score"`
	Text  string `json:"text"`
}

// UpsertReviewHandler creates or replaces the caller's review of a game.
// One review per (game, author); resubmitting updates the score and
// adjusts the game's running average.
func (rv Review) UpsertReviewHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	gID, err := primitive.ObjectIDFromHex(gameID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Score < 1 || req.Score > 5 {
		config.ErrorStatus("score must be between 1 and 5", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	game, err := rv.GameDB.FindByID(ctx, gID)
	if err != nil || !game.IsActive {
		config.ErrorStatus("game not found", http.StatusNotFound, w, err)
		return
	}

	now := time.Now()
	existing, err := rv.DB.FindByGameAndAuthor(ctx, gID, identity.UserID)
	if err != nil {
		config.ErrorStatus("failed to check existing review", http.StatusInternalServerError, w, err)
		return
	}

	var review models.Review
	var scoreDelta, countDelta int
	if existing != nil {
		scoreDelta = req.Score - existing.Score
		review = *existing
		review.Score = req.Score
		review.Text = req.Text
		review.UpdatedAt = now

		if _, err := rv.DB.UpdateOne(ctx,
			bson.M{"_id": existing.ID},
			bson.M{"$set": bson.M{"score": req.Score, "text": req.Text, "updatedAt": now}},
		); err != nil {
			config.ErrorStatus("failed to update review", http.StatusInternalServerError, w, err)
			return
		}
	} else {
		scoreDelta = req.Score
		countDelta = 1
		review = models.Review{
			GameID:    gID,
			AuthorID:  identity.UserID,
			Score:     req.Score,
			Text:      req.Text,
			CreatedAt: now,
			UpdatedAt: now,
		}
		insertedID, err := rv.DB.InsertOne(ctx, review)
		if err != nil {
			config.ErrorStatus("failed to insert review", http.StatusInternalServerError, w, err)
			return
		}
		if oid, ok := insertedID.(primitive.ObjectID); ok {
			review.ID = oid
		}
	}

	newSum := game.ScoreSum + scoreDelta
	newCount := game.ReviewsCount + countDelta
	avg := 0.0
	if newCount > 0 {
		avg = float64(newSum) / float64(newCount)
	}
	if _, err := rv.GameDB.UpdateOne(ctx,
		bson.M{"_id": gID},
		bson.M{"$set": bson.M{
			"scoreSum":     newSum,
			"reviewsCount": newCount,
			"avgScore":     avg,
			"updatedAt":    now,
		}},
	); err != nil {
		config.ErrorStatus("failed to update game score", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(review)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	if countDelta > 0 {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	w.Write(b)
}

// GameReviewsHandler lists a game's reviews newest first
func (rv Review) GameReviewsHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["game_id"]
	gID, err := primitive.ObjectIDFromHex(gameID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	page, limit := pageParams(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"gameId": gID}
	opts := databases.PaginatedOpts(limit, page).SetSort(bson.M{"createdAt": -1})

	reviews, err := rv.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get reviews", http.StatusInternalServerError, w, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	total, err := rv.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count reviews", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"reviews":    reviews,
		"pagination": models.NewPagination(page, limit, total),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteReviewHandler removes the caller's review and rebalances the
// game's running average
func (rv Review) DeleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	reviewID := mux.Vars(r)["review_id"]
	rID, err := primitive.ObjectIDFromHex(reviewID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	review, err := rv.DB.FindByID(ctx, rID)
	if err != nil {
		config.ErrorStatus("review not found", http.StatusNotFound, w, err)
		return
	}
	if review.AuthorID != identity.UserID && !identity.IsStaff() {
		config.ErrorStatus("you may only delete your own reviews", http.StatusForbidden, w, nil)
		return
	}

	if _, err := rv.DB.DeleteOne(ctx, bson.M{"_id": rID}); err != nil {
		config.ErrorStatus("failed to delete review", http.StatusInternalServerError, w, err)
		return
	}

	game, err := rv.GameDB.FindByID(ctx, review.GameID)
	if err == nil {
		newSum := game.ScoreSum - review.Score
		newCount := game.ReviewsCount - 1
		avg := 0.0
		if newCount > 0 {
			avg = float64(newSum) / float64(newCount)
		}
		if _, err := rv.GameDB.UpdateOne(ctx,
			bson.M{"_id": review.GameID},
			bson.M{"$set": bson.M{
				"scoreSum":     newSum,
				"reviewsCount": newCount,
				"avgScore":     avg,
				"updatedAt":    time.Now(),
			}},
		); err != nil {
			config.ErrorStatus("failed to update game score", http.StatusInternalServerError, w, err)
			return
		}
	}

	b, _ := json.Marshal(map[string]interface{}{"success": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
