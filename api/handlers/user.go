package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/playzone/playzone-api/api"
	"github.com/playzone/playzone-api/config"
	"github.com/playzone/playzone-api/databases"
	"github.com/playzone/playzone-api/models"
)

// User exported for testing purposes
type User struct {
	DB databases.UserDatabase
}

// UserHandler returns a public profile given a userID
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	zap.S().Debugf("user_id: %v", userID)

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindByID(ctx, uID)
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(user.Profile())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type updateProfileRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	AvatarURL   *string  `json:"avatarUrl"`
	Consoles    []string `json:"consoles"`
	Genres      []string `json:"genres"`
}

// UpdateProfileHandler lets the signed-in user edit their own profile
// fields. Role, ban state and counters are never writable here.
func (u User) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.AvatarURL != nil {
		set["avatarUrl"] = *req.AvatarURL
	}
	if req.Consoles != nil {
		set["consoles"] = req.Consoles
	}
	if req.Genres != nil {
		set["genres"] = req.Genres
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := u.DB.UpdateOne(ctx, bson.M{"_id": identity.UserID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update profile", http.StatusInternalServerError, w, err)
		return
	}

	user, err := u.DB.FindByID(ctx, identity.UserID)
	if err != nil {
		config.ErrorStatus("failed to get user", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(user.Profile())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePasswordHandler rotates the caller's password after verifying the
// current one
func (u User) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if len(req.NewPassword) < 8 {
		config.ErrorStatus("new password must be at least 8 characters", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindByID(ctx, identity.UserID)
	if err != nil {
		config.ErrorStatus("failed to get user", http.StatusNotFound, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		config.ErrorStatus("current password is incorrect", http.StatusUnauthorized, w, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	if _, err := u.DB.UpdateOne(ctx,
		bson.M{"_id": identity.UserID},
		bson.M{"$set": bson.M{"password": string(hashed), "updatedAt": time.Now()}},
	); err != nil {
		config.ErrorStatus("failed to update password", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"success": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

const activeUsersLimit = 5

// ActiveUsersHandler returns the most prolific members, ranked by post and
// guide counts. Feeds the "active players" sidebar.
func (u User) ActiveUsersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PaginatedOpts(activeUsersLimit, 1).
		SetSort(bson.D{{Key: "postsCount", Value: -1}, {Key: "guidesCount", Value: -1}})

	users, err := u.DB.Find(ctx, bson.M{}, opts)
	if err != nil {
		config.ErrorStatus("failed to get active users", http.StatusInternalServerError, w, err)
		return
	}

	profiles := make([]models.PublicProfile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.Profile())
	}

	b, err := json.Marshal(map[string]interface{}{"users": profiles})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// FollowHandler adds the target to the caller's following set and the
// caller to the target's followers set
func (u User) FollowHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	userID := mux.Vars(r)["user_id"]
	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	if uID == identity.UserID {
		config.ErrorStatus("you cannot follow yourself", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := u.DB.FindByID(ctx, uID); err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}

	now := time.Now()
	if _, err := u.DB.UpdateOne(ctx,
		bson.M{"_id": identity.UserID},
		bson.M{"$addToSet": bson.M{"following": uID}, "$set": bson.M{"updatedAt": now}},
	); err != nil {
		config.ErrorStatus("failed to follow user", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := u.DB.UpdateOne(ctx,
		bson.M{"_id": uID},
		bson.M{"$addToSet": bson.M{"followers": identity.UserID}, "$set": bson.M{"updatedAt": now}},
	); err != nil {
		config.ErrorStatus("failed to follow user", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"success": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UnfollowHandler reverses FollowHandler
func (u User) UnfollowHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	userID := mux.Vars(r)["user_id"]
	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := time.Now()
	if _, err := u.DB.UpdateOne(ctx,
		bson.M{"_id": identity.UserID},
		bson.M{"$pull": bson.M{"following": uID}, "$set": bson.M{"updatedAt": now}},
	); err != nil {
		config.ErrorStatus("failed to unfollow user", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := u.DB.UpdateOne(ctx,
		bson.M{"_id": uID},
		bson.M{"$pull": bson.M{"followers": identity.UserID}, "$set": bson.M{"updatedAt": now}},
	); err != nil {
		config.ErrorStatus("failed to unfollow user", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"success": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// FollowersHandler lists the public profiles following a user
func (u User) FollowersHandler(w http.ResponseWriter, r *http.Request) {
	u.followList(w, r, "followers")
}

// FollowingHandler lists the public profiles a user follows
func (u User) FollowingHandler(w http.ResponseWriter, r *http.Request) {
	u.followList(w, r, "following")
}

func (u User) followList(w http.ResponseWriter, r *http.Request, field string) {
	userID := mux.Vars(r)["user_id"]
	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindByID(ctx, uID)
	if err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}

	ids := user.Followers
	if field == "following" {
		ids = user.Following
	}

	profiles := []models.PublicProfile{}
	if len(ids) > 0 {
		users, err := u.DB.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			config.ErrorStatus("failed to get users", http.StatusInternalServerError, w, err)
			return
		}
		for _, other := range users {
			profiles = append(profiles, other.Profile())
		}
	}

	b, err := json.Marshal(profiles)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
