package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/playzone/playzone-api/api"
	"github.com/playzone/playzone-api/config"
	"github.com/playzone/playzone-api/databases"
	"github.com/playzone/playzone-api/models"
)

// Auth exported for testing purposes
type Auth struct {
	DB databases.UserDatabase
}

type registerRequest struct {
	Name     string `json:"name"`
	Alias    string `json:"alias"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates a new account and signs the caller in. Alias
// and email must both be unused.
func (a Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	var details []string
	if req.Name == "" {
		details = append(details, "name is required")
	}
	if req.Alias == "" {
		details = append(details, "alias is required")
	}
	if !strings.Contains(req.Email, "@") {
		details = append(details, "a valid email is required")
	}
	if len(req.Password) < 8 {
		details = append(details, "password must be at least 8 characters")
	}
	if len(details) > 0 {
		config.ErrorDetails("validation failed", details, http.StatusBadRequest, w)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	taken, err := a.DB.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"email": req.Email},
		{"alias": req.Alias},
	}})
	if err != nil {
		config.ErrorStatus("failed to check existing accounts", http.StatusInternalServerError, w, err)
		return
	}
	if taken > 0 {
		config.ErrorStatus("email or alias is already in use", http.StatusConflict, w, nil)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := time.Now()
	user := models.User{
		Name:      req.Name,
		Alias:     req.Alias,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	insertedID, err := a.DB.InsertOne(ctx, user)
	if err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}
	if oid, ok := insertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}

	token := api.IssueToken(r, user.ID, user.Email, user.Role)

	zap.S().Infow("user registered", "userId", user.ID.Hex(), "alias", user.Alias)

	b, err := json.Marshal(map[string]interface{}{
		"token": token,
		"user":  user.Profile(),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// LoginHandler verifies credentials and issues a bearer token. Banned
// accounts cannot sign in while the ban is active.
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.DB.FindOne(ctx, bson.M{"email": req.Email})
	if err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, err)
		return
	}

	if user.BanActive(time.Now()) {
		config.ErrorStatus("account is banned", http.StatusForbidden, w, nil)
		return
	}

	token := api.IssueToken(r, user.ID, user.Email, user.Role)

	b, err := json.Marshal(map[string]interface{}{
		"token": token,
		"user":  user.Profile(),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// LogoutHandler revokes the caller's bearer token
func (a Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token != "" {
		api.RevokeToken(r, token)
	}

	b, _ := json.Marshal(map[string]interface{}{"success": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MeHandler returns the signed-in user's own profile
func (a Auth) MeHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.DB.FindByID(ctx, identity.UserID)
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
