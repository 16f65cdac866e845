package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/playzone/playzone-api/api"
	"github.com/playzone/playzone-api/config"
	"github.com/playzone/playzone-api/databases"
	"github.com/playzone/playzone-api/models"
)

// Search exported for testing purposes
type Search struct {
	UDB    databases.UserDatabase
	PDB    databases.PostDatabase
	GDB    databases.GuideDatabase
	GameDB databases.GameDatabase
}

const searchResultLimit = 10

// searchSuggestion is a lightweight typeahead row
type searchSuggestion struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

// GlobalSearchHandler fans a case-insensitive query out over users, posts,
// guides and the game catalog concurrently and merges the results
func (s Search) GlobalSearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) < 2 {
		config.ErrorStatus("query must be at least 2 characters", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	regex := bson.M{"$regex": query, "$options": "i"}
	opts := databases.PaginatedOpts(searchResultLimit, 1)

	var (
		wg       sync.WaitGroup
		users    []models.User
		posts    []models.Post
		guides   []models.Guide
		games    []models.Game
		firstErr error
		mu       sync.Mutex
	)

	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		var err error
		users, err = s.UDB.Find(ctx, bson.M{"$or": []bson.M{{"alias": regex}, {"name": regex}}}, opts)
		record(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		posts, err = s.PDB.Find(ctx, bson.M{"$or": []bson.M{{"gameTitle": regex}, {"description": regex}}}, opts)
		record(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		guides, err = s.GDB.Find(ctx, bson.M{"$or": []bson.M{{"title": regex}, {"game": regex}}}, opts)
		record(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		games, err = s.GameDB.Find(ctx, bson.M{"isActive": true, "title": regex}, opts)
		record(err)
	}()
	wg.Wait()

	if firstErr != nil {
		config.ErrorStatus("search failed", http.StatusInternalServerError, w, firstErr)
		return
	}

	profiles := []models.PublicProfile{}
	for _, user := range users {
		profiles = append(profiles, user.Profile())
	}
	if posts == nil {
		posts = []models.Post{}
	}
	if guides == nil {
		guides = []models.Guide{}
	}
	if games == nil {
		games = []models.Game{}
	}

	b, err := json.Marshal(map[string]interface{}{
		"users":  profiles,
		"posts":  posts,
		"guides": guides,
		"games":  games,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SuggestionsHandler backs the search box typeahead. Games rank first,
// then users, then guides; a query under 2 characters yields an empty
// list rather than an error so clients can call it on every keystroke.
func (s Search) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	suggestions := []searchSuggestion{}
	if len(query) < 2 {
		b, _ := json.Marshal(map[string]interface{}{"suggestions": suggestions})
		w.WriteHeader(http.StatusOK)
		w.Write(b)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	regex := bson.M{"$regex": query, "$options": "i"}
	opts := databases.PaginatedOpts(2, 1)

	games, err := s.GameDB.Find(ctx, bson.M{"isActive": true, "$or": []bson.M{{"title": regex}, {"developer": regex}}}, opts)
	if err != nil {
		config.ErrorStatus("failed to get suggestions", http.StatusInternalServerError, w, err)
		return
	}
	for _, game := range games {
		suggestions = append(suggestions, searchSuggestion{
			Type:     "game",
			ID:       game.ID.Hex(),
			Title:    game.Title,
			Subtitle: game.Developer,
		})
	}

	users, err := s.UDB.Find(ctx, bson.M{"alias": regex}, opts)
	if err != nil {
		config.ErrorStatus("failed to get suggestions", http.StatusInternalServerError, w, err)
		return
	}
	for _, user := range users {
		suggestions = append(suggestions, searchSuggestion{
			Type:  "user",
			ID:    user.ID.Hex(),
			Title: user.Alias,
		})
	}

	guides, err := s.GDB.Find(ctx, bson.M{"title": regex}, databases.PaginatedOpts(1, 1))
	if err != nil {
		config.ErrorStatus("failed to get suggestions", http.StatusInternalServerError, w, err)
		return
	}
	for _, guide := range guides {
		suggestions = append(suggestions, searchSuggestion{
			Type:     "guide",
			ID:       guide.ID.Hex(),
			Title:    guide.Title,
			Subtitle: guide.Game,
		})
	}

	b, err := json.Marshal(map[string]interface{}{"suggestions": suggestions})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
