package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/playzone/playzone-api/api"
	"github.com/playzone/playzone-api/config"
	"github.com/playzone/playzone-api/databases"
	"github.com/playzone/playzone-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	resolver := ContentResolver{
		PDB:  databases.NewPostDatabase(a.dbHelper),
		GDB:  databases.NewGuideDatabase(a.dbHelper),
		CDB:  databases.NewCommentDatabase(a.dbHelper),
		GCDB: databases.NewGuideCommentDatabase(a.dbHelper),
		UDB:  databases.NewUserDatabase(a.dbHelper),
	}

	auth := Auth{DB: databases.NewUserDatabase(a.dbHelper)}
	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	p := Post{DB: databases.NewPostDatabase(a.dbHelper), UDB: databases.NewUserDatabase(a.dbHelper)}
	g := Guide{DB: databases.NewGuideDatabase(a.dbHelper), UDB: databases.NewUserDatabase(a.dbHelper)}
	c := Comment{DB: databases.NewCommentDatabase(a.dbHelper), GCDB: databases.NewGuideCommentDatabase(a.dbHelper), PDB: databases.NewPostDatabase(a.dbHelper)}
	gc := GuideComment{DB: databases.NewGuideCommentDatabase(a.dbHelper), CDB: databases.NewCommentDatabase(a.dbHelper), GDB: databases.NewGuideDatabase(a.dbHelper)}
	game := Game{DB: databases.NewGameDatabase(a.dbHelper)}
	review := Review{DB: databases.NewReviewDatabase(a.dbHelper), GameDB: databases.NewGameDatabase(a.dbHelper)}
	search := Search{
		UDB:    databases.NewUserDatabase(a.dbHelper),
		PDB:    databases.NewPostDatabase(a.dbHelper),
		GDB:    databases.NewGuideDatabase(a.dbHelper),
		GameDB: databases.NewGameDatabase(a.dbHelper),
	}
	report := Report{
		RDB:      databases.NewReportDatabase(a.dbHelper),
		UDB:      databases.NewUserDatabase(a.dbHelper),
		Resolver: resolver,
	}
	admin := Admin{
		UDB:    databases.NewUserDatabase(a.dbHelper),
		RDB:    databases.NewReportDatabase(a.dbHelper),
		PDB:    databases.NewPostDatabase(a.dbHelper),
		GDB:    databases.NewGuideDatabase(a.dbHelper),
		CDB:    databases.NewCommentDatabase(a.dbHelper),
		GCDB:   databases.NewGuideCommentDatabase(a.dbHelper),
		GameDB: databases.NewGameDatabase(a.dbHelper),
	}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/register", http.HandlerFunc(auth.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(auth.LogoutHandler))).Methods("DELETE")
	apiCreate.Handle("/auth/me", api.Middleware(http.HandlerFunc(auth.MeHandler))).Methods("GET")

	apiCreate.Handle("/users/me", api.Middleware(http.HandlerFunc(u.UpdateProfileHandler))).Methods("PUT")
	apiCreate.Handle("/users/password", api.Middleware(http.HandlerFunc(u.ChangePasswordHandler))).Methods("PUT")
	// registered before the {user_id} route so "active" is not read as an id
	apiCreate.Handle("/users/active", http.HandlerFunc(u.ActiveUsersHandler)).Methods("GET")
	apiCreate.Handle("/users/{user_id}", http.HandlerFunc(u.UserHandler)).Methods("GET")
	apiCreate.Handle("/users/{user_id}/follow", api.Middleware(http.HandlerFunc(u.FollowHandler))).Methods("POST")
	apiCreate.Handle("/users/{user_id}/unfollow", api.Middleware(http.HandlerFunc(u.UnfollowHandler))).Methods("POST")
	apiCreate.Handle("/users/{user_id}/followers", http.HandlerFunc(u.FollowersHandler)).Methods("GET")
	apiCreate.Handle("/users/{user_id}/following", http.HandlerFunc(u.FollowingHandler)).Methods("GET")

	apiCreate.Handle("/posts", http.HandlerFunc(p.FeedHandler)).Methods("GET")
	apiCreate.Handle("/posts", api.Middleware(http.HandlerFunc(p.CreatePostHandler))).Methods("POST")
	apiCreate.Handle("/posts/{post_id}", http.HandlerFunc(p.PostHandler)).Methods("GET")
	apiCreate.Handle("/posts/{post_id}", api.Middleware(http.HandlerFunc(p.DeletePostHandler))).Methods("DELETE")
	apiCreate.Handle("/posts/{post_id}/like", api.Middleware(http.HandlerFunc(p.LikePostHandler))).Methods("POST")
	apiCreate.Handle("/posts/{post_id}/comments", http.HandlerFunc(c.CommentsHandler)).Methods("GET")
	apiCreate.Handle("/posts/{post_id}/comments", api.Middleware(http.HandlerFunc(c.CreateCommentHandler))).Methods("POST")
	apiCreate.Handle("/comments/{comment_id}", api.Middleware(http.HandlerFunc(c.DeleteCommentHandler))).Methods("DELETE")

	apiCreate.Handle("/guides", http.HandlerFunc(g.GuidesHandler)).Methods("GET")
	apiCreate.Handle("/guides", api.Middleware(http.HandlerFunc(g.CreateGuideHandler))).Methods("POST")
	apiCreate.Handle("/guides/{guide_id}", http.HandlerFunc(g.GuideHandler)).Methods("GET")
	apiCreate.Handle("/guides/{guide_id}", api.Middleware(http.HandlerFunc(g.UpdateGuideHandler))).Methods("PUT")
	apiCreate.Handle("/guides/{guide_id}", api.Middleware(http.HandlerFunc(g.DeleteGuideHandler))).Methods("DELETE")
	apiCreate.Handle("/guides/{guide_id}/useful", api.Middleware(http.HandlerFunc(g.MarkUsefulHandler))).Methods("POST")
	apiCreate.Handle("/guides/{guide_id}/comments", http.HandlerFunc(gc.GuideCommentsHandler)).Methods("GET")
	apiCreate.Handle("/guides/{guide_id}/comments", api.Middleware(http.HandlerFunc(gc.CreateGuideCommentHandler))).Methods("POST")
	apiCreate.Handle("/guides/comments/{comment_id}", api.Middleware(http.HandlerFunc(gc.UpdateGuideCommentHandler))).Methods("PUT")
	apiCreate.Handle("/guides/comments/{comment_id}", api.Middleware(http.HandlerFunc(gc.DeleteGuideCommentHandler))).Methods("DELETE")

	apiCreate.Handle("/games", http.HandlerFunc(game.GamesHandler)).Methods("GET")
	apiCreate.Handle("/games/{game_id}", http.HandlerFunc(game.GameHandler)).Methods("GET")
	apiCreate.Handle("/games/{game_id}/reviews", http.HandlerFunc(review.GameReviewsHandler)).Methods("GET")
	apiCreate.Handle("/games/{game_id}/reviews", api.Middleware(http.HandlerFunc(review.UpsertReviewHandler))).Methods("PUT")
	apiCreate.Handle("/reviews/{review_id}", api.Middleware(http.HandlerFunc(review.DeleteReviewHandler))).Methods("DELETE")

	apiCreate.Handle("/search", api.Middleware(http.HandlerFunc(search.GlobalSearchHandler))).Methods("GET")
	apiCreate.Handle("/search/suggestions", http.HandlerFunc(search.SuggestionsHandler)).Methods("GET")
	apiCreate.Handle("/upload/signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignatureHandler))).Methods("POST")

	apiCreate.Handle("/reports", api.Middleware(http.HandlerFunc(report.CreateReportHandler))).Methods("POST")
	apiCreate.Handle("/reports/check", api.Middleware(http.HandlerFunc(report.CheckDuplicateHandler))).Methods("GET")
	apiCreate.Handle("/reports/my", api.Middleware(http.HandlerFunc(report.MyReportsHandler))).Methods("GET")

	apiCreate.Handle("/admin/login", http.HandlerFunc(admin.AdminLoginHandler)).Methods("POST")

	adminCreate := apiCreate.PathPrefix("/admin").Subrouter()
	adminCreate.Use(api.AdminMiddleware)
	adminCreate.Handle("/dashboard", http.HandlerFunc(admin.DashboardStatsHandler)).Methods("GET")
	adminCreate.Handle("/reports", http.HandlerFunc(report.AdminReportsHandler)).Methods("GET")
	adminCreate.Handle("/reports/{report_id}", http.HandlerFunc(report.UpdateReportStatusHandler)).Methods("PATCH")
	adminCreate.Handle("/reports/{report_id}", http.HandlerFunc(report.DeleteReportHandler)).Methods("DELETE")
	adminCreate.Handle("/reports/{report_id}/approve", http.HandlerFunc(admin.ApproveReportHandler)).Methods("POST")
	adminCreate.Handle("/reports/{report_id}/reject", http.HandlerFunc(admin.RejectReportHandler)).Methods("POST")
	adminCreate.Handle("/users/{user_id}/ban", http.HandlerFunc(admin.BanUserHandler)).Methods("POST")
	adminCreate.Handle("/users/{user_id}/unban", http.HandlerFunc(admin.UnbanUserHandler)).Methods("POST")
	adminCreate.Handle("/users/{user_id}/role", http.HandlerFunc(admin.UpdateUserRoleHandler)).Methods("PATCH")
	adminCreate.Handle("/users/{user_id}", http.HandlerFunc(admin.DeleteUserHandler)).Methods("DELETE")
	adminCreate.Handle("/logs", http.HandlerFunc(admin.AdminLogsHandler)).Methods("GET")
	adminCreate.Handle("/metrics", http.HandlerFunc(admin.MetricsSummaryHandler)).Methods("GET")
	adminCreate.Handle("/games", http.HandlerFunc(game.CreateGameHandler)).Methods("POST")
	adminCreate.Handle("/games/{game_id}", http.HandlerFunc(game.UpdateGameHandler)).Methods("PUT")
	adminCreate.Handle("/games/{game_id}", http.HandlerFunc(game.DeactivateGameHandler)).Methods("DELETE")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect(context.Background())
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("playzone-api has connected to the database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := databases.NewReportDatabase(a.dbHelper).EnsureIndexes(ctx); err != nil {
		zap.S().With(err).Error("failed to ensure report indexes")
		return err
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// DatabaseHelper exposes the connected db handle so main can hand it to
// the scheduler
func (a *App) DatabaseHelper() databases.DatabaseHelper {
	return a.dbHelper
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
