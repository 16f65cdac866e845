package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/playzone/playzone-api/api"
	"github.com/playzone/playzone-api/config"
	"github.com/playzone/playzone-api/databases"
	"github.com/playzone/playzone-api/models"
	templates "github.com/playzone/playzone-api/templates/html"
)

// Admin exported for testing purposes
type Admin struct {
	UDB    databases.UserDatabase
	RDB    databases.ReportDatabase
	PDB    databases.PostDatabase
	GDB    databases.GuideDatabase
	CDB    databases.CommentDatabase
	GCDB   databases.GuideCommentDatabase
	GameDB databases.GameDatabase
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginHandler authenticates a staff account and issues a dashboard
// session token
func (a Admin) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.UDB.FindOne(ctx, bson.M{"email": req.Email})
	if err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, err)
		return
	}

	if user.Role != models.RoleAdmin && user.Role != models.RoleModerator {
		config.ErrorStatus("staff access required", http.StatusForbidden, w, nil)
		return
	}

	token, err := api.IssueAdminToken(user.ID, user.Role)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]string{
		"token": token,
		"_id":   user.ID.Hex(),
		"role":  user.Role,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DashboardStatsHandler aggregates the counters shown at the top of the
// moderation dashboard. All counts run concurrently.
func (a Admin) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := time.Now()
	counts := map[string]int64{}
	var reportStats models.ReportStats
	var firstErr error
	var mu sync.Mutex
	var wg sync.WaitGroup

	count := func(key string, db func(context.Context, interface{}) (int64, error), filter bson.M) {
		defer wg.Done()
		n, err := db(ctx, filter)
		mu.Lock()
		defer mu.Unlock()
		if err != nil && firstErr == nil {
			firstErr = err
			return
		}
		counts[key] = n
	}

	wg.Add(8)
	go count("totalUsers", a.UDB.CountDocuments, bson.M{})
	go count("totalPosts", a.PDB.CountDocuments, bson.M{})
	go count("totalGuides", a.GDB.CountDocuments, bson.M{})
	go count("totalComments", a.CDB.CountDocuments, bson.M{})
	go count("totalGames", a.GameDB.CountDocuments, bson.M{"isActive": true})
	go count("bannedUsers", a.UDB.CountDocuments, bson.M{"isBanned": true})
	go count("newUsers7d", a.UDB.CountDocuments, bson.M{"createdAt": bson.M{"$gte": now.Add(-7 * 24 * time.Hour)}})
	go count("activeUsers30d", a.UDB.CountDocuments, bson.M{"updatedAt": bson.M{"$gte": now.Add(-30 * 24 * time.Hour)}})

	wg.Add(1)
	go func() {
		defer wg.Done()
		stats, err := a.RDB.CountByStatus(ctx)
		mu.Lock()
		defer mu.Unlock()
		if err != nil && firstErr == nil {
			firstErr = err
			return
		}
		reportStats = stats
	}()

	wg.Wait()

	if firstErr != nil {
		config.ErrorStatus("failed to aggregate dashboard stats", http.StatusInternalServerError, w, firstErr)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"counts":  counts,
		"reports": reportStats,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type resolveReportRequest struct {
	AdminNotes string `json:"admin_notes"`
	Action     string `json:"action"`
}

// ApproveReportHandler resolves a pending report, recording that the
// complaint was upheld. Only pending reports can be approved.
func (a Admin) ApproveReportHandler(w http.ResponseWriter, r *http.Request) {
	a.closeReport(w, r, models.ReportStatusResolved)
}

// RejectReportHandler dismisses a pending report. Only pending reports
// can be rejected.
func (a Admin) RejectReportHandler(w http.ResponseWriter, r *http.Request) {
	a.closeReport(w, r, models.ReportStatusDismissed)
}

func (a Admin) closeReport(w http.ResponseWriter, r *http.Request, outcome string) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	reportID := mux.Vars(r)["report_id"]
	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req resolveReportRequest
	if r.Body != nil {
		// Body is optional for these endpoints
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Action != "" && !models.ValidReportAction(req.Action) {
		config.ErrorStatus("unknown action", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := a.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("report not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to get report by ID", http.StatusInternalServerError, w, err)
		return
	}
	if report.Status != models.ReportStatusPending {
		config.ErrorStatus("report has already been reviewed", http.StatusConflict, w, nil)
		return
	}

	now := time.Now()
	set := bson.M{
		"status":      outcome,
		"reviewed_by": identity.UserID,
		"reviewed_at": now,
		"updated_at":  now,
	}
	if req.AdminNotes != "" {
		set["admin_notes"] = req.AdminNotes
	}
	if req.Action != "" {
		set["action"] = req.Action
	} else if outcome == models.ReportStatusDismissed {
		set["action"] = models.ReportActionNoAction
	}

	updated, err := a.RDB.FindOneAndUpdate(ctx, bson.M{"_id": rID, "status": models.ReportStatusPending}, bson.M{"$set": set})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Lost the race with another reviewer
			config.ErrorStatus("report has already been reviewed", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to update report", http.StatusInternalServerError, w, err)
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

type banUserRequest struct {
	Reason       string `json:"reason"`
	DurationDays int    `json:"durationDays"`
}

// BanUserHandler suspends an account. Only admins may ban, staff accounts
// cannot be banned and admins cannot ban themselves. A positive
// durationDays sets a self-expiring ban; zero or negative means
// indefinite. Re-banning an already banned user overwrites the existing
// ban, which lets staff extend or shorten it.
func (a Admin) BanUserHandler(w http.ResponseWriter, r *http.Request) {
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
		config.ErrorStatus("you cannot ban yourself", http.StatusBadRequest, w, nil)
		return
	}

	var req banUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Reason == "" {
		config.ErrorStatus("a ban reason is required", http.StatusBadRequest, w, nil)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	target, err := a.UDB.FindByID(ctx, uID)
	if err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}

	if !canPerform(identity.Role, actionBan, target.Role) {
		config.ErrorStatus("you are not permitted to ban this user", http.StatusForbidden, w, nil)
		return
	}

	now := time.Now()
	var banUntil *time.Time
	if req.DurationDays > 0 {
		until := now.Add(time.Duration(req.DurationDays) * 24 * time.Hour)
		banUntil = &until
	}

	update := bson.M{
		"$set": bson.M{
			"isBanned":  true,
			"banReason": req.Reason,
			"bannedBy":  identity.UserID,
			"bannedAt":  now,
			"banUntil":  banUntil,
			"updatedAt": now,
		},
	}

	if _, err := a.UDB.UpdateOne(ctx, bson.M{"_id": uID}, update); err != nil {
		config.ErrorStatus("failed to ban user", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("user banned",
		"userId", userID,
		"by", identity.UserID.Hex(),
		"reason", req.Reason,
		"until", banUntil)

	go sendBanNotice(target.Email, target.Name, req.Reason, banUntil)

	b, err := json.Marshal(map[string]interface{}{
		"success":  true,
		"userId":   userID,
		"banUntil": banUntil,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UnbanUserHandler lifts a ban. The target must currently be banned.
func (a Admin) UnbanUserHandler(w http.ResponseWriter, r *http.Request) {
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

	target, err := a.UDB.FindByID(ctx, uID)
	if err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}

	if !canPerform(identity.Role, actionUnban, target.Role) {
		config.ErrorStatus("insufficient role to unban this user", http.StatusForbidden, w, nil)
		return
	}

	if !target.IsBanned {
		config.ErrorStatus("user is not banned", http.StatusBadRequest, w, nil)
		return
	}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"isBanned":   false,
			"banReason":  "",
			"bannedBy":   nil,
			"bannedAt":   nil,
			"banUntil":   nil,
			"unbannedBy": identity.UserID,
			"unbannedAt": now,
			"updatedAt":  now,
		},
	}

	if _, err := a.UDB.UpdateOne(ctx, bson.M{"_id": uID}, update); err != nil {
		config.ErrorStatus("failed to unban user", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("user unbanned",
		"userId", userID,
		"by", identity.UserID.Hex())

	b, err := json.Marshal(map[string]interface{}{"success": true, "userId": userID})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteUserHandler removes an account and everything it authored: posts,
// guides, comments on both content kinds, and the reports it filed.
// Reports already filed against the user stay for the audit trail.
func (a Admin) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
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
		config.ErrorStatus("you cannot delete your own account", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	target, err := a.UDB.FindByID(ctx, uID)
	if err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}

	if !canPerform(identity.Role, actionDeleteUser, target.Role) {
		config.ErrorStatus("insufficient role to delete this user", http.StatusForbidden, w, nil)
		return
	}

	authored := bson.M{"authorId": uID}
	if _, err := a.PDB.DeleteMany(ctx, authored); err != nil {
		config.ErrorStatus("failed to delete user posts", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := a.GDB.DeleteMany(ctx, authored); err != nil {
		config.ErrorStatus("failed to delete user guides", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := a.CDB.DeleteMany(ctx, authored); err != nil {
		config.ErrorStatus("failed to delete user comments", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := a.GCDB.DeleteMany(ctx, authored); err != nil {
		config.ErrorStatus("failed to delete user guide comments", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := a.RDB.DeleteMany(ctx, bson.M{"reporter_user_id": uID}); err != nil {
		config.ErrorStatus("failed to delete user reports", http.StatusInternalServerError, w, err)
		return
	}

	result, err := a.UDB.DeleteOne(ctx, bson.M{"_id": uID})
	if err != nil {
		config.ErrorStatus("failed to delete user", http.StatusInternalServerError, w, err)
		return
	}
	if result == nil || result.DeletedCount == 0 {
		config.ErrorStatus("user not found", http.StatusNotFound, w, nil)
		return
	}

	zap.S().Infow("user deleted",
		"userId", userID,
		"by", identity.UserID.Hex())

	b, err := json.Marshal(map[string]interface{}{"success": true, "userId": userID})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRoleHandler changes an account's role. Admin only; an admin
// cannot demote themselves, which keeps at least one admin around.
func (a Admin) UpdateUserRoleHandler(w http.ResponseWriter, r *http.Request) {
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

	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !models.ValidRole(req.Role) {
		config.ErrorStatus("role must be one of user, moderator, admin", http.StatusBadRequest, w, nil)
		return
	}

	if !canPerform(identity.Role, actionChangeRole, "") {
		config.ErrorStatus("only admins may change roles", http.StatusForbidden, w, nil)
		return
	}

	if uID == identity.UserID && req.Role != models.RoleAdmin {
		config.ErrorStatus("admins cannot demote themselves", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	target, err := a.UDB.FindByID(ctx, uID)
	if err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}

	previousRole := target.Role
	update := bson.M{"$set": bson.M{"role": req.Role, "updatedAt": time.Now()}}
	if _, err := a.UDB.UpdateOne(ctx, bson.M{"_id": uID}, update); err != nil {
		config.ErrorStatus("failed to update role", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("user role changed",
		"userId", userID,
		"by", identity.UserID.Hex(),
		"previousRole", previousRole,
		"newRole", req.Role)

	b, err := json.Marshal(map[string]interface{}{
		"success":      true,
		"userId":       userID,
		"previousRole": previousRole,
		"newRole":      req.Role,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AdminLogsHandler surfaces recently reviewed reports as an audit trail
func (a Admin) AdminLogsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"reviewed_at": bson.M{"$ne": nil}}
	opts := databases.PaginatedOpts(limit, page).SetSort(bson.M{"reviewed_at": -1})

	reports, err := a.RDB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get review log", http.StatusInternalServerError, w, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	total, err := a.RDB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count review log", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"logs":       reports,
		"pagination": models.NewPagination(page, limit, total),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MetricsSummaryHandler exposes the in-process request metrics to the
// dashboard
func (a Admin) MetricsSummaryHandler(w http.ResponseWriter, r *http.Request) {
	mc := api.GetMetrics()
	b, err := json.Marshal(map[string]interface{}{
		"summary": mc.GetSummary(),
		"routes":  mc.GetRouteMetrics(),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// sendBanNotice emails the banned user. Failures are logged and swallowed,
// a missed email must not fail the ban.
func sendBanNotice(toEmail, name, reason string, until *time.Time) {
	if toEmail == "" || os.Getenv("SENDGRID_API_KEY") == "" {
		return
	}

	subject, plain, htmlBody := templates.RenderBanNoticeEmail(name, reason, until)

	from := mail.NewEmail("PlayZone", "no-reply@playzone.gg")
	to := mail.NewEmail(name, toEmail)
	msg := mail.NewSingleEmail(from, subject, to, plain, htmlBody)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	if _, err := client.Send(msg); err != nil {
		zap.S().Errorw("failed to send ban notice email",
			"email", toEmail,
			"error", err)
	}
}
