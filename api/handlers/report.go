package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/playzone/playzone-api/api"
	"github.com/playzone/playzone-api/config"
	"github.com/playzone/playzone-api/databases"
	"github.com/playzone/playzone-api/models"
)

// Report exported for testing purposes
type Report struct {
	RDB      databases.ReportDatabase
	UDB      databases.UserDatabase
	Resolver ContentResolver
}

type createReportRequest struct {
	ContentID      string                       `json:"content_id"`
	ContentType    string                       `json:"content_type"`
	Reason         string                       `json:"reason"`
	Description    string                       `json:"description"`
	AdditionalInfo *models.ReportAdditionalInfo `json:"additional_info"`
}

const maxReportDescription = 1000

// CreateReportHandler files a report against a piece of content. Guards
// run in order: rate limit, duplicate check, content existence. The
// unique index on (content_id, content_type, reporter_user_id) backstops
// the duplicate check against concurrent submissions.
func (rh Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	var details []string
	if req.ContentID == "" {
		details = append(details, "content_id is required")
	}
	if !models.ValidContentType(req.ContentType) {
		details = append(details, "content_type must be one of post, guide, comment, user")
	}
	if !models.ValidReportReason(req.Reason) {
		details = append(details, "reason is not recognized")
	}
	if len(req.Description) > maxReportDescription {
		details = append(details, "description exceeds 1000 characters")
	}
	if len(details) > 0 {
		config.ErrorDetails("validation failed", details, http.StatusBadRequest, w)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	recent, err := rh.RDB.CountRecentReports(ctx, identity.UserID)
	if err != nil {
		config.ErrorStatus("failed to count recent reports", http.StatusInternalServerError, w, err)
		return
	}
	if recent >= databases.MaxReportsPerWindow {
		config.ErrorStatus("report limit reached, try again later", http.StatusTooManyRequests, w, nil)
		return
	}

	existing, err := rh.RDB.ExistsReport(ctx, req.ContentID, req.ContentType, identity.UserID)
	if err != nil {
		config.ErrorStatus("failed to check for duplicate report", http.StatusInternalServerError, w, err)
		return
	}
	if existing != nil {
		config.ErrorStatus("you have already reported this content", http.StatusConflict, w, nil)
		return
	}

	resolved, err := rh.Resolver.Resolve(ctx, req.ContentID, req.ContentType)
	if err != nil {
		config.ErrorStatus("failed to resolve reported content", http.StatusBadRequest, w, err)
		return
	}
	if !resolved.Exists {
		config.ErrorStatus("reported content does not exist", http.StatusBadRequest, w, nil)
		return
	}

	now := time.Now()
	report := models.Report{
		ContentID:      req.ContentID,
		ContentType:    req.ContentType,
		Reason:         req.Reason,
		Description:    req.Description,
		ReporterUserID: identity.UserID,
		Status:         models.ReportStatusPending,
		AdditionalInfo: req.AdditionalInfo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Reports against a user point at the user themselves; for content the
	// reported account is whoever authored it
	if req.ContentType == models.ContentTypeUser {
		if reported, convErr := primitive.ObjectIDFromHex(req.ContentID); convErr == nil {
			report.ReportedUserID = &reported
		}
	} else {
		report.ReportedUserID = resolved.OwnerID
	}

	insertedID, err := rh.RDB.InsertOne(ctx, report)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			config.ErrorStatus("you have already reported this content", http.StatusConflict, w, nil)
			return
		}
		config.ErrorStatus("failed to insert report", http.StatusInternalServerError, w, err)
		return
	}
	if oid, ok := insertedID.(primitive.ObjectID); ok {
		report.ID = oid
	}

	zap.S().Infow("report filed",
		"reportId", report.ID.Hex(),
		"contentType", report.ContentType,
		"reason", report.Reason,
		"reporter", identity.UserID.Hex())

	b, err := json.Marshal(report)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CheckDuplicateHandler tells the caller whether they already reported a
// given piece of content, so clients can disable the report button
func (rh Report) CheckDuplicateHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	contentID := r.URL.Query().Get("content_id")
	contentType := r.URL.Query().Get("content_type")
	if contentID == "" || !models.ValidContentType(contentType) {
		config.ErrorStatus("content_id and a valid content_type are required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := rh.RDB.ExistsReport(ctx, contentID, contentType, identity.UserID)
	if err != nil {
		config.ErrorStatus("failed to check for duplicate report", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]bool{"reported": existing != nil})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MyReportsHandler lists the caller's own reports, newest first
func (rh Report) MyReportsHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing identity", http.StatusUnauthorized, w, nil)
		return
	}

	page, limit := pageParams(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"reporter_user_id": identity.UserID}
	opts := databases.PaginatedOpts(limit, page).SetSort(bson.M{"created_at": -1})

	reports, err := rh.RDB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get reports", http.StatusInternalServerError, w, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	total, err := rh.RDB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count reports", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"reports":    reports,
		"pagination": models.NewPagination(page, limit, total),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// adminReportView is a report enriched with its live content for the
// moderation queue
type adminReportView struct {
	models.Report
	Content ResolvedContent `json:"content"`
}

// AdminReportsHandler lists reports for the moderation dashboard with
// optional status and content_type filters. The page fetch, total count
// and per-status stats run concurrently. Each report row carries a
// denormalized view of its content; content that has since disappeared
// degrades to a placeholder instead of failing the page.
func (rh Report) AdminReportsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		if status != models.ReportStatusPending && !models.ValidReportTransition(status) {
			config.ErrorStatus("unknown status filter", http.StatusBadRequest, w, nil)
			return
		}
		filter["status"] = status
	}
	if contentType := r.URL.Query().Get("content_type"); contentType != "" {
		if !models.ValidContentType(contentType) {
			config.ErrorStatus("unknown content_type filter", http.StatusBadRequest, w, nil)
			return
		}
		filter["content_type"] = contentType
	}
	if reason := r.URL.Query().Get("reason"); reason != "" {
		if !models.ValidReportReason(reason) {
			config.ErrorStatus("unknown reason filter", http.StatusBadRequest, w, nil)
			return
		}
		filter["reason"] = reason
	}

	sortField := r.URL.Query().Get("sort")
	switch sortField {
	case "":
		sortField = "created_at"
	case "created_at", "updated_at", "reviewed_at", "status":
	default:
		config.ErrorStatus("unknown sort field", http.StatusBadRequest, w, nil)
		return
	}
	sortOrder := -1
	if r.URL.Query().Get("order") == "asc" {
		sortOrder = 1
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var (
		wg       sync.WaitGroup
		reports  []models.Report
		total    int64
		stats    models.ReportStats
		findErr  error
		countErr error
		statsErr error
	)

	opts := databases.PaginatedOpts(limit, page).SetSort(bson.M{sortField: sortOrder})

	wg.Add(3)
	go func() {
		defer wg.Done()
		reports, findErr = rh.RDB.Find(ctx, filter, opts)
	}()
	go func() {
		defer wg.Done()
		total, countErr = rh.RDB.CountDocuments(ctx, filter)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = rh.RDB.CountByStatus(ctx)
	}()
	wg.Wait()

	if findErr != nil {
		config.ErrorStatus("failed to get reports", http.StatusInternalServerError, w, findErr)
		return
	}
	if countErr != nil {
		config.ErrorStatus("failed to count reports", http.StatusInternalServerError, w, countErr)
		return
	}
	if statsErr != nil {
		config.ErrorStatus("failed to get report stats", http.StatusInternalServerError, w, statsErr)
		return
	}

	views := make([]adminReportView, 0, len(reports))
	for _, report := range reports {
		view := adminReportView{Report: report}
		resolved, err := rh.Resolver.Resolve(ctx, report.ContentID, report.ContentType)
		if err != nil || !resolved.Exists {
			view.Content = ResolvedContent{
				Type:    report.ContentType,
				Preview: "[content removed]",
			}
		} else {
			view.Content = resolved
		}
		views = append(views, view)
	}

	b, err := json.Marshal(map[string]interface{}{
		"reports":    views,
		"stats":      stats,
		"pagination": models.NewPagination(page, limit, total),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type updateReportRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
	Action     string `json:"action"`
}

// UpdateReportStatusHandler moves a report through the review workflow
// and stamps it with the reviewer and review time
func (rh Report) UpdateReportStatusHandler(w http.ResponseWriter, r *http.Request) {
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

	var req updateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if !models.ValidReportTransition(req.Status) {
		config.ErrorStatus("status must be one of reviewing, resolved, dismissed", http.StatusBadRequest, w, nil)
		return
	}
	if req.Action != "" && !models.ValidReportAction(req.Action) {
		config.ErrorStatus("unknown action", http.StatusBadRequest, w, nil)
		return
	}

	now := time.Now()
	set := bson.M{
		"status":      req.Status,
		"reviewed_by": identity.UserID,
		"reviewed_at": now,
		"updated_at":  now,
	}
	if req.AdminNotes != "" {
		set["admin_notes"] = req.AdminNotes
	}
	if req.Action != "" {
		set["action"] = req.Action
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := rh.RDB.FindOneAndUpdate(ctx, bson.M{"_id": rID}, bson.M{"$set": set})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("report not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to update report", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("report reviewed",
		"reportId", reportID,
		"status", req.Status,
		"reviewer", identity.UserID.Hex())

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteReportHandler removes a report outright
func (rh Report) DeleteReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]
	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	result, err := rh.RDB.DeleteOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to delete report", http.StatusInternalServerError, w, err)
		return
	}
	if result == nil || result.DeletedCount == 0 {
		config.ErrorStatus("report not found", http.StatusNotFound, w, nil)
		return
	}

	b, err := json.Marshal(map[string]interface{}{"success": true})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// pageParams extracts page and limit query parameters with sane defaults
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
