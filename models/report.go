package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Content kinds a report may point at.
const (
	ContentTypePost    = "post"
	ContentTypeGuide   = "guide"
	ContentTypeComment = "comment"
	ContentTypeUser    = "user"
)

// Report statuses. A report starts pending and is moved by an admin to
// reviewing or one of the two terminal outcomes.
const (
	ReportStatusPending   = "pending"
	ReportStatusReviewing = "reviewing"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// Actions an admin can record against a reviewed report.
const (
	ReportActionContentRemoved = "content_removed"
	ReportActionUserWarned     = "user_warned"
	ReportActionUserBanned     = "user_banned"
	ReportActionNoAction       = "no_action"
)

// Report reasons.
var reportReasons = map[string]struct{}{
	"spam":           {},
	"harassment":     {},
	"inappropriate":  {},
	"offensive":      {},
	"misinformation": {},
	"copyright":      {},
	"violence":       {},
	"other":          {},
}

// ValidContentType reports whether t is a known report target kind.
func ValidContentType(t string) bool {
	switch t {
	case ContentTypePost, ContentTypeGuide, ContentTypeComment, ContentTypeUser:
		return true
	}
	return false
}

// ValidReportReason reports whether reason is a known report reason.
func ValidReportReason(reason string) bool {
	_, ok := reportReasons[reason]
	return ok
}

// ValidReportTransition reports whether status is a valid non-initial report
// status an admin may move a report to.
func ValidReportTransition(status string) bool {
	switch status {
	case ReportStatusReviewing, ReportStatusResolved, ReportStatusDismissed:
		return true
	}
	return false
}

// ValidReportAction reports whether action is a known moderation action label.
func ValidReportAction(action string) bool {
	switch action {
	case ReportActionContentRemoved, ReportActionUserWarned, ReportActionUserBanned, ReportActionNoAction:
		return true
	}
	return false
}

// ReportAdditionalInfo carries advisory client metadata attached to a report.
type ReportAdditionalInfo struct {
	UserAgent string     `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Timestamp *time.Time `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
	URL       string     `bson:"url,omitempty" json:"url,omitempty"`
	IPAddress string     `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
}

// Report represents a user-filed flag against content or another user.
// The collection carries a unique index on
// (content_id, content_type, reporter_user_id) so a member can report a given
// piece of content at most once; that index is the race-safety backstop
// behind the application-level duplicate check.
type Report struct {
	ID             primitive.ObjectID    `bson:"_id,omitempty" json:"id,omitempty"`
	ContentID      string                `bson:"content_id" json:"content_id"`
	ContentType    string                `bson:"content_type" json:"content_type"`
	Reason         string                `bson:"reason" json:"reason"`
	Description    string                `bson:"description,omitempty" json:"description,omitempty"`
	ReporterUserID primitive.ObjectID    `bson:"reporter_user_id" json:"reporter_user_id"`
	ReportedUserID *primitive.ObjectID   `bson:"reported_user_id,omitempty" json:"reported_user_id,omitempty"`
	Status         string                `bson:"status" json:"status"`
	AdminNotes     string                `bson:"admin_notes,omitempty" json:"admin_notes,omitempty"`
	ReviewedBy     *primitive.ObjectID   `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time            `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	Action         string                `bson:"action,omitempty" json:"action,omitempty"`
	AdditionalInfo *ReportAdditionalInfo `bson:"additional_info,omitempty" json:"additional_info,omitempty"`
	CreatedAt      time.Time             `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time             `bson:"updated_at" json:"updated_at"`
}

// ReportStats holds per-status report counts for the moderation dashboard.
type ReportStats struct {
	Pending   int64 `json:"pending"`
	Reviewing int64 `json:"reviewing"`
	Resolved  int64 `json:"resolved"`
	Dismissed int64 `json:"dismissed"`
}

// Total returns the sum over all statuses.
func (s ReportStats) Total() int64 {
	return s.Pending + s.Reviewing + s.Resolved + s.Dismissed
}
