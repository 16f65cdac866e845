package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidContentType(t *testing.T) {
	assert.True(t, ValidContentType("post"))
	assert.True(t, ValidContentType("guide"))
	assert.True(t, ValidContentType("comment"))
	assert.True(t, ValidContentType("user"))
	assert.False(t, ValidContentType("review"))
	assert.False(t, ValidContentType(""))
}

func TestValidReportReason(t *testing.T) {
	for _, reason := range []string{"spam", "harassment", "inappropriate", "offensive", "misinformation", "copyright", "violence", "other"} {
		assert.True(t, ValidReportReason(reason), reason)
	}
	assert.False(t, ValidReportReason("disagreeable"))
	assert.False(t, ValidReportReason(""))
}

func TestValidReportTransition(t *testing.T) {
	assert.True(t, ValidReportTransition(ReportStatusReviewing))
	assert.True(t, ValidReportTransition(ReportStatusResolved))
	assert.True(t, ValidReportTransition(ReportStatusDismissed))

	// pending is the initial status, never a transition target
	assert.False(t, ValidReportTransition(ReportStatusPending))
	assert.False(t, ValidReportTransition("closed"))
}

func TestValidReportAction(t *testing.T) {
	assert.True(t, ValidReportAction(ReportActionContentRemoved))
	assert.True(t, ValidReportAction(ReportActionUserWarned))
	assert.True(t, ValidReportAction(ReportActionUserBanned))
	assert.True(t, ValidReportAction(ReportActionNoAction))
	assert.False(t, ValidReportAction("user_shadowbanned"))
}

func TestReportStatsTotal(t *testing.T) {
	stats := ReportStats{Pending: 4, Reviewing: 1, Resolved: 10, Dismissed: 3}
	assert.Equal(t, int64(18), stats.Total())
	assert.Equal(t, int64(0), ReportStats{}.Total())
}
