package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/playzone/playzone-api/databases"
)

// Scheduler handles periodic background jobs for the moderation pipeline
type Scheduler struct {
	cron *cron.Cron
	UDB  databases.UserDatabase
	RDB  databases.ReportDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(uDB databases.UserDatabase, rDB databases.ReportDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		UDB:  uDB,
		RDB:  rDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Lift expired temporary bans hourly
	_, err := s.cron.AddFunc("0 * * * *", s.liftExpiredBans)
	if err != nil {
		zap.S().Errorw("failed to register ban expiry job", "error", err)
	}

	// Log a pending report digest daily at 6 AM UTC so staff see the
	// queue size in the morning
	_, err = s.cron.AddFunc("0 6 * * *", s.pendingReportDigest)
	if err != nil {
		zap.S().Errorw("failed to register report digest job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Moderation scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Moderation scheduler stopped")
}

// liftExpiredBans clears ban state from users whose temporary ban has run
// out. Indefinite bans have no banUntil and are never touched here.
func (s *Scheduler) liftExpiredBans() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	filter := bson.M{
		"isBanned": true,
		"banUntil": bson.M{"$ne": nil, "$lte": now},
	}
	update := bson.M{
		"$set": bson.M{
			"isBanned":   false,
			"banReason":  "",
			"bannedBy":   nil,
			"bannedAt":   nil,
			"banUntil":   nil,
			"unbannedAt": now,
			"updatedAt":  now,
		},
	}

	result, err := s.UDB.UpdateMany(ctx, filter, update)
	if err != nil {
		zap.S().Errorw("failed to lift expired bans", "error", err)
		return
	}
	if result != nil && result.ModifiedCount > 0 {
		zap.S().Infow("Lifted expired bans", "count", result.ModifiedCount)
	}
}

// pendingReportDigest logs how many reports are waiting on review
func (s *Scheduler) pendingReportDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stats, err := s.RDB.CountByStatus(ctx)
	if err != nil {
		zap.S().Errorw("failed to count reports for digest", "error", err)
		return
	}

	zap.S().Infow("Daily report queue digest",
		"pending", stats.Pending,
		"reviewing", stats.Reviewing,
		"resolved", stats.Resolved,
		"dismissed", stats.Dismissed,
		"total", stats.Total())
}
