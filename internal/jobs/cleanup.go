package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/kairanet/kairan-backend/internal/models"
	"github.com/kairanet/kairan-backend/internal/repository"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Start schedules the background maintenance jobs: expired link-code GC
// every 10 minutes and system-log retention (30 days) daily. The returned
// cron is already running; callers stop it on shutdown.
func Start(db *gorm.DB, codes repository.LinkCodeRepository) *cron.Cron {
	c := cron.New()

	c.AddFunc("@every 10m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		purged, err := codes.PurgeExpired(ctx, time.Now().UTC())
		if err != nil {
			slog.Error("link code cleanup failed", "error", err.Error())
			return
		}
		if purged > 0 {
			slog.Info("link code cleanup completed", "purged", purged)
		}
	})

	c.AddFunc("@daily", func() {
		cutoff := time.Now().AddDate(0, 0, -30)
		result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
		if result.Error != nil {
			slog.Error("log cleanup failed", "error", result.Error.Error())
		} else if result.RowsAffected > 0 {
			slog.Info("log cleanup completed", "deleted", result.RowsAffected)
		}
	})

	c.Start()
	return c
}
