package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Clubhouse/internal/db"
	dbgen "github.com/codr1/Clubhouse/internal/db/generated"
)

const (
	AnalyticsRetentionJobName  = "analytics_retention"
	AvailabilityCleanupJobName = "availability_cleanup"

	// AvailabilityMaxAge is how long match availability responses are kept.
	AvailabilityMaxAge = 180 * 24 * time.Hour

	maintenanceJobTimeout = 2 * time.Minute
)

type MaintenanceConfig struct {
	AnalyticsRetentionCron  string
	AvailabilityCleanupCron string
	AnalyticsRetentionDays  int
}

// RegisterMaintenanceJobs adds the data retention jobs to the scheduler created by Init.
func RegisterMaintenanceJobs(database *db.DB, cfg MaintenanceConfig) error {
	svc, err := ServiceInstance()
	if err != nil {
		return err
	}
	return registerMaintenanceJobs(svc, database, cfg, func() time.Time { return time.Now().UTC() })
}

func maintenanceJobs(q *dbgen.Queries, cfg MaintenanceConfig, now func() time.Time) []Job {
	return []Job{
		{
			Name:    AnalyticsRetentionJobName,
			Cron:    cfg.AnalyticsRetentionCron,
			Timeout: maintenanceJobTimeout,
			Run: func(ctx context.Context) error {
				_, err := PurgeAnalyticsEvents(ctx, q, now(), cfg.AnalyticsRetentionDays)
				return err
			},
		},
		{
			Name:    AvailabilityCleanupJobName,
			Cron:    cfg.AvailabilityCleanupCron,
			Timeout: maintenanceJobTimeout,
			Run: func(ctx context.Context) error {
				_, err := PurgeStaleAvailability(ctx, q, now())
				return err
			},
		},
	}
}

func registerMaintenanceJobs(svc *Service, database *db.DB, cfg MaintenanceConfig, now func() time.Time) error {
	if database == nil {
		return fmt.Errorf("maintenance jobs require database")
	}
	for _, job := range maintenanceJobs(database.Queries, cfg, now) {
		if _, err := svc.Register(job); err != nil {
			return fmt.Errorf("register %s: %w", job.Name, err)
		}
	}
	return nil
}

// PurgeAnalyticsEvents deletes analytics events older than retentionDays.
// A non-positive retention keeps everything.
func PurgeAnalyticsEvents(ctx context.Context, q *dbgen.Queries, now time.Time, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	deleted, err := q.DeleteAnalyticsEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete analytics events: %w", err)
	}
	log.Ctx(ctx).Info().Time("cutoff", cutoff).Int64("deleted", deleted).Msg("Purged expired analytics events")
	return deleted, nil
}

// PurgeStaleAvailability deletes availability responses not updated within AvailabilityMaxAge.
func PurgeStaleAvailability(ctx context.Context, q *dbgen.Queries, now time.Time) (int64, error) {
	cutoff := now.Add(-AvailabilityMaxAge)
	deleted, err := q.DeleteMatchAvailabilityBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete match availability: %w", err)
	}
	log.Ctx(ctx).Info().Time("cutoff", cutoff).Int64("deleted", deleted).Msg("Purged stale match availability")
	return deleted, nil
}
