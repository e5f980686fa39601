// Package retention runs the scheduled purge of old read notifications.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"chatd/pkg/config"
	"chatd/pkg/logger"
	"chatd/pkg/store"
)

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg *config.Config) (context.CancelFunc, error) {
	if !cfg.Retention.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Retention.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", cronExpr)
		return nil, fmt.Errorf("invalid retention cron expression: %s", cronExpr)
	}

	period := cfg.RetentionPeriod()
	logger.Info("retention_enabled", "cron", cronExpr, "period", period.String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, period)
	return cancel, nil
}

// runScheduler computes the next tick for the cron expression with gronx
// and sleeps until then.
func runScheduler(ctx context.Context, cronExpr string, period time.Duration) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}

		if err := RunOnce(period); err != nil {
			logger.Error("retention_run_error", "error", err)
		}
	}
}

// RunOnce purges read notifications older than the retention period. It
// is exported so admin triggers and tests can run retention on demand.
func RunOnce(period time.Duration) error {
	cutoff := time.Now().UTC().Add(-period).UnixNano()
	n, err := store.PurgeNotifications(cutoff)
	if err != nil {
		return fmt.Errorf("purge notifications: %w", err)
	}
	logger.Info("retention_run_complete", "purged", n, "cutoff", cutoff)
	return nil
}
