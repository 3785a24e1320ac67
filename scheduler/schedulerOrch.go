package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"oddsAggregator/config"
	"oddsAggregator/models"
	"oddsAggregator/scheduler/scheduler_jobs"
	"oddsAggregator/services/cacheService"
	"oddsAggregator/services/facadeService"
	"oddsAggregator/services/healthService"
	"oddsAggregator/services/providerService"
)

// SetupCron wires the background jobs: the provider health probe loop, the
// expired-cache sweep and the daily cache warmup. Probe and sweep cadence
// come from config.
func SetupCron(db *gorm.DB, cfg *config.Config, health *healthService.Monitor, cache *cacheService.TieredCache, facade *facadeService.Facade, providers []providerService.Provider, logger *logrus.Logger) *cron.Cron {
	cronService := cron.New(cron.WithSeconds())

	_, err := cronService.AddFunc("@every "+cfg.Health.ProbeInterval.String(), func() {
		// Probe each provider and snapshot metrics.
		scheduler_jobs.CheckProviderHealth(health, providers)
	})

	_, err = cronService.AddFunc("@every "+cfg.Cache.SweepInterval.String(), func() {
		// Sweep expired cache rows.
		sweepErr := scheduler_jobs.SweepExpiredCache(cache, logger)
		if sweepErr != nil {
			health.LogError("SWEEP ERR", sweepErr)
		}
	})

	_, err = cronService.AddFunc("0 0 6 * * *", func() {
		// At 6am every day: refresh the popular-sports cache.
		scheduler_jobs.RefreshWarmCache(facade, logger)
	})

	if err != nil {
		errLog := models.ErrorLog{
			Source:  "CRON ERR",
			Message: fmt.Sprintf("%v", err),
		}
		db.Create(&errLog)
	}

	cronService.Start()
	return cronService
}
