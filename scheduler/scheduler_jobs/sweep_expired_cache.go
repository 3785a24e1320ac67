package scheduler_jobs

import (
	"github.com/sirupsen/logrus"

	"oddsAggregator/services/cacheService"
)

// SweepExpiredCache deletes rows past expiry across every cache class and
// logs the counts removed.
func SweepExpiredCache(cache *cacheService.TieredCache, logger *logrus.Logger) error {
	removed, err := cache.Sweep()
	if err != nil {
		return err
	}

	total := int64(0)
	fields := logrus.Fields{}
	for class, count := range removed {
		fields[string(class)] = count
		total += count
	}
	if total > 0 {
		logger.WithFields(fields).Info("cache sweep removed expired rows")
	}
	return nil
}
