package scheduler_jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"oddsAggregator/services/facadeService"
)

const warmupTimeout = 5 * time.Minute

// RefreshWarmCache re-runs the facade warmup so the popular sports stay
// populated even without request traffic.
func RefreshWarmCache(facade *facadeService.Facade, logger *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	defer cancel()

	logger.Info("running scheduled cache warmup")
	facade.Warmup(ctx)
}
