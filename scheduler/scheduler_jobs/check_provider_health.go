package scheduler_jobs

import (
	"context"
	"time"

	"oddsAggregator/services/healthService"
	"oddsAggregator/services/providerService"
)

// probeTimeout bounds one full probe pass across all providers.
const probeTimeout = 2 * time.Minute

// CheckProviderHealth runs one probe cycle: each available provider gets its
// cheapest supported call, outcomes feed the state machines, and a metrics
// snapshot is persisted for trend queries.
func CheckProviderHealth(health *healthService.Monitor, providers []providerService.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	health.RunProbe(ctx, providers)
}
