package healthService

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"oddsAggregator/config"
	"oddsAggregator/models"
	"oddsAggregator/services/providerService"
)

// TrendPoint is one timestamped capture of every provider metric, kept in the
// in-memory ring for trend queries.
type TrendPoint struct {
	TakenAt time.Time                              `json:"taken_at"`
	Metrics map[string]models.ProviderHealthMetric `json:"metrics"`
}

// Monitor owns the per-provider health state machines. Metrics are created at
// construction, mutated only here, and never deleted; Reset is the one
// operator-facing escape hatch.
type Monitor struct {
	db     *gorm.DB
	cfg    config.HealthConfig
	logger *logrus.Logger
	now    func() time.Time

	mu      sync.RWMutex
	metrics map[string]*models.ProviderHealthMetric
	ring    []TrendPoint
}

func NewMonitor(db *gorm.DB, cfg config.HealthConfig, logger *logrus.Logger, providerNames []string) *Monitor {
	m := &Monitor{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		metrics: make(map[string]*models.ProviderHealthMetric, len(providerNames)),
	}
	for _, name := range providerNames {
		m.metrics[name] = &models.ProviderHealthMetric{
			Name:        name,
			Status:      models.HealthHealthy,
			SuccessRate: 1.0,
		}
	}
	return m
}

// WithClock swaps the time source, for deterministic tests.
func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	m.now = now
	return m
}

// evaluate applies the state machine after every recorded outcome. Caller
// holds the write lock.
func evaluate(metric *models.ProviderHealthMetric) {
	switch {
	case metric.ConsecutiveFailures >= 5:
		metric.Status = models.HealthDown
	case metric.ConsecutiveFailures >= 3:
		metric.Status = models.HealthUnhealthy
	case metric.SuccessRate < 0.8:
		metric.Status = models.HealthDegraded
	default:
		metric.Status = models.HealthHealthy
	}
}

func (m *Monitor) metric(name string) *models.ProviderHealthMetric {
	metric, ok := m.metrics[name]
	if !ok {
		metric = &models.ProviderHealthMetric{Name: name, Status: models.HealthHealthy, SuccessRate: 1.0}
		m.metrics[name] = metric
	}
	return metric
}

func (m *Monitor) RecordSuccess(name string, d time.Duration, rateRemaining *int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metric := m.metric(name)
	metric.TotalRequests++
	metric.ConsecutiveFailures = 0
	metric.SuccessRate = float64(metric.TotalRequests-metric.TotalFailures) / float64(metric.TotalRequests)
	metric.RecordResponseTime(d)
	if rateRemaining != nil {
		metric.RateLimitRemaining = rateRemaining
	}
	metric.LastError = ""
	metric.LastChecked = m.now()
	evaluate(metric)
}

func (m *Monitor) RecordFailure(name string, d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metric := m.metric(name)
	metric.TotalRequests++
	metric.TotalFailures++
	metric.ConsecutiveFailures++
	metric.SuccessRate = float64(metric.TotalRequests-metric.TotalFailures) / float64(metric.TotalRequests)
	if d > 0 {
		metric.RecordResponseTime(d)
	}
	if err != nil {
		metric.LastError = err.Error()
	}
	metric.LastChecked = m.now()
	evaluate(metric)
}

// Status returns the current state for a provider; unknown names read as
// HEALTHY so new providers are not skipped before their first outcome.
func (m *Monitor) Status(name string) models.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if metric, ok := m.metrics[name]; ok {
		return metric.Status
	}
	return models.HealthHealthy
}

// Metrics returns a copy of every provider metric.
func (m *Monitor) Metrics() map[string]models.ProviderHealthMetric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]models.ProviderHealthMetric, len(m.metrics))
	for name, metric := range m.metrics {
		out[name] = *metric
	}
	return out
}

// Reset clears a provider's counters. Operator action only.
func (m *Monitor) Reset(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metric := m.metric(name)
	*metric = models.ProviderHealthMetric{
		Name:        name,
		Status:      models.HealthHealthy,
		SuccessRate: 1.0,
		LastChecked: m.now(),
	}
}

// RunProbe issues each available provider's cheapest supported call, records
// the outcome, snapshots all metrics and evaluates alert thresholds. It is
// the body of the background probe loop.
func (m *Monitor) RunProbe(ctx context.Context, providers []providerService.Provider) {
	for _, p := range providers {
		if !p.Available() {
			continue
		}
		start := m.now()
		err := p.Probe(ctx)
		elapsed := m.now().Sub(start)
		if err != nil {
			m.RecordFailure(p.Name(), elapsed, err)
			m.LogError("PROBE ERR "+p.Name(), err)
			m.logger.WithFields(logrus.Fields{"provider": p.Name(), "elapsed": elapsed}).
				WithError(err).Warn("health probe failed")
		} else {
			m.RecordSuccess(p.Name(), elapsed, p.RateLimitRemaining())
		}
	}

	m.snapshot()
	m.EvaluateAlerts()
}

// snapshot captures all metrics into the in-memory trend ring and the
// persistent snapshot table, pruning both past the retention cap.
func (m *Monitor) snapshot() {
	point := TrendPoint{TakenAt: m.now(), Metrics: m.Metrics()}

	m.mu.Lock()
	m.ring = append(m.ring, point)
	if len(m.ring) > m.cfg.SnapshotRetention {
		m.ring = m.ring[len(m.ring)-m.cfg.SnapshotRetention:]
	}
	m.mu.Unlock()

	raw, err := json.Marshal(point.Metrics)
	if err != nil {
		m.logger.WithError(err).Error("failed to marshal health snapshot")
		return
	}
	row := models.HealthSnapshot{TakenAt: point.TakenAt, MetricsRaw: string(raw)}
	if err := m.db.Create(&row).Error; err != nil {
		m.logger.WithError(err).Error("failed to persist health snapshot")
		return
	}

	var keep []uint
	m.db.Model(&models.HealthSnapshot{}).
		Order("taken_at desc").
		Limit(m.cfg.SnapshotRetention).
		Pluck("id", &keep)
	if len(keep) == m.cfg.SnapshotRetention {
		m.db.Unscoped().Where("id NOT IN ?", keep).Delete(&models.HealthSnapshot{})
	}
}

// Trends returns the in-memory snapshot points within the window.
func (m *Monitor) Trends(window time.Duration) []TrendPoint {
	cutoff := m.now().Add(-window)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []TrendPoint
	for _, point := range m.ring {
		if point.TakenAt.After(cutoff) {
			out = append(out, point)
		}
	}
	return out
}

// EvaluateAlerts logs threshold violations. Alerts never block requests.
func (m *Monitor) EvaluateAlerts() {
	for name, metric := range m.Metrics() {
		fields := logrus.Fields{"provider": name, "status": metric.Status}

		if metric.AvgResponseMs > m.cfg.MaxAvgResponseMs {
			m.logger.WithFields(fields).Warnf("alert: avg response time %.0fms exceeds %.0fms",
				metric.AvgResponseMs, m.cfg.MaxAvgResponseMs)
		}
		if metric.TotalRequests > 0 && metric.SuccessRate < m.cfg.MinSuccessRate {
			m.logger.WithFields(fields).Warnf("alert: success rate %.2f below %.2f",
				metric.SuccessRate, m.cfg.MinSuccessRate)
		}
		if metric.ConsecutiveFailures >= m.cfg.MaxFailureStreak {
			m.logger.WithFields(fields).Warnf("alert: %d consecutive failures, last error: %s",
				metric.ConsecutiveFailures, metric.LastError)
		}
		if metric.RateLimitRemaining != nil && *metric.RateLimitRemaining < m.cfg.MinRateLimitRemain {
			m.logger.WithFields(fields).Warnf("alert: rate limit headroom low (%d remaining)",
				*metric.RateLimitRemaining)
		}
	}
}

// LogError appends a row to the error log table, the audit trail for
// background failures.
func (m *Monitor) LogError(source string, err error) {
	if err == nil {
		return
	}
	m.db.Create(&models.ErrorLog{Source: source, Message: fmt.Sprintf("%v", err)})
}
