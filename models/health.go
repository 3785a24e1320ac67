package models

import (
	"time"

	"gorm.io/gorm"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "HEALTHY"
	HealthDegraded  HealthStatus = "DEGRADED"
	HealthUnhealthy HealthStatus = "UNHEALTHY"
	HealthDown      HealthStatus = "DOWN"
)

// ResponseTimeRingCap bounds the per-provider response-time sample buffer.
const ResponseTimeRingCap = 100

// ProviderHealthMetric is the rolling health record for one provider. Created
// at process start, mutated only by the health monitor, never deleted.
type ProviderHealthMetric struct {
	Name                string          `json:"name"`
	Status              HealthStatus    `json:"status"`
	ResponseTimes       []time.Duration `json:"-"`
	AvgResponseMs       float64         `json:"avg_response_ms"`
	SuccessRate         float64         `json:"success_rate"`
	TotalRequests       int             `json:"total_requests"`
	TotalFailures       int             `json:"total_failures"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	RateLimitRemaining  *int            `json:"rate_limit_remaining,omitempty"`
	LastError           string          `json:"last_error,omitempty"`
	LastChecked         time.Time       `json:"last_checked"`
}

// RecordResponseTime appends a sample, dropping the oldest past the ring cap.
func (m *ProviderHealthMetric) RecordResponseTime(d time.Duration) {
	m.ResponseTimes = append(m.ResponseTimes, d)
	if len(m.ResponseTimes) > ResponseTimeRingCap {
		m.ResponseTimes = m.ResponseTimes[len(m.ResponseTimes)-ResponseTimeRingCap:]
	}
	var total time.Duration
	for _, rt := range m.ResponseTimes {
		total += rt
	}
	m.AvgResponseMs = float64(total.Milliseconds()) / float64(len(m.ResponseTimes))
}

// HealthSnapshot is one timestamped capture of every provider metric, stored
// for trend queries. The monitor prunes the table past its retention cap.
type HealthSnapshot struct {
	gorm.Model
	ID         uint      `gorm:"primaryKey"`
	TakenAt    time.Time `gorm:"index"`
	MetricsRaw string    // JSON map of provider name -> ProviderHealthMetric
}
