package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Cache     CacheConfig     `yaml:"cache"`
	Health    HealthConfig    `yaml:"health"`
	Parlay    ParlayConfig    `yaml:"parlay"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type ProvidersConfig struct {
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	MaxRetries  int           `yaml:"max_retries"`

	// Priority chains per data type, consulted in order. Names must match
	// provider Name() values.
	OddsPriority   []string `yaml:"odds_priority"`
	GamesPriority  []string `yaml:"games_priority"`
	ScoresPriority []string `yaml:"scores_priority"`
	StatsPriority  []string `yaml:"stats_priority"`

	// Minimum inter-request delay per provider, the rate-limit serializer.
	MinDelay map[string]time.Duration `yaml:"min_delay"`

	// Sports warmed and listed by default.
	PopularSports []string `yaml:"popular_sports"`
}

type CacheConfig struct {
	SportsTTL     time.Duration `yaml:"sports_ttl"`
	GamesTTL      time.Duration `yaml:"games_ttl"`
	OddsTTL       time.Duration `yaml:"odds_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type HealthConfig struct {
	ProbeInterval      time.Duration `yaml:"probe_interval"`
	SnapshotRetention  int           `yaml:"snapshot_retention"`
	MaxAvgResponseMs   float64       `yaml:"max_avg_response_ms"`
	MinSuccessRate     float64       `yaml:"min_success_rate"`
	MaxFailureStreak   int           `yaml:"max_failure_streak"`
	MinRateLimitRemain int           `yaml:"min_rate_limit_remaining"`
}

type ParlayConfig struct {
	ReferenceStake float64 `yaml:"reference_stake"`
}

// Default returns the compiled-in configuration. Load starts from this and
// overlays whatever the yaml file provides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Providers: ProvidersConfig{
			HTTPTimeout:    15 * time.Second,
			MaxRetries:     3,
			OddsPriority:   []string{"theoddsapi", "apisports"},
			GamesPriority:  []string{"theoddsapi", "apisports", "espn"},
			ScoresPriority: []string{"apisports", "espn"},
			StatsPriority:  []string{"espn"},
			MinDelay: map[string]time.Duration{
				"theoddsapi": 1 * time.Second,
				"apisports":  1 * time.Second,
				"espn":       500 * time.Millisecond,
			},
			PopularSports: []string{
				"americanfootball_nfl",
				"basketball_nba",
				"baseball_mlb",
			},
		},
		Cache: CacheConfig{
			SportsTTL:     24 * time.Hour,
			GamesTTL:      15 * time.Minute,
			OddsTTL:       5 * time.Minute,
			SweepInterval: 10 * time.Minute,
		},
		Health: HealthConfig{
			ProbeInterval:      5 * time.Minute,
			SnapshotRetention:  288, // 24h at 5-minute resolution
			MaxAvgResponseMs:   5000,
			MinSuccessRate:     0.8,
			MaxFailureStreak:   3,
			MinRateLimitRemain: 50,
		},
		Parlay: ParlayConfig{ReferenceStake: 100},
	}
}

// Load reads the yaml config at configPath over the defaults. A missing file
// is not an error; every deployment tunable has a default.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
