package models

import (
	"time"

	"gorm.io/gorm"
)

// CacheClass partitions the persistent cache by data volatility. Each class
// has its own TTL and its own table.
type CacheClass string

const (
	CacheClassSports CacheClass = "sports"
	CacheClassGames  CacheClass = "games"
	CacheClassOdds   CacheClass = "odds"
)

// SportsCacheEntry caches sports/season metadata (slow-moving, 24h TTL).
type SportsCacheEntry struct {
	gorm.Model
	ID          uint   `gorm:"primaryKey"`
	SportKey    string `gorm:"size:64;uniqueIndex"`
	Payload     string // JSON blob
	LastUpdated time.Time
	ExpiresAt   time.Time `gorm:"index"`
}

// GamesCacheEntry caches aggregated game lists per (sport, query key), 15m TTL.
type GamesCacheEntry struct {
	gorm.Model
	ID          uint   `gorm:"primaryKey"`
	SportKey    string `gorm:"size:64;index:idx_games_natural,unique"`
	CacheKey    string `gorm:"size:128;index:idx_games_natural,unique"`
	Payload     string
	LastUpdated time.Time
	ExpiresAt   time.Time `gorm:"index"`
}

// OddsCacheEntry caches per-game odds quote lists (fast-moving, 5m TTL).
type OddsCacheEntry struct {
	gorm.Model
	ID          uint   `gorm:"primaryKey"`
	SportKey    string `gorm:"size:64;index:idx_odds_natural,unique"`
	GameID      string `gorm:"size:128;index:idx_odds_natural,unique"`
	Payload     string
	LastUpdated time.Time
	ExpiresAt   time.Time `gorm:"index"`
}
