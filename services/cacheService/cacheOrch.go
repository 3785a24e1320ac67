package cacheService

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"oddsAggregator/config"
	"oddsAggregator/models"
)

// ClassStats is the per-class counter view exposed by Stats.
type ClassStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	StaleHits int64   `json:"stale_hits"`
	HitRatio  float64 `json:"hit_ratio"`
}

// TieredCache is the persistent read cache: three independently-expiring
// classes (sports metadata, games, odds) stored as JSON blobs keyed by
// natural keys, with expiry-flagged stale reads as the last-resort fallback.
type TieredCache struct {
	db     *gorm.DB
	cfg    config.CacheConfig
	logger *logrus.Logger
	now    func() time.Time

	flight singleflight.Group

	statsMu sync.Mutex
	stats   map[models.CacheClass]*ClassStats
}

func NewTieredCache(db *gorm.DB, cfg config.CacheConfig, logger *logrus.Logger) *TieredCache {
	return &TieredCache{
		db:     db,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		stats: map[models.CacheClass]*ClassStats{
			models.CacheClassSports: {},
			models.CacheClassGames:  {},
			models.CacheClassOdds:   {},
		},
	}
}

// WithClock swaps the time source, for deterministic expiry tests.
func (c *TieredCache) WithClock(now func() time.Time) *TieredCache {
	c.now = now
	return c
}

func (c *TieredCache) countHit(class models.CacheClass) {
	c.bump(class, func(s *ClassStats) { s.Hits++ })
}
func (c *TieredCache) countMiss(class models.CacheClass) {
	c.bump(class, func(s *ClassStats) { s.Misses++ })
}
func (c *TieredCache) countStale(class models.CacheClass) {
	c.bump(class, func(s *ClassStats) { s.StaleHits++ })
}

func (c *TieredCache) bump(class models.CacheClass, f func(*ClassStats)) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	f(c.stats[class])
}

// decode unmarshals a payload blob, treating a corrupt row as a skippable
// miss rather than a query failure.
func (c *TieredCache) decode(class models.CacheClass, key, payload string, out any) bool {
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		c.logger.WithFields(logrus.Fields{"class": class, "key": key}).
			WithError(err).Error("corrupt cache payload, skipping row")
		return false
	}
	return true
}

// DoOnce deduplicates concurrent misses for the same key: exactly one caller
// runs fill, the rest receive its result.
func (c *TieredCache) DoOnce(class models.CacheClass, key string, fill func() (any, error)) (any, error) {
	v, err, _ := c.flight.Do(string(class)+":"+key, fill)
	return v, err
}

// --- sports metadata class (24h) ---

func (c *TieredCache) PutSports(infos []models.SportInfo) error {
	payload, err := json.Marshal(infos)
	if err != nil {
		return fmt.Errorf("marshaling sports payload: %w", err)
	}
	now := c.now()

	var entry models.SportsCacheEntry
	result := c.db.Where("sport_key = ?", "all").First(&entry)
	entry.SportKey = "all"
	entry.Payload = string(payload)
	entry.LastUpdated = now
	entry.ExpiresAt = now.Add(c.cfg.SportsTTL)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return c.db.Create(&entry).Error
	}
	if result.Error != nil {
		return result.Error
	}
	return c.db.Save(&entry).Error
}

func (c *TieredCache) GetSports() ([]models.SportInfo, bool) {
	var entry models.SportsCacheEntry
	err := c.db.Where("sport_key = ? AND expires_at > ?", "all", c.now()).First(&entry).Error
	if err != nil {
		c.countMiss(models.CacheClassSports)
		return nil, false
	}

	var infos []models.SportInfo
	if !c.decode(models.CacheClassSports, "all", entry.Payload, &infos) {
		c.countMiss(models.CacheClassSports)
		return nil, false
	}
	c.countHit(models.CacheClassSports)
	return infos, true
}

// GetSportsStale ignores expiry; the explicit last-resort read.
func (c *TieredCache) GetSportsStale() ([]models.SportInfo, bool) {
	var entry models.SportsCacheEntry
	err := c.db.Where("sport_key = ?", "all").First(&entry).Error
	if err != nil {
		return nil, false
	}

	var infos []models.SportInfo
	if !c.decode(models.CacheClassSports, "all", entry.Payload, &infos) {
		return nil, false
	}
	c.countStale(models.CacheClassSports)
	return infos, true
}

// --- games class (15m) ---

func (c *TieredCache) PutGames(sport models.Sport, cacheKey string, games []models.GameRecord) error {
	payload, err := json.Marshal(games)
	if err != nil {
		return fmt.Errorf("marshaling games payload: %w", err)
	}
	now := c.now()

	var entry models.GamesCacheEntry
	result := c.db.Where("sport_key = ? AND cache_key = ?", string(sport), cacheKey).First(&entry)
	entry.SportKey = string(sport)
	entry.CacheKey = cacheKey
	entry.Payload = string(payload)
	entry.LastUpdated = now
	entry.ExpiresAt = now.Add(c.cfg.GamesTTL)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return c.db.Create(&entry).Error
	}
	if result.Error != nil {
		return result.Error
	}
	return c.db.Save(&entry).Error
}

func (c *TieredCache) GetGames(sport models.Sport, cacheKey string) ([]models.GameRecord, bool) {
	var entry models.GamesCacheEntry
	err := c.db.Where("sport_key = ? AND cache_key = ? AND expires_at > ?",
		string(sport), cacheKey, c.now()).First(&entry).Error
	if err != nil {
		c.countMiss(models.CacheClassGames)
		return nil, false
	}

	var games []models.GameRecord
	if !c.decode(models.CacheClassGames, cacheKey, entry.Payload, &games) {
		c.countMiss(models.CacheClassGames)
		return nil, false
	}
	c.countHit(models.CacheClassGames)
	return games, true
}

func (c *TieredCache) GetGamesStale(sport models.Sport, cacheKey string) ([]models.GameRecord, bool) {
	var entry models.GamesCacheEntry
	err := c.db.Where("sport_key = ? AND cache_key = ?", string(sport), cacheKey).First(&entry).Error
	if err != nil {
		return nil, false
	}

	var games []models.GameRecord
	if !c.decode(models.CacheClassGames, cacheKey, entry.Payload, &games) {
		return nil, false
	}
	c.countStale(models.CacheClassGames)
	return games, true
}

// --- odds class (5m) ---

func (c *TieredCache) PutOdds(sport models.Sport, gameID string, quotes []models.OddsQuote) error {
	payload, err := json.Marshal(quotes)
	if err != nil {
		return fmt.Errorf("marshaling odds payload: %w", err)
	}
	now := c.now()

	var entry models.OddsCacheEntry
	result := c.db.Where("sport_key = ? AND game_id = ?", string(sport), gameID).First(&entry)
	entry.SportKey = string(sport)
	entry.GameID = gameID
	entry.Payload = string(payload)
	entry.LastUpdated = now
	entry.ExpiresAt = now.Add(c.cfg.OddsTTL)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return c.db.Create(&entry).Error
	}
	if result.Error != nil {
		return result.Error
	}
	return c.db.Save(&entry).Error
}

func (c *TieredCache) GetOdds(sport models.Sport, gameID string) ([]models.OddsQuote, bool) {
	var entry models.OddsCacheEntry
	err := c.db.Where("sport_key = ? AND game_id = ? AND expires_at > ?",
		string(sport), gameID, c.now()).First(&entry).Error
	if err != nil {
		c.countMiss(models.CacheClassOdds)
		return nil, false
	}

	var quotes []models.OddsQuote
	if !c.decode(models.CacheClassOdds, gameID, entry.Payload, &quotes) {
		c.countMiss(models.CacheClassOdds)
		return nil, false
	}
	c.countHit(models.CacheClassOdds)
	return quotes, true
}

func (c *TieredCache) GetOddsStale(sport models.Sport, gameID string) ([]models.OddsQuote, bool) {
	var entry models.OddsCacheEntry
	err := c.db.Where("sport_key = ? AND game_id = ?", string(sport), gameID).First(&entry).Error
	if err != nil {
		return nil, false
	}

	var quotes []models.OddsQuote
	if !c.decode(models.CacheClassOdds, gameID, entry.Payload, &quotes) {
		return nil, false
	}
	c.countStale(models.CacheClassOdds)
	return quotes, true
}

// --- maintenance ---

// Sweep hard-deletes rows past expiry in every class and returns counts
// removed per class.
func (c *TieredCache) Sweep() (map[models.CacheClass]int64, error) {
	now := c.now()
	removed := make(map[models.CacheClass]int64, 3)

	result := c.db.Unscoped().Where("expires_at < ?", now).Delete(&models.SportsCacheEntry{})
	if result.Error != nil {
		return removed, result.Error
	}
	removed[models.CacheClassSports] = result.RowsAffected

	result = c.db.Unscoped().Where("expires_at < ?", now).Delete(&models.GamesCacheEntry{})
	if result.Error != nil {
		return removed, result.Error
	}
	removed[models.CacheClassGames] = result.RowsAffected

	result = c.db.Unscoped().Where("expires_at < ?", now).Delete(&models.OddsCacheEntry{})
	if result.Error != nil {
		return removed, result.Error
	}
	removed[models.CacheClassOdds] = result.RowsAffected

	return removed, nil
}

// Invalidate backdates one entry's expiry instead of deleting it, keeping the
// row available for stale fallback.
func (c *TieredCache) Invalidate(class models.CacheClass, sport models.Sport, key string) error {
	expired := c.now().Add(-time.Second)
	switch class {
	case models.CacheClassSports:
		return c.db.Model(&models.SportsCacheEntry{}).
			Where("sport_key = ?", "all").
			Update("expires_at", expired).Error
	case models.CacheClassGames:
		return c.db.Model(&models.GamesCacheEntry{}).
			Where("sport_key = ? AND cache_key = ?", string(sport), key).
			Update("expires_at", expired).Error
	case models.CacheClassOdds:
		return c.db.Model(&models.OddsCacheEntry{}).
			Where("sport_key = ? AND game_id = ?", string(sport), key).
			Update("expires_at", expired).Error
	}
	return fmt.Errorf("unknown cache class %q", class)
}

// InvalidateClass backdates every entry of one class.
func (c *TieredCache) InvalidateClass(class models.CacheClass) error {
	expired := c.now().Add(-time.Second)
	switch class {
	case models.CacheClassSports:
		return c.db.Model(&models.SportsCacheEntry{}).Where("1 = 1").Update("expires_at", expired).Error
	case models.CacheClassGames:
		return c.db.Model(&models.GamesCacheEntry{}).Where("1 = 1").Update("expires_at", expired).Error
	case models.CacheClassOdds:
		return c.db.Model(&models.OddsCacheEntry{}).Where("1 = 1").Update("expires_at", expired).Error
	}
	return fmt.Errorf("unknown cache class %q", class)
}

// InvalidateAll backdates everything across all classes.
func (c *TieredCache) InvalidateAll() error {
	for _, class := range []models.CacheClass{models.CacheClassSports, models.CacheClassGames, models.CacheClassOdds} {
		if err := c.InvalidateClass(class); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns hit/miss/stale counters with computed hit ratios.
func (c *TieredCache) Stats() map[models.CacheClass]ClassStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	out := make(map[models.CacheClass]ClassStats, len(c.stats))
	for class, s := range c.stats {
		view := *s
		if total := view.Hits + view.Misses; total > 0 {
			view.HitRatio = float64(view.Hits) / float64(total)
		}
		out[class] = view
	}
	return out
}
