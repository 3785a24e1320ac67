package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"oddsAggregator/config"
	"oddsAggregator/models"
	"oddsAggregator/routes"
	"oddsAggregator/scheduler"
	"oddsAggregator/services/aggregatorService"
	"oddsAggregator/services/cacheService"
	"oddsAggregator/services/facadeService"
	"oddsAggregator/services/healthService"
	"oddsAggregator/services/providerService"
)

var db *gorm.DB

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("No .env file found, reading environment directly")
	}

	connString := os.Getenv("MYSQL_URL")
	if connString == "" {
		log.Fatalf("MYSQL_URL not set in environment variables")
	}

	db, err = gorm.Open(mysql.Open(connString+"?charset=utf8mb4&parseTime=True&loc=Local"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.SportsCacheEntry{},
		&models.GamesCacheEntry{},
		&models.OddsCacheEntry{},
		&models.HealthSnapshot{},
		&models.ErrorLog{},
	)
	if err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
}

func main() {
	appLog := logrus.New()
	appLog.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	oddsAPI := providerService.NewOddsAPIProvider(os.Getenv("ODDS_API_KEY"), cfg.Providers, appLog)
	apiSports := providerService.NewApiSportsProvider(os.Getenv("API_SPORTS_KEY"), cfg.Providers, appLog)
	espn := providerService.NewESPNProvider(cfg.Providers, appLog)
	providers := []providerService.Provider{oddsAPI, apiSports, espn}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
		if !p.Available() {
			appLog.WithField("provider", p.Name()).Warn("provider has no API key, marked unavailable")
		}
	}

	health := healthService.NewMonitor(db, cfg.Health, appLog, names)
	cache := cacheService.NewTieredCache(db, cfg.Cache, appLog)
	agg := aggregatorService.NewAggregator(providers, health, cache, cfg.Providers, appLog)
	facade := facadeService.NewFacade(agg, cache, oddsAPI, cfg, appLog)

	facade.Warmup(context.Background())

	cronService := scheduler.SetupCron(db, cfg, health, cache, facade, providers, appLog)
	defer cronService.Stop()

	handler := routes.NewHandler(facade, health, cache, cfg, appLog)

	appLog.WithField("addr", cfg.Server.Addr).Info("odds aggregator is running")
	if err := http.ListenAndServe(cfg.Server.Addr, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}
