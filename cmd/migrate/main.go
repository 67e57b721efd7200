package main

import (
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Eduvent/bono-app-sub002/internal/config"
	"github.com/Eduvent/bono-app-sub002/internal/infrastructure/bonds/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.NewLogger(config.DefaultLogLevel).Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel)

	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatalf("failed to get sql db: %v", err)
	}
	defer sqlDB.Close()

	all := models.All()
	if err := db.AutoMigrate(all...); err != nil {
		logger.Fatalf("auto migrate: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"models": len(all),
		"env":    cfg.Env,
	}).Info("schema migrated")
}
