package main

import (
	"context"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	config "github.com/vetcloud/vetcare-platform/configs"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/db"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/health"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Applying database migrations...")

	// Initialize database (apply pool settings from config)
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	if err := database.Migrate("./migrations"); err != nil {
		logger.Fatal("Failed to run migrations:", err)
	}

	// Confirm the database answers after the schema change
	checker := health.NewDBHealthChecker(database)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := checker.Check(ctx); err != nil {
		logger.WithFields(logrus.Fields{"dependency": checker.Name()}).WithError(err).Fatal("database unhealthy after migration")
	}

	logger.Info("Migrations applied")
}
