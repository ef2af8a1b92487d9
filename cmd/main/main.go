package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nepse-observer/src/config"
	"nepse-observer/src/interfaces"
	"nepse-observer/src/logger"
	"nepse-observer/src/scheduler"
	"nepse-observer/src/scraper"
	"nepse-observer/src/server"
	"nepse-observer/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	force := flag.Bool("force", false, "run a price scrape immediately, ignoring market hours")
	scrapeDetails := flag.Bool("scrape-details", false, "scrape company details for securities without a profile, then keep running")
	flag.Parse()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config.Name, config.LogLevel, config.LogFile)

	// Setup storage
	var db interfaces.IDatabase

	switch config.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(config.MConfig, appLogger)
	default:
		// Default to SQLite
		db, err = storage.NewSQLiteDB(config.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}

	// Each scheduled run opens its own browser so a crashed Chrome never
	// poisons the next tick.
	factory := scheduler.ScraperFactory(func() (interfaces.IMarketScraper, error) {
		return scraper.NewNepseScraper(config.Browser, config.Scraper, config.ImageDir, config.Schedule.UTCOffsetMinutes, appLogger)
	})

	jobs := scheduler.NewJobScheduler(db, factory, config.Schedule, appLogger)
	if err := jobs.Start(); err != nil {
		appLogger.Critical("Failed to start scheduler: %v", err)
	}

	if *force {
		if err := jobs.ForcePriceUpdate(); err != nil {
			appLogger.Error("Forced price update failed: %v", err)
		}
	}
	if *scrapeDetails {
		go jobs.UpdateCompanyDetails()
	}

	// Start REST API
	srv := server.NewAPIServer(config.MConfig, db, jobs, appLogger)
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	jobs.StopAll()
	if err := db.Close(); err != nil {
		appLogger.Error("Failed to close db: %v", err)
	}
}
