package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"backoffice-ledger/internal/clock"
	"backoffice-ledger/internal/config"
	"backoffice-ledger/internal/jobs"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/render"
	"backoffice-ledger/internal/repository/postgres"
	"backoffice-ledger/internal/scheduler"
	"backoffice-ledger/internal/service"
	"backoffice-ledger/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'auto-invoice-past-due', 'all')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting billing job runner...", "log_level", cfg.Log.Level)

	ctx := context.Background()

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	clk := clock.System()
	settings := service.NewBillingSettings(cfg.Billing)
	perms := service.NewPermissionService(store.Users())

	transport, err := service.NewMailTransport(cfg.Mail)
	if err != nil {
		log.Fatalf("Failed to configure mail: %v", err)
	}
	mailer := service.NewMailer(transport)

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		log.Fatalf("Failed to load document templates: %v", err)
	}

	jobServices := &jobs.Services{
		Invoices:  service.NewInvoiceService(store, perms, clk, settings, mailer, renderer, objects),
		Reminders: service.NewReminderService(store, clk, settings, mailer, renderer),
		Sepa:      service.NewSepaTransferService(store, perms, settings, mailer, renderer, objects),
	}

	jobRunner := jobs.NewJobRunner(jobServices, newLocker(cfg), cfg.JobLockTTL())

	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !jobRunner.Run(*runOnce) {
			logger.Error("Unknown job name", "job", *runOnce)
			fmt.Printf("Available jobs:\n")
			for _, name := range jobs.JobNames() {
				fmt.Printf("  - %s\n", name)
			}
			fmt.Printf("  - all\n")
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner, cfg.Scheduler)
	if err != nil {
		log.Fatalf("Failed to register jobs: %v", err)
	}
	cronScheduler.Start()
	logger.Info("Billing scheduler is running. Press Ctrl+C to stop.", "entries", cronScheduler.Entries())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down billing scheduler...")
	cronScheduler.Stop()
	logger.Info("Billing scheduler stopped")
}

// newLocker returns a redis lock when redis is configured, else an in-process lock
func newLocker(cfg *config.Config) jobs.Locker {
	addr := cfg.GetRedisAddress()
	if addr == "" {
		logger.Info("No redis configured, using in-process job lock")
		return jobs.NewLocalLocker()
	}
	client, err := jobs.NewRedisClient(addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	logger.Info("Using redis job lock", "address", addr)
	return jobs.NewRedisLocker(client)
}
