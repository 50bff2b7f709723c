package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	grpcapi "backoffice-ledger/internal/api/grpc"
	httpapi "backoffice-ledger/internal/api/http"
	"backoffice-ledger/internal/clock"
	"backoffice-ledger/internal/config"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/migration"
	"backoffice-ledger/internal/render"
	"backoffice-ledger/internal/repository/postgres"
	"backoffice-ledger/internal/security"
	"backoffice-ledger/internal/service"
	"backoffice-ledger/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting backoffice ledger...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.GetServerAddress(), "grpc", cfg.GetGRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Mail configuration", "provider", cfg.Mail.Provider)

	ctx := context.Background()

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

	if cfg.Database.MigrateOnBoot {
		if err := migration.UpWithDSN(cfg.GetDatabaseConnectionString()); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
	}

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
		logger.Error("Failed to initialize storage", "type", cfg.Storage.Type, "error", err)
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		log.Fatalf("Failed to load document templates: %v", err)
	}

	services := httpapi.Services{
		Accounts:    service.NewAccountService(store, perms),
		Transfers:   service.NewMoneyTransferService(store, perms),
		Clients:     service.NewClientDirectory(store.Clients()),
		LineItems:   service.NewLineItemService(store, perms),
		Quotes:      service.NewQuoteService(store, perms, clk, settings, mailer),
		Invoices:    service.NewInvoiceService(store, perms, clk, settings, mailer, renderer, objects),
		CreditNotes: service.NewCreditNoteService(store, perms, clk, mailer, renderer, objects),
		Sepa:        service.NewSepaTransferService(store, perms, settings, mailer, renderer, objects),
		Perms:       perms,
	}

	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	router := httpapi.NewRouter(httpapi.NewHandler(services, db), httpapi.NewAuthMiddleware(tokenManager))

	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	monitor := grpcapi.NewHealthMonitor(db, 15*time.Second)
	grpcServer := grpcapi.NewServer(monitor)
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	go monitor.Run()
	go func() {
		logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
		}
	}()
	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	monitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	<-monitor.Done()
	logger.Info("Server stopped")
}
