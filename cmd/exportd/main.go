package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"google.golang.org/api/option"

	"ticket_exporter/internal/config"
	"ticket_exporter/internal/email"
	"ticket_exporter/internal/enrich"
	"ticket_exporter/internal/publisher"
	"ticket_exporter/internal/report"
	"ticket_exporter/internal/scheduler"
	"ticket_exporter/internal/server"
	"ticket_exporter/internal/service"
	"ticket_exporter/internal/source/helpdesk"
	"ticket_exporter/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	var gcsOpts []option.ClientOption
	if cfg.Report.CredentialsFile != "" {
		gcsOpts = append(gcsOpts, option.WithCredentialsFile(cfg.Report.CredentialsFile))
	}
	gcsClient, err := gcs.NewClient(ctx, gcsOpts...)
	if err != nil {
		logger.Error("failed to create storage client", "error", err)
		os.Exit(1)
	}
	defer gcsClient.Close()

	exportService := buildExportService(cfg, db, gcsClient, rabbitMQ, logger)
	auditStore := postgres.NewAuditLogStore(db)

	httpServer := server.NewServer(server.Config{Port: cfg.Server.Port}, exportService, auditStore, logger)
	sched := scheduler.NewScheduler(exportService, cfg.Export.Month, cfg.Export.Interval, logger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go func() {
		logger.Info("starting http server", "port", cfg.Server.Port)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	logger.Info("starting ticket exporter",
		"month", cfg.Export.Month,
		"interval", cfg.Export.Interval,
		"max_pages_per_run", cfg.Export.MaxPagesPerRun,
	)

	// The scheduler may idle once a configured month completes; the /status
	// and /health surfaces keep serving until shutdown.
	go func() {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}

func buildExportService(
	cfg *config.Config,
	db *sqlx.DB,
	gcsClient *gcs.Client,
	rabbitMQ *publisher.RabbitMQ,
	logger *slog.Logger,
) *service.ExportService {
	source := helpdesk.New(helpdesk.Config{
		BaseURL:  cfg.Zendesk.BaseURL(),
		Email:    cfg.Zendesk.Email,
		APIToken: cfg.Zendesk.APIToken,
		Timeout:  cfg.Zendesk.Timeout,
	}, logger)

	enricher := enrich.New(source, source, cfg.Export.EnrichConcurrency, logger)

	var provider email.Provider
	switch cfg.Mail.Provider {
	case "brevo":
		provider = email.NewBrevoProvider(cfg.Mail.APIKey, cfg.Mail.FromAddress, cfg.Mail.FromName, logger)
	default:
		provider = email.NewMockProvider(logger)
	}

	return service.NewExportService(
		source,
		enricher,
		postgres.NewCheckpointStore(db),
		postgres.NewStagingStore(db),
		postgres.NewAuditLogStore(db),
		postgres.NewTransactionManager(db),
		rabbitMQ,
		report.NewGCSStore(gcsClient, cfg.Report.Bucket, logger),
		email.NewSender(provider, logger),
		cfg.Report.RecipientList(),
		logger,
		cfg.Export,
	)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
