// One-shot batch entry point: runs export passes for the configured month
// until the window completes. Intended for cron. Exits 0 when there is
// nothing to do or the export completed, 1 on failure.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	gcs "cloud.google.com/go/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"google.golang.org/api/option"

	"ticket_exporter/internal/config"
	"ticket_exporter/internal/email"
	"ticket_exporter/internal/enrich"
	"ticket_exporter/internal/publisher"
	"ticket_exporter/internal/report"
	"ticket_exporter/internal/service"
	"ticket_exporter/internal/source/helpdesk"
	"ticket_exporter/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Export.Month == "" {
		logger.Info("no export month configured, nothing to do")
		return
	}

	ctx := context.Background()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

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

	source := helpdesk.New(helpdesk.Config{
		BaseURL:  cfg.Zendesk.BaseURL(),
		Email:    cfg.Zendesk.Email,
		APIToken: cfg.Zendesk.APIToken,
		Timeout:  cfg.Zendesk.Timeout,
	}, logger)

	var provider email.Provider
	switch cfg.Mail.Provider {
	case "brevo":
		provider = email.NewBrevoProvider(cfg.Mail.APIKey, cfg.Mail.FromAddress, cfg.Mail.FromName, logger)
	default:
		provider = email.NewMockProvider(logger)
	}

	exportService := service.NewExportService(
		source,
		enrich.New(source, source, cfg.Export.EnrichConcurrency, logger),
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

	for {
		stats, err := exportService.Export(ctx, cfg.Export.Month)
		if err != nil {
			logger.Error("export failed", "month", cfg.Export.Month, "error", err)
			os.Exit(1)
		}
		if stats.Completed {
			logger.Info("export completed",
				"month", cfg.Export.Month,
				"saved", stats.Saved,
				"report_url", stats.ReportURL,
			)
			return
		}
		logger.Info("export pass done, window not drained yet",
			"month", cfg.Export.Month,
			"pages", stats.Pages,
			"saved", stats.Saved,
		)
	}
}
