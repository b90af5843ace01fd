package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventcertificates/config"
	_ "eventcertificates/docs"
	"eventcertificates/internal/adapters/auth"
	"eventcertificates/internal/adapters/converter"
	"eventcertificates/internal/adapters/email"
	"eventcertificates/internal/adapters/render"
	"eventcertificates/internal/adapters/storage"
	httpdelivery "eventcertificates/internal/delivery/http"
	"eventcertificates/internal/delivery/http/controllers"
	"eventcertificates/internal/repository/postgres"
	"eventcertificates/internal/services"
	"eventcertificates/internal/worker"
)

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// @title						Event Certificates API
// @version					1.0
// @description				Issues attendance certificates for events.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Event Certificates API\n")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Commit:     %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting event certificates api", "version", Version, "commit", Commit, "env", cfg.Environment)
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required to protect the admin routes")
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := postgres.ApplySchema(ctx, db); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	artifacts, err := storage.New(storage.Config{
		Provider:  cfg.Storage.Provider,
		MediaRoot: cfg.Storage.MediaRoot,
		S3: storage.S3Config{
			Bucket:          cfg.Storage.S3.Bucket,
			Region:          cfg.Storage.S3.Region,
			Endpoint:        cfg.Storage.S3.Endpoint,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
		},
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	docConverter, err := converter.New(cfg.Converter.Provider, cfg.Converter.InkscapeBin, cfg.Converter.Timeout)
	if err != nil {
		return fmt.Errorf("converter: %w", err)
	}
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider: cfg.Email.Provider,
		Sender: email.Sender{
			Address: cfg.Email.FromAddress,
			Name:    cfg.Email.FromName,
			ReplyTo: cfg.Email.ReplyTo,
		},
		SES: email.SESConfig{
			Region:          cfg.Email.SESRegion,
			AccessKeyID:     cfg.Email.SESAccessKeyID,
			SecretAccessKey: cfg.Email.SESSecretAccessKey,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	certRepo := postgres.NewCertificateRepository(db)
	attendeeRepo := postgres.NewAttendeeRepository(db)

	// Services
	eventService := services.NewEventService(eventRepo, cfg.ContextTimeout)
	certificateService := services.NewCertificateService(eventRepo, certRepo, artifacts, logger, cfg.ContextTimeout)
	attendeeService := services.NewAttendeeService(certRepo, attendeeRepo, artifacts, cfg.ContextTimeout)
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	issuanceService := services.NewIssuanceService(
		certRepo,
		attendeeRepo,
		certificateService,
		render.NewSVGRenderer(),
		docConverter,
		artifacts,
		emailService,
		logger,
		services.IssuanceOptions{
			TempDir:       cfg.Converter.TempDir,
			PublicBaseURL: cfg.PublicBaseURL,
		},
	)

	router := httpdelivery.NewRouter(httpdelivery.Controllers{
		Event:       controllers.NewEventController(logger, eventService),
		Certificate: controllers.NewCertificateController(logger, certificateService),
		Attendee:    controllers.NewAttendeeController(logger, attendeeService),
		Issuance:    controllers.NewIssuanceController(logger, issuanceService),
		Public:      controllers.NewPublicCertificateController(logger, attendeeService),
	}, auth.NewJWTVerifier(cfg.JWTSecret), logger, cfg.CORSAllowedOrigins)

	if cfg.Issuance.Schedule != "" {
		scheduler, err := worker.NewIssuanceScheduler(issuanceService, cfg.Issuance.Schedule, cfg.Issuance.BatchSize, logger)
		if err != nil {
			return err
		}
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
