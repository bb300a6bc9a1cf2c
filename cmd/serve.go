package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/Dosada05/event-portal/config"
	"github.com/Dosada05/event-portal/db"
	"github.com/Dosada05/event-portal/handlers"
	"github.com/Dosada05/event-portal/middleware"
	"github.com/Dosada05/event-portal/realtime"
	"github.com/Dosada05/event-portal/repositories"
	"github.com/Dosada05/event-portal/routes"
	"github.com/Dosada05/event-portal/services"
	"github.com/Dosada05/event-portal/storage"
)

const shutdownTimeout = 15 * time.Second

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(newLogger())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
}

func runServer(logger *slog.Logger) error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		return err
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	shutdownTracing, err := setupTracing(cfg.TracingEnabled)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to flush traces", slog.Any("error", err))
		}
	}()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		return err
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if !skipMigrations {
		if err := db.Migrate(dbConn); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			return err
		}
		logger.Info("migrations applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Объектное хранилище необязательно: без него загрузки отклоняются
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewR2Uploader(ctx, storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			return err
		}
		logger.Info("R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, uploads are disabled")
	}

	var emailSender services.EmailSender = services.LogEmailSender{Logger: logger}
	if cfg.SMTPEnabled() {
		emailService, err := services.NewEmailService(cfg)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			return err
		}
		emailSender = emailService
	} else {
		logger.Warn("SMTP is not configured, emails are only logged")
	}

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub(logger)
	go wsHub.Run()
	defer wsHub.Stop()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	profileRepo := repositories.NewPostgresProfileRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	memberRepo := repositories.NewPostgresTeamMemberRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)

	// Инициализация сервисов
	notificationService := services.NewNotificationService(notificationRepo, wsHub)
	eventService := services.NewEventService(eventRepo)
	profileService := services.NewProfileService(profileRepo, registrationRepo, uploader, logger)
	registrationService := services.NewRegistrationService(
		profileRepo,
		teamRepo,
		memberRepo,
		registrationRepo,
		emailSender,
		notificationService,
		services.RegistrationConfig{
			IndividualStatus: cfg.IndividualRegistrationStatus,
			PublicURL:        cfg.PublicURL,
		},
		logger,
	)
	submissionService := services.NewSubmissionService(
		eventRepo,
		registrationRepo,
		uploader,
		emailSender,
		notificationService,
		cfg.PublicURL,
		logger,
	)
	ticketService, err := services.NewTicketService(cfg.CheckInSecret, registrationRepo, notificationService, logger)
	if err != nil {
		return err
	}
	logger.Info("services initialized")

	submitLimiter := middleware.NewRateLimiter(middleware.LimiterConfig{
		RPS:   cfg.SubmitRatePerSecond,
		Burst: cfg.SubmitBurst,
	})
	go submitLimiter.Run(ctx)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Event:        handlers.NewEventHandler(eventService),
		Registration: handlers.NewRegistrationHandler(eventService, registrationService, submissionService, notificationService, logger),
		Profile:      handlers.NewProfileHandler(profileService, ticketService),
		Notification: handlers.NewNotificationHandler(notificationService),
		CheckIn:      handlers.NewCheckInHandler(ticketService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
	}, routes.Options{
		Auth:           middleware.NewAuthenticator(cfg.IdentityJWTSecret, cfg.IdentityIssuer, logger),
		SubmitLimiter:  submitLimiter,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			return err
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}

	// Дожидаемся фоновых уведомлений, пока база еще открыта
	registrationService.Wait()
	submissionService.Wait()
	logger.Info("application exited")
	return nil
}
