package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coachhub-api/internal/config"
	"github.com/noah-isme/coachhub-api/internal/database"
	"github.com/noah-isme/coachhub-api/internal/handler"
	"github.com/noah-isme/coachhub-api/internal/middleware"
	"github.com/noah-isme/coachhub-api/internal/repository"
	"github.com/noah-isme/coachhub-api/internal/router"
	"github.com/noah-isme/coachhub-api/internal/service"
	"github.com/noah-isme/coachhub-api/internal/validation"
	cloud "github.com/noah-isme/coachhub-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	probes := map[string]handler.Probe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, caching and redis events disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, broker events disabled")
		natsConn = nil
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	var storage service.FileStorage
	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("object storage not configured, attachments disabled")
	} else {
		storage = uploader
	}

	validator := validation.New()

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	fileRepo := repository.NewSubmissionFileRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	centerRepo := repository.NewCoachingCenterRepository(db)

	events := service.NewEventPublisher(redisClient, natsConn, cfg.EventsChannel, logger)
	activityService := service.NewActivityService(activityRepo, validator.Validate, logger)
	statisticsService := service.NewStatisticsService(assignmentRepo, submissionRepo, enrollmentRepo, redisClient, cfg.StatsCacheTTL, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, validator.Validate, activityService, statisticsService, logger)
	submissionService := service.NewSubmissionService(assignmentRepo, submissionRepo, fileRepo, enrollmentRepo, statisticsService, events, validator.Validate, logger)
	gradingService := service.NewGradingService(submissionRepo, assignmentRepo, statisticsService, events, activityService, validator.Validate, logger)
	attachmentService := service.NewAttachmentService(storage, fileRepo, submissionRepo, assignmentRepo, enrollmentRepo, cfg.UploadMaxSizeBytes, logger)
	centerService := service.NewCoachingCenterService(centerRepo, validator.Validate, redisClient, cfg.SearchCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxSizeBytes) + 1<<20,
	})

	middleware.Register(app, middleware.Config{Logger: logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:     handler.NewAssignmentHandler(assignmentService, statisticsService, validator, logger),
		SubmissionHandler:     handler.NewSubmissionHandler(submissionService, validator, logger),
		GradingHandler:        handler.NewGradingHandler(submissionService, gradingService, validator, logger),
		AttachmentHandler:     handler.NewAttachmentHandler(attachmentService, validator, logger),
		CoachingCenterHandler: handler.NewCoachingCenterHandler(centerService, validator, logger),
		ActivityHandler:       handler.NewActivityHandler(activityService, validator, logger),
		HealthProbes:          probes,
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
