package main

import (
	"context"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/config"
	"github.com/noah-isme/gema-classroom-api/internal/database"
	"github.com/noah-isme/gema-classroom-api/internal/handler"
	"github.com/noah-isme/gema-classroom-api/internal/middleware"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
	"github.com/noah-isme/gema-classroom-api/internal/router"
	"github.com/noah-isme/gema-classroom-api/internal/service"
	cloud "github.com/noah-isme/gema-classroom-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; rate limits and notifications stay local to this node")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	roster, mongoClient := buildRoster(ctx, cfg, db, logger)
	defer func() {
		if err := database.DisconnectMongo(mongoClient); err != nil {
			logger.Warn().Err(err).Msg("failed to disconnect mongo")
		}
	}()

	var uploader service.FileUploader
	if cfg.CloudinaryEnabled() {
		cld, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		uploader = cld
	} else {
		logger.Warn().Msg("cloudinary not configured; submission attachments are disabled")
	}

	validate := newValidator()

	store := repository.NewGradebookStore(db)
	courses := repository.NewCourseRepository(db)

	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	notificationService := service.NewNotificationService(repository.NewNotificationRepository(db), redisClient, natsConn, cfg.NotificationChannel, validate, logger)
	notificationService.Start(ctx)

	courseService := service.NewCourseService(courses, roster, validate, logger)
	assignmentService := service.NewAssignmentService(store, courses, roster, validate, logger)
	submissionService := service.NewSubmissionService(store, roster, validate, uploader, activityService, logger)
	gradeService := service.NewGradeService(store, notificationService, activityService, validate, logger)
	discussionService := service.NewDiscussionService(repository.NewDiscussionRepository(db), courses, roster, notificationService, validate, logger)

	rateLimiter := middleware.NewRateLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)
	defer rateLimiter.Close()

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    25 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:       handler.NewCourseHandler(courseService, validate, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, gradeService, submissionService, validate, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, validate, logger),
		GradeHandler:        handler.NewGradeHandler(gradeService, validate, logger),
		DiscussionHandler:   handler.NewDiscussionHandler(discussionService, validate, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, cfg.NotificationKeepAlive),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		HealthProbes:        healthProbes(db, redisClient),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		RateLimiter:         rateLimiter,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

func buildRoster(ctx context.Context, cfg config.Config, db *gorm.DB, logger zerolog.Logger) (repository.RosterRepository, *mongo.Client) {
	if cfg.RosterBackend != config.RosterBackendMongo {
		return repository.NewRosterRepository(db), nil
	}

	client, mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongo roster")
	}
	logger.Info().Str("database", cfg.MongoDatabase).Msg("roster served from mongo")

	return repository.NewMongoRosterRepository(mongoDB), client
}

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

func healthProbes(db *gorm.DB, redisClient *redis.Client) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return probes
}
