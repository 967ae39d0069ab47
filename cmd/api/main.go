package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/loom-academy/loom-go-api/internal/config"
	"github.com/loom-academy/loom-go-api/internal/database"
	"github.com/loom-academy/loom-go-api/internal/handler"
	"github.com/loom-academy/loom-go-api/internal/middleware"
	"github.com/loom-academy/loom-go-api/internal/models"
	"github.com/loom-academy/loom-go-api/internal/privacy"
	"github.com/loom-academy/loom-go-api/internal/ratelimit"
	"github.com/loom-academy/loom-go-api/internal/repository"
	"github.com/loom-academy/loom-go-api/internal/router"
	"github.com/loom-academy/loom-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Courses and purchases are owned by the course backend; only the audit
	// trail is migrated here.
	if err := db.AutoMigrate(&models.ActivityLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient == nil {
		logger.Warn().Msg("redis not configured: rate limiting disabled, analytics cache off")
	} else {
		defer redisClient.Close()
	}

	anonymizer, err := privacy.NewAnonymizer(cfg.IPHashSecret)
	if err != nil {
		log.Fatalf("failed to initialise anonymizer: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activityRepo := repository.NewActivityLogRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)

	limiter := ratelimit.New(redisClient, ratelimit.Config{
		MaxRequests: cfg.RateLimitMax,
		Window:      cfg.RateLimitWindow,
		KeyPrefix:   cfg.RateLimitPrefix,
	}, logger)

	activityService := service.NewActivityService(activityRepo, anonymizer, cfg.StoreTimeout, logger)
	analyticsService := service.NewInstructorAnalyticsService(courseRepo, purchaseRepo, redisClient, cfg.AnalyticsCacheTTL, logger)

	activityHandler := handler.NewActivityHandler(activityService, validate, logger)
	analyticsHandler := handler.NewInstructorAnalyticsHandler(analyticsService, activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:            activityHandler,
		InstructorAnalyticsHandler: analyticsHandler,
		JWTMiddleware:              middleware.JWTProtected(cfg.JWTSecret),
		RateLimitMiddleware:        middleware.RateLimit("activity", limiter),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, activityService)
}

func waitForShutdown(app *fiber.App, activity service.ActivityService) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	// Let detached audit writes settle before the process exits.
	activity.Drain()

	log.Println("server stopped")
}
