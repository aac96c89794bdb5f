package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-portal-api/internal/config"
	"github.com/noah-isme/exam-portal-api/internal/database"
	"github.com/noah-isme/exam-portal-api/internal/handler"
	"github.com/noah-isme/exam-portal-api/internal/middleware"
	"github.com/noah-isme/exam-portal-api/internal/repository"
	"github.com/noah-isme/exam-portal-api/internal/router"
	"github.com/noah-isme/exam-portal-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	rootCtx, cancelFeed := context.WithCancel(context.Background())
	defer cancelFeed()

	feed := service.NewActivityFeed(redisClient, natsConn, cfg.ActivityChannel, logger)
	feed.Start(rootCtx)

	validate := service.NewValidator()
	hasher := service.NewBcryptHasher(cfg.BcryptCost)
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, cfg.AppName)

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	paperRepo := repository.NewExamPaperRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	resultRepo := repository.NewResultRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	activityService := service.NewActivityService(activityRepo, feed, logger)
	authService := service.NewAuthService(userRepo, hasher, tokens, validate, activityService, logger)
	userService := service.NewUserService(userRepo, hasher, validate, activityService, logger)
	subjectService := service.NewSubjectService(subjectRepo, userRepo, validate, logger)
	paperService := service.NewExamPaperService(paperRepo, subjectRepo, submissionRepo, validate, activityService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, paperRepo, validate, activityService, logger)
	resultService := service.NewResultService(resultRepo, logger)

	cookie := middleware.CookieConfig{Name: cfg.CookieName, Secure: cfg.CookieSecure, TTL: tokens.TTL()}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxBytes) + 1024*1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		CORSOrigins:  cfg.CORSOrigins,
		CookieSecret: cfg.CookieSecret,
		AccessLog:    !cfg.IsProduction(),
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, cookie, logger),
		UserHandler:       handler.NewUserHandler(userService, cfg.UploadMaxBytes, logger),
		SubjectHandler:    handler.NewSubjectHandler(subjectService, logger),
		ExamPaperHandler:  handler.NewExamPaperHandler(paperService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		ResultHandler:     handler.NewResultHandler(resultService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, feed, logger),
		Authenticate:      middleware.Authenticate(authService, cfg.CookieName),
		AuthRateLimit:     middleware.RateLimit("auth", 10, time.Minute),
		DB:                db,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("addr", cfg.HTTPAddress()).Str("env", cfg.AppEnv).Msg("server started")
	waitForShutdown(app, cancelFeed)
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(parsed).With().Timestamp().Logger()
}

func waitForShutdown(app *fiber.App, stopFeed context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopFeed()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
