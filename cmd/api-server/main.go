package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yamdb/database"
	"yamdb/internal/config"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/middleware/auth"
	"yamdb/internal/notify"
	"yamdb/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.GoEnv, cfg.LogLevel, cfg.LogFormat)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. Connect to the database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// 3. Redis is optional; without it /healthz only checks the database
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	notifier, closeNotifier, err := buildNotifier(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("notifier setup failed")
	}
	defer closeNotifier()

	// 4. Wire repositories and services
	users := repository.NewUserRepository(db)
	titles := repository.NewTitleRepository(db)
	categories := repository.NewCategoryRepository(db)
	genres := repository.NewGenreRepository(db)
	reviews := repository.NewReviewRepository(db)
	comments := repository.NewCommentRepository(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	svc := handler.Services{
		Auth: service.NewAuthService(users, tokens, notifier, service.AuthOptions{
			SingleUseCodes: cfg.ConfirmationCodeSingleUse,
			NotifierDriver: cfg.NotifierDriver,
		}),
		Users:      service.NewUserService(users),
		Categories: service.NewCategoryService(categories),
		Genres:     service.NewGenreService(genres),
		Titles:     service.NewTitleService(titles, categories, genres),
		Reviews:    service.NewReviewService(reviews, titles),
		Comments:   service.NewCommentService(comments, reviews, titles),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	go limiter.RunCleanup(ctx, time.Minute, 10*time.Minute)

	router := handler.NewRouter(cfg, svc, handler.Deps{DB: db, Redis: rdb, AuthLimiter: limiter})

	// 5. Serve until interrupted
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("notifier", cfg.NotifierDriver).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildNotifier selects the confirmation-code delivery driver.
func buildNotifier(cfg *config.Config) (notify.Notifier, func(), error) {
	switch cfg.NotifierDriver {
	case config.NotifierSMTP:
		return notify.NewSMTPNotifier(smtpConfig(cfg)), func() {}, nil
	case config.NotifierQueue:
		opt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := asynq.NewClient(opt)
		return notify.NewQueueNotifier(client), func() { client.Close() }, nil
	default:
		return notify.NewLogNotifier(), func() {}, nil
	}
}

func smtpConfig(cfg *config.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}
}
