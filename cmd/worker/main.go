package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"yamdb/internal/config"
	"yamdb/internal/metrics"
	"yamdb/internal/notify"
	"yamdb/pkg/logger"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

func main() {
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

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}

	smtpNotifier := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})

	mux := asynq.NewServeMux()
	mux.Handle(notify.TypeEmailSend, notify.NewEmailTaskHandler(smtpNotifier))

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Queues:      map[string]int{notify.QueueMail: 1},
		Concurrency: cfg.WorkerConcurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			metrics.RecordNotification(config.NotifierSMTP, err)
			log.Error().Err(err).Str("type", task.Type()).Msg("task failed")
		}),
	})

	if err := srv.Start(mux); err != nil {
		log.Fatal().Err(err).Msg("worker failed to start")
	}
	log.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("email worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("stopping email worker")
	srv.Shutdown()
}
