package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/config"
	"github.com/oksasatya/social-account-service/internal/application"
	"github.com/oksasatya/social-account-service/internal/container"
	pginfra "github.com/oksasatya/social-account-service/internal/infrastructure/postgres"
	"github.com/oksasatya/social-account-service/internal/infrastructure/queue"
	"github.com/oksasatya/social-account-service/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-task-worker", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	// re-agreement mails go out through the email queue
	mailPub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		logger.Fatalf("amqp publisher: %v", err)
	}
	defer mailPub.Close()

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQTaskQueue, 4, logger)
	if err != nil {
		logger.Fatalf("amqp consumer: %v", err)
	}
	defer consumer.Close()

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetMailPub(mailPub)
	svc := container.GetServices()

	dispatcher := queue.NewDispatcher()
	dispatcher.Handle(application.TaskNotifyReAgreement, svc.Notifier.Handle)

	go flushTokens(ctx, svc.Tokens, cfg.TokenFlushInterval, logger)

	handle := func(ctx context.Context, body []byte) error {
		err := dispatcher.Dispatch(ctx, body)
		if errors.Is(err, queue.ErrUnknownTask) || errors.Is(err, queue.ErrMalformedTask) || errors.Is(err, application.ErrInvalidTaskArgs) {
			return errors.Join(helpers.ErrDrop, err)
		}
		return err
	}

	logger.Infof("task worker listening on queue=%s", cfg.RabbitMQTaskQueue)
	if err := consumer.Consume(ctx, "task-worker", handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("consume: %v", err)
	}
	logger.Info("task worker stopped")
}

// flushTokens deletes expired outstanding and blacklisted tokens every interval.
func flushTokens(ctx context.Context, tokens *application.TokenService, every time.Duration, logger *logrus.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := tokens.Flush(ctx)
			if err != nil {
				logger.WithError(err).Warn("token flush failed")
				continue
			}
			logger.WithField("deleted", n).Info("expired tokens flushed")
		}
	}
}
