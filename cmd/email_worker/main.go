package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oksasatya/social-account-service/config"
	"github.com/oksasatya/social-account-service/pkg/helpers"
	"github.com/oksasatya/social-account-service/pkg/mailer"
	mailtpl "github.com/oksasatya/social-account-service/pkg/mailer/templates"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}

	var sender mailer.Sender = mailer.LogSender{Logger: logger}
	if cfg.MailSendEnabled {
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			logger.Fatal("Mailgun not configured")
		}
		sender = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, cfg.ExternalCallTimeout)
	} else {
		logger.Warn("MAIL_SEND_ENABLED=false; messages are logged, not sent")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, 16, logger)
	if err != nil {
		logger.Fatalf("amqp: %v", err)
	}
	defer consumer.Close()

	resolver := mailtpl.IPAPIResolver{}
	handle := func(ctx context.Context, body []byte) error {
		var job mailer.EmailJob
		if err := json.Unmarshal(body, &job); err != nil {
			return errors.Join(helpers.ErrDrop, err)
		}
		err := mailer.Deliver(ctx, sender, resolver, job)
		if errors.Is(err, mailer.ErrInvalidJob) {
			return errors.Join(helpers.ErrDrop, err)
		}
		if err == nil {
			logger.WithField("template", job.Template).Info("mail delivered")
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	if err := consumer.Consume(ctx, "email-worker", handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("consume: %v", err)
	}
	logger.Info("email worker stopped")
}
