// The worker consumes the notification queue and delivers mail over
// SMTP. It reconnects on connection loss and exits non-zero on fatal
// broker errors so the supervisor restarts it with a clean slate.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pradatta/libris/internal/config"
	"github.com/pradatta/libris/internal/rabbitmq"
	"github.com/pradatta/libris/notify"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load("")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if err != nil {
		logger.Error("failed to build mailer", "error", err)
		os.Exit(1)
	}

	dialer := rabbitmq.NewDialer(cfg.AMQP.URL,
		rabbitmq.WithHeartbeat(cfg.AMQP.Heartbeat.Std()),
		rabbitmq.WithLogger(logger),
	)
	worker := notify.NewWorker(dialer, mailer,
		notify.WithQueue(cfg.AMQP.Queue),
		notify.WithPrefetch(cfg.AMQP.Prefetch),
		notify.WithWorkerLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("worker starting",
		"queue", cfg.AMQP.Queue,
		"broker", rabbitmq.SanitizeURL(cfg.AMQP.URL))

	if err := worker.Run(ctx); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped cleanly")
}
