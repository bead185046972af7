// The scanner runs one overdue sweep and exits; cron provides the
// cadence. Per-item failures are logged inside the sweep and retried on
// the next run, so only setup errors exit non-zero.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pradatta/libris/auth"
	"github.com/pradatta/libris/catalog"
	"github.com/pradatta/libris/internal/config"
	"github.com/pradatta/libris/internal/rabbitmq"
	"github.com/pradatta/libris/lending"
	"github.com/pradatta/libris/notify"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	db, err := config.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	dialer := rabbitmq.NewDialer(cfg.AMQP.URL,
		rabbitmq.WithHeartbeat(cfg.AMQP.Heartbeat.Std()),
		rabbitmq.WithLogger(logger),
	)
	conn, err := dialer.Dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	pub, err := notify.NewPublisher(conn,
		notify.WithPublisherQueue(cfg.AMQP.Queue),
		notify.WithPublisherLogger(logger),
	)
	if err != nil {
		return err
	}
	defer pub.Close()

	students := catalog.NewStudentStore(db)
	books := catalog.NewBookStore(db, catalog.NewAuthorStore(db))
	users := auth.NewUserStore(db)
	dir := catalog.NewDirectory(students, books, users)

	scanner := lending.NewScanner(lending.NewSQLStore(db), dir, pub,
		lending.WithScannerLogger(logger))

	processed, err := scanner.Scan(ctx)
	if err != nil {
		return err
	}
	logger.Info("scan complete", "processed", processed)
	return nil
}
