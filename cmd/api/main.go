// The api binary serves the library HTTP API: accounts, catalog CRUD
// and the transaction lifecycle, plus an on-demand overdue sweep for
// the external scheduler.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pradatta/libris/auth"
	"github.com/pradatta/libris/catalog"
	"github.com/pradatta/libris/health"
	"github.com/pradatta/libris/internal/config"
	"github.com/pradatta/libris/internal/rabbitmq"
	"github.com/pradatta/libris/lending"
	"github.com/pradatta/libris/notify"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("api stopped", "error", err)
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

	// Stores and schema.
	authors := catalog.NewAuthorStore(db)
	books := catalog.NewBookStore(db, authors)
	students := catalog.NewStudentStore(db)
	users := auth.NewUserStore(db)
	txStore := lending.NewSQLStore(db)
	for _, m := range []interface {
		Migrate(context.Context) error
	}{authors, books, students, users, txStore} {
		if err := m.Migrate(ctx); err != nil {
			return err
		}
	}

	// The confirmation publisher is optional; the API still serves
	// transactions when the broker is down.
	var (
		pub       lending.Publisher
		healthers = []health.Checker{health.NewDatabaseChecker(db)}
	)
	dialer := rabbitmq.NewDialer(cfg.AMQP.URL,
		rabbitmq.WithHeartbeat(cfg.AMQP.Heartbeat.Std()),
		rabbitmq.WithLogger(logger),
	)
	conn, err := dialer.Dial(ctx)
	if err != nil {
		logger.Warn("broker unavailable, confirmation mail disabled",
			"broker", rabbitmq.SanitizeURL(cfg.AMQP.URL),
			"error", err)
	} else {
		defer conn.Close()
		p, err := notify.NewPublisher(conn,
			notify.WithPublisherQueue(cfg.AMQP.Queue),
			notify.WithPublisherLogger(logger),
		)
		if err != nil {
			return err
		}
		defer p.Close()
		pub = p
		healthers = append(healthers,
			health.NewBrokerChecker(conn),
			health.NewQueueChecker(cfg.AMQP.Queue, conn))
	}

	dir := catalog.NewDirectory(students, books, users)
	txService := lending.NewService(txStore, dir, pub, lending.WithServiceLogger(logger))
	scanner := lending.NewScanner(txStore, dir, pub, lending.WithScannerLogger(logger))

	tokens := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL.Std())
	authService := auth.NewService(users, tokens, auth.WithServiceLogger(logger))

	if cfg.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "debug" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", health.Handler(health.NewRegistry(healthers...)))

	api := r.Group("/api/v1")
	auth.RegisterRoutes(api.Group("/auth"), authService)

	protected := api.Group("")
	protected.Use(auth.Middleware(tokens))
	auth.RegisterProtectedRoutes(protected, users)
	catalog.RegisterRoutes(protected, authors, books, students)
	lending.RegisterRoutes(protected, txService, scanner)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("api stopped cleanly")
	return nil
}
