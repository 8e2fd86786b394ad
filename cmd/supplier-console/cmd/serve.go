package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/supplyhub/supplier-console/internal/api"
	"github.com/supplyhub/supplier-console/internal/api/handler"
	"github.com/supplyhub/supplier-console/internal/api/middleware"
	"github.com/supplyhub/supplier-console/internal/core/domain"
	"github.com/supplyhub/supplier-console/internal/core/service"
	"github.com/supplyhub/supplier-console/internal/infrastructure/backend"
	mongostore "github.com/supplyhub/supplier-console/internal/infrastructure/db/mongo"
	redisstore "github.com/supplyhub/supplier-console/internal/infrastructure/db/redis"
	"github.com/supplyhub/supplier-console/internal/infrastructure/queue"
	"github.com/supplyhub/supplier-console/internal/infrastructure/realtime"
	"github.com/supplyhub/supplier-console/internal/infrastructure/token"
	"github.com/supplyhub/supplier-console/internal/pkg/config"
	"github.com/supplyhub/supplier-console/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the supplier console HTTP server.

MongoDB (audit trail) and Redis (revocations, notification cache) must be
reachable. SIGINT or SIGTERM triggers a graceful shutdown; a second signal
kills the process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stop() restores default signal handling so a second Ctrl+C does a hard kill.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "supplier-console",
	})

	if cfg.Backend.BaseURL == "" {
		log.Warn().Msg("NEXT_PUBLIC_API_URL is not set; marketplace calls will fail")
	}

	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	auditRepo := mongostore.NewAuditRepository(db)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("audit indexes not ensured")
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Core ---
	codec, err := token.NewJWTCodec(cfg.Session.Secret)
	if err != nil {
		return fmt.Errorf("session codec: %w", err)
	}

	client := backend.New(backend.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, log)

	store := service.NewSessionStore(
		client,
		codec,
		redisstore.NewRevocationStore(rdb),
		auditRepo,
		service.SessionStoreConfig{MaxAge: cfg.Session.MaxAge},
		log,
	)
	notifications := service.NewNotificationService(client, redisstore.NewNotificationCache(rdb), cfg.Cache.NotificationTTL, log)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher := queue.NewDispatcher(cfg.Cache.InvalidationWorkers, notifications, log)
	dispatcher.Start(workerCtx)

	dialer := realtime.NewDialer(cfg.Realtime.URL, realtime.ReconnectPolicy{
		MaxAttempts: cfg.Realtime.ReconnectMaxAttempts,
		BaseDelay:   cfg.Realtime.ReconnectBaseDelay,
		MaxDelay:    cfg.Realtime.ReconnectMaxDelay,
	}, log)

	policy := domain.DefaultRoutePolicy()
	policy.RequiredRole = cfg.Session.RequiredRole

	// --- HTTP ---
	streamsDone := make(chan struct{})
	e := api.NewRouter(api.Deps{
		Log:           log,
		Store:         store,
		Account:       client,
		Notifications: notifications,
		Realtime:      dialer,
		Invalidations: dispatcher,
		Cookie: middleware.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
		},
		Policy: policy,
		Readiness: []handler.Dependency{
			{Name: "mongodb", Ping: func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) }},
			{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
		Shutdown:   streamsDone,
		Middleware: []echo.MiddlewareFunc{echoprometheus.NewMiddleware("supplier_console")},
	})
	e.Server.RegisterOnShutdown(func() { close(streamsDone) })

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
		return err
	}
	cancelWorkers()
	log.Info().Msg("server stopped")
	return nil
}
