package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"socialhub/internal/broker"
	"socialhub/internal/config"
	"socialhub/internal/domain"
	"socialhub/internal/events"
	"socialhub/internal/httpserver"
	"socialhub/internal/metrics"
	"socialhub/internal/presence"
	"socialhub/internal/ratelimit"
	"socialhub/internal/security"
	"socialhub/internal/service"
	"socialhub/internal/store/postgres"
	"socialhub/internal/store/sqlite"
	"socialhub/internal/ws"
)

// @title           socialhub real-time API
// @version         1.0
// @description     Notifications, chats and presence for the socialhub event core.

// @host            localhost:8000
// @BasePath        /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	if err := run(); err != nil {
		log.Fatalf("socialhub: %v", err)
	}
}

// repositories is one storage engine's implementation of the domain stores.
type repositories struct {
	users         domain.UserRepository
	posts         domain.PostRepository
	stories       domain.StoryRepository
	chats         domain.ChatRepository
	notifications domain.NotificationRepository
}

func openStore(cfg *config.Config) (*sql.DB, *repositories, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.DatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, &repositories{
			users:         postgres.NewUserRepo(db),
			posts:         postgres.NewPostRepo(db),
			stories:       postgres.NewStoryRepo(db),
			chats:         postgres.NewChatRepo(db),
			notifications: postgres.NewNotificationRepo(db),
		}, nil
	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, &repositories{
			users:         sqlite.NewUserRepo(db),
			posts:         sqlite.NewPostRepo(db),
			stories:       sqlite.NewStoryRepo(db),
			chats:         sqlite.NewChatRepo(db),
			notifications: sqlite.NewNotificationRepo(db),
		}, nil
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logs.GetLoggerFromString(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := initOTEL(ctx, cfg)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(c)
	}()

	db, repos, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("storage ready", "driver", cfg.DBDriver)

	m := metrics.New(prometheus.DefaultRegisterer)
	tokens := security.NewTokenService(cfg.JWTSecret, 24*time.Hour)

	notifications := service.NewNotificationService(repos.notifications, repos.users, repos.posts, logger,
		service.WithDedupWindow(cfg.DedupWindow))
	chats := service.NewChatService(repos.chats, repos.users, cfg.MaxMessageLength)
	stories := service.NewStoryService(repos.stories, repos.users)

	hub := ws.NewHub(presence.New(logger), tokens, repos.users, m, logger)

	opts := []events.Option{events.WithMetrics(m)}
	if cfg.RedisAddr != "" {
		limiter := ratelimit.New(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.EventRateLimit, cfg.EventRateWindow)
		defer limiter.Close()
		opts = append(opts, events.WithLimiter(limiter))
		logger.Info("event rate limit enabled", "addr", cfg.RedisAddr, "limit", cfg.EventRateLimit, "window", cfg.EventRateWindow)
	}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		pub := broker.NewPublisher(brokers, cfg.KafkaTopic)
		defer pub.Close()
		opts = append(opts, events.WithPublisher(pub))
		logger.Info("event publishing enabled", "brokers", brokers, "topic", cfg.KafkaTopic)
	}
	router := events.NewRouter(hub, chats, notifications, stories, logger, opts...)

	socket := ws.NewHandler(hub, router, ws.HandlerConfig{
		AllowedOrigins:   cfg.AllowedOrigins(),
		HandshakeTimeout: cfg.HandshakeTimeout,
		SendBuffer:       cfg.SendBufferSize,
	}, logger)

	handler := httpserver.NewRouter(httpserver.Deps{
		AllowedOrigins: cfg.AllowedOrigins(),
		Tokens:         tokens,
		Users:          repos.users,
		Notifications:  notifications,
		Chats:          chats,
		Events:         router,
		Hub:            hub,
		Socket:         socket,
		Metrics:        promhttp.Handler(),
		Log:            logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           otelhttp.NewHandler(handler, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr(), "app", cfg.AppName, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	logger.Info("shutting down")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
