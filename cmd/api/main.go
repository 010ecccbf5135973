package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/campus-network/internal/api/http"
	"github.com/spec-kit/campus-network/internal/api/http/handlers"
	"github.com/spec-kit/campus-network/internal/auth"
	"github.com/spec-kit/campus-network/internal/config"
	"github.com/spec-kit/campus-network/internal/events"
	"github.com/spec-kit/campus-network/internal/observability"
	"github.com/spec-kit/campus-network/internal/persistence"
	"github.com/spec-kit/campus-network/internal/repository"
	"github.com/spec-kit/campus-network/internal/service"
	"github.com/spec-kit/campus-network/internal/worker"
	"github.com/spec-kit/campus-network/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)

	revocationStore := auth.NewRevocationStore()
	worker.StartRevocationSweeper(ctx, revocationStore, 5*time.Minute, logger)

	metrics := observability.NewMetrics()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), userRepo, revocationStore)
	identityFilter := auth.NewIdentityFilter(tokenManager, logger, metrics)
	policy := auth.DefaultPolicy()

	dispatcher := events.NewInMemoryDispatcher()
	authService := service.NewAuthService(cfg.Auth, userRepo, tokenManager)
	messageService := service.NewMessageService(messageRepo, userRepo, dispatcher, logger)
	userService := service.NewUserService(userRepo, dispatcher, logger)

	hub := ws.NewHub(messageService, cfg.Realtime, logger)

	var publisher ws.Publisher = hub
	if redis.Client != nil {
		bridge := ws.NewBridge(redis.Client, hub, cfg.Realtime.Channel, logger)
		publisher = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("realtime fanout stopped", zap.Error(err))
			}
		}()
	}

	notificationService := service.NewNotificationService(dispatcher, publisher, logger)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Messages:       handlers.NewMessagesHandler(messageService),
		Moderation:     handlers.NewModerationHandler(messageService),
		IdentityFilter: identityFilter,
		Policy:         policy,
		Handshake:      ws.HandshakeAuth(tokenManager, logger),
		Hub:            hub,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
