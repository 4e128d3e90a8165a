package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sak-dev-bit/DevConnector/internal/activity"
	"github.com/sak-dev-bit/DevConnector/internal/config"
	"github.com/sak-dev-bit/DevConnector/internal/domain"
	"github.com/sak-dev-bit/DevConnector/internal/handler"
	"github.com/sak-dev-bit/DevConnector/internal/reconciler"
	"github.com/sak-dev-bit/DevConnector/internal/repository"
	"github.com/sak-dev-bit/DevConnector/internal/service"
	"github.com/sak-dev-bit/DevConnector/internal/store"
	"github.com/sak-dev-bit/DevConnector/pkg/database"
	"github.com/sak-dev-bit/DevConnector/pkg/jwt"
	pkglog "github.com/sak-dev-bit/DevConnector/pkg/log"
	"github.com/sak-dev-bit/DevConnector/pkg/middleware"
	"github.com/sak-dev-bit/DevConnector/pkg/pubsub"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialise logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		ServiceName: "devconnector",
	})
	logger := pkglog.L()
	logger.Info().Msg("starting devconnector")

	// 3. Connect to the database and migrate
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &domain.UserModel{}, &domain.FollowModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// 4. Connect to Redis
	followStore, err := store.NewRedisFollowStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer followStore.Close()

	// 5. Event bus (optional; the service runs without it)
	var bus pubsub.PubSub
	var publisher pubsub.Publisher
	if cfg.PubSub.Driver != "" && cfg.PubSub.Driver != "disabled" {
		bus, err = pubsub.NewPubSub(cfg.PubSub)
		if err != nil {
			logger.Warn().Err(err).Msg("event bus unavailable, continuing without it")
		} else {
			publisher = bus
			defer bus.Close()
		}
	}

	// 6. Repositories
	userRepo := repository.NewGormUserRepository(db)
	followRepo := repository.NewGormFollowRepository(db)

	// 7. Token manager and auth middleware
	tokenManager, err := jwt.NewManager(cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise token manager")
	}
	authMiddleware := middleware.NewAuthMiddleware(tokenManager)

	// 8. Services
	userService := service.NewUserService(userRepo, tokenManager, publisher)
	socialService := service.NewSocialGraphService(followRepo, followStore, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sweep stale token revocations so the map does not grow unbounded.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tokenManager.CleanupExpiredRevocations()
			}
		}
	}()

	// 9. Activity consumer (needs the event bus)
	var consumer *activity.Consumer
	if bus != nil {
		consumer = activity.NewConsumer(bus)
		if err := consumer.Start(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to start activity consumer")
			consumer = nil
		}
	}

	// 10. Counter reconciler
	rec := reconciler.New(followStore, followRepo, cfg.Reconciler)
	rec.Start(ctx)

	// 11. HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(pkglog.GinMiddleware(logger))

	userHandler := handler.NewUserHandler(userService)
	socialHandler := handler.NewSocialHandler(socialService)
	handler.RegisterRoutes(router, authMiddleware, userHandler, socialHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}

	rec.Stop()
	cancel()

	select {
	case <-rec.Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("reconciler did not stop in time")
	}
	if consumer != nil {
		select {
		case <-consumer.Done():
		case <-shutdownCtx.Done():
			logger.Warn().Msg("activity consumer did not stop in time")
		}
	}

	logger.Info().Msg("shutdown complete")
}
