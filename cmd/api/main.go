package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/pixelplay/notify-api/internal/config"
	healthHandler "github.com/pixelplay/notify-api/internal/handler/health"
	notificationHandler "github.com/pixelplay/notify-api/internal/handler/notification"
	"github.com/pixelplay/notify-api/internal/middleware"
	"github.com/pixelplay/notify-api/internal/realtime"
	"github.com/pixelplay/notify-api/internal/repository/postgres"
	"github.com/pixelplay/notify-api/internal/router"
	"github.com/pixelplay/notify-api/internal/service/directory"
	notificationService "github.com/pixelplay/notify-api/internal/service/notification"
	"github.com/pixelplay/notify-api/internal/worker"
	"github.com/pixelplay/notify-api/pkg/auth"
	"github.com/pixelplay/notify-api/pkg/logger"
	"github.com/pixelplay/notify-api/pkg/messaging"
	redisBroker "github.com/pixelplay/notify-api/pkg/messaging/redis"
	"github.com/pixelplay/notify-api/pkg/metrics"
	"github.com/pixelplay/notify-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Log.Pretty,
	})

	if err := validator.Register(); err != nil {
		appLogger.Fatal(err, "failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	notificationRepo := postgres.NewNotificationRepository(base)
	userRepo := postgres.NewUserRepository(base)

	m := metrics.NewMetrics("notify")
	verifier := auth.NewJWTVerifier(cfg.JWT.Secret)

	adminDirectory := directory.NewService(userRepo, directory.DefaultConfig())

	gateway := realtime.NewGateway(
		realtime.NewConnectionAuthenticator(verifier),
		realtime.NewRoomRouter(),
		appLogger,
		m,
	).Initialize(realtime.TransportConfig{
		AllowedOrigin:   cfg.Realtime.AllowedOrigin,
		ReadBufferSize:  cfg.Realtime.ReadBufferSize,
		WriteBufferSize: cfg.Realtime.WriteBufferSize,
	})

	var broker messaging.Broker
	if cfg.Redis.Enabled {
		broker, err = redisBroker.NewRedisBroker(redisBroker.Config{URL: cfg.Redis.URL}, appLogger.Zerolog())
		if err != nil {
			appLogger.Fatal(err, "failed to connect to Redis")
		}
		defer broker.Close()
	}

	notificationSvc := notificationService.NewService(notificationRepo, adminDirectory, gateway, broker, m, appLogger)

	authMiddleware := middleware.NewAuthMiddleware(verifier)
	notifHandler := notificationHandler.NewHandler(notificationSvc, authMiddleware)
	healthH := healthHandler.NewHandler(db, gateway)

	corsConfig := middleware.DefaultCORSConfig()
	if cfg.Realtime.AllowedOrigin != "" {
		corsConfig.AllowOrigins = []string{cfg.Realtime.AllowedOrigin}
	}

	r := router.NewRouter(notifHandler, healthH, gateway, router.RouterConfig{
		RateLimit:  rate.Limit(100),
		RateBurst:  200,
		CORSConfig: corsConfig,
	})
	r.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if broker != nil {
		relay := worker.NewFanoutRelay(broker, gateway, appLogger)
		go func() {
			if err := relay.Start(ctx); err != nil && err != context.Canceled {
				appLogger.Error(err, "fanout relay stopped")
			}
		}()
	}

	// No Read/WriteTimeout here: the websocket endpoint shares this
	// server and long-lived connections manage their own deadlines.
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal(err, "server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}
