package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trailhub/internal/achievements"
	"trailhub/internal/broadcast"
	"trailhub/internal/config"
	"trailhub/internal/database"
	"trailhub/internal/events"
	"trailhub/internal/handlers/web"
	"trailhub/internal/repositories"
	"trailhub/internal/router"
	"trailhub/internal/routing"
	"trailhub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(&cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting trailhub",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	db, err := database.Connect(ctx, &cfg.Database, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db, &cfg.Database, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Broadcast transports: the websocket hub always runs; redis joins
	// when configured so other instances' subscribers see our commits.
	hub := broadcast.NewHub(logger)
	transports := []broadcast.Transport{hub}

	var redisTransport *broadcast.RedisTransport
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisTransport = broadcast.NewRedisTransport(client, cfg.Redis.ChannelPrefix, logger)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisTransport.Health(pingCtx); err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		pingCancel()

		transports = append(transports, redisTransport)
		logger.Info("Redis broadcast transport enabled", zap.String("addr", cfg.Redis.Addr))
	}

	dispatcher := broadcast.NewDispatcher(broadcast.NewFanout(transports...), logger, &broadcast.Config{
		QueueSize:   cfg.Broadcast.QueueSize,
		SendTimeout: cfg.Broadcast.SendTimeout,
	})
	dispatcher.Start()

	// Event pipeline.
	clock := events.SystemClock{}
	bus := events.NewBus(logger)
	pipeline := events.NewPipeline(events.NewSQLStarter(db), bus, dispatcher, logger, nil)

	// Repositories.
	tripRepo := repositories.NewTripRepository(db, logger)
	updateRepo := repositories.NewUpdateRepository(db, logger)
	commentRepo := repositories.NewCommentRepository(db, logger)
	socialRepo := repositories.NewSocialRepository(db, logger)
	achievementRepo := repositories.NewAchievementRepository(db, logger)

	// Routing provider is optional; without it polylines are straight
	// lines between updates.
	var provider routing.Provider
	if osrm := routing.NewOSRMProvider(&routing.OSRMConfig{
		BaseURL:        cfg.Routing.OSRMBaseURL,
		Profile:        cfg.Routing.Profile,
		RequestTimeout: cfg.Routing.RequestTimeout,
		MaxRetries:     uint64(cfg.Routing.MaxRetries),
	}, logger); osrm != nil {
		provider = osrm
	}
	routes := routing.NewService(tripRepo, updateRepo, provider, clock, logger, nil)

	engine := achievements.NewEngine(
		repositories.NewSnapshotSource(tripRepo, updateRepo, socialRepo),
		achievementRepo,
		pipeline,
		clock,
		logger,
		achievements.DefaultTripCheckers(),
		achievements.DefaultUserCheckers(),
	)

	services.RegisterPersistenceHandlers(bus, tripRepo, updateRepo, commentRepo, socialRepo, achievementRepo, logger)
	services.RegisterSideEffects(bus, routes, engine, logger)

	tripService := services.NewTripService(pipeline, routes, clock, logger)
	commentService := services.NewCommentService(pipeline, clock, logger)
	socialService := services.NewSocialService(pipeline, socialRepo, clock, logger)

	validate := validator.New()
	handler := router.New(&router.Handlers{
		Trips:    web.NewTripHandler(tripService, tripRepo, validate),
		Comments: web.NewCommentHandler(commentService, validate),
		Social:   web.NewSocialHandler(socialService, validate),
		Health:   web.NewHealthHandler(db, redisTransport, hub),
		Hub:      hub,
	}, logger)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		logger.Error("Dispatcher shutdown failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// initLogger builds the process logger from configuration: json in
// production, console for development.
func initLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
