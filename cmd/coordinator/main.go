package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"livecast/internal/core/ports"
	"livecast/internal/core/services"
	httphandlers "livecast/internal/handlers/http"
	"livecast/internal/infrastructure/broadcast"
	"livecast/internal/infrastructure/distributed"
	"livecast/internal/infrastructure/gateway"
	"livecast/internal/infrastructure/middleware"
	"livecast/internal/infrastructure/monitoring"
	"livecast/internal/infrastructure/reliability"
	repositories "livecast/internal/infrastructure/repositories"
	"livecast/pkg/circuitbreaker"
	"livecast/pkg/config"
	"livecast/pkg/logger"
	"livecast/pkg/retry"
	"livecast/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	streamRepo := repoFactory.CreateLivestreamRepository()
	membershipRegistry := repoFactory.CreateMembershipRegistry()
	banList := repoFactory.CreateBanList()
	commentStream := repoFactory.CreateCommentStream()

	// Archive writes go through retry + circuit breaker; archive
	// failures never block the in-memory hot path.
	archive := repoFactory.CreateSessionArchive()
	if archive != nil {
		archive = reliability.NewSessionArchiveWrapper(
			archive,
			retry.DefaultConfig(),
			circuitbreaker.DefaultConfig(),
			log,
		)
	}

	// Initialize monitoring
	collector := monitoring.NewPrometheusCollector()

	// Initialize services
	var broadcaster ports.Broadcaster = broadcast.NewBroadcaster(membershipRegistry, collector, log)

	// With Redis available, relay room events across coordinator
	// instances so viewers connected elsewhere still receive them.
	relayCtx, relayCancel := context.WithCancel(context.Background())
	defer relayCancel()
	if redisClient := repoFactory.RedisClient(); redisClient != nil {
		relay := distributed.NewEventRelay(redisClient, uuid.NewString(), log)
		relayBroadcaster := distributed.NewRelayBroadcaster(broadcaster, relay, log)
		go func() {
			if err := relayBroadcaster.Run(relayCtx); err != nil && err != context.Canceled {
				log.Warnw("event relay stopped", "error", err)
			}
		}()
		broadcaster = relayBroadcaster
	}

	coordinator := services.NewCoordinator(
		streamRepo,
		membershipRegistry,
		banList,
		commentStream,
		archive,
		broadcaster,
		collector,
		log,
		services.CoordinatorOptions{
			MutationTimeout: cfg.Coordinator.MutationTimeout,
			BackfillLimit:   cfg.Coordinator.BackfillLimit,
			DedupeCapacity:  cfg.Coordinator.DedupeCapacity,
		},
	)
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// One limiter store shared by the HTTP comment endpoint and the
	// WebSocket gateway.
	limiterStore := middleware.NewLimiterStore(cfg.RateLimiting.CommentsPerSecond, cfg.RateLimiting.Burst)

	wsGateway := gateway.New(coordinator, limiterStore, gateway.Config{
		PingInterval:   cfg.Gateway.PingInterval,
		PongTimeout:    cfg.Gateway.PongTimeout,
		WriteTimeout:   cfg.Gateway.WriteTimeout,
		MaxMessageSize: cfg.Gateway.MaxMessageSize,
		SendBufferSize: cfg.Gateway.SendBufferSize,
	}, cfg.Coordinator.MaxCommentLength, log)

	// Initialize HTTP handlers
	authHandler := httphandlers.NewAuthHandler(authService, cfg.Auth.TokenTTL)
	sessionHandler := httphandlers.NewSessionHandler(coordinator, cfg.Coordinator.MaxCommentLength)
	defer sessionHandler.Close()

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.RecoveryMiddleware(log),
		middleware.ErrorHandlerMiddleware(logger.NewContextLogger(zapLogger)),
	)
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	authHandler.SetupRoutes(router)
	sessionHandler.SetupRoutes(router,
		middleware.AuthMiddleware(authService),
		middleware.ModeratorMiddleware(),
		middleware.NewCommentRateLimitMiddleware(cfg, limiterStore),
	)

	// WebSocket gateway endpoint
	router.GET("/ws", middleware.AuthMiddleware(authService), wsGateway.HandleWebSocket)

	// Health check endpoint
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddCheck("repositories", repoFactory.HealthCheck)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		if status.Status != "healthy" {
			c.JSON(503, status)
			return
		}
		c.JSON(200, status)
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting Livecast coordinator on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down Livecast coordinator...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("Livecast coordinator stopped")
}
