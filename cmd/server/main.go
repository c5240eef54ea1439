package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contentguard/backend/config"
	"github.com/contentguard/backend/internal/analytics"
	"github.com/contentguard/backend/internal/auth"
	"github.com/contentguard/backend/internal/cache"
	"github.com/contentguard/backend/internal/classifier"
	"github.com/contentguard/backend/internal/database"
	"github.com/contentguard/backend/internal/handlers"
	"github.com/contentguard/backend/internal/logger"
	"github.com/contentguard/backend/internal/metrics"
	"github.com/contentguard/backend/internal/middleware"
	"github.com/contentguard/backend/internal/moderation"
	"github.com/contentguard/backend/internal/moderator"
	"github.com/contentguard/backend/internal/repository"
	"github.com/contentguard/backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// logStore is what both the pipeline and analytics need from storage
type logStore interface {
	moderation.LogStore
	analytics.Reader
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.IsProduction(), cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Log store
	var store logStore
	switch cfg.Storage.Driver {
	case "memory":
		lg.Warn("using in-memory log store; decisions are lost on restart")
		store = repository.NewMemoryModerationRepository()
	default:
		db, err := database.NewPostgresDB(ctx, cfg.GetDSN(), database.PoolConfig{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, lg)
		if err != nil {
			lg.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := database.RunMigrations(ctx, db.DB, lg); err != nil {
			lg.Fatal("failed to run migrations", zap.Error(err))
		}
		store = repository.NewModerationRepository(db)
	}

	// Connect to Redis
	var redis *cache.RedisClient
	if cfg.Redis.Enabled {
		redis, err = cache.NewRedisClient(ctx, cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			lg.Warn("running without Redis; live feed is local and summary is not cached", zap.Error(err))
			redis = nil
		} else {
			defer redis.Close()
		}
	}

	hub := websocket.NewHub(redis, lg)
	go hub.Run(ctx)

	var (
		notifier     moderation.Notifier = hub
		summaryCache analytics.SummaryCache
		shared       middleware.DistributedLimiter
	)
	if redis != nil {
		notifier = redis
		summaryCache = redis
		shared = redis

		bot := moderator.NewBot(redis, cfg.Alerts.Window, cfg.Alerts.Threshold, lg)
		go bot.Run(ctx)
	}

	// Classifiers
	textModel := classifier.NewHTTPModel(cfg.Models.ServerURL, cfg.Models.TextModel, cfg.Models.Token, cfg.Models.Timeout)
	imageModel := classifier.NewHTTPModel(cfg.Models.ServerURL, cfg.Models.ImageModel, cfg.Models.Token, cfg.Models.Timeout)

	collector := metrics.NewCollector("contentguard", prometheus.DefaultRegisterer)
	pipeline := moderation.NewPipeline(store, notifier, collector, lg,
		classifier.NewTextClassifier(textModel),
		classifier.NewImageClassifier(imageModel))
	analyticsService := analytics.NewService(store, summaryCache, cfg.Analytics.SummaryTTL, lg)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize handlers
	modHandler := handlers.NewModerationHandler(pipeline, cfg.API.MaxUploadBytes)
	logHandler := handlers.NewLogHandler(pipeline)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	wsHandler := websocket.NewHandler(hub, cfg.CORS.AllowedOrigins, lg)

	rateLimiter := middleware.NewRateLimiter(cfg.API.RateLimitPerSec, shared, lg)
	rateLimiter.Cleanup(ctx)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(lg))
	router.Use(collector.Middleware())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"storage": cfg.Storage.Driver,
			"redis":   redis != nil,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", wsHandler.HandleWebSocket)

	api := router.Group("/api/v1")
	{
		moderate := api.Group("/moderate")
		moderate.Use(middleware.RateLimitMiddleware(rateLimiter, "moderate"))
		moderate.POST("/text", modHandler.ModerateText)
		moderate.POST("/image", modHandler.ModerateImage)

		api.GET("/logs", logHandler.List)
		api.GET("/logs/count", logHandler.Count)
		api.DELETE("/logs", middleware.OperatorMiddleware(jwtService), logHandler.Clear)

		api.GET("/analytics/summary", analyticsHandler.Summary)
		api.GET("/analytics/distribution", analyticsHandler.Distribution)
		api.GET("/analytics/timeline", analyticsHandler.Timeline)
		api.GET("/analytics/recent", analyticsHandler.Recent)

		api.GET("/ws/stats", wsHandler.Stats)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("starting contentguard server",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Server.Env),
			zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
}
