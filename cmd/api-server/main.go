package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"animevault/database"
	"animevault/internal/cache"
	"animevault/internal/config"
	"animevault/internal/filestore"
	"animevault/internal/http-api/handler"
	"animevault/internal/http-api/middleware"
	"animevault/internal/http-api/repository"
	"animevault/internal/http-api/service"
	"animevault/internal/sources"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	// Local catalog store: GORM by default, flat-file when configured.
	var animeRepo repository.AnimeRepository
	if cfg.StorageBackend == "file" {
		store, err := filestore.New(cfg.FileStorePath)
		if err != nil {
			log.Fatalf("could not open file store: %v", err)
		}
		animeRepo = store
		logger.Info("using flat-file catalog store", "path", cfg.FileStorePath)
	} else {
		animeRepo = repository.NewAnimeRepository(db)
	}

	userRepo := repository.NewUserRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)

	aggregator := sources.NewAggregator(logger, buildSourceClients(cfg)...)

	searchCache, err := cache.NewSearchCache(cfg.RedisURL, cfg.CacheTTL, logger)
	if err != nil {
		log.Fatalf("could not connect to redis: %v", err)
	}
	defer searchCache.Close()
	if searchCache != nil {
		logger.Info("search cache enabled", "ttl", cfg.CacheTTL)
	}

	authService := service.NewAuthService(userRepo, cfg)
	animeService := service.NewAnimeService(animeRepo, aggregator, searchCache, logger)
	collectionService := service.NewCollectionService(collectionRepo, animeRepo)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/api/v1")
	handler.NewAuthHandler(authService, cfg.JWTExpiry).RegisterRoutes(v1.Group("/auth"))
	handler.NewAnimeHandler(animeService, authMiddleware, cfg.SourceTimeout).RegisterRoutes(v1.Group("/anime"))
	handler.NewCollectionHandler(collectionService, authMiddleware).RegisterRoutes(v1.Group("/collection"))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	go func() {
		logger.Info("API server listening", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until SIGINT/SIGTERM, then drain in-flight requests.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// buildSourceClients instantiates clients in the configured priority order.
func buildSourceClients(cfg *config.Config) []sources.Client {
	clients := make([]sources.Client, 0, len(cfg.SourceOrder))
	for _, name := range cfg.SourceOrder {
		switch name {
		case "anilist":
			clients = append(clients, sources.NewAniListClient(cfg.SourceTimeout))
		case "kitsu":
			clients = append(clients, sources.NewKitsuClient(cfg.SourceTimeout))
		case "jikan":
			clients = append(clients, sources.NewJikanClient(cfg.SourceTimeout))
		}
	}
	return clients
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
