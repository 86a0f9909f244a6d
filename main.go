package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog/cache"
	"blog/config"
	"blog/database"
	"blog/handlers"
	"blog/logger"
	"blog/repository"
	"blog/routes"
	"blog/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("❌ configuration: %v", err)
	}

	logg, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("❌ logger: %v", err)
	}

	os.Exit(exitCode(logg, run(cfg, logg)))
}

// exitCode logs err and flushes the logger before the process exits, since
// os.Exit skips deferred calls.
func exitCode(logg *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logg.Error("server stopped with error", zap.Error(err))
		code = 1
	}
	_ = logg.Sync()
	return code
}

func run(cfg *config.Config, logg *zap.Logger) error {
	logg.Info("🚀 starting blog API", zap.String("store", cfg.StoreDriver), zap.String("port", cfg.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ===== STORE =====
	var (
		repo   repository.PostRepository
		pinger handlers.Pinger
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logg.Warn("using in-memory store, data is lost on restart")
		repo = repository.NewMemoryPostRepository()
	default:
		db, err := database.Connect(ctx, cfg, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logg.Error("MongoDB disconnect failed", zap.Error(err))
				return
			}
			logg.Info("disconnected from MongoDB")
		}()
		repo = repository.NewMongoPostRepository(db.Posts)
		pinger = db
	}

	// ===== CACHE =====
	if cfg.RedisURL != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logg.Warn("redis unavailable, continuing without cache", zap.Error(err))
		} else {
			defer closeRedis(rdb, logg)
			repo = cache.NewPostRepository(repo, rdb, cfg.CacheTTL, logg)
			logg.Info("redis cache enabled", zap.Duration("ttl", cfg.CacheTTL))
		}
	}

	// ===== WEBSOCKET =====
	hub := websocket.NewHub(logg)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// ===== ROUTER =====
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := routes.SetupRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Posts:    handlers.NewPostHandler(repo, hub, logg, cfg.RequestTimeout),
		Hub:      hub,
		Pinger:   pinger,
		Registry: registry,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info("🌐 server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ===== GRACEFUL SHUTDOWN =====
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logg.Info("🛑 shutting down server")
	stopHub()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("forced shutdown", zap.Error(err))
	}

	logg.Info("👋 server stopped gracefully")
	return nil
}

func closeRedis(rdb *redis.Client, logg *zap.Logger) {
	if err := rdb.Close(); err != nil {
		logg.Error("redis close failed", zap.Error(err))
	}
}
