package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"seungpyo.lee/BlogPlatform/internal/adapter"
	"seungpyo.lee/BlogPlatform/internal/config"
	"seungpyo.lee/BlogPlatform/internal/handler"
	"seungpyo.lee/BlogPlatform/internal/metrics"
	"seungpyo.lee/BlogPlatform/internal/repository"
	"seungpyo.lee/BlogPlatform/internal/service"
	"seungpyo.lee/BlogPlatform/pkg/jwt"
	"seungpyo.lee/BlogPlatform/pkg/logger"
)

func main() {
	conf := config.LoadPostConfig()
	log := logger.New(conf.LogLevel)
	gin.SetMode(conf.GinMode)

	db, err := repository.Open(conf.PostgreConnectionString)
	if err != nil {
		log.Fatal("failed to connect db", "error", err)
	}
	// auto migration
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate db", "error", err)
	}

	var tokenManager jwt.TokenManager
	if addr := conf.RedisAddr(); addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:       addr,
			Password:   conf.RedisDBPassword,
			DB:         0, // use default DB
			MaxRetries: conf.RedisMaxRetries,
			PoolSize:   conf.RedisPoolSize,
		})
		defer redisClient.Close()
		tokenManager = jwt.NewTokenManager(conf.JWTSecretKey, redisClient)
		log.Info("token revocation list enabled", "redis", addr)
	} else {
		tokenManager = jwt.NewTokenManagerWithoutRedis(conf.JWTSecretKey)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	repos := service.Repositories{
		Posts:      repository.NewPostRepository(db),
		Comments:   repository.NewCommentRepository(db),
		Categories: repository.NewCategoryRepository(db),
		Tags:       repository.NewTagRepository(db),
	}
	svc := service.NewPostService(repos, adapter.NewContentAdapter(), collector, log, conf)
	h := handler.NewPostHandler(svc, conf, log)

	r := handler.NewRouter(h, handler.RouterOptions{
		Tokens:   tokenManager,
		Log:      log,
		Metrics:  collector,
		Gatherer: reg,
		Health: func(ctx context.Context) error {
			return repository.Ping(ctx, db)
		},
	})

	srv := &http.Server{
		Addr:         ":" + conf.ServerPort,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to run server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server stopped")
}
