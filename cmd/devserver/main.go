// Command devserver is a development backend for the taskpulse client: it
// issues HS256 credentials and serves subject-scoped task routes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskpulse/taskpulse-go/handlers"
	"github.com/taskpulse/taskpulse-go/internal/config"
	"github.com/taskpulse/taskpulse-go/internal/database"
	"github.com/taskpulse/taskpulse-go/internal/tasks/repository"
	"github.com/taskpulse/taskpulse-go/internal/tasks/service"
	"github.com/taskpulse/taskpulse-go/internal/tokens"
	"github.com/taskpulse/taskpulse-go/internal/users"
	"github.com/taskpulse/taskpulse-go/pkg/logger"
	"github.com/taskpulse/taskpulse-go/pkg/metrics"
	"github.com/taskpulse/taskpulse-go/pkg/middleware"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	if cfg.JWT.Secret == "" {
		logger.Fatalf("JWT_SECRET must be set")
	}
	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	issuer, err := tokens.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	if err != nil {
		logger.Fatalf("jwt issuer: %v", err)
	}

	ready := map[string]func() bool{}

	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
		} else {
			logger.Infof("connected to Redis at %s", addr)
		}
		defer rdb.Close()
		ready["redis"] = func() bool { return rdb.Ping(context.Background()).Err() == nil }
	}

	var limiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.Backend == "redis" && rdb != nil {
			limiter = middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window, time.Now)
			logger.Infof("rate limiter: redis, %d per %s", cfg.RateLimit.Limit, cfg.RateLimit.Window)
		} else {
			limiter = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
			logger.Infof("rate limiter: memory, %.1f rps burst %d", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	taskSvc := service.NewMemoryService()
	var userRepo users.UserRepository = users.NewMemoryUserRepository()
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
		if err != nil {
			logger.Warnf("%v; using in-memory storage", err)
		} else {
			defer func() { _ = client.Disconnect(context.Background()) }()
			taskSvc, userRepo, err = mongoBackends(ctx, client.Database(cfg.MongoDB.Database))
			if err != nil {
				logger.Fatalf("mongo setup: %v", err)
			}
			ready["mongodb"] = func() bool { return client.Ping(context.Background(), nil) == nil }
			logger.Infof("using MongoDB database %q", cfg.MongoDB.Database)
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := handlers.NewRouter(handlers.RouterOptions{
		APIRoot:   cfg.Server.APIRoot,
		Users:     users.NewService(userRepo),
		Issuer:    issuer,
		Tasks:     taskSvc,
		RateLimit: limiter,
		AccessLog: true,
		Ready: func() map[string]bool {
			deps := make(map[string]bool, len(ready))
			for name, check := range ready {
				deps[name] = check()
			}
			return deps
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("taskpulse dev server listening on %s (api root %s)", srv.Addr, cfg.Server.APIRoot)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	logger.Info("server stopped")
}

func mongoBackends(ctx context.Context, db *mongo.Database) (service.Service, users.UserRepository, error) {
	taskRepo, err := repository.NewMongoRepo(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("tasks repository: %w", err)
	}
	userRepo, err := users.NewMongoUserRepository(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("users repository: %w", err)
	}
	return service.New(taskRepo), userRepo, nil
}
