package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ledger-service/cmd/api/infrastructure"
	"ledger-service/internal/adapter/cache"
	"ledger-service/internal/adapter/db/postgres"
	"ledger-service/internal/adapter/events/kafka"
	ginhandler "ledger-service/internal/adapter/gin/handler"
	ginrouter "ledger-service/internal/adapter/gin/router"
	grpcadapter "ledger-service/internal/adapter/grpc"
	"ledger-service/internal/adapter/grpc/middleware"
	"ledger-service/internal/adapter/repository/cached"
	"ledger-service/internal/config"
	domainentry "ledger-service/internal/domain/entry"
	"ledger-service/internal/usecase/entry"
	"ledger-service/internal/usecase/user"
	redisclient "ledger-service/pkg/redis"
	"ledger-service/pkg/security"
)

// healthInterval is how often the gRPC health service re-probes dependencies.
const healthInterval = 15 * time.Second

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client // nil when Redis is disabled
	Publisher   *kafka.Publisher    // nil when Kafka is disabled
	UserUC      *user.Service
	EntryUC     *entry.Service
	RateLimiter *middleware.RateLimiter
	Health      *grpcadapter.HealthService
	Router      *gin.Engine
}

// NewContainer creates and initializes all application dependencies. Resources
// opened before a failure are released.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (_ *Container, err error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	// Database and schema
	c.DB, err = infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = infrastructure.Migrate(ctx, c.DB, cfg.DB.Driver, l); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Redis backs the caches and the rate limiter; both switch off without it
	c.RedisClient, err = infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	var (
		userCache  cache.Cache[cached.UserProfile]
		entryCache cache.Cache[domainentry.Entry]
		scripter   goredis.Scripter
	)
	if c.RedisClient != nil {
		ttl := cfg.Redis.CacheTTLDuration()
		userCache = cache.NewRedisCache[cached.UserProfile](c.RedisClient.Client, "user", ttl, l)
		entryCache = cache.NewRedisCache[domainentry.Entry](c.RedisClient.Client, "entry", ttl, l)
		scripter = c.RedisClient.Client
	}

	// Repositories
	userRepo := cached.NewUserRepository(postgres.NewUserRepoPG(c.DB, l), userCache, l)
	entryRepo := cached.NewEntryRepository(postgres.NewEntryRepoPG(c.DB, l), entryCache, l)

	// Entry change events
	var publisher entry.Publisher
	if cfg.Kafka.Enabled {
		c.Publisher = kafka.NewPublisher(kafka.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: time.Duration(cfg.Kafka.WriteTimeoutSeconds) * time.Second,
		}, l)
		publisher = c.Publisher
	}

	// Services
	c.UserUC = user.New(userRepo, security.NewBcryptHasher(cfg.Auth.BcryptCost), l)
	c.EntryUC = entry.New(entryRepo, publisher, l)

	tokens, err := security.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	c.RateLimiter = middleware.NewRateLimiter(scripter, middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstCapacity:     cfg.RateLimit.BurstCapacity,
		Enabled:           cfg.RateLimit.Enabled,
	}, l)

	// Health probes
	c.Health = grpcadapter.NewHealthService(healthInterval, l)
	sqlDB, err := c.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	c.Health.AddDependency("database", grpcadapter.PingFunc(sqlDB.PingContext))
	if c.RedisClient != nil {
		c.Health.AddDependency("redis", c.RedisClient)
	}

	// REST API
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	c.Router = ginrouter.SetupRouter(ginrouter.Deps{
		Users:       ginhandler.NewUserHandler(c.UserUC, tokens, l),
		Entries:     ginhandler.NewEntryHandler(c.EntryUC, c.UserUC, l),
		Tokens:      tokens,
		RateLimiter: c.RateLimiter,
		Health:      c.Health,
		ServiceName: cfg.Logger.ServiceName,
		Log:         l,
	})

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Kafka publisher: %w", err))
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
