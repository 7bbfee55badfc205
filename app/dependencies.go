package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/keyfront/keyfront/cache"
	"github.com/keyfront/keyfront/config"
	"github.com/keyfront/keyfront/keycloak"
	"github.com/keyfront/keyfront/middleware"
	"github.com/keyfront/keyfront/services"
	"github.com/keyfront/keyfront/services/ratelimit"
	"github.com/keyfront/keyfront/store"
	"github.com/keyfront/keyfront/store/postgres"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB
	Redis  redis.UniversalClient
	Cache  cache.Cache

	// Identity provider
	Keycloak  *keycloak.Client
	Validator *keycloak.Validator

	// Storage
	LoginEvents store.LoginEventStore

	// Services
	Accounts      *services.AccountService
	LoginThrottle *ratelimit.LoginThrottle

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
// The database and cache backends are optional: an unset DATABASE_URL
// disables login-event recording, an unset REDIS_ADDR disables caching.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initCache(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	if err := deps.initKeycloak(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize keycloak: %w", err)
	}

	deps.Accounts = services.NewAccountService(deps.Keycloak, deps.Cache, logger)
	deps.AuthMiddleware = middleware.NewAuthMiddleware(deps.Validator, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the login-event database when configured
func (d *Dependencies) initDatabase(cfg *config.Config) error {
	if !cfg.Database.Enabled() {
		d.Logger.Warn("database not configured, login-event recording disabled")
		return nil
	}

	db, err := postgres.NewDB(postgres.Config{
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = db
	d.LoginEvents = postgres.NewLoginEventStore(db.DB, d.Logger)

	d.Logger.Info("login-event store initialized",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initCache initializes the Redis-backed cache when configured
func (d *Dependencies) initCache(ctx context.Context, cfg *config.Config) error {
	if !cfg.Redis.Enabled() {
		d.Logger.Warn("redis not configured, caching disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// The cache is fail-open, so an unreachable backend is logged, not fatal.
	if err := client.Ping(ctx).Err(); err != nil {
		d.Logger.Warn("redis ping failed, continuing with degraded cache",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err))
	}

	d.Redis = client
	d.Cache = cache.NewRedisCache(client, d.Logger)

	if cfg.RateLimit.Enabled {
		d.LoginThrottle = ratelimit.NewLoginThrottle(client, d.Logger, ratelimit.Config{
			MaxAttempts: cfg.RateLimit.MaxAttempts,
			Window:      cfg.RateLimit.Window,
		})
	}

	d.Logger.Info("cache initialized", zap.String("addr", cfg.Redis.Addr))
	return nil
}

// initKeycloak initializes the token-exchange client and the validator
func (d *Dependencies) initKeycloak(cfg *config.Config) error {
	client, err := keycloak.NewClient(keycloak.ClientConfig{
		URL:          cfg.Keycloak.URL,
		Realm:        cfg.Keycloak.Realm,
		ClientID:     cfg.Keycloak.ClientID,
		ClientSecret: cfg.Keycloak.ClientSecret,
		Timeout:      cfg.Keycloak.ExchangeTimeout,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.Keycloak = client
	d.Validator = keycloak.NewValidator(keycloak.ValidatorConfig{
		URL:      cfg.Keycloak.URL,
		Realm:    cfg.Keycloak.Realm,
		ClientID: cfg.Keycloak.ClientID,
		CacheTTL: cfg.Keycloak.JWKSCacheTTL,
	})

	d.Logger.Info("keycloak client initialized",
		zap.String("url", cfg.Keycloak.URL),
		zap.String("realm", cfg.Keycloak.Realm))
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
