package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"github.com/viomck/urlroulette/internal/config"
	"github.com/viomck/urlroulette/internal/kv"
	"github.com/viomck/urlroulette/internal/roulette"
	"github.com/viomck/urlroulette/internal/server"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   kv.Store
	Server  *server.Server
	Handler *roulette.Handler

	dbPool      *pgxpool.Pool
	redisClient *redis.Client
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"store_backend", cfg.Store.Backend,
	)

	a := &App{
		Config: cfg,
		Logger: logger,
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.Store = store

	svc := roulette.NewService(store, nil)
	handler := roulette.NewHandler(roulette.HandlerConfig{
		Service: svc,
		Logger:  logger,
		Secret:  cfg.Roulette.Secret,
	})

	a.Handler = handler
	a.Server = server.New(cfg, logger, handler)

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"auth_gated", cfg.Roulette.Secret != "",
	)

	return a, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting",
		"port", a.Config.Server.Port,
	)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.dbPool != nil {
		a.dbPool.Close()
		a.Logger.Info("database connection closed")
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
		a.Logger.Info("redis connection closed")
	}

	return nil
}

// openStore builds the kv.Store the configured backend names.
func (a *App) openStore(ctx context.Context) (kv.Store, error) {
	switch a.Config.Store.Backend {
	case "memory":
		a.Logger.Warn("using in-memory store, data will not survive restarts")
		return kv.NewMemoryStore(), nil

	case "postgres":
		pool, err := a.connectDatabase(ctx)
		if err != nil {
			return nil, err
		}
		a.dbPool = pool

		store := kv.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			a.dbPool = nil
			return nil, err
		}
		return store, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     a.Config.Store.RedisAddr,
			Password: a.Config.Store.RedisPassword,
			DB:       a.Config.Store.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		a.redisClient = client

		a.Logger.Info("redis connection established",
			"addr", a.Config.Store.RedisAddr,
		)
		return kv.NewRedisStore(client), nil

	default:
		return nil, fmt.Errorf("unknown store backend: %s", a.Config.Store.Backend)
	}
}

// connectDatabase establishes a connection to the PostgreSQL database.
func (a *App) connectDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(a.Config.Store.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = a.Config.Store.DBMaxConns
	poolConfig.MinConns = a.Config.Store.DBMinConns

	a.Logger.Info("connecting to database",
		"host", a.Config.Store.DBHost,
		"port", a.Config.Store.DBPort,
		"database", a.Config.Store.DBName,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	a.Logger.Info("database connection established")

	return pool, nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
