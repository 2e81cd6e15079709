package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/user/workdiary-service/internal/adapter/imagestore"
	"github.com/user/workdiary-service/internal/adapter/postgres"
	redis_adapter "github.com/user/workdiary-service/internal/adapter/redis"
	"github.com/user/workdiary-service/internal/adapter/sqlite"
	"github.com/user/workdiary-service/internal/repository"
	"github.com/user/workdiary-service/pkg/config"
	"github.com/user/workdiary-service/pkg/logger"
	"github.com/user/workdiary-service/pkg/metrics"
)

// setup loads configuration and initializes logging and metrics.
// The returned function flushes the log file.
func setup() (*config.Config, func(), error) {
	cfg, err := config.LoadFrom(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load config: %w", err)
	}

	out, closer := logger.Output(cfg.LogFile)
	level := logger.ParseLevel(cfg.LogLevel)
	logger.Init(out, level)
	slog.Info("Logger initialized", "level", level.String())

	metrics.Init()

	return cfg, func() { closer.Close() }, nil
}

// openRepository connects to the configured database and applies the schema.
func openRepository(ctx context.Context, cfg *config.Config) (repository.WorkDiaryRepository, func(), error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("SQLite database ready", "path", cfg.DBPath)
		return sqlite.NewWorkDiaryRepo(db), func() { db.Close() }, nil
	default:
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL())
		if err != nil {
			return nil, nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		if err := dbpool.Ping(ctx); err != nil {
			dbpool.Close()
			return nil, nil, fmt.Errorf("unable to reach database: %w", err)
		}
		if err := postgres.Migrate(ctx, dbpool); err != nil {
			dbpool.Close()
			return nil, nil, err
		}
		slog.Info("PostgreSQL connection pool established", "host", cfg.DBHost, "database", cfg.DBName)
		return postgres.NewWorkDiaryRepo(dbpool), dbpool.Close, nil
	}
}

// openImageCache returns nil when REDIS_ADDR is unset.
func openImageCache(ctx context.Context, cfg *config.Config) (*redis_adapter.ImageCacheImpl, func(), error) {
	if !cfg.CacheEnabled() {
		slog.Info("Remote image cache disabled")
		return nil, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("unable to connect to Redis: %w", err)
	}
	slog.Info("Redis connection established", "addr", cfg.RedisAddr)
	return redis_adapter.NewImageCache(rdb), func() { rdb.Close() }, nil
}

// newImageStore picks the storage variant; imageDir is empty for inline storage.
func newImageStore(cfg *config.Config) (store repository.ImageStore, imageDir string) {
	if cfg.ImageStorage == config.ImageStorageInline {
		slog.Info("Images stored inline as base64")
		return imagestore.NewInlineStore(), ""
	}
	slog.Info("Images stored on disk", "dir", cfg.ImageDir)
	return imagestore.NewFileStore(cfg.ImageDir), cfg.ImageDir
}
