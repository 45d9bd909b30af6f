package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-sync-service/config"
	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/client"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/repository"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/sink"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/usecase"
	"github.com/fekuna/omnipos-stock-sync-service/internal/supplier"
	"github.com/fekuna/omnipos-stock-sync-service/internal/supplier/file"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/broker"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/database/sqlite"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/search"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// App holds the wiring shared by the sync job and the long-running service.
type App struct {
	Config    *config.Config
	Logger    logger.ZapLogger
	DB        *sqlx.DB
	Repo      stock.Repository
	UseCase   stock.UseCase
	Directory supplier.Directory
	Retailer  model.Retailer
	Redis     *cache.RedisClient

	closers []func() error
}

func NewLogger(cfg *config.Config) logger.ZapLogger {
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	return logger.NewZapLogger(logConfig)
}

// New connects every configured backend and migrates the stock table.
// Redis, Kafka and Elasticsearch are optional: an empty address disables
// them, and Elasticsearch being unreachable only logs a warning.
func New(ctx context.Context, cfg *config.Config, log logger.ZapLogger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   log,
		Retailer: model.Retailer{ID: cfg.Retailer.ID, GLN: cfg.Retailer.GLN},
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)
	log.Info("Connected to database", zap.String("driver", db.DriverName()))

	repo := repository.NewPGRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.Repo = repo

	var runCache stock.Cache
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("could not connect to redis: %w", err)
		}
		a.Redis = redisClient
		a.closers = append(a.closers, redisClient.Close)
		runCache = redisClient
		log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	secondaries := []stock.BatchSink{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.BatchTopic,
		})
		a.closers = append(a.closers, producer.Close)
		secondaries = append(secondaries, sink.NewEventSink(producer))
		log.Info("Publishing stock batches to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.BatchTopic))
	}

	if len(cfg.Elastic.Addresses) > 0 {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			log.Warn("Could not connect to Elasticsearch, stock mirror disabled", zap.Error(err))
		} else {
			secondaries = append(secondaries, sink.NewSearchSink(esClient, cfg.Elastic.Index))
			log.Info("Mirroring stock batches to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	apiClient := client.NewClient(client.Config{
		BaseURL:        cfg.StockAPI.BaseURL,
		Token:          cfg.StockAPI.Token,
		RetailerGLN:    cfg.Retailer.GLN,
		RequestTimeout: cfg.StockAPI.RequestTimeout,
		MaxAttempts:    cfg.StockAPI.MaxAttempts,
		RetryDelay:     cfg.StockAPI.RetryDelay,
		CallDelay:      cfg.StockAPI.CallDelay,
		BatchPause:     cfg.StockAPI.BatchPause,
	}, log)

	batchSink := sink.NewChain(log, sink.NewRepositorySink(repo), secondaries...)
	a.UseCase = usecase.NewStockUseCase(repo, apiClient, batchSink, runCache, usecase.Config{
		Retailer:      a.Retailer,
		LockTTL:       cfg.Sync.LockTTL,
		StatisticsTTL: cfg.Sync.StatisticsTTL,
	}, log)
	a.Directory = file.NewLoader(cfg.Sync.SuppliersConfigPath, log)

	return a, nil
}

func (a *App) FetchOptions() dto.FetchOptions {
	return dto.FetchOptions{
		BatchSize:  a.Config.Sync.BatchSize,
		MaxWorkers: a.Config.Sync.MaxWorkers,
	}.WithDefaults()
}

// Close releases backends in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}

func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite3", "sqlite":
		db, err := sqlite.NewSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("could not open sqlite database: %w", err)
		}
		return db, nil
	case "postgres", "":
		db, err := postgres.NewPostgres(&postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("could not connect to postgres: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
}
