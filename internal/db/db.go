// Package db opens the configured document store backend.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/parisxmas/OxiDB/OxiForms/internal/config"
	"github.com/parisxmas/OxiDB/OxiForms/internal/repository"
)

// Backend is an open store plus what it takes to check and close it.
type Backend struct {
	Stores *repository.Stores
	Ping   func(ctx context.Context) error
	Close  func() error
}

// Open connects to the store selected by cfg.Store.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	switch cfg.Store {
	case "mongo", "mongodb":
		return openMongo(ctx, cfg, log)
	default:
		return openSQL(cfg, log)
	}
}

func openSQL(cfg *config.Config, log *zap.Logger) (*Backend, error) {
	var dialector gorm.Dialector
	switch cfg.Store {
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DBDSN)
	case "mysql", "mariadb":
		dialector = mysql.Open(cfg.DBDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Store)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(log, logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxConns)
	sqlDB.SetMaxIdleConns(max(1, cfg.DBMaxConns/2))
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	log.Info("connected to database", zap.String("store", cfg.Store), zap.Int("maxConns", cfg.DBMaxConns))
	return &Backend{
		Stores: repository.NewGormStores(gdb),
		Ping:   sqlDB.PingContext,
		Close:  sqlDB.Close,
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(uint64(cfg.DBMaxConns)))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Info("connected to mongodb", zap.String("database", cfg.MongoDB))
	return &Backend{
		Stores: repository.NewMongoStores(client, cfg.MongoDB),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		Close: func() error {
			return client.Disconnect(context.Background())
		},
	}, nil
}
