// Package database opens the gorm connection used for usage records.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"

	"gorm.io/gorm"
)

const connectTimeout = 10 * time.Second

// DB wraps the gorm handle with the driver it was opened with
type DB struct {
	*gorm.DB
	config     models.DatabaseConfig
	driverName string
}

func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity, bounded by ctx
func (db *DB) Ping(ctx context.Context) error {
	if db.DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) DriverName() string {
	return db.driverName
}

func (db *DB) setConnectionPool() {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}

	if db.config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(db.config.MaxOpenConns)
	}
	if db.config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(db.config.MaxIdleConns)
	}
	if db.config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(db.config.ConnMaxLifetime) * time.Second)
	}
}

// New opens and pings a connection for the configured driver
func New(config models.DatabaseConfig) (*DB, error) {
	dialector, driverName, err := dialectorFor(config)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{}
	if config.Type == models.ClickHouse {
		// The ClickHouse driver has incomplete prepared statement support
		gormConfig.PrepareStmt = false
	}

	gormDB, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", config.Type, err)
	}

	db := &DB{
		DB:         gormDB,
		config:     config,
		driverName: driverName,
	}
	db.setConnectionPool()

	pingCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", config.Type, err)
	}
	return db, nil
}
