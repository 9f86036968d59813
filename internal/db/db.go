// Package db opens and checks the optional Postgres mirror database.
package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cleverdining/datahub/internal/models"
)

func Open(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return gdb, nil
}

func Close(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}

func HealthCheck(gdb *gorm.DB, timeout time.Duration) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// AutoMigrate creates or updates the mirror tables.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.FoodItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Reservation{},
		&models.Device{},
		&models.Member{},
		&models.Category{},
		&models.Restaurant{},
		&SyncWatermark{},
	)
}

// SyncWatermark records when each mirrored resource last saw a full sync.
type SyncWatermark struct {
	Entity     string    `gorm:"primaryKey;column:entity"`
	LastSynced time.Time `gorm:"column:last_synced"`
}

func (SyncWatermark) TableName() string { return "sync_watermarks" }
