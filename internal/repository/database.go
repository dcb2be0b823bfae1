package repository

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"seungpyo.lee/BlogPlatform/internal/domain"
)

// Open connects to Postgres. Repositories manage their own transactions.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		// posts keep their category id even if the category goes away
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect db: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the tables the service reads and writes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.User{}, &domain.Category{}, &domain.Post{}, &domain.Comment{}); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	return nil
}

// Ping checks the underlying connection.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
