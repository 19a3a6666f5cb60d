package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/config"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Migrate runs AutoMigrate for the billing tables. The unique indexes on
// subscriptions.user_id, webhook_events.razorpay_event_id and the usage
// counter key back the repository's ON CONFLICT writes.
func Migrate() error {
	if err := DB.AutoMigrate(
		&models.Subscription{},
		&models.PaymentTransaction{},
		&models.UsageCounter{},
		&models.WebhookEvent{},
		&models.SystemLog{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	slog.Info("database migrated")
	return nil
}

func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
