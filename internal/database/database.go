package database

import (
	"fmt"
	"os"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/models"
	pkgLogger "github.com/sjperalta/rentdesk-api/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*gorm.DB, error) {
	// Configure GORM logger
	logLevel := logger.Silent
	if os.Getenv("ENVIRONMENT") != "production" {
		logLevel = logger.Info
	}

	gormLogger := pkgLogger.NewGormLogger(
		logLevel,
		200*time.Millisecond,
	)

	cfg := NewConfig(gormLogger)
	cfg.PrepareStmt = true

	db, err := gorm.Open(postgres.Open(databaseURL), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewConfig returns the gorm settings shared by every dialect.
// Timestamps are written in UTC so calendar-date comparisons line up.
func NewConfig(l logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                 l,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// AllModels lists every persisted model in dependency order
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.RefreshToken{},
		&models.Notification{},
		&models.Property{},
		&models.Flat{},
		&models.RoomType{},
		&models.Room{},
		&models.Contact{},
		&models.Tenant{},
		&models.Agreement{},
		&models.Invoice{},
		&models.InvoiceLine{},
		&models.Payment{},
		&models.Collection{},
		&models.Expense{},
		&models.DueTracker{},
		&models.TenantExit{},
		&models.Deposit{},
		&models.LandlordPayment{},
		&models.StaffSalary{},
		&models.BankTransfer{},
		&models.Activity{},
		&models.ChangeLog{},
		&models.AuditLog{},
		&models.Sequence{},
	}
}

// Migrate creates or alters the schema for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
