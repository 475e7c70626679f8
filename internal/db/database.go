package db

import (
	"fmt"
	"time"

	"github.com/netoho/hestia-app-staging-sub000/internal/config"
	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Initialize(cfg *config.Configuration) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	database, err := gorm.Open(postgres.Open(cfg.Database.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := Migrate(database); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

// Migrate creates or updates the schema for every model the services
// touch. Also used directly by the sqlite-backed test databases.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.User{},
		&models.Policy{},
		&models.Tenant{},
		&models.Landlord{},
		&models.JointObligor{},
		&models.Aval{},
		&models.Address{},
		&models.Reference{},
		&models.Document{},
		&models.ActorSectionValidation{},
		&models.DocumentValidation{},
		&models.TenantHistory{},
		&models.JointObligorHistory{},
		&models.AvalHistory{},
		&models.PolicyActivity{},
		&models.Investigation{},
		&models.Contract{},
		&models.Payment{},
	)
}
