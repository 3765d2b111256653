package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dzoniops/booking-service/config"
	"github.com/dzoniops/booking-service/models"
)

func InitDB(cfg config.Postgres) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the catalog and booking tables. Destinations go first
// since the catalog rows reference them.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Destination{},
		&models.Tour{},
		&models.Hotel{},
		&models.RentalUnit{},
		&models.Booking{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
