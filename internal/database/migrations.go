package database

import (
	"github.com/chachabrian/rideshare-backend/internal/models"
	"gorm.io/gorm"
)

// RunMigrations creates the four tables. Deletes are never cascaded by the
// engine; the services remove participation rows before their ride.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Rider{},
		&models.Driver{},
		&models.RideRequest{},
		&models.RideParticipant{},
	)
}
