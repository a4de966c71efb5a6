package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Driver is an account that claims and fulfils ride requests.
// IsAvailable is false exactly while the driver holds an accepted ride,
// or after the driver switched it off.
type Driver struct {
	ID            uint      `gorm:"primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Email         string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash  string    `gorm:"column:password_hash;not null"`
	LicenseNumber string    `gorm:"column:license_number;uniqueIndex;not null"`
	VehicleType   string    `gorm:"column:vehicle_type;not null"`
	VehicleNumber string    `gorm:"column:vehicle_number;uniqueIndex;not null"`
	IsAvailable   bool      `gorm:"column:is_available;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name
func (Driver) TableName() string {
	return "drivers"
}

func (d *Driver) SetPassword(password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	d.PasswordHash = hash
	return nil
}

func (d *Driver) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(password))
}
