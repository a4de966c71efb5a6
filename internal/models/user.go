package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Rider is an account that creates and joins ride requests.
type Rider struct {
	ID           uint      `gorm:"primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name
func (Rider) TableName() string {
	return "users"
}

func (r *Rider) SetPassword(password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	r.PasswordHash = hash
	return nil
}

func (r *Rider) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte(password))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
