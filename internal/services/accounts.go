package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chachabrian/rideshare-backend/internal/apperrors"
	"github.com/chachabrian/rideshare-backend/internal/models"
	"gorm.io/gorm"
)

type RiderRegistration struct {
	Name     string
	Email    string
	Password string
}

type DriverRegistration struct {
	Name          string
	Email         string
	Password      string
	LicenseNumber string
	VehicleType   string
	VehicleNumber string
}

// AccountStore holds rider and driver identities and credential hashes.
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) RegisterRider(ctx context.Context, in RiderRegistration) (*models.Rider, error) {
	if err := requireFields(map[string]string{
		"name": in.Name, "email": in.Email, "password": in.Password,
	}); err != nil {
		return nil, err
	}

	rider := models.Rider{Name: in.Name, Email: in.Email}
	if err := rider.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := exists(tx, &models.Rider{}, "email = ?", in.Email)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.Conflict("Email already registered")
		}
		return tx.Create(&rider).Error
	})
	if isDuplicate(err) {
		return nil, apperrors.Conflict("Email already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("register rider: %w", err)
	}
	return &rider, nil
}

func (s *AccountStore) RegisterDriver(ctx context.Context, in DriverRegistration) (*models.Driver, error) {
	if err := requireFields(map[string]string{
		"name": in.Name, "email": in.Email, "password": in.Password,
		"license_number": in.LicenseNumber, "vehicle_type": in.VehicleType, "vehicle_number": in.VehicleNumber,
	}); err != nil {
		return nil, err
	}

	driver := models.Driver{
		Name:          in.Name,
		Email:         in.Email,
		LicenseNumber: in.LicenseNumber,
		VehicleType:   in.VehicleType,
		VehicleNumber: in.VehicleNumber,
		IsAvailable:   true,
	}
	if err := driver.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	uniques := []struct {
		query, value, msg string
	}{
		{"email = ?", in.Email, "Email already registered"},
		{"license_number = ?", in.LicenseNumber, "License number already registered"},
		{"vehicle_number = ?", in.VehicleNumber, "Vehicle number already registered"},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range uniques {
			taken, err := exists(tx, &models.Driver{}, u.query, u.value)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.Conflict(u.msg)
			}
		}
		return tx.Create(&driver).Error
	})
	if isDuplicate(err) {
		return nil, apperrors.Conflict("Driver details already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("register driver: %w", err)
	}
	return &driver, nil
}

// AuthenticateRider checks a rider's credentials.
func (s *AccountStore) AuthenticateRider(ctx context.Context, email, password string) (*models.Rider, error) {
	rider, err := s.RiderByEmail(ctx, email)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return nil, apperrors.Unauthenticated("Incorrect email or password")
	}
	if err != nil {
		return nil, err
	}
	if rider.CheckPassword(password) != nil {
		return nil, apperrors.Unauthenticated("Incorrect email or password")
	}
	return rider, nil
}

// AuthenticateDriver checks a driver's credentials.
func (s *AccountStore) AuthenticateDriver(ctx context.Context, email, password string) (*models.Driver, error) {
	driver, err := s.DriverByEmail(ctx, email)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return nil, apperrors.Unauthenticated("Incorrect email or password")
	}
	if err != nil {
		return nil, err
	}
	if driver.CheckPassword(password) != nil {
		return nil, apperrors.Unauthenticated("Incorrect email or password")
	}
	return driver, nil
}

func (s *AccountStore) RiderByEmail(ctx context.Context, email string) (*models.Rider, error) {
	var rider models.Rider
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&rider).Error
	if isNotFound(err) {
		return nil, apperrors.NotFound("Rider not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load rider: %w", err)
	}
	return &rider, nil
}

func (s *AccountStore) DriverByEmail(ctx context.Context, email string) (*models.Driver, error) {
	var driver models.Driver
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&driver).Error
	if isNotFound(err) {
		return nil, apperrors.NotFound("Driver not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load driver: %w", err)
	}
	return &driver, nil
}

func exists(tx *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var n int64
	if err := tx.Model(model).Where(query, args...).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return apperrors.Validation("Missing required fields: " + strings.Join(missing, ", "))
}
