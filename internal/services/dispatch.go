package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/chachabrian/rideshare-backend/internal/apperrors"
	"github.com/chachabrian/rideshare-backend/internal/models"
	"gorm.io/gorm"
)

// Availability describes whether a driver can take work.
type Availability struct {
	IsAvailable      bool
	ActiveRidesCount int64
}

func (a Availability) HasActiveRides() bool { return a.ActiveRidesCount > 0 }
func (a Availability) CanToggle() bool      { return a.ActiveRidesCount == 0 }

// DispatchEngine runs the driver side of the ride state machine:
// pending (unassigned) -> accepted -> completed, and accepted -> pending on cancel.
type DispatchEngine struct {
	db *gorm.DB
}

func NewDispatchEngine(db *gorm.DB) *DispatchEngine {
	return &DispatchEngine{db: db}
}

// ListAvailable returns pending rides no driver holds.
func (e *DispatchEngine) ListAvailable(ctx context.Context) ([]models.RideRequest, error) {
	var rides []models.RideRequest
	err := e.db.WithContext(ctx).
		Preload("Creator").
		Where("status = ? AND driver_id IS NULL", models.RideStatusPending).
		Order("id").
		Find(&rides).Error
	if err != nil {
		return nil, fmt.Errorf("list available rides: %w", err)
	}
	return rides, nil
}

// Accept assigns the ride to driverID. A ride claimed by someone else in the
// meantime is reported as not found.
func (e *DispatchEngine) Accept(ctx context.Context, rideID, driverID uint) (*models.RideRequest, error) {
	var ride models.RideRequest
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(forUpdate).
			Where("id = ? AND status = ? AND driver_id IS NULL", rideID, models.RideStatusPending).
			First(&ride).Error
		if isNotFound(err) {
			return apperrors.NotFound("Ride not found or not available")
		}
		if err != nil {
			return err
		}

		driver, err := lockDriver(tx, driverID)
		if err != nil {
			return err
		}
		if !driver.IsAvailable {
			return apperrors.Conflict("Driver is not available")
		}

		if err := tx.Model(&models.RideRequest{}).Where("id = ?", ride.ID).Updates(map[string]interface{}{
			"driver_id": driverID,
			"status":    models.RideStatusAccepted,
		}).Error; err != nil {
			return err
		}
		return setDriverAvailability(tx, driverID, false)
	})
	if err != nil {
		return nil, fmt.Errorf("accept ride %d: %w", rideID, err)
	}

	ride.DriverID = &driverID
	ride.Status = models.RideStatusAccepted
	return &ride, nil
}

// Complete finishes a ride the driver holds. Completed is terminal.
func (e *DispatchEngine) Complete(ctx context.Context, rideID, driverID uint) (*models.RideRequest, error) {
	ride, err := e.release(ctx, rideID, driverID, map[string]interface{}{
		"status": models.RideStatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("complete ride %d: %w", rideID, err)
	}
	ride.Status = models.RideStatusCompleted
	return ride, nil
}

// Cancel hands an accepted ride back to the pool. Participants stay.
func (e *DispatchEngine) Cancel(ctx context.Context, rideID, driverID uint) (*models.RideRequest, error) {
	ride, err := e.release(ctx, rideID, driverID, map[string]interface{}{
		"status":    models.RideStatusPending,
		"driver_id": nil,
	})
	if err != nil {
		return nil, fmt.Errorf("cancel ride %d: %w", rideID, err)
	}
	ride.Status = models.RideStatusPending
	ride.DriverID = nil
	return ride, nil
}

// release applies updates to an accepted ride held by driverID and makes the
// driver available again.
func (e *DispatchEngine) release(ctx context.Context, rideID, driverID uint, updates map[string]interface{}) (*models.RideRequest, error) {
	var ride models.RideRequest
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(forUpdate).
			Where("id = ? AND driver_id = ? AND status = ?", rideID, driverID, models.RideStatusAccepted).
			First(&ride).Error
		if isNotFound(err) {
			return apperrors.NotFound("Ride not found or not assigned to you")
		}
		if err != nil {
			return err
		}
		if _, err := lockDriver(tx, driverID); err != nil {
			return err
		}

		if err := tx.Model(&models.RideRequest{}).Where("id = ?", ride.ID).Updates(updates).Error; err != nil {
			return err
		}
		return setDriverAvailability(tx, driverID, true)
	})
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

// ToggleAvailability flips the driver's flag unless they hold an accepted ride.
func (e *DispatchEngine) ToggleAvailability(ctx context.Context, driverID uint) (bool, error) {
	var next bool
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		driver, err := lockDriver(tx, driverID)
		if err != nil {
			return err
		}
		active, err := countActiveRides(tx, driverID)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperrors.Conflict("Cannot toggle availability while having active rides")
		}
		next = !driver.IsAvailable
		return setDriverAvailability(tx, driverID, next)
	})
	if err != nil {
		return false, fmt.Errorf("toggle availability of driver %d: %w", driverID, err)
	}
	return next, nil
}

func (e *DispatchEngine) Availability(ctx context.Context, driverID uint) (*Availability, error) {
	var driver models.Driver
	db := e.db.WithContext(ctx)
	err := db.First(&driver, driverID).Error
	if isNotFound(err) {
		return nil, apperrors.NotFound("Driver not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load driver %d: %w", driverID, err)
	}
	active, err := countActiveRides(db, driverID)
	if err != nil {
		return nil, fmt.Errorf("count active rides: %w", err)
	}
	return &Availability{IsAvailable: driver.IsAvailable, ActiveRidesCount: active}, nil
}

var statusOrder = map[models.RideStatus]int{
	models.RideStatusPending:   0,
	models.RideStatusAccepted:  1,
	models.RideStatusCompleted: 2,
}

// ListDriverRides returns rides assigned to driverID, optionally filtered by
// status, sorted by status then creation time.
func (e *DispatchEngine) ListDriverRides(ctx context.Context, driverID uint, status *models.RideStatus) ([]models.RideRequest, error) {
	q := e.db.WithContext(ctx).
		Preload("Creator").
		Preload("Driver").
		Where("driver_id = ?", driverID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var rides []models.RideRequest
	if err := q.Order("id").Find(&rides).Error; err != nil {
		return nil, fmt.Errorf("list rides of driver %d: %w", driverID, err)
	}

	slices.SortStableFunc(rides, func(a, b models.RideRequest) int {
		if d := statusOrder[a.Status] - statusOrder[b.Status]; d != 0 {
			return d
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return rides, nil
}

func lockDriver(tx *gorm.DB, driverID uint) (*models.Driver, error) {
	var driver models.Driver
	err := tx.Clauses(forUpdate).First(&driver, driverID).Error
	if isNotFound(err) {
		return nil, apperrors.NotFound("Driver not found")
	}
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func setDriverAvailability(tx *gorm.DB, driverID uint, available bool) error {
	return tx.Model(&models.Driver{}).Where("id = ?", driverID).Update("is_available", available).Error
}

func countActiveRides(tx *gorm.DB, driverID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.RideRequest{}).
		Where("driver_id = ? AND status = ?", driverID, models.RideStatusAccepted).
		Count(&n).Error
	return n, err
}
