package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chachabrian/rideshare-backend/internal/apperrors"
	"github.com/chachabrian/rideshare-backend/internal/models"
	"gorm.io/gorm"
)

// NewRide is the input for posting a ride. MaxParticipants is accepted from
// clients but not enforced; join applies models.MaxRideParticipants.
type NewRide struct {
	Pickup          string
	Destination     string
	DepartureTime   *time.Time
	MaxParticipants int
	Distance        *float64
	Fare            *float64
}

// JoinedRide is a ride together with the moment the rider joined it.
type JoinedRide struct {
	Ride     models.RideRequest
	JoinedAt time.Time
}

// RideLedger owns ride requests and their status.
type RideLedger struct {
	db *gorm.DB
}

func NewRideLedger(db *gorm.DB) *RideLedger {
	return &RideLedger{db: db}
}

// Create posts a pending ride owned by creatorID.
func (l *RideLedger) Create(ctx context.Context, creatorID uint, in NewRide) (*models.RideRequest, error) {
	if in.Fare == nil {
		return nil, apperrors.Validation("Fare amount is required")
	}
	if strings.TrimSpace(in.Pickup) == "" || strings.TrimSpace(in.Destination) == "" {
		return nil, apperrors.Validation("Pickup and destination are required")
	}

	ride := models.RideRequest{
		UserID:           creatorID,
		Pickup:           in.Pickup,
		Destination:      in.Destination,
		DepartureTime:    in.DepartureTime,
		ParticipantCount: 1,
		Status:           models.RideStatusPending,
		Distance:         in.Distance,
		Fare:             *in.Fare,
	}
	if err := l.db.WithContext(ctx).Create(&ride).Error; err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}
	return l.Get(ctx, ride.ID)
}

// Get returns a ride with its creator and driver loaded.
func (l *RideLedger) Get(ctx context.Context, rideID uint) (*models.RideRequest, error) {
	var ride models.RideRequest
	err := l.db.WithContext(ctx).
		Preload("Creator").
		Preload("Driver").
		First(&ride, rideID).Error
	if isNotFound(err) {
		return nil, apperrors.NotFound("Ride not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load ride %d: %w", rideID, err)
	}
	return &ride, nil
}

// Delete removes a ride and its participation rows. Only the creator may
// delete. A driver holding the ride gets their availability back.
func (l *RideLedger) Delete(ctx context.Context, rideID, requesterID uint) (*models.RideRequest, error) {
	var ride models.RideRequest
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(forUpdate).First(&ride, rideID).Error
		if isNotFound(err) {
			return apperrors.NotFound("Ride not found")
		}
		if err != nil {
			return err
		}
		if ride.UserID != requesterID {
			return apperrors.Forbidden("You can only delete rides you created")
		}

		if ride.Status == models.RideStatusAccepted && ride.DriverID != nil {
			if err := setDriverAvailability(tx, *ride.DriverID, true); err != nil {
				return err
			}
		}
		if err := tx.Where("ride_id = ?", ride.ID).Delete(&models.RideParticipant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ride).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete ride %d: %w", rideID, err)
	}
	return &ride, nil
}

// ListForUser returns rides the rider created or joined, each once, by id.
func (l *RideLedger) ListForUser(ctx context.Context, riderID uint) ([]models.RideRequest, error) {
	var rides []models.RideRequest
	joined := l.db.Model(&models.RideParticipant{}).Select("ride_id").Where("user_id = ?", riderID)
	err := l.db.WithContext(ctx).
		Preload("Creator").
		Preload("Driver").
		Where("user_id = ? OR id IN (?)", riderID, joined).
		Order("id").
		Find(&rides).Error
	if err != nil {
		return nil, fmt.Errorf("list rides for rider %d: %w", riderID, err)
	}
	return rides, nil
}

// ListJoined returns the rides the rider joined, in join order.
func (l *RideLedger) ListJoined(ctx context.Context, riderID uint) ([]JoinedRide, error) {
	var rows []models.RideParticipant
	err := l.db.WithContext(ctx).
		Where("user_id = ?", riderID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list joined rides for rider %d: %w", riderID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.RideID)
	}
	var rides []models.RideRequest
	if err := l.db.WithContext(ctx).Preload("Creator").Find(&rides, ids).Error; err != nil {
		return nil, fmt.Errorf("load joined rides: %w", err)
	}
	byID := make(map[uint]models.RideRequest, len(rides))
	for _, r := range rides {
		byID[r.ID] = r
	}

	out := make([]JoinedRide, 0, len(rows))
	for _, p := range rows {
		if ride, ok := byID[p.RideID]; ok {
			out = append(out, JoinedRide{Ride: ride, JoinedAt: p.CreatedAt})
		}
	}
	return out, nil
}
