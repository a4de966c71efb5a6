package services

import (
	"context"
	"fmt"

	"github.com/chachabrian/rideshare-backend/internal/apperrors"
	"github.com/chachabrian/rideshare-backend/internal/models"
	"gorm.io/gorm"
)

// ParticipationLedger owns the rider/ride join table. The creator of a ride
// never has a row; their membership is implicit in participant_count.
type ParticipationLedger struct {
	db *gorm.DB
}

func NewParticipationLedger(db *gorm.DB) *ParticipationLedger {
	return &ParticipationLedger{db: db}
}

// Join adds riderID to the ride and bumps participant_count in one transaction.
func (l *ParticipationLedger) Join(ctx context.Context, rideID, riderID uint) (*models.RideRequest, error) {
	var ride models.RideRequest
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(forUpdate).First(&ride, rideID).Error
		if isNotFound(err) {
			return apperrors.NotFound("Ride not found")
		}
		if err != nil {
			return err
		}
		if ride.UserID == riderID {
			return apperrors.Conflict("You cannot join your own ride")
		}

		joined, err := exists(tx, &models.RideParticipant{}, "ride_id = ? AND user_id = ?", rideID, riderID)
		if err != nil {
			return err
		}
		if joined {
			return apperrors.Conflict("You have already joined this ride")
		}
		if ride.ParticipantCount >= models.MaxRideParticipants {
			return apperrors.Conflict("Ride is already full")
		}

		if err := tx.Create(&models.RideParticipant{RideID: rideID, UserID: riderID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.RideRequest{}).
			Where("id = ?", rideID).
			Update("participant_count", gorm.Expr("participant_count + 1")).Error; err != nil {
			return err
		}
		ride.ParticipantCount++
		return nil
	})
	if isDuplicate(err) {
		return nil, apperrors.Conflict("You have already joined this ride")
	}
	if err != nil {
		return nil, fmt.Errorf("join ride %d: %w", rideID, err)
	}
	return &ride, nil
}

// Leave removes riderID from the ride. participant_count never drops below 1.
// Leaving is allowed whatever the ride status.
func (l *ParticipationLedger) Leave(ctx context.Context, rideID, riderID uint) (*models.RideRequest, error) {
	var ride models.RideRequest
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(forUpdate).First(&ride, rideID).Error
		if isNotFound(err) {
			return apperrors.NotFound("Ride not found")
		}
		if err != nil {
			return err
		}
		if ride.UserID == riderID {
			return apperrors.Conflict("Ride creators cannot leave their own ride")
		}

		res := tx.Where("ride_id = ? AND user_id = ?", rideID, riderID).Delete(&models.RideParticipant{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("You haven't joined this ride")
		}

		res = tx.Model(&models.RideRequest{}).
			Where("id = ? AND participant_count > 1", rideID).
			Update("participant_count", gorm.Expr("participant_count - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			ride.ParticipantCount--
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("leave ride %d: %w", rideID, err)
	}
	return &ride, nil
}

// ListParticipants returns the joined riders of a ride ordered by join time.
func (l *ParticipationLedger) ListParticipants(ctx context.Context, rideID uint) ([]models.RideParticipant, error) {
	var rows []models.RideParticipant
	err := l.db.WithContext(ctx).
		Preload("User").
		Where("ride_id = ?", rideID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list participants of ride %d: %w", rideID, err)
	}
	return rows, nil
}

// HasJoined reports whether riderID holds a participation row for the ride.
func (l *ParticipationLedger) HasJoined(ctx context.Context, rideID, riderID uint) (bool, error) {
	joined, err := exists(l.db.WithContext(ctx), &models.RideParticipant{}, "ride_id = ? AND user_id = ?", rideID, riderID)
	if err != nil {
		return false, fmt.Errorf("check participation: %w", err)
	}
	return joined, nil
}

// JoinedAmong returns which of rideIDs riderID has joined.
func (l *ParticipationLedger) JoinedAmong(ctx context.Context, riderID uint, rideIDs []uint) (map[uint]bool, error) {
	joined := make(map[uint]bool)
	if len(rideIDs) == 0 {
		return joined, nil
	}
	var ids []uint
	err := l.db.WithContext(ctx).
		Model(&models.RideParticipant{}).
		Where("user_id = ? AND ride_id IN ?", riderID, rideIDs).
		Pluck("ride_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("check participation: %w", err)
	}
	for _, id := range ids {
		joined[id] = true
	}
	return joined, nil
}
