package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/chachabrian/rideshare-backend/internal/apperrors"
	"github.com/chachabrian/rideshare-backend/internal/models"
	"gorm.io/gorm"
)

// Match is a ride on the caller's route and whether the caller already joined it.
type Match struct {
	Ride      models.RideRequest
	HasJoined bool
}

// MatchingEngine finds rides by exact pickup and destination.
type MatchingEngine struct {
	db            *gorm.DB
	participation *ParticipationLedger
}

func NewMatchingEngine(db *gorm.DB, participation *ParticipationLedger) *MatchingEngine {
	return &MatchingEngine{db: db, participation: participation}
}

// Match returns every ride with this pickup and destination not created by
// callerID, ordered by id.
func (e *MatchingEngine) Match(ctx context.Context, pickup, destination string, callerID uint) ([]Match, error) {
	if strings.TrimSpace(pickup) == "" || strings.TrimSpace(destination) == "" {
		return nil, apperrors.Validation("Pickup and destination are required")
	}

	var rides []models.RideRequest
	err := e.db.WithContext(ctx).
		Preload("Creator").
		Where("pickup = ? AND destination = ? AND user_id <> ?", pickup, destination, callerID).
		Order("id").
		Find(&rides).Error
	if err != nil {
		return nil, fmt.Errorf("match rides: %w", err)
	}

	ids := make([]uint, len(rides))
	for i, r := range rides {
		ids[i] = r.ID
	}
	joined, err := e.participation.JoinedAmong(ctx, callerID, ids)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(rides))
	for i, r := range rides {
		matches[i] = Match{Ride: r, HasJoined: joined[r.ID]}
	}
	return matches, nil
}
