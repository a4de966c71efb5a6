package models

import (
	"time"
)

// RideStatus is the lifecycle state of a ride request.
type RideStatus string

// RideStatus constants. There is no cancelled state: a driver cancellation
// returns the ride to pending. Completed is terminal.
const (
	RideStatusPending   RideStatus = "pending"
	RideStatusAccepted  RideStatus = "accepted"
	RideStatusCompleted RideStatus = "completed"
)

// MaxRideParticipants caps participant_count on join, creator included.
const MaxRideParticipants = 4

// ParseRideStatus validates a status filter value.
func ParseRideStatus(s string) (RideStatus, bool) {
	switch RideStatus(s) {
	case RideStatusPending, RideStatusAccepted, RideStatusCompleted:
		return RideStatus(s), true
	}
	return "", false
}

// RideRequest represents a trip posted by a rider.
// ParticipantCount is 1 for the creator plus one per RideParticipant row.
// DriverID is set iff Status is accepted or completed.
type RideRequest struct {
	ID               uint       `gorm:"primaryKey"`
	UserID           uint       `gorm:"column:user_id;not null;index"`
	DriverID         *uint      `gorm:"column:driver_id;index"`
	Pickup           string     `gorm:"column:pickup;not null;index:idx_ride_route"`
	Destination      string     `gorm:"column:destination;not null;index:idx_ride_route"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	DepartureTime    *time.Time `gorm:"column:departure_time"`
	ParticipantCount int        `gorm:"column:participant_count;not null;default:1"`
	Status           RideStatus `gorm:"column:status;type:varchar(16);not null;default:'pending';index"`
	Distance         *float64   `gorm:"column:distance"`
	Fare             float64    `gorm:"column:fare;not null"`

	Creator *Rider  `gorm:"foreignKey:UserID"`
	Driver  *Driver `gorm:"foreignKey:DriverID"`
}

// TableName specifies the table name
func (RideRequest) TableName() string {
	return "ride_requests"
}

// RideParticipant links a ride to a rider other than its creator.
type RideParticipant struct {
	ID        uint      `gorm:"primaryKey"`
	RideID    uint      `gorm:"column:ride_id;not null;uniqueIndex:idx_ride_participant"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_ride_participant;index"`
	CreatedAt time.Time `gorm:"column:created_at"`

	User *Rider `gorm:"foreignKey:UserID"`
}

// TableName specifies the table name
func (RideParticipant) TableName() string {
	return "ride_participants"
}
