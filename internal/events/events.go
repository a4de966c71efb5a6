package events

import (
	"context"
	"time"
)

// Event types published after a ride or driver mutation commits.
const (
	RideCreated               = "ride.created"
	RideDeleted               = "ride.deleted"
	RideJoined                = "ride.joined"
	RideLeft                  = "ride.left"
	RideAccepted              = "ride.accepted"
	RideCompleted             = "ride.completed"
	RideCancelled             = "ride.cancelled"
	DriverAvailabilityChanged = "driver.availability_changed"
)

// Event is a committed state change.
type Event struct {
	Type             string    `json:"type"`
	RideID           uint      `json:"rideId,omitempty"`
	Status           string    `json:"status,omitempty"`
	RiderID          uint      `json:"riderId,omitempty"`
	DriverID         uint      `json:"driverId,omitempty"`
	ParticipantCount int       `json:"participantCount,omitempty"`
	IsAvailable      *bool     `json:"isAvailable,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Publisher delivers events to a broker. Publish is called after commit, so
// a failure never rolls anything back.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
