package handlers

import (
	"net/http"
	"time"

	"github.com/chachabrian/rideshare-backend/internal/services"
	"github.com/gin-gonic/gin"
)

type CreateRideInput struct {
	Pickup          string     `json:"pickup" binding:"required"`
	Destination     string     `json:"destination" binding:"required"`
	DepartureTime   *time.Time `json:"departure_time"`
	MaxParticipants int        `json:"max_participants"`
	Distance        *float64   `json:"distance"`
	Fare            *float64   `json:"fare"`
}

// CreateRide posts a new ride request owned by the caller.
func CreateRide(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}

		input := CreateRideInput{MaxParticipants: 4}
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}

		ride, err := coord.CreateRide(c.Request.Context(), id, services.NewRide{
			Pickup:          input.Pickup,
			Destination:     input.Destination,
			DepartureTime:   input.DepartureTime,
			MaxParticipants: input.MaxParticipants,
			Distance:        input.Distance,
			Fare:            input.Fare,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ride)
	}
}

func DeleteRide(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}
		rideID, err := rideIDParam(c)
		if err != nil {
			respondError(c, err)
			return
		}

		if err := coord.DeleteRide(c.Request.Context(), id, rideID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Ride deleted successfully"})
	}
}

func JoinRide(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}
		rideID, err := rideIDParam(c)
		if err != nil {
			respondError(c, err)
			return
		}

		m, err := coord.JoinRide(c.Request.Context(), id, rideID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":           "Successfully joined the ride",
			"ride_id":           m.RideID,
			"participant_count": m.ParticipantCount,
		})
	}
}

func LeaveRide(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}
		rideID, err := rideIDParam(c)
		if err != nil {
			respondError(c, err)
			return
		}

		m, err := coord.LeaveRide(c.Request.Context(), id, rideID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":           "Successfully left the ride",
			"ride_id":           m.RideID,
			"participant_count": m.ParticipantCount,
		})
	}
}
