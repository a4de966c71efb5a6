package handlers

import (
	"net/http"

	"github.com/chachabrian/rideshare-backend/internal/services"
	"github.com/gin-gonic/gin"
)

type MatchQuery struct {
	Pickup      string `form:"pickup" binding:"required"`
	Destination string `form:"destination" binding:"required"`
}

// GetRide returns a ride with its participants. Riders and drivers may call it.
func GetRide(coord *services.Coordinator) gin.HandlerFunc {
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

		details, err := coord.GetRideDetails(c.Request.Context(), id, rideID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, details)
	}
}

func GetRideParticipants(coord *services.Coordinator) gin.HandlerFunc {
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

		participants, err := coord.ListParticipants(c.Request.Context(), id, rideID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"participants": participants})
	}
}

// GetUserRides lists rides the caller created or joined.
func GetUserRides(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}

		rides, err := coord.ListMyRides(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rides": rides})
	}
}

func GetJoinedRides(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}

		rides, err := coord.ListJoinedRides(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rides": rides})
	}
}

func MatchRides(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}

		var q MatchQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			bindError(c, err)
			return
		}

		matches, err := coord.MatchRides(c.Request.Context(), id, q.Pickup, q.Destination)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"matches": matches})
	}
}
