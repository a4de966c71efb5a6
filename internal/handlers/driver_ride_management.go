package handlers

import (
	"net/http"

	"github.com/chachabrian/rideshare-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// GetAvailableRides lists pending rides no driver holds.
func GetAvailableRides(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}

		rides, err := coord.ListAvailableRides(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"available_rides": rides})
	}
}

// AcceptRide allows driver to accept a ride request
func AcceptRide(coord *services.Coordinator) gin.HandlerFunc {
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

		ride, err := coord.AcceptRide(c.Request.Context(), id, rideID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Ride accepted successfully",
			"ride":    ride,
		})
	}
}

func CompleteRide(coord *services.Coordinator) gin.HandlerFunc {
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

		res, err := coord.CompleteRide(c.Request.Context(), id, rideID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":   "Ride marked as completed successfully",
			"ride_id":   res.RideID,
			"driver_id": res.DriverID,
		})
	}
}

// CancelRide hands an accepted ride back to the pool.
func CancelRide(coord *services.Coordinator) gin.HandlerFunc {
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

		res, err := coord.CancelRide(c.Request.Context(), id, rideID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":   "Ride cancelled successfully and made available for other drivers",
			"ride_id":   res.RideID,
			"driver_id": res.DriverID,
		})
	}
}

func GetDriverRides(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}

		view, err := coord.ListDriverRides(c.Request.Context(), id, c.Query("status"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
