package handlers

import (
	"net/http"

	"github.com/chachabrian/rideshare-backend/internal/services"
	"github.com/gin-gonic/gin"
)

func GetDriverAvailability(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}

		a, err := coord.GetDriverAvailability(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

// ToggleDriverAvailability flips the caller's availability. Refused while the
// driver holds an accepted ride.
func ToggleDriverAvailability(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}

		available, err := coord.ToggleDriverAvailability(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":      "Availability status updated successfully",
			"is_available": available,
		})
	}
}
