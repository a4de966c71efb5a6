package handlers

import (
	"strconv"

	"github.com/chachabrian/rideshare-backend/internal/apperrors"
	"github.com/chachabrian/rideshare-backend/internal/middleware"
	"github.com/chachabrian/rideshare-backend/internal/models"
	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error": reason} with the status of its kind.
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.PublicMessage(err)})
}

// bindError reports a malformed request body or query.
func bindError(c *gin.Context, err error) {
	respondError(c, apperrors.Validation(err.Error()))
}

func rideIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperrors.Validation("Invalid ride ID")
	}
	return uint(id), nil
}

// caller returns the authenticated identity. Routes using it sit behind
// AuthMiddleware; a missing identity is answered with 401.
func caller(c *gin.Context) (models.Identity, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondError(c, apperrors.Unauthenticated("Not authenticated"))
	}
	return id, ok
}
