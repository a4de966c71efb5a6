package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/chachabrian/rideshare-backend/internal/apperrors"
	"github.com/chachabrian/rideshare-backend/internal/models"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Authenticator resolves a bearer token to the calling account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		id, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if apperrors.Is(err, apperrors.KindUnauthenticated) {
				c.Header("WWW-Authenticate", "Bearer")
			}
			c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.PublicMessage(err)})
			return
		}

		c.Set(identityKey, id)
		c.Set("userId", id.ID)
		c.Set("userType", string(id.Kind))
		c.Next()
	}
}

// CurrentIdentity returns the caller set by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}
