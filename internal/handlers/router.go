package handlers

import (
	"context"
	"log/slog"

	"github.com/chachabrian/rideshare-backend/internal/middleware"
	"github.com/chachabrian/rideshare-backend/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Coordinator *services.Coordinator
	Ping        func(ctx context.Context) error
	Logger      *slog.Logger
	CORSOrigins []string
}

// NewRouter mounts every route of the gateway.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(cfg.Logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	r.Use(cors.New(corsConfig))

	coord := cfg.Coordinator

	r.GET("/health", Health(cfg.Ping))

	// Public routes
	r.POST("/register", Register(coord))
	r.POST("/register/driver", RegisterDriver(coord))
	r.POST("/login/user", LoginUser(coord))
	r.POST("/login/driver", LoginDriver(coord))

	// Protected routes
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(coord))
	{
		protected.POST("/ride-request", CreateRide(coord))
		protected.GET("/ride/:id", GetRide(coord))
		protected.DELETE("/ride/:id", DeleteRide(coord))
		protected.GET("/ride/:id/participants", GetRideParticipants(coord))
		protected.POST("/join-ride/:id", JoinRide(coord))
		protected.POST("/leave-ride/:id", LeaveRide(coord))
		protected.GET("/user/rides", GetUserRides(coord))
		protected.GET("/user/joined-rides", GetJoinedRides(coord))
		protected.GET("/match-rides", MatchRides(coord))

		protected.GET("/available-rides", GetAvailableRides(coord))
		protected.POST("/accept-ride/:id", AcceptRide(coord))
		protected.POST("/complete-ride/:id", CompleteRide(coord))
		protected.POST("/cancel-ride/:id", CancelRide(coord))

		driver := protected.Group("/driver")
		{
			driver.GET("/my-rides", GetDriverRides(coord))
			driver.GET("/availability", GetDriverAvailability(coord))
			driver.POST("/toggle-availability", ToggleDriverAvailability(coord))
		}
	}

	return r
}
