package handlers

import (
	"net/http"

	"github.com/chachabrian/rideshare-backend/internal/services"
	"github.com/gin-gonic/gin"
)

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterDriverInput struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required"`
	LicenseNumber string `json:"license_number" binding:"required"`
	VehicleType   string `json:"vehicle_type" binding:"required"`
	VehicleNumber string `json:"vehicle_number" binding:"required"`
}

// LoginInput accepts a JSON body or an OAuth2 password form, where the email
// travels as "username".
type LoginInput struct {
	Email    string `json:"email" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func Register(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}

		rider, err := coord.RegisterRider(c.Request.Context(), services.RiderRegistration{
			Name:     input.Name,
			Email:    input.Email,
			Password: input.Password,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "User registered successfully",
			"user":    rider,
		})
	}
}

func RegisterDriver(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterDriverInput
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}

		driver, err := coord.RegisterDriver(c.Request.Context(), services.DriverRegistration{
			Name:          input.Name,
			Email:         input.Email,
			Password:      input.Password,
			LicenseNumber: input.LicenseNumber,
			VehicleType:   input.VehicleType,
			VehicleNumber: input.VehicleNumber,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Driver registered successfully",
			"driver":  driver,
		})
	}
}

func LoginUser(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBind(&input); err != nil {
			bindError(c, err)
			return
		}

		token, err := coord.LoginRider(c.Request.Context(), input.Email, input.Password)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, token)
	}
}

func LoginDriver(coord *services.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBind(&input); err != nil {
			bindError(c, err)
			return
		}

		token, err := coord.LoginDriver(c.Request.Context(), input.Email, input.Password)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, token)
	}
}
