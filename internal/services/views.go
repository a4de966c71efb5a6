package services

import (
	"time"

	"github.com/chachabrian/rideshare-backend/internal/models"
)

// Caller-facing projections. Field names follow the public API.

type RiderSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type DriverSummary struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	VehicleType   string `json:"vehicle_type"`
	VehicleNumber string `json:"vehicle_number"`
}

type DriverAccount struct {
	DriverSummary
	Email         string `json:"email"`
	LicenseNumber string `json:"license_number"`
	IsAvailable   bool   `json:"is_available"`
}

type FareView struct {
	Amount float64 `json:"amount"`
}

type ParticipantView struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

type RideView struct {
	ID               uint              `json:"id"`
	Pickup           string            `json:"pickup"`
	Destination      string            `json:"destination"`
	CreatedAt        time.Time         `json:"created_at"`
	DepartureTime    *time.Time        `json:"departure_time"`
	Status           models.RideStatus `json:"status"`
	Distance         *float64          `json:"distance"`
	Fare             FareView          `json:"fare"`
	Creator          RiderSummary      `json:"creator"`
	ParticipantCount int               `json:"participant_count"`
	Driver           *DriverSummary    `json:"driver"`
}

// CreatedRideView is returned to the creator right after posting.
type CreatedRideView struct {
	RideView
	Participants []ParticipantView `json:"participants"`
	CanJoin      bool              `json:"can_join"`
	CanLeave     bool              `json:"can_leave"`
	CanCancel    bool              `json:"can_cancel"`
}

type MyRideView struct {
	RideView
	IsCreator bool `json:"is_creator"`
}

type JoinedRideView struct {
	ID               uint              `json:"id"`
	Pickup           string            `json:"pickup"`
	Destination      string            `json:"destination"`
	CreatedAt        time.Time         `json:"created_at"`
	DepartureTime    *time.Time        `json:"departure_time"`
	JoinedAt         time.Time         `json:"joined_at"`
	CreatorName      string            `json:"creator_name"`
	ParticipantCount int               `json:"participant_count"`
	Status           models.RideStatus `json:"status"`
}

type MatchView struct {
	ID               uint       `json:"id"`
	UserName         string     `json:"user_name"`
	Pickup           string     `json:"pickup"`
	Destination      string     `json:"destination"`
	DepartureTime    *time.Time `json:"departure_time"`
	ParticipantCount int        `json:"participant_count"`
	HasJoined        bool       `json:"has_joined"`
}

type RideDetail struct {
	ID               uint              `json:"id"`
	Pickup           string            `json:"pickup"`
	Destination      string            `json:"destination"`
	CreatedAt        time.Time         `json:"created_at"`
	DepartureTime    *time.Time        `json:"departure_time"`
	Status           models.RideStatus `json:"status"`
	Fare             FareView          `json:"fare"`
	ParticipantCount int               `json:"participant_count"`
	CreatorName      string            `json:"creator_name"`
	Driver           *DriverSummary    `json:"driver"`
	IsCreator        bool              `json:"is_creator"`
	HasJoined        bool              `json:"has_joined"`
}

type RideDetailsView struct {
	Ride         RideDetail        `json:"ride"`
	Participants []ParticipantView `json:"participants"`
}

type AvailableRideView struct {
	ID               uint              `json:"id"`
	Pickup           string            `json:"pickup"`
	Destination      string            `json:"destination"`
	DepartureTime    *time.Time        `json:"departure_time"`
	CreatedAt        time.Time         `json:"created_at"`
	Distance         *float64          `json:"distance"`
	Fare             FareView          `json:"fare"`
	CreatorName      string            `json:"creator_name"`
	CreatorEmail     string            `json:"creator_email"`
	ParticipantCount int               `json:"participant_count"`
	Status           models.RideStatus `json:"status"`
}

type DriverRideView struct {
	RideView
	Participants []ParticipantView `json:"participants"`
	CanComplete  bool              `json:"can_complete"`
	CanCancel    bool              `json:"can_cancel"`
}

type DriverRidesView struct {
	TotalRides     int              `json:"total_rides"`
	ActiveRides    int              `json:"active_rides"`
	CompletedRides int              `json:"completed_rides"`
	Rides          []DriverRideView `json:"rides"`
}

type MembershipView struct {
	RideID           uint `json:"ride_id"`
	ParticipantCount int  `json:"participant_count"`
}

type DispatchView struct {
	RideID   uint              `json:"ride_id"`
	DriverID uint              `json:"driver_id"`
	Status   models.RideStatus `json:"status"`
}

type AvailabilityView struct {
	IsAvailable           bool  `json:"is_available"`
	HasActiveRides        bool  `json:"has_active_rides"`
	ActiveRidesCount      int64 `json:"active_rides_count"`
	CanToggleAvailability bool  `json:"can_toggle_availability"`
}

type TokenView struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserType    string `json:"user_type"`
}

func riderSummary(r *models.Rider, withEmail bool) RiderSummary {
	if r == nil {
		return RiderSummary{Name: "Unknown"}
	}
	s := RiderSummary{ID: r.ID, Name: r.Name}
	if withEmail {
		s.Email = r.Email
	}
	return s
}

func creatorName(r *models.Rider) string {
	if r == nil {
		return "Unknown"
	}
	return r.Name
}

func driverSummary(d *models.Driver) *DriverSummary {
	if d == nil {
		return nil
	}
	return &DriverSummary{
		ID:            d.ID,
		Name:          d.Name,
		VehicleType:   d.VehicleType,
		VehicleNumber: d.VehicleNumber,
	}
}

func driverAccount(d *models.Driver) DriverAccount {
	return DriverAccount{
		DriverSummary: *driverSummary(d),
		Email:         d.Email,
		LicenseNumber: d.LicenseNumber,
		IsAvailable:   d.IsAvailable,
	}
}

func rideView(r *models.RideRequest) RideView {
	return RideView{
		ID:               r.ID,
		Pickup:           r.Pickup,
		Destination:      r.Destination,
		CreatedAt:        r.CreatedAt,
		DepartureTime:    r.DepartureTime,
		Status:           r.Status,
		Distance:         r.Distance,
		Fare:             FareView{Amount: r.Fare},
		Creator:          riderSummary(r.Creator, true),
		ParticipantCount: r.ParticipantCount,
		Driver:           driverSummary(r.Driver),
	}
}

func participantViews(rows []models.RideParticipant, withEmail bool) []ParticipantView {
	out := make([]ParticipantView, 0, len(rows))
	for _, p := range rows {
		v := ParticipantView{ID: p.UserID, JoinedAt: p.CreatedAt}
		if p.User != nil {
			v.Name = p.User.Name
			if withEmail {
				v.Email = p.User.Email
			}
		}
		out = append(out, v)
	}
	return out
}
