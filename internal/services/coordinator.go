package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/chachabrian/rideshare-backend/internal/apperrors"
	"github.com/chachabrian/rideshare-backend/internal/events"
	"github.com/chachabrian/rideshare-backend/internal/models"
	"gorm.io/gorm"
)

// TokenService is the authentication provider: it issues tokens at login and
// resolves a bearer token back to an identity.
type TokenService interface {
	GenerateToken(id models.Identity) (string, error)
	ValidateToken(token string) (models.Identity, error)
}

// Coordinator is the entry point for every caller-facing operation. It
// checks the caller's role, delegates to the ledgers and engines, builds the
// caller-facing views and publishes events once a change has committed.
type Coordinator struct {
	accounts      *AccountStore
	rides         *RideLedger
	participation *ParticipationLedger
	matching      *MatchingEngine
	dispatch      *DispatchEngine

	tokens    TokenService
	publisher events.Publisher
	log       *slog.Logger
	now       func() time.Time
}

func NewCoordinator(db *gorm.DB, tokens TokenService, publisher events.Publisher, log *slog.Logger) *Coordinator {
	if publisher == nil {
		publisher = events.Nop{}
	}
	participation := NewParticipationLedger(db)
	return &Coordinator{
		accounts:      NewAccountStore(db),
		rides:         NewRideLedger(db),
		participation: participation,
		matching:      NewMatchingEngine(db, participation),
		dispatch:      NewDispatchEngine(db),
		tokens:        tokens,
		publisher:     publisher,
		log:           log,
		now:           time.Now,
	}
}

// fail reports err at the boundary. Business errors pass through; anything
// else is logged and replaced by an opaque internal error.
func (c *Coordinator) fail(ctx context.Context, op string, err error) error {
	if apperrors.KindOf(err) != apperrors.KindInternal {
		return err
	}
	c.log.ErrorContext(ctx, "operation failed", "op", op, "error", err)
	return apperrors.Internal(op, err)
}

func (c *Coordinator) publish(ctx context.Context, evt events.Event) {
	evt.Timestamp = c.now().UTC()
	if err := c.publisher.Publish(ctx, evt); err != nil {
		c.log.WarnContext(ctx, "publish event failed", "type", evt.Type, "ride_id", evt.RideID, "error", err)
	}
}

func requireRider(caller models.Identity, msg string) error {
	if !caller.IsRider() {
		return apperrors.Forbidden(msg)
	}
	return nil
}

func requireDriver(caller models.Identity, msg string) error {
	if !caller.IsDriver() {
		return apperrors.Forbidden(msg)
	}
	return nil
}

// Accounts

func (c *Coordinator) RegisterRider(ctx context.Context, in RiderRegistration) (*RiderSummary, error) {
	rider, err := c.accounts.RegisterRider(ctx, in)
	if err != nil {
		return nil, c.fail(ctx, "register rider", err)
	}
	c.log.InfoContext(ctx, "rider registered", "rider_id", rider.ID)
	s := riderSummary(rider, true)
	return &s, nil
}

func (c *Coordinator) RegisterDriver(ctx context.Context, in DriverRegistration) (*DriverAccount, error) {
	driver, err := c.accounts.RegisterDriver(ctx, in)
	if err != nil {
		return nil, c.fail(ctx, "register driver", err)
	}
	c.log.InfoContext(ctx, "driver registered", "driver_id", driver.ID)
	a := driverAccount(driver)
	return &a, nil
}

func (c *Coordinator) LoginRider(ctx context.Context, email, password string) (*TokenView, error) {
	rider, err := c.accounts.AuthenticateRider(ctx, email, password)
	if err != nil {
		return nil, c.fail(ctx, "login rider", err)
	}
	return c.issue(ctx, models.Identity{Kind: models.IdentityRider, ID: rider.ID, Email: rider.Email})
}

func (c *Coordinator) LoginDriver(ctx context.Context, email, password string) (*TokenView, error) {
	driver, err := c.accounts.AuthenticateDriver(ctx, email, password)
	if err != nil {
		return nil, c.fail(ctx, "login driver", err)
	}
	return c.issue(ctx, models.Identity{Kind: models.IdentityDriver, ID: driver.ID, Email: driver.Email})
}

func (c *Coordinator) issue(ctx context.Context, id models.Identity) (*TokenView, error) {
	token, err := c.tokens.GenerateToken(id)
	if err != nil {
		return nil, c.fail(ctx, "issue token", err)
	}
	return &TokenView{AccessToken: token, TokenType: "bearer", UserType: string(id.Kind)}, nil
}

// Authenticate resolves a bearer token to a caller whose account still exists.
func (c *Coordinator) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	unauthenticated := apperrors.Unauthenticated("Could not validate credentials")

	id, err := c.tokens.ValidateToken(token)
	if err != nil {
		return models.Identity{}, unauthenticated
	}

	switch id.Kind {
	case models.IdentityDriver:
		driver, err := c.accounts.DriverByEmail(ctx, id.Email)
		if apperrors.Is(err, apperrors.KindNotFound) {
			return models.Identity{}, unauthenticated
		}
		if err != nil {
			return models.Identity{}, c.fail(ctx, "authenticate", err)
		}
		return models.Identity{Kind: models.IdentityDriver, ID: driver.ID, Email: driver.Email}, nil
	default:
		rider, err := c.accounts.RiderByEmail(ctx, id.Email)
		if apperrors.Is(err, apperrors.KindNotFound) {
			return models.Identity{}, unauthenticated
		}
		if err != nil {
			return models.Identity{}, c.fail(ctx, "authenticate", err)
		}
		return models.Identity{Kind: models.IdentityRider, ID: rider.ID, Email: rider.Email}, nil
	}
}

// Rider operations

func (c *Coordinator) CreateRide(ctx context.Context, caller models.Identity, in NewRide) (*CreatedRideView, error) {
	if err := requireRider(caller, "Only riders can create rides"); err != nil {
		return nil, err
	}
	ride, err := c.rides.Create(ctx, caller.ID, in)
	if err != nil {
		return nil, c.fail(ctx, "create ride", err)
	}
	c.publish(ctx, events.Event{
		Type: events.RideCreated, RideID: ride.ID, Status: string(ride.Status),
		RiderID: caller.ID, ParticipantCount: ride.ParticipantCount,
	})

	return &CreatedRideView{
		RideView:     rideView(ride),
		Participants: []ParticipantView{},
		CanJoin:      true,
		CanLeave:     false,
		CanCancel:    true,
	}, nil
}

func (c *Coordinator) DeleteRide(ctx context.Context, caller models.Identity, rideID uint) error {
	if err := requireRider(caller, "Only riders can delete rides"); err != nil {
		return err
	}
	ride, err := c.rides.Delete(ctx, rideID, caller.ID)
	if err != nil {
		return c.fail(ctx, "delete ride", err)
	}
	evt := events.Event{Type: events.RideDeleted, RideID: ride.ID, Status: string(ride.Status), RiderID: caller.ID}
	if ride.DriverID != nil {
		evt.DriverID = *ride.DriverID
	}
	c.publish(ctx, evt)
	return nil
}

func (c *Coordinator) JoinRide(ctx context.Context, caller models.Identity, rideID uint) (*MembershipView, error) {
	if err := requireRider(caller, "Only riders can join rides"); err != nil {
		return nil, err
	}
	ride, err := c.participation.Join(ctx, rideID, caller.ID)
	if err != nil {
		return nil, c.fail(ctx, "join ride", err)
	}
	c.publish(ctx, events.Event{
		Type: events.RideJoined, RideID: ride.ID, Status: string(ride.Status),
		RiderID: caller.ID, ParticipantCount: ride.ParticipantCount,
	})
	return &MembershipView{RideID: ride.ID, ParticipantCount: ride.ParticipantCount}, nil
}

func (c *Coordinator) LeaveRide(ctx context.Context, caller models.Identity, rideID uint) (*MembershipView, error) {
	if err := requireRider(caller, "Only riders can leave rides"); err != nil {
		return nil, err
	}
	ride, err := c.participation.Leave(ctx, rideID, caller.ID)
	if err != nil {
		return nil, c.fail(ctx, "leave ride", err)
	}
	c.publish(ctx, events.Event{
		Type: events.RideLeft, RideID: ride.ID, Status: string(ride.Status),
		RiderID: caller.ID, ParticipantCount: ride.ParticipantCount,
	})
	return &MembershipView{RideID: ride.ID, ParticipantCount: ride.ParticipantCount}, nil
}

func (c *Coordinator) ListMyRides(ctx context.Context, caller models.Identity) ([]MyRideView, error) {
	if err := requireRider(caller, "Only riders can view their rides"); err != nil {
		return nil, err
	}
	rides, err := c.rides.ListForUser(ctx, caller.ID)
	if err != nil {
		return nil, c.fail(ctx, "list my rides", err)
	}
	out := make([]MyRideView, 0, len(rides))
	for i := range rides {
		out = append(out, MyRideView{RideView: rideView(&rides[i]), IsCreator: rides[i].UserID == caller.ID})
	}
	return out, nil
}

func (c *Coordinator) ListJoinedRides(ctx context.Context, caller models.Identity) ([]JoinedRideView, error) {
	if err := requireRider(caller, "Only riders can view joined rides"); err != nil {
		return nil, err
	}
	joined, err := c.rides.ListJoined(ctx, caller.ID)
	if err != nil {
		return nil, c.fail(ctx, "list joined rides", err)
	}
	out := make([]JoinedRideView, 0, len(joined))
	for _, j := range joined {
		out = append(out, JoinedRideView{
			ID:               j.Ride.ID,
			Pickup:           j.Ride.Pickup,
			Destination:      j.Ride.Destination,
			CreatedAt:        j.Ride.CreatedAt,
			DepartureTime:    j.Ride.DepartureTime,
			JoinedAt:         j.JoinedAt,
			CreatorName:      creatorName(j.Ride.Creator),
			ParticipantCount: j.Ride.ParticipantCount,
			Status:           j.Ride.Status,
		})
	}
	return out, nil
}

func (c *Coordinator) MatchRides(ctx context.Context, caller models.Identity, pickup, destination string) ([]MatchView, error) {
	if err := requireRider(caller, "Only riders can match rides"); err != nil {
		return nil, err
	}
	matches, err := c.matching.Match(ctx, pickup, destination, caller.ID)
	if err != nil {
		return nil, c.fail(ctx, "match rides", err)
	}
	out := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchView{
			ID:               m.Ride.ID,
			UserName:         creatorName(m.Ride.Creator),
			Pickup:           m.Ride.Pickup,
			Destination:      m.Ride.Destination,
			DepartureTime:    m.Ride.DepartureTime,
			ParticipantCount: m.Ride.ParticipantCount,
			HasJoined:        m.HasJoined,
		})
	}
	return out, nil
}

// GetRideDetails is open to riders and drivers.
func (c *Coordinator) GetRideDetails(ctx context.Context, caller models.Identity, rideID uint) (*RideDetailsView, error) {
	ride, err := c.rides.Get(ctx, rideID)
	if err != nil {
		return nil, c.fail(ctx, "get ride", err)
	}
	rows, err := c.participation.ListParticipants(ctx, rideID)
	if err != nil {
		return nil, c.fail(ctx, "get ride", err)
	}

	hasJoined := false
	if caller.IsRider() {
		if hasJoined, err = c.participation.HasJoined(ctx, rideID, caller.ID); err != nil {
			return nil, c.fail(ctx, "get ride", err)
		}
	}

	return &RideDetailsView{
		Ride: RideDetail{
			ID:               ride.ID,
			Pickup:           ride.Pickup,
			Destination:      ride.Destination,
			CreatedAt:        ride.CreatedAt,
			DepartureTime:    ride.DepartureTime,
			Status:           ride.Status,
			Fare:             FareView{Amount: ride.Fare},
			ParticipantCount: ride.ParticipantCount,
			CreatorName:      creatorName(ride.Creator),
			Driver:           driverSummary(ride.Driver),
			IsCreator:        caller.IsRider() && ride.UserID == caller.ID,
			HasJoined:        hasJoined,
		},
		Participants: participantViews(rows, false),
	}, nil
}

// ListParticipants is open to riders and drivers.
func (c *Coordinator) ListParticipants(ctx context.Context, caller models.Identity, rideID uint) ([]ParticipantView, error) {
	if _, err := c.rides.Get(ctx, rideID); err != nil {
		return nil, c.fail(ctx, "list participants", err)
	}
	rows, err := c.participation.ListParticipants(ctx, rideID)
	if err != nil {
		return nil, c.fail(ctx, "list participants", err)
	}
	return participantViews(rows, false), nil
}

// Driver operations

func (c *Coordinator) ListAvailableRides(ctx context.Context, caller models.Identity) ([]AvailableRideView, error) {
	if err := requireDriver(caller, "Only drivers can view available rides"); err != nil {
		return nil, err
	}
	rides, err := c.dispatch.ListAvailable(ctx)
	if err != nil {
		return nil, c.fail(ctx, "list available rides", err)
	}
	out := make([]AvailableRideView, 0, len(rides))
	for _, r := range rides {
		v := AvailableRideView{
			ID:               r.ID,
			Pickup:           r.Pickup,
			Destination:      r.Destination,
			DepartureTime:    r.DepartureTime,
			CreatedAt:        r.CreatedAt,
			Distance:         r.Distance,
			Fare:             FareView{Amount: r.Fare},
			CreatorName:      creatorName(r.Creator),
			CreatorEmail:     "Unknown",
			ParticipantCount: r.ParticipantCount,
			Status:           r.Status,
		}
		if r.Creator != nil {
			v.CreatorEmail = r.Creator.Email
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Coordinator) AcceptRide(ctx context.Context, caller models.Identity, rideID uint) (*RideView, error) {
	if err := requireDriver(caller, "Only drivers can accept rides"); err != nil {
		return nil, err
	}
	if _, err := c.dispatch.Accept(ctx, rideID, caller.ID); err != nil {
		return nil, c.fail(ctx, "accept ride", err)
	}
	c.log.InfoContext(ctx, "ride accepted", "ride_id", rideID, "driver_id", caller.ID)
	c.publish(ctx, events.Event{
		Type: events.RideAccepted, RideID: rideID, Status: string(models.RideStatusAccepted), DriverID: caller.ID,
	})

	ride, err := c.rides.Get(ctx, rideID)
	if err != nil {
		return nil, c.fail(ctx, "accept ride", err)
	}
	v := rideView(ride)
	return &v, nil
}

func (c *Coordinator) CompleteRide(ctx context.Context, caller models.Identity, rideID uint) (*DispatchView, error) {
	if err := requireDriver(caller, "Only drivers can complete rides"); err != nil {
		return nil, err
	}
	ride, err := c.dispatch.Complete(ctx, rideID, caller.ID)
	if err != nil {
		return nil, c.fail(ctx, "complete ride", err)
	}
	c.log.InfoContext(ctx, "ride completed", "ride_id", rideID, "driver_id", caller.ID)
	c.publish(ctx, events.Event{
		Type: events.RideCompleted, RideID: ride.ID, Status: string(ride.Status), DriverID: caller.ID,
	})
	return &DispatchView{RideID: ride.ID, DriverID: caller.ID, Status: ride.Status}, nil
}

func (c *Coordinator) CancelRide(ctx context.Context, caller models.Identity, rideID uint) (*DispatchView, error) {
	if err := requireDriver(caller, "Only drivers can cancel rides"); err != nil {
		return nil, err
	}
	ride, err := c.dispatch.Cancel(ctx, rideID, caller.ID)
	if err != nil {
		return nil, c.fail(ctx, "cancel ride", err)
	}
	c.log.InfoContext(ctx, "ride cancelled by driver", "ride_id", rideID, "driver_id", caller.ID)
	c.publish(ctx, events.Event{
		Type: events.RideCancelled, RideID: ride.ID, Status: string(ride.Status), DriverID: caller.ID,
	})
	return &DispatchView{RideID: ride.ID, DriverID: caller.ID, Status: ride.Status}, nil
}

// ListDriverRides lists the caller's rides. An empty status means no filter.
func (c *Coordinator) ListDriverRides(ctx context.Context, caller models.Identity, status string) (*DriverRidesView, error) {
	if err := requireDriver(caller, "Only drivers can view their rides"); err != nil {
		return nil, err
	}

	var filter *models.RideStatus
	if status != "" {
		s, ok := models.ParseRideStatus(status)
		if !ok {
			return nil, apperrors.Validation("Invalid status. Must be one of: pending, accepted, completed")
		}
		filter = &s
	}

	rides, err := c.dispatch.ListDriverRides(ctx, caller.ID, filter)
	if err != nil {
		return nil, c.fail(ctx, "list driver rides", err)
	}

	out := &DriverRidesView{Rides: make([]DriverRideView, 0, len(rides))}
	for i := range rides {
		r := &rides[i]
		rows, err := c.participation.ListParticipants(ctx, r.ID)
		if err != nil {
			return nil, c.fail(ctx, "list driver rides", err)
		}
		accepted := r.Status == models.RideStatusAccepted
		out.Rides = append(out.Rides, DriverRideView{
			RideView:     rideView(r),
			Participants: participantViews(rows, true),
			CanComplete:  accepted,
			CanCancel:    accepted,
		})
		switch r.Status {
		case models.RideStatusAccepted:
			out.ActiveRides++
		case models.RideStatusCompleted:
			out.CompletedRides++
		}
	}
	out.TotalRides = len(out.Rides)
	return out, nil
}

func (c *Coordinator) GetDriverAvailability(ctx context.Context, caller models.Identity) (*AvailabilityView, error) {
	if err := requireDriver(caller, "Only drivers can check availability"); err != nil {
		return nil, err
	}
	a, err := c.dispatch.Availability(ctx, caller.ID)
	if err != nil {
		return nil, c.fail(ctx, "driver availability", err)
	}
	return &AvailabilityView{
		IsAvailable:           a.IsAvailable,
		HasActiveRides:        a.HasActiveRides(),
		ActiveRidesCount:      a.ActiveRidesCount,
		CanToggleAvailability: a.CanToggle(),
	}, nil
}

func (c *Coordinator) ToggleDriverAvailability(ctx context.Context, caller models.Identity) (bool, error) {
	if err := requireDriver(caller, "Only drivers can toggle availability"); err != nil {
		return false, err
	}
	available, err := c.dispatch.ToggleAvailability(ctx, caller.ID)
	if err != nil {
		return false, c.fail(ctx, "toggle availability", err)
	}
	c.publish(ctx, events.Event{
		Type: events.DriverAvailabilityChanged, DriverID: caller.ID, IsAvailable: &available,
	})
	return available, nil
}
