package services

import (
	"context"
	"sync"
	"testing"

	"github.com/chachabrian/rideshare-backend/internal/apperrors"
	"github.com/chachabrian/rideshare-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptRide(t *testing.T) {
	db := newTestDB(t)
	engine := NewDispatchEngine(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	dan := mustDriver(t, db, "dan")
	eve := mustDriver(t, db, "eve")
	ride := mustRide(t, db, amy.ID, "X", "Y")

	available, err := engine.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)

	got, err := engine.Accept(ctx, ride.ID, dan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusAccepted, got.Status)

	stored := reloadRide(t, db, ride.ID)
	assert.Equal(t, models.RideStatusAccepted, stored.Status)
	require.NotNil(t, stored.DriverID)
	assert.Equal(t, dan.ID, *stored.DriverID)
	assert.False(t, reloadDriver(t, db, dan.ID).IsAvailable)

	available, err = engine.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)

	_, err = engine.Accept(ctx, ride.ID, eve.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, "Ride not found or not available", apperrors.PublicMessage(err))
}

func TestAcceptRequiresAvailableDriver(t *testing.T) {
	db := newTestDB(t)
	engine := NewDispatchEngine(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	dan := mustDriver(t, db, "dan")
	first := mustRide(t, db, amy.ID, "X", "Y")
	second := mustRide(t, db, amy.ID, "P", "Q")

	_, err := engine.Accept(ctx, first.ID, dan.ID)
	require.NoError(t, err)

	_, err = engine.Accept(ctx, second.ID, dan.ID)
	require.Error(t, err)
	assert.Equal(t, "Driver is not available", apperrors.PublicMessage(err))
	assert.Equal(t, models.RideStatusPending, reloadRide(t, db, second.ID).Status)
}

func TestConcurrentAcceptOneWinner(t *testing.T) {
	db := newTestDB(t)
	engine := NewDispatchEngine(db)
	amy := mustRider(t, db, "amy")
	ride := mustRide(t, db, amy.ID, "X", "Y")
	drivers := []*models.Driver{mustDriver(t, db, "d1"), mustDriver(t, db, "d2"), mustDriver(t, db, "d3")}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []uint
		losers  []error
	)
	for _, d := range drivers {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := engine.Accept(context.Background(), ride.ID, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				losers = append(losers, err)
				return
			}
			winners = append(winners, id)
		}(d.ID)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	for _, err := range losers {
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	}

	stored := reloadRide(t, db, ride.ID)
	require.NotNil(t, stored.DriverID)
	assert.Equal(t, winners[0], *stored.DriverID)
	for _, d := range drivers {
		assert.Equal(t, d.ID != winners[0], reloadDriver(t, db, d.ID).IsAvailable)
	}
}

func TestCompleteRide(t *testing.T) {
	db := newTestDB(t)
	engine := NewDispatchEngine(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	dan := mustDriver(t, db, "dan")
	eve := mustDriver(t, db, "eve")
	ride := mustRide(t, db, amy.ID, "X", "Y")

	_, err := engine.Complete(ctx, ride.ID, dan.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = engine.Accept(ctx, ride.ID, dan.ID)
	require.NoError(t, err)

	_, err = engine.Complete(ctx, ride.ID, eve.ID)
	require.Error(t, err)
	assert.Equal(t, "Ride not found or not assigned to you", apperrors.PublicMessage(err))

	got, err := engine.Complete(ctx, ride.ID, dan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusCompleted, got.Status)
	assert.True(t, reloadDriver(t, db, dan.ID).IsAvailable)

	// Completed is terminal.
	_, err = engine.Complete(ctx, ride.ID, dan.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	_, err = engine.Cancel(ctx, ride.ID, dan.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestCancelRideReturnsToPool(t *testing.T) {
	db := newTestDB(t)
	engine := NewDispatchEngine(db)
	participation := NewParticipationLedger(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	ben := mustRider(t, db, "ben")
	dan := mustDriver(t, db, "dan")
	ride := mustRide(t, db, amy.ID, "X", "Y")
	_, err := participation.Join(ctx, ride.ID, ben.ID)
	require.NoError(t, err)

	_, err = engine.Accept(ctx, ride.ID, dan.ID)
	require.NoError(t, err)

	got, err := engine.Cancel(ctx, ride.ID, dan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusPending, got.Status)
	assert.Nil(t, got.DriverID)

	stored := reloadRide(t, db, ride.ID)
	assert.Equal(t, models.RideStatusPending, stored.Status)
	assert.Nil(t, stored.DriverID)
	assert.Equal(t, 2, stored.ParticipantCount)
	assert.True(t, reloadDriver(t, db, dan.ID).IsAvailable)

	rows, err := participation.ListParticipants(ctx, ride.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ben.ID, rows[0].UserID)

	available, err := engine.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, ride.ID, available[0].ID)
}

func TestToggleAvailability(t *testing.T) {
	db := newTestDB(t)
	engine := NewDispatchEngine(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	dan := mustDriver(t, db, "dan")
	ride := mustRide(t, db, amy.ID, "X", "Y")

	next, err := engine.ToggleAvailability(ctx, dan.ID)
	require.NoError(t, err)
	assert.False(t, next)
	next, err = engine.ToggleAvailability(ctx, dan.ID)
	require.NoError(t, err)
	assert.True(t, next)

	_, err = engine.Accept(ctx, ride.ID, dan.ID)
	require.NoError(t, err)

	a, err := engine.Availability(ctx, dan.ID)
	require.NoError(t, err)
	assert.False(t, a.IsAvailable)
	assert.EqualValues(t, 1, a.ActiveRidesCount)
	assert.False(t, a.CanToggle())

	_, err = engine.ToggleAvailability(ctx, dan.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.False(t, reloadDriver(t, db, dan.ID).IsAvailable)
}

func TestListDriverRides(t *testing.T) {
	db := newTestDB(t)
	engine := NewDispatchEngine(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	dan := mustDriver(t, db, "dan")

	done := mustRide(t, db, amy.ID, "A", "B")
	active := mustRide(t, db, amy.ID, "C", "D")
	mustRide(t, db, amy.ID, "E", "F")

	_, err := engine.Accept(ctx, done.ID, dan.ID)
	require.NoError(t, err)
	_, err = engine.Complete(ctx, done.ID, dan.ID)
	require.NoError(t, err)
	_, err = engine.Accept(ctx, active.ID, dan.ID)
	require.NoError(t, err)

	all, err := engine.ListDriverRides(ctx, dan.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, active.ID, all[0].ID)
	assert.Equal(t, done.ID, all[1].ID)

	completed := models.RideStatusCompleted
	only, err := engine.ListDriverRides(ctx, dan.ID, &completed)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, done.ID, only[0].ID)
}
