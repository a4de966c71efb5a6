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

func TestCreateRide(t *testing.T) {
	db := newTestDB(t)
	ledger := NewRideLedger(db)
	amy := mustRider(t, db, "amy")
	ctx := context.Background()

	_, err := ledger.Create(ctx, amy.ID, NewRide{Pickup: "X", Destination: "Y"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	fare := 10.0
	_, err = ledger.Create(ctx, amy.ID, NewRide{Pickup: " ", Destination: "Y", Fare: &fare})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	ride, err := ledger.Create(ctx, amy.ID, NewRide{Pickup: "X", Destination: "Y", Fare: &fare, MaxParticipants: 8})
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusPending, ride.Status)
	assert.Equal(t, 1, ride.ParticipantCount)
	assert.Nil(t, ride.DriverID)
	require.NotNil(t, ride.Creator)
	assert.Equal(t, "amy", ride.Creator.Name)
}

func TestJoinRide(t *testing.T) {
	db := newTestDB(t)
	ledger := NewParticipationLedger(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	ben := mustRider(t, db, "ben")
	ride := mustRide(t, db, amy.ID, "X", "Y")

	_, err := ledger.Join(ctx, ride.ID, amy.ID)
	require.Error(t, err)
	assert.Equal(t, "You cannot join your own ride", apperrors.PublicMessage(err))

	got, err := ledger.Join(ctx, ride.ID, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ParticipantCount)

	_, err = ledger.Join(ctx, ride.ID, ben.ID)
	require.Error(t, err)
	assert.Equal(t, "You have already joined this ride", apperrors.PublicMessage(err))
	assert.Equal(t, 2, reloadRide(t, db, ride.ID).ParticipantCount)

	_, err = ledger.Join(ctx, 9999, ben.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestJoinRideCap(t *testing.T) {
	db := newTestDB(t)
	ledger := NewParticipationLedger(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	ride := mustRide(t, db, amy.ID, "X", "Y")

	for _, name := range []string{"b", "c", "d"} {
		r := mustRider(t, db, name)
		_, err := ledger.Join(ctx, ride.ID, r.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, models.MaxRideParticipants, reloadRide(t, db, ride.ID).ParticipantCount)

	late := mustRider(t, db, "e")
	_, err := ledger.Join(ctx, ride.ID, late.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Equal(t, "Ride is already full", apperrors.PublicMessage(err))
}

func TestConcurrentJoinsRespectCap(t *testing.T) {
	db := newTestDB(t)
	ledger := NewParticipationLedger(db)
	amy := mustRider(t, db, "amy")
	ride := mustRide(t, db, amy.ID, "X", "Y")

	var riders []uint
	for _, name := range []string{"b", "c", "d", "e", "f", "g"} {
		riders = append(riders, mustRider(t, db, name).ID)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
	)
	for _, id := range riders {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			if _, err := ledger.Join(context.Background(), ride.ID, id); err == nil {
				mu.Lock()
				joined++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, models.MaxRideParticipants-1, joined)
	assert.Equal(t, models.MaxRideParticipants, reloadRide(t, db, ride.ID).ParticipantCount)
}

func TestLeaveRide(t *testing.T) {
	db := newTestDB(t)
	ledger := NewParticipationLedger(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	ben := mustRider(t, db, "ben")
	ride := mustRide(t, db, amy.ID, "X", "Y")

	_, err := ledger.Leave(ctx, ride.ID, amy.ID)
	require.Error(t, err)
	assert.Equal(t, "Ride creators cannot leave their own ride", apperrors.PublicMessage(err))

	_, err = ledger.Leave(ctx, ride.ID, ben.ID)
	require.Error(t, err)
	assert.Equal(t, "You haven't joined this ride", apperrors.PublicMessage(err))

	_, err = ledger.Join(ctx, ride.ID, ben.ID)
	require.NoError(t, err)
	got, err := ledger.Leave(ctx, ride.ID, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantCount)

	joined, err := ledger.HasJoined(ctx, ride.ID, ben.ID)
	require.NoError(t, err)
	assert.False(t, joined)
}

func TestLeaveNeverDropsBelowOne(t *testing.T) {
	db := newTestDB(t)
	ledger := NewParticipationLedger(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	ben := mustRider(t, db, "ben")
	ride := mustRide(t, db, amy.ID, "X", "Y")

	require.NoError(t, db.Create(&models.RideParticipant{RideID: ride.ID, UserID: ben.ID}).Error)

	got, err := ledger.Leave(ctx, ride.ID, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantCount)
	assert.Equal(t, 1, reloadRide(t, db, ride.ID).ParticipantCount)
}

func TestDeleteRide(t *testing.T) {
	db := newTestDB(t)
	rides := NewRideLedger(db)
	participation := NewParticipationLedger(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	ben := mustRider(t, db, "ben")
	ride := mustRide(t, db, amy.ID, "X", "Y")
	_, err := participation.Join(ctx, ride.ID, ben.ID)
	require.NoError(t, err)

	_, err = rides.Delete(ctx, ride.ID, ben.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	_, err = rides.Delete(ctx, ride.ID, amy.ID)
	require.NoError(t, err)

	_, err = rides.Get(ctx, ride.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	var n int64
	require.NoError(t, db.Model(&models.RideParticipant{}).Where("ride_id = ?", ride.ID).Count(&n).Error)
	assert.Zero(t, n)

	_, err = rides.Delete(ctx, ride.ID, amy.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestDeleteAcceptedRideFreesDriver(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	dan := mustDriver(t, db, "dan")
	ride := mustRide(t, db, amy.ID, "X", "Y")

	_, err := NewDispatchEngine(db).Accept(ctx, ride.ID, dan.ID)
	require.NoError(t, err)
	assert.False(t, reloadDriver(t, db, dan.ID).IsAvailable)

	_, err = NewRideLedger(db).Delete(ctx, ride.ID, amy.ID)
	require.NoError(t, err)
	assert.True(t, reloadDriver(t, db, dan.ID).IsAvailable)
}

func TestListForUserAndJoined(t *testing.T) {
	db := newTestDB(t)
	rides := NewRideLedger(db)
	participation := NewParticipationLedger(db)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	ben := mustRider(t, db, "ben")

	own := mustRide(t, db, ben.ID, "A", "B")
	other := mustRide(t, db, amy.ID, "X", "Y")
	mustRide(t, db, amy.ID, "P", "Q")
	_, err := participation.Join(ctx, other.ID, ben.ID)
	require.NoError(t, err)

	list, err := rides.ListForUser(ctx, ben.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, own.ID, list[0].ID)
	assert.Equal(t, other.ID, list[1].ID)

	joined, err := rides.ListJoined(ctx, ben.ID)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, other.ID, joined[0].Ride.ID)
	assert.Equal(t, "amy", joined[0].Ride.Creator.Name)
	assert.False(t, joined[0].JoinedAt.IsZero())

	none, err := rides.ListJoined(ctx, amy.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMatch(t *testing.T) {
	db := newTestDB(t)
	participation := NewParticipationLedger(db)
	engine := NewMatchingEngine(db, participation)
	ctx := context.Background()
	amy := mustRider(t, db, "amy")
	ben := mustRider(t, db, "ben")

	first := mustRide(t, db, amy.ID, "X", "Y")
	second := mustRide(t, db, amy.ID, "X", "Y")
	mustRide(t, db, amy.ID, "X", "Z")
	mustRide(t, db, ben.ID, "X", "Y")
	_, err := participation.Join(ctx, second.ID, ben.ID)
	require.NoError(t, err)

	matches, err := engine.Match(ctx, "X", "Y", ben.ID)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, first.ID, matches[0].Ride.ID)
	assert.False(t, matches[0].HasJoined)
	assert.Equal(t, second.ID, matches[1].Ride.ID)
	assert.True(t, matches[1].HasJoined)

	// Matching is exact and case sensitive.
	matches, err = engine.Match(ctx, "x", "Y", ben.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = engine.Match(ctx, "", "Y", ben.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}
