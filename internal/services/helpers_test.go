package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/chachabrian/rideshare-backend/internal/database"
	"github.com/chachabrian/rideshare-backend/internal/events"
	"github.com/chachabrian/rideshare-backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a migrated sqlite store. A single connection serializes
// transactions the way row locks do on postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "rides.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

func mustRider(t *testing.T, db *gorm.DB, name string) *models.Rider {
	t.Helper()
	r, err := NewAccountStore(db).RegisterRider(context.Background(), RiderRegistration{
		Name: name, Email: name + "@example.com", Password: "secret",
	})
	require.NoError(t, err)
	return r
}

func mustDriver(t *testing.T, db *gorm.DB, name string) *models.Driver {
	t.Helper()
	d, err := NewAccountStore(db).RegisterDriver(context.Background(), DriverRegistration{
		Name:          name,
		Email:         name + "@example.com",
		Password:      "secret",
		LicenseNumber: "LIC-" + name,
		VehicleType:   "sedan",
		VehicleNumber: "KAA-" + name,
	})
	require.NoError(t, err)
	return d
}

func mustRide(t *testing.T, db *gorm.DB, creatorID uint, pickup, destination string) *models.RideRequest {
	t.Helper()
	fare := 10.0
	ride, err := NewRideLedger(db).Create(context.Background(), creatorID, NewRide{
		Pickup: pickup, Destination: destination, Fare: &fare,
	})
	require.NoError(t, err)
	return ride
}

func reloadRide(t *testing.T, db *gorm.DB, id uint) models.RideRequest {
	t.Helper()
	var ride models.RideRequest
	require.NoError(t, db.First(&ride, id).Error)
	return ride
}

func reloadDriver(t *testing.T, db *gorm.DB, id uint) models.Driver {
	t.Helper()
	var d models.Driver
	require.NoError(t, db.First(&d, id).Error)
	return d
}

func riderID(r *models.Rider) models.Identity {
	return models.Identity{Kind: models.IdentityRider, ID: r.ID, Email: r.Email}
}

func driverID(d *models.Driver) models.Identity {
	return models.Identity{Kind: models.IdentityDriver, ID: d.ID, Email: d.Email}
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// stubTokens encodes identities as "kind:email".
type stubTokens struct{}

func (stubTokens) GenerateToken(id models.Identity) (string, error) {
	return fmt.Sprintf("%s:%s", id.Kind, id.Email), nil
}

func (stubTokens) ValidateToken(token string) (models.Identity, error) {
	for _, kind := range []models.IdentityKind{models.IdentityRider, models.IdentityDriver} {
		prefix := string(kind) + ":"
		if len(token) > len(prefix) && token[:len(prefix)] == prefix {
			return models.Identity{Kind: kind, Email: token[len(prefix):]}, nil
		}
	}
	return models.Identity{}, fmt.Errorf("bad token %q", token)
}

func newTestCoordinator(t *testing.T) (*Coordinator, *gorm.DB, *recorder) {
	t.Helper()
	db := newTestDB(t)
	rec := &recorder{}
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewCoordinator(db, stubTokens{}, rec, log), db, rec
}
