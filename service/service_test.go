package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"foodshare-api/apperror"
	"foodshare-api/auth"
	"foodshare-api/models"
	"foodshare-api/service"
	"foodshare-api/store"
	"foodshare-api/store/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc   *service.Services
	store store.Store
	clock *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, memstore.New())
}

func newFixtureWith(t *testing.T, st store.Store) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Now().UTC().Truncate(time.Second)}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return &fixture{
		svc:   service.New(st, tokens, zap.NewNop(), service.WithClock(clock.Now)),
		store: st,
		clock: clock,
	}
}

func openGorm(t *testing.T) store.Store {
	t.Helper()
	db, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return store.NewGormStore(db)
}

func (f *fixture) register(t *testing.T, role models.UserRole, name string) *models.User {
	t.Helper()
	sess, err := f.svc.Auth.Register(context.Background(), service.RegisterInput{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return sess.User
}

func (f *fixture) admin(t *testing.T) *models.User {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Auth.SeedAdmin(ctx, "admin@example.com", "admin-secret", "Admin")
	require.NoError(t, err)
	u, err := f.store.Users().FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	return u
}

func (f *fixture) donate(t *testing.T, donor *models.User, food string, expiresIn time.Duration) *models.Donation {
	t.Helper()
	d, err := f.svc.Donations.Create(context.Background(), donor.ID, service.DonationInput{
		FoodType:   food,
		Quantity:   5,
		Unit:       "kg",
		ExpiryTime: f.clock.Now().Add(expiresIn),
		Location:   service.LocationInput{Latitude: 12.9, Longitude: 77.6, Address: "12 Market St"},
	})
	require.NoError(t, err)
	return d
}

func caller(u *models.User) service.Caller {
	return service.Caller{ID: u.ID, Role: u.Role}
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), err.Error())
}
