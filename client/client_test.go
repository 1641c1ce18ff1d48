package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodshare-api/apperror"
	"foodshare-api/auth"
	"foodshare-api/client"
	"foodshare-api/config"
	"foodshare-api/models"
	"foodshare-api/routes"
	"foodshare-api/service"
	"foodshare-api/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T) *client.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.JWT.Secret = "test-secret"
	svc := service.New(memstore.New(), auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL), zap.NewNop())
	r, err := routes.NewRouter(cfg, svc, zap.NewNop())
	require.NoError(t, err)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return client.New(client.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func register(t *testing.T, c *client.Client, role models.UserRole, name string) *client.Session {
	t.Helper()
	s, err := c.Register(context.Background(), service.RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	assert.Equal(t, role, s.Role)
	assert.Equal(t, name, s.Name)
	return s
}

func TestClaimAndPickupFlow(t *testing.T) {
	ctx := context.Background()
	c := newServer(t)
	donor := register(t, c, models.RoleDonor, "cafe")
	ngo := register(t, c, models.RoleNGO, "kitchen")
	rival := register(t, c, models.RoleNGO, "pantry")
	rider := register(t, c, models.RoleVolunteer, "rider")

	donation, err := c.CreateDonation(ctx, donor, service.DonationInput{
		FoodType:   "Sandwiches",
		Quantity:   40,
		Unit:       "pieces",
		ExpiryTime: time.Now().Add(2 * time.Hour),
		Location:   service.LocationInput{Latitude: 51.5, Longitude: -0.12, Address: "1 High Street"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.DonationAvailable, donation.Status)
	assert.Equal(t, donor.UserID, donation.DonorID)

	claim, err := c.Claim(ctx, ngo, donation.ID)
	require.NoError(t, err)
	require.NotNil(t, claim.Pickup)
	assert.Equal(t, models.ClaimPending, claim.Status)

	_, err = c.Claim(ctx, rival, donation.ID)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	available, err := c.AvailableDonations(ctx, rival)
	require.NoError(t, err)
	assert.Empty(t, available)

	pickups, err := c.AvailablePickups(ctx, rider)
	require.NoError(t, err)
	require.Len(t, pickups, 1)
	require.NotNil(t, pickups[0].Donation)
	assert.Equal(t, "Sandwiches", pickups[0].Donation.FoodType)

	p, err := c.AcceptPickup(ctx, rider, claim.Pickup.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PickupAccepted, p.Status)

	for _, st := range []models.PickupStatus{models.PickupPickedUp, models.PickupCompleted} {
		p, err = c.UpdatePickupStatus(ctx, rider, claim.Pickup.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, p.Status)
	}

	done, err := c.UpdateClaimStatus(ctx, ngo, claim.ID, models.ClaimCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimCompleted, done.Status)

	inbox, err := c.Notifications(ctx, ngo)
	require.NoError(t, err)
	assert.NotEmpty(t, inbox.Notifications)

	n, err := c.MarkAllRead(ctx, ngo)
	require.NoError(t, err)
	assert.Equal(t, int64(len(inbox.Notifications)), n)
}

func TestAPIErrorListsFields(t *testing.T) {
	c := newServer(t)
	_, err := c.Register(context.Background(), service.RegisterInput{
		Name:     "bad",
		Email:    "bad",
		Password: "secret123",
		Role:     models.RoleDonor,
	})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "email: must be a valid email address", apiErr.Error())
}

func TestAPIError_Message(t *testing.T) {
	assert.Equal(t, "Not authorized, no token", (&client.APIError{Status: 401, Message: "Not authorized, no token"}).Error())
	assert.Equal(t, "a: is required, b: is invalid", (&client.APIError{
		Status: 400,
		Fields: []apperror.FieldError{{Field: "a", Message: "is required"}, {Field: "b", Message: "is invalid"}},
	}).Error())
	assert.Equal(t, "API request failed: Bad Gateway", (&client.APIError{Status: 502}).Error())
}

func TestSessionIsRequired(t *testing.T) {
	c := newServer(t)
	_, err := c.Me(context.Background(), nil)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	s := register(t, c, models.RoleDonor, "grocer")
	me, err := c.Me(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "grocer@example.com", me.Email)
}
