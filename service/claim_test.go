package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"foodshare-api/apperror"
	"foodshare-api/models"
	"foodshare-api/service"
	"foodshare-api/store"
	"foodshare-api/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaims_ConcurrentClaimHasOneWinner(t *testing.T) {
	stores := map[string]func(t *testing.T) store.Store{
		"memory": func(t *testing.T) store.Store { return memstore.New() },
		"gorm":   openGorm,
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			f := newFixtureWith(t, open(t))
			ctx := context.Background()
			donor := f.register(t, models.RoleDonor, "asha")
			d := f.donate(t, donor, "Rice", time.Hour)

			const claimers = 6
			ngos := make([]*models.User, claimers)
			for i := range ngos {
				ngos[i] = f.register(t, models.RoleNGO, fmt.Sprintf("ngo%d", i))
			}

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				winners   []string
				conflicts int
			)
			start := make(chan struct{})
			for _, ngo := range ngos {
				wg.Add(1)
				go func(ngoID string) {
					defer wg.Done()
					<-start
					_, err := f.svc.Claims.Claim(ctx, d.ID, ngoID)
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						winners = append(winners, ngoID)
						return
					}
					if apperror.Is(err, apperror.KindConflict) {
						conflicts++
					}
				}(ngo.ID)
			}
			close(start)
			wg.Wait()

			require.Len(t, winners, 1)
			assert.Equal(t, claimers-1, conflicts)

			stored, err := f.svc.Donations.Get(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, models.DonationClaimed, stored.Status)
			require.NotNil(t, stored.ClaimedBy)
			assert.Equal(t, winners[0], *stored.ClaimedBy)

			claims, err := f.store.Claims().List(ctx)
			require.NoError(t, err)
			assert.Len(t, claims, 1)
		})
	}
}

func TestClaims_CompleteRequiresCompletedPickup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donor := f.register(t, models.RoleDonor, "asha")
	ngo := f.register(t, models.RoleNGO, "bank")
	vol := f.register(t, models.RoleVolunteer, "ravi")
	d := f.donate(t, donor, "Rice", time.Hour)

	claim, err := f.svc.Claims.Claim(ctx, d.ID, ngo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPending, claim.Status)
	require.NotNil(t, claim.Pickup)
	assert.Equal(t, models.PickupScheduled, claim.Pickup.Status)

	complete := service.ClaimStatusInput{Status: models.ClaimCompleted}
	_, err = f.svc.Claims.UpdateStatus(ctx, claim.ID, complete, caller(ngo))
	assertKind(t, err, apperror.KindValidation)

	_, err = f.svc.Pickups.Accept(ctx, claim.Pickup.ID, caller(vol))
	require.NoError(t, err)
	for _, st := range []models.PickupStatus{models.PickupPickedUp, models.PickupCompleted} {
		_, err = f.svc.Pickups.UpdateStatus(ctx, claim.Pickup.ID, service.PickupStatusInput{Status: st}, caller(vol))
		require.NoError(t, err)
	}

	done, err := f.svc.Claims.UpdateStatus(ctx, claim.ID, complete, caller(ngo))
	require.NoError(t, err)
	assert.Equal(t, models.ClaimCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	_, err = f.svc.Claims.UpdateStatus(ctx, claim.ID, service.ClaimStatusInput{Status: models.ClaimCancelled}, caller(ngo))
	assertKind(t, err, apperror.KindValidation)
	assert.Contains(t, err.Error(), "terminal")

	mine, err := f.svc.Claims.ListByNGO(ctx, ngo.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.PickupCompleted, mine[0].Pickup.Status)
	assert.Equal(t, d.ID, mine[0].Donation.ID)
}

func TestClaims_CancelReleasesDonation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donor := f.register(t, models.RoleDonor, "asha")
	ngo := f.register(t, models.RoleNGO, "bank")
	rival := f.register(t, models.RoleNGO, "pantry")
	vol := f.register(t, models.RoleVolunteer, "ravi")
	d := f.donate(t, donor, "Rice", time.Hour)

	claim, err := f.svc.Claims.Claim(ctx, d.ID, ngo.ID)
	require.NoError(t, err)
	_, err = f.svc.Pickups.Accept(ctx, claim.Pickup.ID, caller(vol))
	require.NoError(t, err)

	cancel := service.ClaimStatusInput{Status: models.ClaimCancelled}
	_, err = f.svc.Claims.UpdateStatus(ctx, claim.ID, cancel, caller(rival))
	assertKind(t, err, apperror.KindAuthz)
	_, err = f.svc.Claims.UpdateStatus(ctx, claim.ID, cancel, caller(vol))
	assertKind(t, err, apperror.KindAuthz)
	_, err = f.svc.Claims.UpdateStatus(ctx, claim.ID, service.ClaimStatusInput{Status: "approved"}, caller(ngo))
	assertKind(t, err, apperror.KindValidation)
	_, err = f.svc.Claims.UpdateStatus(ctx, "missing", cancel, caller(ngo))
	assertKind(t, err, apperror.KindNotFound)

	cancelled, err := f.svc.Claims.UpdateStatus(ctx, claim.ID, cancel, caller(ngo))
	require.NoError(t, err)
	assert.Equal(t, models.ClaimCancelled, cancelled.Status)
	assert.Equal(t, models.PickupCancelled, cancelled.Pickup.Status)
	assert.Equal(t, models.DonationAvailable, cancelled.Donation.Status)
	assert.Nil(t, cancelled.Donation.ClaimedBy)

	volNotes, err := f.svc.Notifications.List(ctx, vol.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, volNotes.UnreadCount)

	again, err := f.svc.Claims.Claim(ctx, d.ID, rival.ID)
	require.NoError(t, err)
	assert.Equal(t, rival.ID, *again.Donation.ClaimedBy)
}

func TestClaims_CancelAfterPickupRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donor := f.register(t, models.RoleDonor, "asha")
	ngo := f.register(t, models.RoleNGO, "bank")
	vol := f.register(t, models.RoleVolunteer, "ravi")
	d := f.donate(t, donor, "Rice", time.Hour)

	claim, err := f.svc.Claims.Claim(ctx, d.ID, ngo.ID)
	require.NoError(t, err)
	_, err = f.svc.Pickups.Accept(ctx, claim.Pickup.ID, caller(vol))
	require.NoError(t, err)
	_, err = f.svc.Pickups.UpdateStatus(ctx, claim.Pickup.ID, service.PickupStatusInput{Status: models.PickupPickedUp}, caller(vol))
	require.NoError(t, err)

	admin := f.admin(t)
	_, err = f.svc.Claims.UpdateStatus(ctx, claim.ID, service.ClaimStatusInput{Status: models.ClaimCancelled}, caller(admin))
	assertKind(t, err, apperror.KindValidation)

	stored, err := f.svc.Claims.Get(ctx, claim.ID, caller(donor))
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPending, stored.Status)
	assert.Equal(t, models.PickupPickedUp, stored.Pickup.Status)

	outsider := f.register(t, models.RoleDonor, "bilal")
	_, err = f.svc.Claims.Get(ctx, claim.ID, caller(outsider))
	assertKind(t, err, apperror.KindAuthz)
}
