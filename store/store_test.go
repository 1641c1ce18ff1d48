package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"foodshare-api/models"
	"foodshare-api/store"
	"foodshare-api/store/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) store.Store {
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

// forEachStore runs the same contract against the gorm and in-memory stores.
func forEachStore(t *testing.T, fn func(t *testing.T, s store.Store)) {
	t.Run("gorm", func(t *testing.T) { fn(t, openSQLite(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, memstore.New()) })
}

func newDonation(donorID string, expiry time.Time) *models.Donation {
	return &models.Donation{
		DonorID:    donorID,
		FoodType:   "Cooked rice",
		Quantity:   12,
		Unit:       "kg",
		ExpiryTime: expiry.UTC(),
		Location:   models.Location{Latitude: 12.97, Longitude: 77.59, Address: "MG Road"},
		Status:     models.DonationAvailable,
	}
}

func TestUsers(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		donor := &models.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "x", Role: models.RoleDonor}
		require.NoError(t, s.Users().Create(ctx, donor))
		require.NotEmpty(t, donor.ID)

		dup := &models.User{Name: "Other", Email: "asha@example.com", PasswordHash: "x", Role: models.RoleNGO}
		assert.ErrorIs(t, s.Users().Create(ctx, dup), store.ErrDuplicate)

		ngo := &models.User{Name: "Food Bank", Email: "bank@example.com", PasswordHash: "x", Role: models.RoleNGO}
		require.NoError(t, s.Users().Create(ctx, ngo))

		found, err := s.Users().FindByEmail(ctx, "bank@example.com")
		require.NoError(t, err)
		assert.Equal(t, ngo.ID, found.ID)

		_, err = s.Users().FindByID(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)

		donor.Phone = "555-0100"
		require.NoError(t, s.Users().Update(ctx, donor))
		reloaded, err := s.Users().FindByID(ctx, donor.ID)
		require.NoError(t, err)
		assert.Equal(t, "555-0100", reloaded.Phone)

		counts, err := s.Users().CountByRole(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[models.RoleDonor])
		assert.Equal(t, int64(1), counts[models.RoleNGO])

		list, total, err := s.Users().List(ctx, store.UserFilter{Role: models.RoleNGO})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, list, 1)
		assert.Equal(t, ngo.ID, list[0].ID)

		paged, total, err := s.Users().List(ctx, store.UserFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, paged, 1)
	})
}

func TestDonations_VersionedSave(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		d := newDonation("donor-1", time.Now().Add(time.Hour))
		require.NoError(t, s.Donations().Create(ctx, d))
		assert.Equal(t, int64(1), d.Version)

		first, err := s.Donations().FindByID(ctx, d.ID)
		require.NoError(t, err)
		second, err := s.Donations().FindByID(ctx, d.ID)
		require.NoError(t, err)

		first.Description = "fresh"
		require.NoError(t, s.Donations().Save(ctx, first))
		assert.Equal(t, int64(2), first.Version)

		second.Description = "stale"
		assert.ErrorIs(t, s.Donations().Save(ctx, second), store.ErrStale)
		assert.Equal(t, int64(1), second.Version)

		reloaded, err := s.Donations().FindByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, "fresh", reloaded.Description)
		assert.Equal(t, "MG Road", reloaded.Location.Address)

		assert.ErrorIs(t, s.Donations().Delete(ctx, second), store.ErrStale)
		require.NoError(t, s.Donations().Delete(ctx, reloaded))
		_, err = s.Donations().FindByID(ctx, d.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestDonations_ConcurrentSaveHasOneWinner(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		d := newDonation("donor-1", time.Now().Add(time.Hour))
		require.NoError(t, s.Donations().Create(ctx, d))

		const writers = 8
		copies := make([]*models.Donation, writers)
		for i := range copies {
			c, err := s.Donations().FindByID(ctx, d.ID)
			require.NoError(t, err)
			copies[i] = c
		}

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(c *models.Donation, ngo string) {
				defer wg.Done()
				c.Status = models.DonationClaimed
				c.ClaimedBy = &ngo
				err := s.Donations().Save(ctx, c)
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, store.ErrStale)
			}(copies[i], fmt.Sprintf("ngo-%d", i))
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}

func TestDonations_ListFilters(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		now := time.Now().UTC()
		live := newDonation("donor-1", now.Add(time.Hour))
		stale := newDonation("donor-1", now.Add(-time.Hour))
		other := newDonation("donor-2", now.Add(2*time.Hour))
		other.FoodType = "Bread"
		for _, d := range []*models.Donation{live, stale, other} {
			require.NoError(t, s.Donations().Create(ctx, d))
		}

		fresh, err := s.Donations().List(ctx, store.DonationFilter{Status: models.DonationAvailable, ExpiresAfter: now})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{live.ID, other.ID}, ids(fresh))

		mine, err := s.Donations().List(ctx, store.DonationFilter{DonorID: "donor-1"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{live.ID, stale.ID}, ids(mine))

		bread, err := s.Donations().List(ctx, store.DonationFilter{FoodType: "bre"})
		require.NoError(t, err)
		assert.Equal(t, []string{other.ID}, ids(bread))
	})
}

func ids(list []models.Donation) []string {
	out := make([]string, len(list))
	for i, d := range list {
		out[i] = d.ID
	}
	return out
}

func TestClaimsAndPickups(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		now := time.Now().UTC()
		claim := &models.Claim{DonationID: "d1", NGOID: "ngo-1", Status: models.ClaimPending, ClaimedAt: now}
		require.NoError(t, s.Claims().Create(ctx, claim))

		pickup := &models.Pickup{ClaimID: claim.ID, DonationID: "d1", Status: models.PickupScheduled, ScheduledAt: now}
		require.NoError(t, s.Pickups().Create(ctx, pickup))
		again := &models.Pickup{ClaimID: claim.ID, DonationID: "d1", Status: models.PickupScheduled, ScheduledAt: now}
		assert.ErrorIs(t, s.Pickups().Create(ctx, again), store.ErrDuplicate)

		byClaim, err := s.Pickups().FindByClaim(ctx, claim.ID)
		require.NoError(t, err)
		assert.Equal(t, pickup.ID, byClaim.ID)

		volunteer := "vol-1"
		byClaim.VolunteerID = &volunteer
		byClaim.Stamp(models.PickupAccepted, now)
		require.NoError(t, s.Pickups().Save(ctx, byClaim))

		scheduled, err := s.Pickups().List(ctx, store.PickupFilter{Status: models.PickupScheduled})
		require.NoError(t, err)
		assert.Empty(t, scheduled)
		mine, err := s.Pickups().List(ctx, store.PickupFilter{VolunteerID: volunteer})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, models.PickupAccepted, mine[0].Status)

		claim.Status = models.ClaimCancelled
		require.NoError(t, s.Claims().Save(ctx, claim))
		list, err := s.Claims().ListByNGO(ctx, "ngo-1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.ClaimCancelled, list[0].Status)
	})
}

func TestNotifications(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			n := &models.Notification{UserID: "u1", Type: models.NotifyClaimUpdated, Message: fmt.Sprintf("m%d", i)}
			require.NoError(t, s.Notifications().Create(ctx, n))
		}
		require.NoError(t, s.Notifications().Create(ctx, &models.Notification{UserID: "u2", Type: models.NotifyClaimUpdated, Message: "x"}))

		list, err := s.Notifications().ListByUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, list, 3)

		require.NoError(t, s.Notifications().MarkRead(ctx, list[0].ID))
		assert.ErrorIs(t, s.Notifications().MarkRead(ctx, "missing"), store.ErrNotFound)

		changed, err := s.Notifications().MarkAllRead(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), changed)

		other, err := s.Notifications().ListByUser(ctx, "u2")
		require.NoError(t, err)
		require.Len(t, other, 1)
		assert.False(t, other[0].Read)
	})
}

func TestAtomic_RollsBack(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		boom := errors.New("boom")
		var created string

		err := s.Atomic(ctx, func(tx store.Store) error {
			d := newDonation("donor-1", time.Now().Add(time.Hour))
			if err := tx.Donations().Create(ctx, d); err != nil {
				return err
			}
			created = d.ID
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.Donations().FindByID(ctx, created)
		assert.ErrorIs(t, err, store.ErrNotFound)
		require.NoError(t, s.Ping(ctx))
	})
}

func TestMemstore_RollbackKeepsOutsideWrites(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	boom := errors.New("boom")
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.Atomic(ctx, func(tx store.Store) error {
			temp := &models.User{Name: "Temp", Email: "temp@example.com", PasswordHash: "x", Role: models.RoleDonor}
			if err := tx.Users().Create(ctx, temp); err != nil {
				return err
			}
			close(entered)
			<-release
			return boom
		})
	}()

	<-entered
	outside := &models.User{Name: "Kept", Email: "kept@example.com", PasswordHash: "x", Role: models.RoleNGO}
	require.NoError(t, s.Users().Create(ctx, outside))
	close(release)
	require.ErrorIs(t, <-done, boom)

	kept, err := s.Users().FindByID(ctx, outside.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kept", kept.Name)
	_, err = s.Users().FindByEmail(ctx, "temp@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemstore_NestedAtomicJoinsOuter(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	boom := errors.New("boom")
	var id string

	err := s.Atomic(ctx, func(tx store.Store) error {
		return tx.Atomic(ctx, func(inner store.Store) error {
			d := newDonation("donor-1", time.Now().Add(time.Hour))
			if err := inner.Donations().Create(ctx, d); err != nil {
				return err
			}
			id = d.ID
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	_, err = s.Donations().FindByID(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
