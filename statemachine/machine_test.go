package statemachine

import (
	"errors"
	"testing"

	"foodshare-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickups_LinearPath(t *testing.T) {
	require.NoError(t, Pickups.CanTransition(models.PickupScheduled, models.PickupAccepted, ActorVolunteer))
	require.NoError(t, Pickups.CanTransition(models.PickupAccepted, models.PickupPickedUp, ActorVolunteer))
	require.NoError(t, Pickups.CanTransition(models.PickupPickedUp, models.PickupCompleted, ActorVolunteer))
}

func TestPickups_RejectsSkippedStep(t *testing.T) {
	err := Pickups.CanTransition(models.PickupScheduled, models.PickupCompleted, ActorVolunteer)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "accepted")
}

func TestPickups_RejectsWrongActor(t *testing.T) {
	err := Pickups.CanTransition(models.PickupScheduled, models.PickupCancelled, ActorVolunteer)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrActorNotAllowed))
}

func TestClaims_TerminalStates(t *testing.T) {
	assert.True(t, Claims.Terminal(models.ClaimCompleted))
	assert.True(t, Claims.Terminal(models.ClaimCancelled))
	assert.False(t, Claims.Terminal(models.ClaimPending))

	err := Claims.CanTransition(models.ClaimCompleted, models.ClaimPending, ActorAdmin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none (terminal state)")
}

func TestValidTransitionsFrom_Dedupes(t *testing.T) {
	nexts := Claims.ValidTransitionsFrom(models.ClaimPending)
	assert.ElementsMatch(t, []models.ClaimStatus{models.ClaimCompleted, models.ClaimCancelled}, nexts)
}

func TestTransitions_ReturnsCopy(t *testing.T) {
	all := Donations.Transitions()
	require.NotEmpty(t, all)
	all[0].To = models.DonationExpired
	assert.Equal(t, models.DonationClaimed, Donations.Transitions()[0].To)
}
