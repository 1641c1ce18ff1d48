package statemachine

import "foodshare-api/models"

// Donations is the listing lifecycle. Expiry edges belong to the system because
// they are applied lazily when a donation is read.
var Donations = New("donation", []Transition[models.DonationStatus]{
	{From: models.DonationAvailable, To: models.DonationClaimed, Actor: ActorNGO},
	{From: models.DonationClaimed, To: models.DonationAvailable, Actor: ActorSystem},
	{From: models.DonationAvailable, To: models.DonationExpired, Actor: ActorSystem},
	{From: models.DonationClaimed, To: models.DonationExpired, Actor: ActorSystem},
})

// Claims: the claiming NGO confirms receipt or gives the donation back.
var Claims = New("claim", []Transition[models.ClaimStatus]{
	{From: models.ClaimPending, To: models.ClaimCompleted, Actor: ActorNGO},
	{From: models.ClaimPending, To: models.ClaimCompleted, Actor: ActorAdmin},
	{From: models.ClaimPending, To: models.ClaimCancelled, Actor: ActorNGO},
	{From: models.ClaimPending, To: models.ClaimCancelled, Actor: ActorAdmin},
})

// Pickups move linearly; cancellation only follows a cancelled claim.
var Pickups = New("pickup", []Transition[models.PickupStatus]{
	{From: models.PickupScheduled, To: models.PickupAccepted, Actor: ActorVolunteer},
	{From: models.PickupScheduled, To: models.PickupAccepted, Actor: ActorNGO},
	{From: models.PickupAccepted, To: models.PickupPickedUp, Actor: ActorVolunteer},
	{From: models.PickupAccepted, To: models.PickupPickedUp, Actor: ActorNGO},
	{From: models.PickupAccepted, To: models.PickupPickedUp, Actor: ActorAdmin},
	{From: models.PickupPickedUp, To: models.PickupCompleted, Actor: ActorVolunteer},
	{From: models.PickupPickedUp, To: models.PickupCompleted, Actor: ActorNGO},
	{From: models.PickupPickedUp, To: models.PickupCompleted, Actor: ActorAdmin},
	{From: models.PickupScheduled, To: models.PickupCancelled, Actor: ActorSystem},
	{From: models.PickupAccepted, To: models.PickupCancelled, Actor: ActorSystem},
})

// ActorFor maps a user role onto a transition actor.
func ActorFor(role models.UserRole) Actor {
	return Actor(role)
}
