package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodshare-api/apperror"
	"foodshare-api/metrics"
	"foodshare-api/models"
	"foodshare-api/statemachine"
	"foodshare-api/store"

	"go.uber.org/zap"
)

// ClaimDetail is a claim with its donation and pickup attached.
type ClaimDetail struct {
	models.Claim
	Donation *models.Donation `json:"donation,omitempty"`
	Pickup   *models.Pickup   `json:"pickup,omitempty"`
}

type ClaimStatusInput struct {
	Status models.ClaimStatus `json:"status" binding:"required"`
}

type ClaimService struct {
	*deps
}

// Claim reserves an available donation for ngoID. The donation, the claim and
// its scheduled pickup are written in one transaction; the donation save is
// version checked so only one of several concurrent claimers succeeds.
func (s *ClaimService) Claim(ctx context.Context, donationID, ngoID string) (*ClaimDetail, error) {
	now := s.clock()
	var detail *ClaimDetail

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		d, err := findDonation(ctx, tx, donationID)
		if err != nil {
			return err
		}
		if st := d.EffectiveStatus(now); st != models.DonationAvailable {
			return apperror.Conflict(fmt.Sprintf("Donation is not available (status: %s)", st))
		}
		if err := statemachine.Donations.CanTransition(d.Status, models.DonationClaimed, statemachine.ActorNGO); err != nil {
			return transitionError(err)
		}

		d.Status = models.DonationClaimed
		d.ClaimedBy = &ngoID
		d.ClaimedAt = &now
		if err := tx.Donations().Save(ctx, d); err != nil {
			if errors.Is(err, store.ErrStale) {
				return apperror.Conflict("Donation was just claimed by another organization")
			}
			return internal("save donation", err)
		}

		claim := &models.Claim{DonationID: d.ID, NGOID: ngoID, Status: models.ClaimPending, ClaimedAt: now}
		if err := tx.Claims().Create(ctx, claim); err != nil {
			return internal("create claim", err)
		}
		pickup := &models.Pickup{ClaimID: claim.ID, DonationID: d.ID, Status: models.PickupScheduled, ScheduledAt: now}
		if err := tx.Pickups().Create(ctx, pickup); err != nil {
			return internal("create pickup", err)
		}

		msg := fmt.Sprintf("Your %s donation has been claimed", d.FoodType)
		if err := notify(ctx, tx, d.DonorID, models.NotifyDonationClaimed, msg); err != nil {
			return internal("claim", err)
		}
		detail = &ClaimDetail{Claim: *claim, Donation: d, Pickup: pickup}
		return nil
	})
	if err != nil {
		metrics.IncrementClaimAttempt(claimOutcome(err))
		return nil, err
	}

	metrics.IncrementClaimAttempt("success")
	s.logger.Info("donation claimed",
		zap.String("donation_id", donationID),
		zap.String("claim_id", detail.ID),
		zap.String("ngo_id", ngoID),
	)
	return detail, nil
}

func claimOutcome(err error) string {
	if apperror.Is(err, apperror.KindConflict) {
		return "conflict"
	}
	return "rejected"
}

// ListByNGO returns the NGO's claims, newest first.
func (s *ClaimService) ListByNGO(ctx context.Context, ngoID string) ([]ClaimDetail, error) {
	claims, err := s.store.Claims().ListByNGO(ctx, ngoID)
	if err != nil {
		return nil, internal("list claims", err)
	}
	out := make([]ClaimDetail, 0, len(claims))
	for _, c := range claims {
		detail, err := s.attach(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, *detail)
	}
	return out, nil
}

// Get is visible to the claiming NGO, the donor of the donation and admins.
func (s *ClaimService) Get(ctx context.Context, id string, caller Caller) (*ClaimDetail, error) {
	c, err := findClaim(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	detail, err := s.attach(ctx, *c)
	if err != nil {
		return nil, err
	}
	donor := detail.Donation != nil && detail.Donation.DonorID == caller.ID
	if caller.Role != models.RoleAdmin && c.NGOID != caller.ID && !donor {
		return nil, apperror.Authz("Not authorized to view this claim")
	}
	return detail, nil
}

// UpdateStatus completes or cancels a pending claim. Completion requires the
// pickup to be completed. Cancellation is refused once the food was picked
// up; otherwise the pickup is cancelled and the donation becomes available.
func (s *ClaimService) UpdateStatus(ctx context.Context, id string, in ClaimStatusInput, caller Caller) (*ClaimDetail, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if !validClaimStatus(in.Status) {
		return nil, apperror.Validation("Invalid status", statusField("pending, completed, cancelled"))
	}
	now := s.clock()
	var detail *ClaimDetail

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		claim, err := findClaim(ctx, tx, id)
		if err != nil {
			return err
		}
		if caller.Role != models.RoleAdmin && claim.NGOID != caller.ID {
			return apperror.Authz("Not authorized to update this claim")
		}
		if err := statemachine.Claims.CanTransition(claim.Status, in.Status, statemachine.ActorFor(caller.Role)); err != nil {
			return transitionError(err)
		}

		pickup, err := tx.Pickups().FindByClaim(ctx, claim.ID)
		if errors.Is(err, store.ErrNotFound) {
			pickup = nil
		} else if err != nil {
			return internal("find pickup", err)
		}
		donation, err := tx.Donations().FindByID(ctx, claim.DonationID)
		if errors.Is(err, store.ErrNotFound) {
			donation = nil
		} else if err != nil {
			return internal("find donation", err)
		}

		switch in.Status {
		case models.ClaimCompleted:
			if pickup == nil || pickup.Status != models.PickupCompleted {
				return apperror.Validation("Pickup must be completed before the claim can be completed")
			}
			claim.CompletedAt = &now
		case models.ClaimCancelled:
			if err := releaseClaim(ctx, tx, claim, pickup, donation, now); err != nil {
				return err
			}
			claim.CancelledAt = &now
		}

		claim.Status = in.Status
		if err := tx.Claims().Save(ctx, claim); err != nil {
			if errors.Is(err, store.ErrStale) {
				return apperror.Conflict("Claim was modified by another request, please retry")
			}
			return internal("save claim", err)
		}

		if donation != nil {
			msg := fmt.Sprintf("The claim on your %s donation was %s", donation.FoodType, in.Status)
			if err := notify(ctx, tx, donation.DonorID, models.NotifyClaimUpdated, msg); err != nil {
				return internal("update claim", err)
			}
			donation.Resolve(now)
		}
		if in.Status == models.ClaimCancelled && pickup != nil && pickup.VolunteerID != nil {
			msg := "A pickup you accepted was cancelled because the claim was withdrawn"
			if err := notify(ctx, tx, *pickup.VolunteerID, models.NotifyPickupUpdated, msg); err != nil {
				return internal("update claim", err)
			}
		}
		detail = &ClaimDetail{Claim: *claim, Donation: donation, Pickup: pickup}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrementClaimTransition(string(in.Status))
	s.logger.Info("claim status updated",
		zap.String("claim_id", id),
		zap.String("status", string(in.Status)),
		zap.String("actor", string(caller.Role)),
	)
	return detail, nil
}

// releaseClaim cancels the pickup and hands the donation back to the pool.
func releaseClaim(ctx context.Context, tx store.Store, claim *models.Claim, pickup *models.Pickup, donation *models.Donation, now time.Time) error {
	if pickup != nil {
		if pickup.Status == models.PickupPickedUp || pickup.Status == models.PickupCompleted {
			return apperror.Validation("Cannot cancel a claim after the food has been picked up")
		}
		if err := statemachine.Pickups.CanTransition(pickup.Status, models.PickupCancelled, statemachine.ActorSystem); err != nil {
			return transitionError(err)
		}
		pickup.Stamp(models.PickupCancelled, now)
		if err := tx.Pickups().Save(ctx, pickup); err != nil {
			if errors.Is(err, store.ErrStale) {
				return apperror.Conflict("Pickup was modified by another request, please retry")
			}
			return internal("save pickup", err)
		}
	}

	if donation == nil || donation.Status != models.DonationClaimed ||
		donation.ClaimedBy == nil || *donation.ClaimedBy != claim.NGOID {
		return nil
	}
	if err := statemachine.Donations.CanTransition(donation.Status, models.DonationAvailable, statemachine.ActorSystem); err != nil {
		return transitionError(err)
	}
	donation.Status = models.DonationAvailable
	donation.ClaimedBy = nil
	donation.ClaimedAt = nil
	if err := tx.Donations().Save(ctx, donation); err != nil {
		if errors.Is(err, store.ErrStale) {
			return apperror.Conflict("Donation was modified by another request, please retry")
		}
		return internal("save donation", err)
	}
	return nil
}

func (s *ClaimService) attach(ctx context.Context, c models.Claim) (*ClaimDetail, error) {
	detail := &ClaimDetail{Claim: c}
	d, err := s.store.Donations().FindByID(ctx, c.DonationID)
	switch {
	case err == nil:
		d.Resolve(s.clock())
		detail.Donation = d
	case !errors.Is(err, store.ErrNotFound):
		return nil, internal("find donation", err)
	}
	p, err := s.store.Pickups().FindByClaim(ctx, c.ID)
	switch {
	case err == nil:
		detail.Pickup = p
	case !errors.Is(err, store.ErrNotFound):
		return nil, internal("find pickup", err)
	}
	return detail, nil
}

func findClaim(ctx context.Context, st store.Store, id string) (*models.Claim, error) {
	c, err := st.Claims().FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Claim not found")
	}
	if err != nil {
		return nil, internal("find claim", err)
	}
	return c, nil
}

func validClaimStatus(st models.ClaimStatus) bool {
	for _, s := range models.ClaimStatuses {
		if s == st {
			return true
		}
	}
	return false
}
