package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodshare-api/apperror"
	"foodshare-api/metrics"
	"foodshare-api/models"
	"foodshare-api/statemachine"
	"foodshare-api/store"

	"go.uber.org/zap"
)

// PickupDetail is a pickup with its donation attached.
type PickupDetail struct {
	models.Pickup
	Donation *models.Donation `json:"donation,omitempty"`
}

type PickupStatusInput struct {
	Status models.PickupStatus `json:"status" binding:"required"`
}

type PickupService struct {
	*deps
}

// Available lists scheduled pickups nobody has accepted yet.
func (s *PickupService) Available(ctx context.Context) ([]PickupDetail, error) {
	list, err := s.store.Pickups().List(ctx, store.PickupFilter{Status: models.PickupScheduled})
	if err != nil {
		return nil, internal("list pickups", err)
	}
	return s.attach(ctx, list)
}

// Mine lists pickups the caller accepted.
func (s *PickupService) Mine(ctx context.Context, userID string) ([]PickupDetail, error) {
	list, err := s.store.Pickups().List(ctx, store.PickupFilter{VolunteerID: userID})
	if err != nil {
		return nil, internal("list pickups", err)
	}
	return s.attach(ctx, list)
}

// Accept assigns a scheduled pickup to the caller. NGOs may only accept
// pickups for their own claims. The save is version checked so a pickup is
// never accepted twice.
func (s *PickupService) Accept(ctx context.Context, id string, caller Caller) (*models.Pickup, error) {
	if !caller.Role.Can(models.CapAcceptPickup) {
		return nil, apperror.Authz("Only volunteers and NGOs can accept pickups")
	}
	now := s.clock()
	var accepted *models.Pickup

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		p, err := findPickup(ctx, tx, id)
		if err != nil {
			return err
		}
		claim, err := findClaim(ctx, tx, p.ClaimID)
		if err != nil {
			return err
		}
		if caller.Role == models.RoleNGO && claim.NGOID != caller.ID {
			return apperror.Authz("NGOs can only accept pickups for their own claims")
		}
		if p.Status != models.PickupScheduled {
			return apperror.Conflict(fmt.Sprintf("Pickup is no longer available (status: %s)", p.Status))
		}
		if err := statemachine.Pickups.CanTransition(p.Status, models.PickupAccepted, statemachine.ActorFor(caller.Role)); err != nil {
			return transitionError(err)
		}
		donation, err := findDonation(ctx, tx, p.DonationID)
		if err != nil {
			return err
		}
		if donation.EffectiveStatus(now) == models.DonationExpired {
			return apperror.Conflict("Donation has expired")
		}

		volunteer := caller.ID
		p.VolunteerID = &volunteer
		p.Stamp(models.PickupAccepted, now)
		if err := tx.Pickups().Save(ctx, p); err != nil {
			if errors.Is(err, store.ErrStale) {
				return apperror.Conflict("Pickup was just accepted by someone else")
			}
			return internal("save pickup", err)
		}

		msg := fmt.Sprintf("A %s accepted the pickup for %s", caller.Role, donation.FoodType)
		for _, recipient := range recipients(caller.ID, claim.NGOID, donation.DonorID) {
			if err := notify(ctx, tx, recipient, models.NotifyPickupAccepted, msg); err != nil {
				return internal("accept pickup", err)
			}
		}
		accepted = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrementPickupTransition(string(models.PickupAccepted))
	s.logger.Info("pickup accepted", zap.String("pickup_id", id), zap.String("user_id", caller.ID))
	return accepted, nil
}

// UpdateStatus moves an accepted pickup along accepted, picked_up, completed.
// Only the assignee or an admin may do so; picked_up stamps the donation.
func (s *PickupService) UpdateStatus(ctx context.Context, id string, in PickupStatusInput, caller Caller) (*models.Pickup, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if !validPickupStatus(in.Status) {
		names := make([]string, len(models.PickupStatuses))
		for i, st := range models.PickupStatuses {
			names[i] = string(st)
		}
		return nil, apperror.Validation("Invalid status", statusField(strings.Join(names, ", ")))
	}
	now := s.clock()
	var updated *models.Pickup

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		p, err := findPickup(ctx, tx, id)
		if err != nil {
			return err
		}
		if caller.Role != models.RoleAdmin && !p.AssignedTo(caller.ID) {
			return apperror.Authz("Only the assigned volunteer can update this pickup")
		}
		if err := statemachine.Pickups.CanTransition(p.Status, in.Status, statemachine.ActorFor(caller.Role)); err != nil {
			return transitionError(err)
		}

		donation, err := findDonation(ctx, tx, p.DonationID)
		if err != nil {
			return err
		}
		if in.Status == models.PickupPickedUp {
			if donation.EffectiveStatus(now) == models.DonationExpired {
				return apperror.Conflict("Donation expired before it was picked up")
			}
			donation.PickedUpAt = &now
			if err := tx.Donations().Save(ctx, donation); err != nil {
				if errors.Is(err, store.ErrStale) {
					return apperror.Conflict("Donation was modified by another request, please retry")
				}
				return internal("save donation", err)
			}
		}

		p.Stamp(in.Status, now)
		if err := tx.Pickups().Save(ctx, p); err != nil {
			if errors.Is(err, store.ErrStale) {
				return apperror.Conflict("Pickup was modified by another request, please retry")
			}
			return internal("save pickup", err)
		}

		claim, err := findClaim(ctx, tx, p.ClaimID)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Pickup for %s is now %s", donation.FoodType, in.Status)
		for _, recipient := range recipients(caller.ID, claim.NGOID, donation.DonorID) {
			if err := notify(ctx, tx, recipient, models.NotifyPickupUpdated, msg); err != nil {
				return internal("update pickup", err)
			}
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrementPickupTransition(string(in.Status))
	s.logger.Info("pickup status updated",
		zap.String("pickup_id", id),
		zap.String("status", string(in.Status)),
		zap.String("actor", string(caller.Role)),
	)
	return updated, nil
}

func (s *PickupService) attach(ctx context.Context, list []models.Pickup) ([]PickupDetail, error) {
	now := s.clock()
	out := make([]PickupDetail, 0, len(list))
	for _, p := range list {
		detail := PickupDetail{Pickup: p}
		d, err := s.store.Donations().FindByID(ctx, p.DonationID)
		switch {
		case err == nil:
			d.Resolve(now)
			detail.Donation = d
		case !errors.Is(err, store.ErrNotFound):
			return nil, internal("find donation", err)
		}
		out = append(out, detail)
	}
	return out, nil
}

// recipients drops the actor and duplicates from the notification targets.
func recipients(actor string, ids ...string) []string {
	seen := map[string]bool{actor: true}
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func findPickup(ctx context.Context, st store.Store, id string) (*models.Pickup, error) {
	p, err := st.Pickups().FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Pickup not found")
	}
	if err != nil {
		return nil, internal("find pickup", err)
	}
	return p, nil
}

func validPickupStatus(st models.PickupStatus) bool {
	for _, s := range models.PickupStatuses {
		if s == st {
			return true
		}
	}
	return false
}
