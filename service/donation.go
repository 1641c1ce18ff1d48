package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"foodshare-api/apperror"
	"foodshare-api/metrics"
	"foodshare-api/models"
	"foodshare-api/store"

	"go.uber.org/zap"
)

type LocationInput struct {
	Latitude  float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"gte=-180,lte=180"`
	Address   string  `json:"address" binding:"required"`
}

func (l LocationInput) model() models.Location {
	return models.Location{Latitude: l.Latitude, Longitude: l.Longitude, Address: strings.TrimSpace(l.Address)}
}

type DonationInput struct {
	FoodType    string        `json:"food_type" binding:"required"`
	Quantity    float64       `json:"quantity" binding:"gt=0"`
	Unit        string        `json:"unit" binding:"required"`
	ExpiryTime  time.Time     `json:"expiry_time" binding:"required"`
	Location    LocationInput `json:"location"`
	Description string        `json:"description" binding:"max=1000"`
}

// DonationUpdate changes only the fields that are set.
type DonationUpdate struct {
	FoodType    *string        `json:"food_type" binding:"omitempty,min=1"`
	Quantity    *float64       `json:"quantity" binding:"omitempty,gt=0"`
	Unit        *string        `json:"unit" binding:"omitempty,min=1"`
	ExpiryTime  *time.Time     `json:"expiry_time"`
	Location    *LocationInput `json:"location"`
	Description *string        `json:"description" binding:"omitempty,max=1000"`
}

type DonationQuery struct {
	Status   models.DonationStatus
	FoodType string
	DonorID  string
}

type DonationService struct {
	*deps
}

func expiryField() apperror.FieldError {
	return apperror.FieldError{Field: "expiry_time", Message: "must be in the future"}
}

// Create posts a new available donation for donorID.
func (s *DonationService) Create(ctx context.Context, donorID string, in DonationInput) (*models.Donation, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	now := s.clock()
	if !in.ExpiryTime.After(now) {
		return nil, apperror.Validation("Expiry time must be in the future", expiryField())
	}

	d := &models.Donation{
		DonorID:     donorID,
		FoodType:    strings.TrimSpace(in.FoodType),
		Quantity:    in.Quantity,
		Unit:        strings.TrimSpace(in.Unit),
		ExpiryTime:  in.ExpiryTime.UTC(),
		Location:    in.Location.model(),
		Description: strings.TrimSpace(in.Description),
		Status:      models.DonationAvailable,
	}
	if err := s.store.Donations().Create(ctx, d); err != nil {
		return nil, internal("create donation", err)
	}
	metrics.IncrementDonationsCreated()
	s.logger.Info("donation created",
		zap.String("donation_id", d.ID),
		zap.String("donor_id", donorID),
		zap.Time("expiry_time", d.ExpiryTime),
	)
	return d, nil
}

// Available lists claimable donations, soonest expiry first.
func (s *DonationService) Available(ctx context.Context) ([]models.Donation, error) {
	now := s.clock()
	list, err := s.store.Donations().List(ctx, store.DonationFilter{
		Status:       models.DonationAvailable,
		ExpiresAfter: now,
	})
	if err != nil {
		return nil, internal("list available donations", err)
	}
	out := make([]models.Donation, 0, len(list))
	for _, d := range list {
		if d.IsClaimable(now) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiryTime.Before(out[j].ExpiryTime) })
	return out, nil
}

func (s *DonationService) Get(ctx context.Context, id string) (*models.Donation, error) {
	d, err := findDonation(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	d.Resolve(s.clock())
	return d, nil
}

// List filters on effective status, so "expired" includes listings whose
// stored status is still available or claimed.
func (s *DonationService) List(ctx context.Context, q DonationQuery) ([]models.Donation, error) {
	if q.Status != "" && !validDonationStatus(q.Status) {
		return nil, apperror.Validation("Invalid status filter", statusField("available, claimed, expired"))
	}
	list, err := s.store.Donations().List(ctx, store.DonationFilter{DonorID: q.DonorID, FoodType: q.FoodType})
	if err != nil {
		return nil, internal("list donations", err)
	}
	now := s.clock()
	out := make([]models.Donation, 0, len(list))
	for _, d := range list {
		d.Resolve(now)
		if q.Status == "" || d.Status == q.Status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *DonationService) ListByDonor(ctx context.Context, donorID string) ([]models.Donation, error) {
	return s.List(ctx, DonationQuery{DonorID: donorID})
}

// Update edits an owned donation that is not currently claimed.
func (s *DonationService) Update(ctx context.Context, id, donorID string, in DonationUpdate) (*models.Donation, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	d, err := s.owned(ctx, id, donorID, "update")
	if err != nil {
		return nil, err
	}
	now := s.clock()

	if in.FoodType != nil {
		d.FoodType = strings.TrimSpace(*in.FoodType)
	}
	if in.Quantity != nil {
		d.Quantity = *in.Quantity
	}
	if in.Unit != nil {
		d.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.ExpiryTime != nil {
		if !in.ExpiryTime.After(now) {
			return nil, apperror.Validation("Expiry time must be in the future", expiryField())
		}
		d.ExpiryTime = in.ExpiryTime.UTC()
	}
	if in.Location != nil {
		d.Location = in.Location.model()
	}
	if in.Description != nil {
		d.Description = strings.TrimSpace(*in.Description)
	}

	if err := s.store.Donations().Save(ctx, d); err != nil {
		if errors.Is(err, store.ErrStale) {
			return nil, apperror.Conflict("Donation was modified by another request, please retry")
		}
		return nil, internal("save donation", err)
	}
	d.Resolve(now)
	return d, nil
}

// Delete removes an owned donation that is not currently claimed.
func (s *DonationService) Delete(ctx context.Context, id, donorID string) error {
	d, err := s.owned(ctx, id, donorID, "delete")
	if err != nil {
		return err
	}
	if err := s.store.Donations().Delete(ctx, d); err != nil {
		if errors.Is(err, store.ErrStale) {
			return apperror.Conflict("Donation was modified by another request, please retry")
		}
		return internal("delete donation", err)
	}
	s.logger.Info("donation deleted", zap.String("donation_id", id), zap.String("donor_id", donorID))
	return nil
}

func (s *DonationService) owned(ctx context.Context, id, donorID, verb string) (*models.Donation, error) {
	d, err := findDonation(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if d.DonorID != donorID {
		return nil, apperror.Authz("Not authorized to " + verb + " this donation")
	}
	if d.Status == models.DonationClaimed {
		return nil, apperror.Conflict("Cannot " + verb + " a donation that has been claimed")
	}
	return d, nil
}

func findDonation(ctx context.Context, st store.Store, id string) (*models.Donation, error) {
	d, err := st.Donations().FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Donation not found")
	}
	if err != nil {
		return nil, internal("find donation", err)
	}
	return d, nil
}

func validDonationStatus(st models.DonationStatus) bool {
	for _, s := range models.DonationStatuses {
		if s == st {
			return true
		}
	}
	return false
}
