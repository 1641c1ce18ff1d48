package service

import (
	"context"

	"foodshare-api/apperror"
	"foodshare-api/models"
	"foodshare-api/store"
)

// Stats aggregates the whole marketplace. Donation buckets use the
// effective status, so the three of them always add up to TotalDonations.
type Stats struct {
	TotalDonations     int                           `json:"total_donations"`
	AvailableDonations int                           `json:"available_donations"`
	ClaimedDonations   int                           `json:"claimed_donations"`
	ExpiredDonations   int                           `json:"expired_donations"`
	TotalUsers         int64                         `json:"total_users"`
	UsersByRole        map[models.UserRole]int64     `json:"users_by_role"`
	TotalClaims        int                           `json:"total_claims"`
	ClaimsByStatus     map[models.ClaimStatus]int    `json:"claims_by_status"`
	TotalPickups       int                           `json:"total_pickups"`
	PickupsByStatus    map[models.PickupStatus]int   `json:"pickups_by_status"`
	DonationsByStatus  map[models.DonationStatus]int `json:"donations_by_status"`
}

type UserQuery struct {
	Role  models.UserRole
	Page  int
	Limit int
}

type UserPage struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type AdminService struct {
	*deps
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	now := s.clock()
	stats := &Stats{
		UsersByRole:       make(map[models.UserRole]int64, len(models.AllRoles)),
		ClaimsByStatus:    make(map[models.ClaimStatus]int, len(models.ClaimStatuses)),
		PickupsByStatus:   make(map[models.PickupStatus]int, len(models.PickupStatuses)),
		DonationsByStatus: make(map[models.DonationStatus]int, len(models.DonationStatuses)),
	}
	for _, r := range models.AllRoles {
		stats.UsersByRole[r] = 0
	}
	for _, st := range models.ClaimStatuses {
		stats.ClaimsByStatus[st] = 0
	}
	for _, st := range models.PickupStatuses {
		stats.PickupsByStatus[st] = 0
	}
	for _, st := range models.DonationStatuses {
		stats.DonationsByStatus[st] = 0
	}

	donations, err := s.store.Donations().List(ctx, store.DonationFilter{})
	if err != nil {
		return nil, internal("list donations", err)
	}
	for _, d := range donations {
		stats.DonationsByStatus[d.EffectiveStatus(now)]++
	}
	stats.TotalDonations = len(donations)
	stats.AvailableDonations = stats.DonationsByStatus[models.DonationAvailable]
	stats.ClaimedDonations = stats.DonationsByStatus[models.DonationClaimed]
	stats.ExpiredDonations = stats.DonationsByStatus[models.DonationExpired]

	byRole, err := s.store.Users().CountByRole(ctx)
	if err != nil {
		return nil, internal("count users", err)
	}
	for role, n := range byRole {
		stats.UsersByRole[role] = n
		stats.TotalUsers += n
	}

	claims, err := s.store.Claims().List(ctx)
	if err != nil {
		return nil, internal("list claims", err)
	}
	for _, c := range claims {
		stats.ClaimsByStatus[c.Status]++
	}
	stats.TotalClaims = len(claims)

	pickups, err := s.store.Pickups().List(ctx, store.PickupFilter{})
	if err != nil {
		return nil, internal("list pickups", err)
	}
	for _, p := range pickups {
		stats.PickupsByStatus[p.Status]++
	}
	stats.TotalPickups = len(pickups)
	return stats, nil
}

// Users pages through accounts, optionally for one role. Page is 1-based.
func (s *AdminService) Users(ctx context.Context, q UserQuery) (*UserPage, error) {
	if q.Role != "" && !q.Role.Valid() {
		return nil, apperror.Validation("Invalid role filter",
			apperror.FieldError{Field: "role", Message: "must be one of: donor, ngo, volunteer, admin"})
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}

	users, total, err := s.store.Users().List(ctx, store.UserFilter{
		Role:   q.Role,
		Offset: (q.Page - 1) * q.Limit,
		Limit:  q.Limit,
	})
	if err != nil {
		return nil, internal("list users", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return &UserPage{Users: users, Total: total, Page: q.Page, Limit: q.Limit}, nil
}
