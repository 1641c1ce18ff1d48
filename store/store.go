// Package store holds the repository interfaces and their gorm implementation.
package store

import (
	"context"
	"errors"
	"time"

	"foodshare-api/models"
)

var (
	// ErrNotFound is returned when no record matches the id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale is returned when a versioned save lost a race with another writer.
	ErrStale = errors.New("record was modified concurrently")
)

type UserFilter struct {
	Role   models.UserRole
	Offset int
	Limit  int
}

type DonationFilter struct {
	DonorID  string
	FoodType string
	// Status filters on the stored status; lazy expiry is applied by callers.
	Status models.DonationStatus
	// ExpiresAfter keeps donations whose expiry is strictly after this instant.
	ExpiresAfter time.Time
}

type PickupFilter struct {
	VolunteerID string
	Status      models.PickupStatus
}

type Users interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	List(ctx context.Context, f UserFilter) ([]models.User, int64, error)
	CountByRole(ctx context.Context) (map[models.UserRole]int64, error)
}

// Donations, Claims and Pickups save with an optimistic version check: Save
// bumps Version and fails with ErrStale if the stored version moved on.
type Donations interface {
	Create(ctx context.Context, d *models.Donation) error
	FindByID(ctx context.Context, id string) (*models.Donation, error)
	Save(ctx context.Context, d *models.Donation) error
	Delete(ctx context.Context, d *models.Donation) error
	List(ctx context.Context, f DonationFilter) ([]models.Donation, error)
}

type Claims interface {
	Create(ctx context.Context, c *models.Claim) error
	FindByID(ctx context.Context, id string) (*models.Claim, error)
	Save(ctx context.Context, c *models.Claim) error
	ListByNGO(ctx context.Context, ngoID string) ([]models.Claim, error)
	List(ctx context.Context) ([]models.Claim, error)
}

type Pickups interface {
	Create(ctx context.Context, p *models.Pickup) error
	FindByID(ctx context.Context, id string) (*models.Pickup, error)
	FindByClaim(ctx context.Context, claimID string) (*models.Pickup, error)
	Save(ctx context.Context, p *models.Pickup) error
	List(ctx context.Context, f PickupFilter) ([]models.Pickup, error)
}

type Notifications interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// Store groups the repositories. Atomic runs fn against a Store whose writes
// commit together or not at all.
type Store interface {
	Users() Users
	Donations() Donations
	Claims() Claims
	Pickups() Pickups
	Notifications() Notifications
	Atomic(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
