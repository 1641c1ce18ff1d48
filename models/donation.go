package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DonationStatus is the lifecycle state of a food listing
type DonationStatus string

const (
	DonationAvailable DonationStatus = "available"
	DonationClaimed   DonationStatus = "claimed"
	DonationExpired   DonationStatus = "expired"
)

// DonationStatuses lists every donation status.
var DonationStatuses = []DonationStatus{DonationAvailable, DonationClaimed, DonationExpired}

// Location is where the food can be collected.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

type Donation struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	DonorID     string         `json:"donor_id" gorm:"not null;index;size:36"`
	FoodType    string         `json:"food_type" gorm:"not null"`
	Quantity    float64        `json:"quantity" gorm:"not null"`
	Unit        string         `json:"unit" gorm:"not null"`
	ExpiryTime  time.Time      `json:"expiry_time" gorm:"not null;index"`
	Location    Location       `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	Description string         `json:"description"`
	Status      DonationStatus `json:"status" gorm:"not null;index;default:'available'"`
	ClaimedBy   *string        `json:"claimed_by,omitempty" gorm:"size:36"`
	ClaimedAt   *time.Time     `json:"claimed_at,omitempty"`
	PickedUpAt  *time.Time     `json:"picked_up_at,omitempty"`
	Version     int64          `json:"-" gorm:"not null;default:1"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Version == 0 {
		d.Version = 1
	}
	return nil
}

// EffectiveStatus applies lazy expiry: an available or claimed listing whose
// expiry has passed reads as expired, unless the food was already collected.
func (d *Donation) EffectiveStatus(now time.Time) DonationStatus {
	if d.Status == DonationExpired {
		return DonationExpired
	}
	if d.PickedUpAt == nil && !d.ExpiryTime.After(now) {
		return DonationExpired
	}
	return d.Status
}

// Resolve overwrites Status with the effective status at now.
func (d *Donation) Resolve(now time.Time) {
	d.Status = d.EffectiveStatus(now)
}

// IsClaimable reports whether a new claim may be placed at now.
func (d *Donation) IsClaimable(now time.Time) bool {
	return d.EffectiveStatus(now) == DonationAvailable
}
