package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PickupStatus tracks the physical collection of a claimed donation
type PickupStatus string

const (
	PickupScheduled PickupStatus = "scheduled"
	PickupAccepted  PickupStatus = "accepted"
	PickupPickedUp  PickupStatus = "picked_up"
	PickupCompleted PickupStatus = "completed"
	PickupCancelled PickupStatus = "cancelled"
)

var PickupStatuses = []PickupStatus{PickupScheduled, PickupAccepted, PickupPickedUp, PickupCompleted, PickupCancelled}

type Pickup struct {
	ID          string       `json:"id" gorm:"primaryKey;size:36"`
	ClaimID     string       `json:"claim_id" gorm:"not null;uniqueIndex;size:36"`
	DonationID  string       `json:"donation_id" gorm:"not null;index;size:36"`
	VolunteerID *string      `json:"volunteer_id,omitempty" gorm:"index;size:36"`
	Status      PickupStatus `json:"status" gorm:"not null;index;default:'scheduled'"`
	ScheduledAt time.Time    `json:"scheduled_at"`
	AcceptedAt  *time.Time   `json:"accepted_at,omitempty"`
	PickedUpAt  *time.Time   `json:"picked_up_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CancelledAt *time.Time   `json:"cancelled_at,omitempty"`
	Version     int64        `json:"-" gorm:"not null;default:1"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (p *Pickup) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}

// Stamp records the transition time for status on the pickup.
func (p *Pickup) Stamp(status PickupStatus, at time.Time) {
	p.Status = status
	switch status {
	case PickupScheduled:
		p.ScheduledAt = at
	case PickupAccepted:
		p.AcceptedAt = &at
	case PickupPickedUp:
		p.PickedUpAt = &at
	case PickupCompleted:
		p.CompletedAt = &at
	case PickupCancelled:
		p.CancelledAt = &at
	}
}

// AssignedTo reports whether userID accepted this pickup.
func (p *Pickup) AssignedTo(userID string) bool {
	return p.VolunteerID != nil && *p.VolunteerID == userID
}
