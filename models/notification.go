package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType groups user-facing events.
type NotificationType string

const (
	NotifyDonationClaimed NotificationType = "donation_claimed"
	NotifyClaimUpdated    NotificationType = "claim_updated"
	NotifyPickupAccepted  NotificationType = "pickup_accepted"
	NotifyPickupUpdated   NotificationType = "pickup_updated"
)

// Notification is an append-only message for one recipient
type Notification struct {
	ID        string           `json:"id" gorm:"primaryKey;size:36"`
	UserID    string           `json:"user_id" gorm:"not null;index;size:36"`
	Type      NotificationType `json:"type" gorm:"not null"`
	Message   string           `json:"message" gorm:"not null"`
	Read      bool             `json:"read" gorm:"not null;default:false"`
	CreatedAt time.Time        `json:"created_at" gorm:"index"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
