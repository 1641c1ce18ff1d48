package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimStatus represents an NGO's reservation state
type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "pending"
	ClaimCompleted ClaimStatus = "completed"
	ClaimCancelled ClaimStatus = "cancelled"
)

var ClaimStatuses = []ClaimStatus{ClaimPending, ClaimCompleted, ClaimCancelled}

type Claim struct {
	ID          string      `json:"id" gorm:"primaryKey;size:36"`
	DonationID  string      `json:"donation_id" gorm:"not null;index;size:36"`
	NGOID       string      `json:"ngo_id" gorm:"column:ngo_id;not null;index;size:36"`
	Status      ClaimStatus `json:"status" gorm:"not null;index;default:'pending'"`
	ClaimedAt   time.Time   `json:"claimed_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	CancelledAt *time.Time  `json:"cancelled_at,omitempty"`
	Version     int64       `json:"-" gorm:"not null;default:1"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (c *Claim) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	return nil
}
