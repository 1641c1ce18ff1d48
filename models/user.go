package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleDonor     UserRole = "donor"
	RoleNGO       UserRole = "ngo"
	RoleVolunteer UserRole = "volunteer"
	RoleAdmin     UserRole = "admin"
)

// AllRoles lists every role in display order.
var AllRoles = []UserRole{RoleDonor, RoleNGO, RoleVolunteer, RoleAdmin}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleDonor, RoleNGO, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// Capability is a single action a role may perform.
type Capability string

const (
	CapPostDonation    Capability = "donation:post"
	CapClaimDonation   Capability = "donation:claim"
	CapAcceptPickup    Capability = "pickup:accept"
	CapOverrideClaim   Capability = "claim:override"
	CapOverridePickup  Capability = "pickup:override"
	CapViewStatistics  Capability = "admin:stats"
	CapListAllAccounts Capability = "admin:users"
)

var roleCapabilities = map[UserRole][]Capability{
	RoleDonor:     {CapPostDonation},
	RoleNGO:       {CapClaimDonation, CapAcceptPickup},
	RoleVolunteer: {CapAcceptPickup},
	RoleAdmin:     {CapOverrideClaim, CapOverridePickup, CapViewStatistics, CapListAllAccounts},
}

// Can reports whether the role grants the capability.
func (r UserRole) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null;index"`
	Phone        string    `json:"phone"`
	Organization string    `json:"organization,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
