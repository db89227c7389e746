package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleHousehold Role = "household"
	RoleMaid      Role = "maid"
	RoleDriver    Role = "driver"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHousehold, RoleMaid, RoleDriver:
		return true
	}
	return false
}

// User is a household member who can log in.
// Capability flags are layered on top of the role, see Capabilities.
type User struct {
	ID              uint64         `gorm:"primaryKey" json:"id"`
	Username        string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	FullName        string         `gorm:"size:100;not null" json:"full_name"`
	PasswordHash    string         `gorm:"not null" json:"-"`
	Role            Role           `gorm:"size:20;not null;index" json:"role"`
	CanApprove      bool           `gorm:"default:false" json:"can_approve"`
	CanAddShortages bool           `gorm:"default:false" json:"can_add_shortages"`
	CanApproveTrips bool           `gorm:"default:false" json:"can_approve_trips"`
	FCMToken        string         `gorm:"size:255" json:"-"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// Capabilities returns the explicit permission set of the user.
func (u *User) Capabilities() CapabilitySet {
	if u == nil {
		return CapabilitySet{}
	}
	if u.Role == RoleAdmin {
		return AllCapabilities()
	}
	set := CapabilitySet{}
	if u.Role == RoleDriver {
		set.Add(CapDrive)
	}
	if u.CanApprove {
		set.Add(CapApproveOrders)
	}
	if u.CanApproveTrips {
		set.Add(CapApproveTrips)
	}
	if u.CanAddShortages {
		set.Add(CapAddShortages)
	}
	return set
}

// Can is shorthand for u.Capabilities().Has(c).
func (u *User) Can(c Capability) bool {
	return u.Capabilities().Has(c)
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Public returns the fields safe to send to the frontend.
func (u *User) Public() UserSummary {
	return UserSummary{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		Role:         u.Role,
		Capabilities: u.Capabilities().List(),
	}
}

type UserSummary struct {
	ID           uint64       `json:"id"`
	Username     string       `json:"username"`
	FullName     string       `json:"full_name"`
	Role         Role         `json:"role"`
	Capabilities []Capability `json:"capabilities"`
}

type CreateUserInput struct {
	Username        string `json:"username" binding:"required,min=3,max=50"`
	FullName        string `json:"full_name" binding:"required"`
	Password        string `json:"password" binding:"required,min=6"`
	Role            Role   `json:"role" binding:"required,oneof=admin household maid driver"`
	CanApprove      bool   `json:"can_approve"`
	CanAddShortages bool   `json:"can_add_shortages"`
	CanApproveTrips bool   `json:"can_approve_trips"`
}

// UpdateUserInput uses pointers so a PATCH only touches what was sent.
type UpdateUserInput struct {
	FullName        *string `json:"full_name"`
	Password        *string `json:"password" binding:"omitempty,min=6"`
	Role            *Role   `json:"role" binding:"omitempty,oneof=admin household maid driver"`
	CanApprove      *bool   `json:"can_approve"`
	CanAddShortages *bool   `json:"can_add_shortages"`
	CanApproveTrips *bool   `json:"can_approve_trips"`
	IsActive        *bool   `json:"is_active"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	FCMToken string `json:"fcm_token"`
}
