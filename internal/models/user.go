package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles
const (
	RoleAdmin      Role = "admin"
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
)

type Role string

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleBrand, RoleInfluencer:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Role         Role      `json:"role"`
	Name         string    `json:"name"`
	Email        *string   `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Actor is the explicit caller context passed into every service call.
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}
