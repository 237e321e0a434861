package model

import "time"

// Profile is a family member with login credentials.
type Profile struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"` // "admin" or "member"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)
