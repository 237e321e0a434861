package model

import "time"

// FamilyMember is an account-less member of a family (typically a child),
// represented only as a row. Adults without accounts are flagged IsAdult.
type FamilyMember struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	Name      string    `json:"name"`
	IsAdult   bool      `json:"is_adult"`
	Color     string    `json:"color"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
