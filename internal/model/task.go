package model

import "time"

type Task struct {
	ID                    int64      `json:"id"`
	FamilyID              int64      `json:"family_id"`
	CreatedBy             int64      `json:"created_by"`
	EventID               *int64     `json:"event_id,omitempty"`
	AssignedProfileID     *int64     `json:"assigned_profile_id,omitempty"`
	AssignedMemberID      *int64     `json:"assigned_member_id,omitempty"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	DueDate               *time.Time `json:"due_date,omitempty"`
	IsPrivate             bool       `json:"is_private"`
	CreatedFromSuggestion bool       `json:"created_from_suggestion"`
	SuggestionID          *string    `json:"suggestion_id,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	ArchivedAt            *time.Time `json:"archived_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
