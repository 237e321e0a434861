package model

import "time"

type Event struct {
	ID          int64      `json:"id"`
	FamilyID    int64      `json:"family_id"`
	CreatedBy   int64      `json:"created_by"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	IsPrivate   bool       `json:"is_private"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EventParticipant references either an account-holder (ProfileID) or an
// account-less family member (MemberID), never both.
type EventParticipant struct {
	ID        int64  `json:"id"`
	EventID   int64  `json:"event_id"`
	ProfileID *int64 `json:"profile_id,omitempty"`
	MemberID  *int64 `json:"member_id,omitempty"`
}
