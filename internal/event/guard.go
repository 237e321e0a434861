package event

import (
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/homehq/internal/apperr"
	"github.com/dukerupert/homehq/internal/model"
)

// Update carries the fields an update supplies. Nil pointer fields are left
// untouched. A nil participant slice leaves the participant set alone; a
// non-nil empty slice removes everyone (full replacement, not a merge).
type Update struct {
	Title                 *string
	Description           *string
	StartTime             *time.Time
	EndTime               *time.Time
	IsPrivate             *bool
	ParticipantAccountIDs []int64
	ParticipantMemberIDs  []int64
}

// Guard enforces the shared mutation rules for update and archive before
// anything reaches the store. The store's creator-scoped writes enforce
// ownership a second time at the row level.
type Guard struct {
	events   EventStore
	tasks    TaskStore
	resolver Resolver
	logger   *slog.Logger
}

func NewGuard(events EventStore, tasks TaskStore, resolver Resolver, logger *slog.Logger) *Guard {
	return &Guard{events: events, tasks: tasks, resolver: resolver, logger: logger}
}

// Update applies the supplied fields to the event. Partial time-range
// updates are validated against the stored value of the untouched side, so
// a legal-looking change of one endpoint cannot invert the range.
func (g *Guard) Update(familyID, eventID, requesterID int64, upd Update) (*model.Event, []model.EventParticipant, error) {
	participantsSupplied := upd.ParticipantAccountIDs != nil || upd.ParticipantMemberIDs != nil
	participantCount := len(upd.ParticipantAccountIDs) + len(upd.ParticipantMemberIDs)

	if upd.IsPrivate != nil && *upd.IsPrivate && participantCount > 0 {
		return nil, nil, apperr.New(apperr.CodeInvalidPrivateEvent, "a private event cannot have participants")
	}

	current, err := g.events.GetAnyByID(familyID, eventID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeDatabase, "load event", err)
	}
	// Archived events are indistinguishable from nonexistent ones to callers.
	if current == nil || current.ArchivedAt != nil {
		return nil, nil, apperr.New(apperr.CodeNotFound, "event not found")
	}

	merged := *current
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, nil, apperr.New(apperr.CodeValidation, "title is required")
		}
		merged.Title = title
	}
	if upd.Description != nil {
		merged.Description = *upd.Description
	}
	if upd.StartTime != nil {
		merged.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		merged.EndTime = *upd.EndTime
	}
	if upd.IsPrivate != nil {
		merged.IsPrivate = *upd.IsPrivate
	}

	if !merged.EndTime.After(merged.StartTime) {
		return nil, nil, apperr.New(apperr.CodeInvalidTimeRange, "end time must be after start time")
	}
	if merged.IsPrivate && participantCount > 0 {
		return nil, nil, apperr.New(apperr.CodeInvalidPrivateEvent, "a private event cannot have participants")
	}

	// Resolve before any write: a bad participant id must reject the whole
	// update, not just the participant half of it.
	if participantsSupplied {
		if _, err := g.resolver.ResolveStrict(familyID, upd.ParticipantAccountIDs, upd.ParticipantMemberIDs); err != nil {
			return nil, nil, err
		}
	}

	rows, err := g.events.Update(familyID, eventID, requesterID,
		merged.Title, merged.Description, merged.StartTime, merged.EndTime, merged.IsPrivate)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeDatabase, "update event", err)
	}
	if rows == 0 {
		return nil, nil, g.disambiguate(familyID, eventID)
	}

	if participantsSupplied {
		if err := g.events.ReplaceParticipants(eventID, upd.ParticipantAccountIDs, upd.ParticipantMemberIDs); err != nil {
			return nil, nil, apperr.Wrap(apperr.CodeParticipantInsertFailed, "replace participants", err)
		}
	}

	updated, participants, err := g.events.GetWithParticipants(familyID, eventID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeDatabase, "reload event", err)
	}
	if updated == nil {
		return nil, nil, apperr.New(apperr.CodeNotFound, "event not found")
	}
	return updated, participants, nil
}

// Archive soft-deletes the event and decouples its tasks: their event link
// is cleared, the tasks themselves survive.
func (g *Guard) Archive(familyID, eventID, requesterID int64) error {
	rows, err := g.events.Archive(familyID, eventID, requesterID)
	if err != nil {
		return apperr.Wrap(apperr.CodeDatabase, "archive event", err)
	}
	if rows == 0 {
		return g.disambiguate(familyID, eventID)
	}

	if err := g.tasks.DetachFromEvent(eventID); err != nil {
		return apperr.Wrap(apperr.CodeDatabase, "detach event tasks", err)
	}
	return nil
}

// disambiguate runs after every zero-row write. A follow-up read separates
// the three causes: the row never existed, it is archived (both NOT_FOUND),
// or it exists and is active, meaning the requester is not its creator
// (FORBIDDEN).
func (g *Guard) disambiguate(familyID, eventID int64) error {
	current, err := g.events.GetAnyByID(familyID, eventID)
	if err != nil {
		return apperr.Wrap(apperr.CodeDatabase, "inspect event after zero-row write", err)
	}
	if current == nil || current.ArchivedAt != nil {
		return apperr.New(apperr.CodeNotFound, "event not found")
	}
	return apperr.New(apperr.CodeForbidden, "only the creator may modify this event")
}
