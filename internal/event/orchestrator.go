// Package event implements the event-creation workflow and the shared
// mutation guard for updates and archival.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/dukerupert/homehq/internal/apperr"
	"github.com/dukerupert/homehq/internal/family"
	"github.com/dukerupert/homehq/internal/model"
	"github.com/dukerupert/homehq/internal/suggestion"
)

// DefaultSuggestTimeout bounds the suggestion fetch during creation.
// Suggestion-engine trouble must never block event creation.
const DefaultSuggestTimeout = 5 * time.Second

// EventStore is the slice of the persistence collaborator the workflow needs.
type EventStore interface {
	Create(familyID, createdBy int64, title, description string, startTime, endTime time.Time, isPrivate bool) (*model.Event, error)
	GetAnyByID(familyID, id int64) (*model.Event, error)
	GetWithParticipants(familyID, id int64) (*model.Event, []model.EventParticipant, error)
	Update(familyID, id, createdBy int64, title, description string, startTime, endTime time.Time, isPrivate bool) (int64, error)
	Archive(familyID, id, createdBy int64) (int64, error)
	Delete(familyID, id int64) error
	ReplaceParticipants(eventID int64, profileIDs, memberIDs []int64) error
}

type TaskStore interface {
	CreateFromSuggestion(familyID, createdBy, eventID int64, suggestionID, title, description string, dueDate time.Time, isPrivate bool) (*model.Task, error)
	DeleteByEvent(eventID int64) error
	DetachFromEvent(eventID int64) error
}

type Resolver interface {
	ResolveStrict(familyID int64, accountIDs, memberIDs []int64) ([]family.Participant, error)
}

// Draft is the validated input to event creation.
type Draft struct {
	Title                 string
	Description           string
	StartTime             time.Time
	EndTime               time.Time
	IsPrivate             bool
	ParticipantAccountIDs []int64
	ParticipantMemberIDs  []int64
	AcceptedSuggestionIDs []string
}

// CreateResult is everything the caller gets back: the persisted event with
// its participants (freshly re-read), the full suggestion list with accepted
// flags filled in, and the tasks created from accepted suggestions.
type CreateResult struct {
	Event        *model.Event             `json:"event"`
	Participants []model.EventParticipant `json:"participants"`
	Suggestions  []suggestion.Suggestion  `json:"suggestions"`
	CreatedTasks []model.Task             `json:"created_tasks"`
}

// Orchestrator runs the event-creation workflow. From the caller's point of
// view creation is all or nothing: if any step after the event insert fails,
// the event row is hard-deleted and the cascade cleans up partial children.
type Orchestrator struct {
	events         EventStore
	tasks          TaskStore
	resolver       Resolver
	engine         suggestion.Engine
	catalog        *suggestion.Catalog
	logger         *slog.Logger
	suggestTimeout time.Duration
}

func NewOrchestrator(events EventStore, tasks TaskStore, resolver Resolver, engine suggestion.Engine, catalog *suggestion.Catalog, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		events:         events,
		tasks:          tasks,
		resolver:       resolver,
		engine:         engine,
		catalog:        catalog,
		logger:         logger,
		suggestTimeout: DefaultSuggestTimeout,
	}
}

// SetSuggestTimeout overrides the suggestion fetch budget.
func (o *Orchestrator) SetSuggestTimeout(d time.Duration) {
	if d > 0 {
		o.suggestTimeout = d
	}
}

// Create runs the sequenced workflow: fetch suggestions (degrading to none
// on failure), persist the event, attach participants, create tasks for
// accepted suggestions, then re-read the event for the response.
func (o *Orchestrator) Create(ctx context.Context, familyID, creatorID int64, requesterRole string, draft Draft) (*CreateResult, error) {
	if err := validateDraft(o.catalog, draft); err != nil {
		return nil, err
	}

	suggestions := o.fetchSuggestions(ctx, familyID, requesterRole, draft)

	ev, err := o.events.Create(familyID, creatorID, strings.TrimSpace(draft.Title), draft.Description,
		draft.StartTime, draft.EndTime, draft.IsPrivate)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeEventCreationFailed, "persist event", err)
	}

	if _, err := o.resolver.ResolveStrict(familyID, draft.ParticipantAccountIDs, draft.ParticipantMemberIDs); err != nil {
		return nil, o.rollback(familyID, ev.ID, err)
	}
	if err := o.events.ReplaceParticipants(ev.ID, draft.ParticipantAccountIDs, draft.ParticipantMemberIDs); err != nil {
		return nil, o.rollback(familyID, ev.ID,
			apperr.Wrap(apperr.CodeParticipantInsertFailed, "attach participants", err))
	}

	accepted := make(map[string]bool, len(draft.AcceptedSuggestionIDs))
	for _, id := range draft.AcceptedSuggestionIDs {
		accepted[id] = true
	}

	var createdTasks []model.Task
	for i := range suggestions {
		s := &suggestions[i]
		if !accepted[s.SuggestionID] {
			continue
		}
		s.Accepted = true
		task, err := o.tasks.CreateFromSuggestion(familyID, creatorID, ev.ID,
			s.SuggestionID, s.Title, s.Description, s.DueDate, draft.IsPrivate)
		if err != nil {
			return nil, o.rollback(familyID, ev.ID,
				apperr.Wrap(apperr.CodeTaskCreationFailed, "create task from suggestion", err))
		}
		createdTasks = append(createdTasks, *task)
	}

	// Fresh read: participants were attached after the insert, so the
	// response must not reuse the step-2 row.
	persisted, participants, err := o.events.GetWithParticipants(familyID, ev.ID)
	if err != nil {
		return nil, o.rollback(familyID, ev.ID, apperr.Wrap(apperr.CodeDatabase, "reload event", err))
	}
	if persisted == nil {
		return nil, apperr.New(apperr.CodeDatabase, "event vanished during creation")
	}

	return &CreateResult{
		Event:        persisted,
		Participants: participants,
		Suggestions:  suggestions,
		CreatedTasks: createdTasks,
	}, nil
}

// fetchSuggestions asks the engine with a bounded budget. Any failure is
// logged and swallowed; creation proceeds with no suggestions.
func (o *Orchestrator) fetchSuggestions(ctx context.Context, familyID int64, requesterRole string, draft Draft) []suggestion.Suggestion {
	ctx, cancel := context.WithTimeout(ctx, o.suggestTimeout)
	defer cancel()

	suggestions, err := o.engine.Suggest(ctx, familyID, suggestion.Request{
		Title:                 draft.Title,
		StartTime:             draft.StartTime,
		ParticipantAccountIDs: draft.ParticipantAccountIDs,
		ParticipantMemberIDs:  draft.ParticipantMemberIDs,
		RequesterRole:         requesterRole,
	})
	if err != nil {
		o.logger.Warn("suggestion engine unavailable, continuing without suggestions",
			"family_id", familyID, "error", err)
		return nil
	}
	return suggestions
}

// rollback hard-deletes the just-created event and any tasks already
// created for it, then returns the original cause. Participants cascade
// away with the event row; tasks are deleted explicitly because their
// event link is SET NULL on delete (that rule belongs to archival, where
// tasks must outlive the event). A failed rollback is appended to the
// cause rather than replacing it, so callers still see the original code.
func (o *Orchestrator) rollback(familyID, eventID int64, cause error) error {
	var undoErr error
	if err := o.tasks.DeleteByEvent(eventID); err != nil {
		undoErr = multierr.Append(undoErr, err)
	}
	if err := o.events.Delete(familyID, eventID); err != nil {
		undoErr = multierr.Append(undoErr, err)
	}
	if undoErr != nil {
		o.logger.Error("event rollback failed, rows may be orphaned",
			"event_id", eventID, "error", undoErr)
		return multierr.Append(cause, fmt.Errorf("rollback event %d: %w", eventID, undoErr))
	}
	o.logger.Warn("event creation rolled back", "event_id", eventID, "cause", cause)
	return cause
}

func validateDraft(catalog *suggestion.Catalog, draft Draft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return apperr.New(apperr.CodeValidation, "title is required")
	}
	if !draft.EndTime.After(draft.StartTime) {
		return apperr.New(apperr.CodeInvalidTimeRange, "end time must be after start time")
	}
	if draft.IsPrivate && (len(draft.ParticipantAccountIDs) > 0 || len(draft.ParticipantMemberIDs) > 0) {
		return apperr.New(apperr.CodeInvalidPrivateEvent, "a private event cannot have participants")
	}
	for _, id := range draft.AcceptedSuggestionIDs {
		if !catalog.Contains(id) {
			return apperr.New(apperr.CodeValidation, "unknown suggestion id").
				WithDetails(map[string]any{"suggestion_id": id})
		}
	}
	return nil
}
