package event

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/homehq/internal/apperr"
	"github.com/dukerupert/homehq/internal/model"
)

func (f *fixture) guard() *Guard {
	return NewGuard(f.events, f.tasks, f.resolver, f.logger)
}

func (f *fixture) createEvent(t *testing.T, creatorID int64, draft Draft) *model.Event {
	t.Helper()
	result, err := f.orchestrator().Create(context.Background(), f.familyID, creatorID, model.RoleAdmin, draft)
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return result.Event
}

func strPtr(s string) *string        { return &s }
func boolPtr(b bool) *bool           { return &b }
func timePtr(t time.Time) *time.Time { return &t }

func TestUpdateTitleOnly(t *testing.T) {
	f := newFixture(t)
	g := f.guard()
	ev := f.createEvent(t, f.adminID, validDraft())

	updated, _, err := g.Update(f.familyID, ev.ID, f.adminID, Update{Title: strPtr("Urodziny Ani i Oli")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Title != "Urodziny Ani i Oli" {
		t.Errorf("title = %q", updated.Title)
	}
	if !updated.StartTime.Equal(ev.StartTime) || !updated.EndTime.Equal(ev.EndTime) {
		t.Error("untouched time range should survive a title-only update")
	}
}

func TestUpdateBlankTitleRejected(t *testing.T) {
	f := newFixture(t)
	g := f.guard()
	ev := f.createEvent(t, f.adminID, validDraft())

	_, _, err := g.Update(f.familyID, ev.ID, f.adminID, Update{Title: strPtr("  ")})
	if got := apperr.CodeOf(err); got != apperr.CodeValidation {
		t.Errorf("code = %s, want %s", got, apperr.CodeValidation)
	}
}

// A partial update of one endpoint is validated against the stored value of
// the other, so changing only the end cannot invert the range.
func TestUpdatePartialTimeRange(t *testing.T) {
	f := newFixture(t)
	g := f.guard()
	ev := f.createEvent(t, f.adminID, validDraft()) // 18:00 - 20:00

	before := ev.StartTime.Add(-9 * time.Hour)
	_, _, err := g.Update(f.familyID, ev.ID, f.adminID, Update{EndTime: timePtr(before)})
	if got := apperr.CodeOf(err); got != apperr.CodeInvalidTimeRange {
		t.Errorf("end-only update: code = %s, want %s", got, apperr.CodeInvalidTimeRange)
	}

	after := ev.EndTime.Add(time.Hour)
	_, _, err = g.Update(f.familyID, ev.ID, f.adminID, Update{StartTime: timePtr(after)})
	if got := apperr.CodeOf(err); got != apperr.CodeInvalidTimeRange {
		t.Errorf("start-only update: code = %s, want %s", got, apperr.CodeInvalidTimeRange)
	}

	// Moving both endpoints together is fine.
	newStart := ev.StartTime.Add(24 * time.Hour)
	newEnd := ev.EndTime.Add(24 * time.Hour)
	updated, _, err := g.Update(f.familyID, ev.ID, f.adminID, Update{
		StartTime: timePtr(newStart),
		EndTime:   timePtr(newEnd),
	})
	if err != nil {
		t.Fatalf("shifting the whole range failed: %v", err)
	}
	if !updated.StartTime.Equal(newStart) || !updated.EndTime.Equal(newEnd) {
		t.Errorf("range = [%v, %v], want [%v, %v]", updated.StartTime, updated.EndTime, newStart, newEnd)
	}
}

func TestUpdateByNonCreatorForbidden(t *testing.T) {
	f := newFixture(t)
	g := f.guard()
	ev := f.createEvent(t, f.adminID, validDraft())

	_, _, err := g.Update(f.familyID, ev.ID, f.secondID, Update{Title: strPtr("Hijacked")})
	if got := apperr.CodeOf(err); got != apperr.CodeForbidden {
		t.Errorf("code = %s, want %s", got, apperr.CodeForbidden)
	}
}

func TestUpdateMissingNotFound(t *testing.T) {
	f := newFixture(t)
	g := f.guard()

	_, _, err := g.Update(f.familyID, 4242, f.adminID, Update{Title: strPtr("Ghost")})
	if got := apperr.CodeOf(err); got != apperr.CodeNotFound {
		t.Errorf("code = %s, want %s", got, apperr.CodeNotFound)
	}
}

func TestUpdateArchivedNotFound(t *testing.T) {
	f := newFixture(t)
	g := f.guard()
	ev := f.createEvent(t, f.adminID, validDraft())

	if err := g.Archive(f.familyID, ev.ID, f.adminID); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	// An archived event looks exactly like a missing one, even to its creator.
	_, _, err := g.Update(f.familyID, ev.ID, f.adminID, Update{Title: strPtr("Back from the dead")})
	if got := apperr.CodeOf(err); got != apperr.CodeNotFound {
		t.Errorf("code = %s, want %s", got, apperr.CodeNotFound)
	}
}

func TestUpdateMakePrivateWithParticipantsRejected(t *testing.T) {
	f := newFixture(t)
	g := f.guard()
	ev := f.createEvent(t, f.adminID, validDraft())

	_, _, err := g.Update(f.familyID, ev.ID, f.adminID, Update{
		IsPrivate:            boolPtr(true),
		ParticipantMemberIDs: []int64{f.childID},
	})
	if got := apperr.CodeOf(err); got != apperr.CodeInvalidPrivateEvent {
		t.Errorf("code = %s, want %s", got, apperr.CodeInvalidPrivateEvent)
	}
}

func TestUpdateParticipantReplacement(t *testing.T) {
	f := newFixture(t)
	g := f.guard()

	draft := validDraft()
	draft.ParticipantAccountIDs = []int64{f.secondID}
	ev := f.createEvent(t, f.adminID, draft)

	// Nil slices leave the participant set alone.
	_, participants, err := g.Update(f.familyID, ev.ID, f.adminID, Update{Title: strPtr("Still a party")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("nil slices should not touch participants, got %d", len(participants))
	}

	// Supplying a set replaces it wholesale.
	_, participants, err = g.Update(f.familyID, ev.ID, f.adminID, Update{
		ParticipantMemberIDs: []int64{f.childID},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("expected 1 participant after replacement, got %d", len(participants))
	}
	if participants[0].MemberID == nil || *participants[0].MemberID != f.childID {
		t.Errorf("participant = %+v, want member %d", participants[0], f.childID)
	}

	// A non-nil empty set removes everyone.
	_, participants, err = g.Update(f.familyID, ev.ID, f.adminID, Update{
		ParticipantAccountIDs: []int64{},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(participants) != 0 {
		t.Errorf("expected empty participant set, got %d", len(participants))
	}
}

func TestUpdateCrossFamilyParticipantForbidden(t *testing.T) {
	f := newFixture(t)
	g := f.guard()
	ev := f.createEvent(t, f.adminID, validDraft())

	_, _, err := g.Update(f.familyID, ev.ID, f.adminID, Update{
		ParticipantAccountIDs: []int64{99999},
	})
	if got := apperr.CodeOf(err); got != apperr.CodeForbidden {
		t.Errorf("code = %s, want %s", got, apperr.CodeForbidden)
	}
}

// An update mixing field changes with a bad participant id must be rejected
// wholesale; the field changes must not stick.
func TestUpdateRejectedParticipantLeavesFieldsUntouched(t *testing.T) {
	f := newFixture(t)
	g := f.guard()
	ev := f.createEvent(t, f.adminID, validDraft())

	_, _, err := g.Update(f.familyID, ev.ID, f.adminID, Update{
		Title:                strPtr("Hijacked"),
		ParticipantMemberIDs: []int64{99999},
	})
	if got := apperr.CodeOf(err); got != apperr.CodeForbidden {
		t.Fatalf("code = %s, want %s", got, apperr.CodeForbidden)
	}

	current, err := f.events.GetByID(f.familyID, ev.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if current.Title != ev.Title {
		t.Errorf("title = %q, want %q", current.Title, ev.Title)
	}
}

func TestArchiveDetachesTasks(t *testing.T) {
	f := newFixture(t)
	g := f.guard()

	draft := validDraft()
	draft.AcceptedSuggestionIDs = []string{"birthday_gift"}
	result, err := f.orchestrator().Create(context.Background(), f.familyID, f.adminID, model.RoleAdmin, draft)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(result.CreatedTasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(result.CreatedTasks))
	}
	taskID := result.CreatedTasks[0].ID

	if err := g.Archive(f.familyID, result.Event.ID, f.adminID); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	archived, err := f.events.GetByID(f.familyID, result.Event.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if archived != nil {
		t.Error("archived event should be invisible to the active-only read")
	}

	task, err := f.tasks.GetByID(f.familyID, taskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task == nil {
		t.Fatal("task must survive event archival")
	}
	if task.EventID != nil {
		t.Errorf("task should be detached, event_id = %d", *task.EventID)
	}
}

func TestArchiveByNonCreatorForbidden(t *testing.T) {
	f := newFixture(t)
	g := f.guard()
	ev := f.createEvent(t, f.adminID, validDraft())

	err := g.Archive(f.familyID, ev.ID, f.secondID)
	if got := apperr.CodeOf(err); got != apperr.CodeForbidden {
		t.Errorf("code = %s, want %s", got, apperr.CodeForbidden)
	}
}

func TestArchiveTwiceNotFound(t *testing.T) {
	f := newFixture(t)
	g := f.guard()
	ev := f.createEvent(t, f.adminID, validDraft())

	if err := g.Archive(f.familyID, ev.ID, f.adminID); err != nil {
		t.Fatalf("first archive failed: %v", err)
	}
	err := g.Archive(f.familyID, ev.ID, f.adminID)
	if got := apperr.CodeOf(err); got != apperr.CodeNotFound {
		t.Errorf("code = %s, want %s", got, apperr.CodeNotFound)
	}
}

func TestArchiveMissingNotFound(t *testing.T) {
	f := newFixture(t)
	g := f.guard()

	err := g.Archive(f.familyID, 4242, f.adminID)
	if got := apperr.CodeOf(err); got != apperr.CodeNotFound {
		t.Errorf("code = %s, want %s", got, apperr.CodeNotFound)
	}
}
