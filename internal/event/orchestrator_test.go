package event

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/homehq/internal/apperr"
	"github.com/dukerupert/homehq/internal/database"
	"github.com/dukerupert/homehq/internal/family"
	"github.com/dukerupert/homehq/internal/model"
	"github.com/dukerupert/homehq/internal/store"
	"github.com/dukerupert/homehq/internal/suggestion"
)

type fixture struct {
	db       *sql.DB
	events   *store.EventStore
	tasks    *store.TaskStore
	members  *store.FamilyMemberStore
	resolver *family.Resolver
	catalog  *suggestion.Catalog
	engine   suggestion.Engine
	logger   *slog.Logger

	familyID int64
	adminID  int64
	secondID int64
	childID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	families := store.NewFamilyStore(db)
	profiles := store.NewProfileStore(db)
	members := store.NewFamilyMemberStore(db)

	fam, err := families.Create("Kowalski")
	if err != nil {
		t.Fatalf("failed to create family: %v", err)
	}
	admin, err := profiles.Create(fam.ID, "mama@example.com", "Mama", "hash", model.RoleAdmin)
	if err != nil {
		t.Fatalf("failed to create admin profile: %v", err)
	}
	second, err := profiles.Create(fam.ID, "tata@example.com", "Tata", "hash", model.RoleMember)
	if err != nil {
		t.Fatalf("failed to create second profile: %v", err)
	}
	child, err := members.Create(fam.ID, "Ania", false, "#f59e0b")
	if err != nil {
		t.Fatalf("failed to create family member: %v", err)
	}

	resolver := family.NewResolver(profiles, members)
	catalog := suggestion.DefaultCatalog()

	return &fixture{
		db:       db,
		events:   store.NewEventStore(db),
		tasks:    store.NewTaskStore(db),
		members:  members,
		resolver: resolver,
		catalog:  catalog,
		engine:   suggestion.NewService(catalog, resolver, members),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		familyID: fam.ID,
		adminID:  admin.ID,
		secondID: second.ID,
		childID:  child.ID,
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	return NewOrchestrator(f.events, f.tasks, f.resolver, f.engine, f.catalog, f.logger)
}

func validDraft() Draft {
	start := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	return Draft{
		Title:     "Urodziny Ani",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}
}

// --- fakes wrapping the real sqlite stores ---

type failingParticipantStore struct {
	*store.EventStore
}

func (s *failingParticipantStore) ReplaceParticipants(eventID int64, profileIDs, memberIDs []int64) error {
	return errors.New("participant insert exploded")
}

type failingTaskStore struct {
	*store.TaskStore
}

func (s *failingTaskStore) CreateFromSuggestion(familyID, createdBy, eventID int64, suggestionID, title, description string, dueDate time.Time, isPrivate bool) (*model.Task, error) {
	return nil, errors.New("task insert exploded")
}

type secondTaskFailingStore struct {
	*store.TaskStore
	inserts int
}

func (s *secondTaskFailingStore) CreateFromSuggestion(familyID, createdBy, eventID int64, suggestionID, title, description string, dueDate time.Time, isPrivate bool) (*model.Task, error) {
	s.inserts++
	if s.inserts > 1 {
		return nil, errors.New("task insert exploded")
	}
	return s.TaskStore.CreateFromSuggestion(familyID, createdBy, eventID, suggestionID, title, description, dueDate, isPrivate)
}

type errEngine struct{}

func (errEngine) Suggest(ctx context.Context, familyID int64, req suggestion.Request) ([]suggestion.Suggestion, error) {
	return nil, apperr.New(apperr.CodeSuggestionEngine, "engine down")
}

type slowEngine struct{}

func (slowEngine) Suggest(ctx context.Context, familyID int64, req suggestion.Request) ([]suggestion.Suggestion, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// --- tests ---

func TestCreateHappyPath(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator()

	draft := validDraft()
	draft.ParticipantAccountIDs = []int64{f.secondID}
	draft.ParticipantMemberIDs = []int64{f.childID}
	draft.AcceptedSuggestionIDs = []string{"birthday_gift"}

	result, err := o.Create(context.Background(), f.familyID, f.adminID, model.RoleAdmin, draft)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if result.Event == nil || result.Event.ID == 0 {
		t.Fatal("expected a persisted event")
	}
	if result.Event.Title != "Urodziny Ani" {
		t.Errorf("title = %q", result.Event.Title)
	}
	if len(result.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(result.Participants))
	}

	var matched *suggestion.Suggestion
	for i := range result.Suggestions {
		if result.Suggestions[i].SuggestionID == "birthday_gift" {
			matched = &result.Suggestions[i]
		}
	}
	if matched == nil {
		t.Fatal("expected a birthday_gift suggestion")
	}
	if !matched.Accepted {
		t.Error("accepted suggestion should be flagged in the response")
	}

	if len(result.CreatedTasks) != 1 {
		t.Fatalf("expected 1 created task, got %d", len(result.CreatedTasks))
	}
	task := result.CreatedTasks[0]
	if !task.CreatedFromSuggestion {
		t.Error("task should be marked as suggestion-born")
	}
	if task.SuggestionID == nil || *task.SuggestionID != "birthday_gift" {
		t.Errorf("task suggestion id = %v", task.SuggestionID)
	}
	if task.EventID == nil || *task.EventID != result.Event.ID {
		t.Errorf("task event id = %v, want %d", task.EventID, result.Event.ID)
	}
	wantDue := draft.StartTime.AddDate(0, 0, -3)
	if task.DueDate == nil || !task.DueDate.Equal(wantDue) {
		t.Errorf("task due date = %v, want %v", task.DueDate, wantDue)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Draft)
		want   apperr.Code
	}{
		{"empty title", func(d *Draft) { d.Title = "   " }, apperr.CodeValidation},
		{"end before start", func(d *Draft) { d.EndTime = d.StartTime.Add(-time.Hour) }, apperr.CodeInvalidTimeRange},
		{"end equals start", func(d *Draft) { d.EndTime = d.StartTime }, apperr.CodeInvalidTimeRange},
		{"private with participants", func(d *Draft) {
			d.IsPrivate = true
			d.ParticipantMemberIDs = []int64{f.childID}
		}, apperr.CodeInvalidPrivateEvent},
		{"unknown suggestion id", func(d *Draft) {
			d.AcceptedSuggestionIDs = []string{"no_such_template"}
		}, apperr.CodeValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(&draft)
			_, err := o.Create(ctx, f.familyID, f.adminID, model.RoleAdmin, draft)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := apperr.CodeOf(err); got != tc.want {
				t.Errorf("code = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestCreateParticipantFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	o := NewOrchestrator(&failingParticipantStore{f.events}, f.tasks, f.resolver, f.engine, f.catalog, f.logger)

	draft := validDraft()
	draft.ParticipantMemberIDs = []int64{f.childID}

	_, err := o.Create(context.Background(), f.familyID, f.adminID, model.RoleAdmin, draft)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := apperr.CodeOf(err); got != apperr.CodeParticipantInsertFailed {
		t.Errorf("code = %s, want %s", got, apperr.CodeParticipantInsertFailed)
	}

	assertNoEvents(t, f)
}

func TestCreateCrossFamilyParticipantRollsBack(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator()

	draft := validDraft()
	draft.ParticipantMemberIDs = []int64{99999}

	_, err := o.Create(context.Background(), f.familyID, f.adminID, model.RoleAdmin, draft)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := apperr.CodeOf(err); got != apperr.CodeForbidden {
		t.Errorf("code = %s, want %s", got, apperr.CodeForbidden)
	}

	assertNoEvents(t, f)
}

func TestCreateTaskFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	o := NewOrchestrator(f.events, &failingTaskStore{f.tasks}, f.resolver, f.engine, f.catalog, f.logger)

	draft := validDraft()
	draft.AcceptedSuggestionIDs = []string{"birthday_gift"}

	_, err := o.Create(context.Background(), f.familyID, f.adminID, model.RoleAdmin, draft)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := apperr.CodeOf(err); got != apperr.CodeTaskCreationFailed {
		t.Errorf("code = %s, want %s", got, apperr.CodeTaskCreationFailed)
	}

	assertNoEvents(t, f)

	tasks, err := f.tasks.List(f.familyID, f.adminID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no surviving tasks, got %d", len(tasks))
	}
}

// A failure on the second of two accepted suggestions must also take the
// first, already-inserted task down with the event.
func TestCreateLaterTaskFailureLeavesNoOrphans(t *testing.T) {
	f := newFixture(t)
	o := NewOrchestrator(f.events, &secondTaskFailingStore{TaskStore: f.tasks}, f.resolver, f.engine, f.catalog, f.logger)

	draft := validDraft()
	draft.Title = "Urodziny u lekarza"
	draft.AcceptedSuggestionIDs = []string{"birthday_gift", "doctor_visit"}

	_, err := o.Create(context.Background(), f.familyID, f.adminID, model.RoleAdmin, draft)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := apperr.CodeOf(err); got != apperr.CodeTaskCreationFailed {
		t.Errorf("code = %s, want %s", got, apperr.CodeTaskCreationFailed)
	}

	assertNoEvents(t, f)

	var taskCount int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&taskCount); err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if taskCount != 0 {
		t.Errorf("expected no surviving tasks, found %d", taskCount)
	}
}

func TestCreateEngineErrorDegrades(t *testing.T) {
	f := newFixture(t)
	o := NewOrchestrator(f.events, f.tasks, f.resolver, errEngine{}, f.catalog, f.logger)

	result, err := o.Create(context.Background(), f.familyID, f.adminID, model.RoleAdmin, validDraft())
	if err != nil {
		t.Fatalf("engine failure must not block creation: %v", err)
	}
	if result.Event == nil {
		t.Fatal("expected a persisted event")
	}
	if len(result.Suggestions) != 0 {
		t.Errorf("expected no suggestions, got %d", len(result.Suggestions))
	}
	if len(result.CreatedTasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(result.CreatedTasks))
	}
}

func TestCreateEngineTimeoutDegrades(t *testing.T) {
	f := newFixture(t)
	o := NewOrchestrator(f.events, f.tasks, f.resolver, slowEngine{}, f.catalog, f.logger)
	o.SetSuggestTimeout(25 * time.Millisecond)

	done := time.Now()
	result, err := o.Create(context.Background(), f.familyID, f.adminID, model.RoleAdmin, validDraft())
	if err != nil {
		t.Fatalf("engine timeout must not block creation: %v", err)
	}
	if elapsed := time.Since(done); elapsed > 2*time.Second {
		t.Errorf("creation took %v, timeout did not bound the fetch", elapsed)
	}
	if len(result.Suggestions) != 0 {
		t.Errorf("expected no suggestions after timeout, got %d", len(result.Suggestions))
	}
}

func TestCreateAcceptedIDWithoutMatchCreatesNoTask(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator()

	draft := validDraft()
	draft.Title = "Spotkanie zespołu"
	// Known template id, but the title matches nothing, so no task is born.
	draft.AcceptedSuggestionIDs = []string{"birthday_gift"}

	result, err := o.Create(context.Background(), f.familyID, f.adminID, model.RoleAdmin, draft)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(result.CreatedTasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(result.CreatedTasks))
	}
}

func assertNoEvents(t *testing.T, f *fixture) {
	t.Helper()
	var count int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM events WHERE family_id = ?`, f.familyID).Scan(&count); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback to remove the event, found %d rows", count)
	}

	var participants int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM event_participants`).Scan(&participants); err != nil {
		t.Fatalf("count participants: %v", err)
	}
	if participants != 0 {
		t.Errorf("expected no orphaned participants, found %d", participants)
	}
}
