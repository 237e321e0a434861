package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/homehq/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, family_id, created_by, event_id, assigned_profile_id, assigned_member_id, title, description, due_date, is_private, created_from_suggestion, suggestion_id, completed_at, archived_at, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var eventID, assignedProfile, assignedMember sql.NullInt64
	var dueDate, completedAt, archivedAt sql.NullTime
	var isPrivateInt, fromSuggestionInt int
	var suggestionID sql.NullString

	err := scanner.Scan(
		&t.ID, &t.FamilyID, &t.CreatedBy, &eventID, &assignedProfile, &assignedMember,
		&t.Title, &t.Description, &dueDate, &isPrivateInt, &fromSuggestionInt,
		&suggestionID, &completedAt, &archivedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if eventID.Valid {
		t.EventID = &eventID.Int64
	}
	if assignedProfile.Valid {
		t.AssignedProfileID = &assignedProfile.Int64
	}
	if assignedMember.Valid {
		t.AssignedMemberID = &assignedMember.Int64
	}
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if suggestionID.Valid {
		s := suggestionID.String
		t.SuggestionID = &s
	}
	if completedAt.Valid {
		c := completedAt.Time
		t.CompletedAt = &c
	}
	if archivedAt.Valid {
		a := archivedAt.Time
		t.ArchivedAt = &a
	}
	t.IsPrivate = isPrivateInt != 0
	t.CreatedFromSuggestion = fromSuggestionInt != 0
	return &t, nil
}

func (s *TaskStore) Create(familyID, createdBy int64, title, description string, dueDate *time.Time, isPrivate bool, assignedProfileID, assignedMemberID *int64) (*model.Task, error) {
	var isPrivateInt int
	if isPrivate {
		isPrivateInt = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (family_id, created_by, title, description, due_date, is_private, assigned_profile_id, assigned_member_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		familyID, createdBy, title, description, nullTime(dueDate), isPrivateInt,
		nullInt(assignedProfileID), nullInt(assignedMemberID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetAnyByID(familyID, id)
}

// CreateFromSuggestion persists a task born from an accepted suggestion,
// linked to the event it was suggested for. The suggestion id is an audit
// trail, not a foreign key.
func (s *TaskStore) CreateFromSuggestion(familyID, createdBy, eventID int64, suggestionID, title, description string, dueDate time.Time, isPrivate bool) (*model.Task, error) {
	var isPrivateInt int
	if isPrivate {
		isPrivateInt = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (family_id, created_by, event_id, title, description, due_date, is_private, created_from_suggestion, suggestion_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		familyID, createdBy, eventID, title, description, dueDate.UTC(), isPrivateInt, suggestionID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert suggested task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetAnyByID(familyID, id)
}

func (s *TaskStore) GetByID(familyID, id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ? AND family_id = ? AND archived_at IS NULL`, id, familyID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) GetAnyByID(familyID, id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ? AND family_id = ?`, id, familyID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns the family's active tasks, hiding other creators' private ones.
func (s *TaskStore) List(familyID, viewerID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks
		 WHERE family_id = ? AND archived_at IS NULL
		   AND (is_private = 0 OR created_by = ?)
		 ORDER BY due_date IS NULL, due_date ASC, id ASC`,
		familyID, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListByEvent returns active tasks still linked to the event.
func (s *TaskStore) ListByEvent(familyID, eventID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE family_id = ? AND event_id = ? AND archived_at IS NULL ORDER BY id ASC`,
		familyID, eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("query event tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Complete(familyID, id int64) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ? AND archived_at IS NULL AND completed_at IS NULL`,
		id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	return s.GetByID(familyID, id)
}

// Archive soft-deletes the task, guarded by creator and archive state.
// Returns rows affected so callers can disambiguate a zero-row write.
func (s *TaskStore) Archive(familyID, id, createdBy int64) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE tasks SET archived_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ? AND created_by = ? AND archived_at IS NULL`,
		id, familyID, createdBy,
	)
	if err != nil {
		return 0, fmt.Errorf("archive task: %w", err)
	}
	return result.RowsAffected()
}

// DeleteByEvent hard-deletes every task linked to the event. The creation
// workflow's rollback uses this; task rows born from a failed creation must
// not linger as detached tasks.
func (s *TaskStore) DeleteByEvent(eventID int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE event_id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("delete event tasks: %w", err)
	}
	return nil
}

// DetachFromEvent clears event_id on the event's tasks. Archiving an event
// decouples its tasks rather than deleting them.
func (s *TaskStore) DetachFromEvent(eventID int64) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET event_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE event_id = ?`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("detach tasks from event: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
