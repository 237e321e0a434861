package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/homehq/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventCols = `id, family_id, created_by, title, description, start_time, end_time, is_private, archived_at, created_at, updated_at`

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var isPrivateInt int
	var archivedAt sql.NullTime

	err := scanner.Scan(
		&e.ID, &e.FamilyID, &e.CreatedBy, &e.Title, &e.Description,
		&e.StartTime, &e.EndTime, &isPrivateInt, &archivedAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.IsPrivate = isPrivateInt != 0
	if archivedAt.Valid {
		t := archivedAt.Time
		e.ArchivedAt = &t
	}
	return &e, nil
}

func (s *EventStore) Create(familyID, createdBy int64, title, description string, startTime, endTime time.Time, isPrivate bool) (*model.Event, error) {
	var isPrivateInt int
	if isPrivate {
		isPrivateInt = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO events (family_id, created_by, title, description, start_time, end_time, is_private)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		familyID, createdBy, title, description, startTime.UTC(), endTime.UTC(), isPrivateInt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetAnyByID(familyID, id)
}

// GetByID returns the active (non-archived) event, or nil.
func (s *EventStore) GetByID(familyID, id int64) (*model.Event, error) {
	row := s.db.QueryRow(
		`SELECT `+eventCols+` FROM events WHERE id = ? AND family_id = ? AND archived_at IS NULL`,
		id, familyID,
	)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// GetAnyByID returns the event regardless of archive state, or nil. The
// mutation guard uses this to tell archived rows apart from missing ones.
func (s *EventStore) GetAnyByID(familyID, id int64) (*model.Event, error) {
	row := s.db.QueryRow(
		`SELECT `+eventCols+` FROM events WHERE id = ? AND family_id = ?`,
		id, familyID,
	)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListByDateRange returns active events overlapping [start, end), family
// scoped. Private events belonging to other creators are filtered out.
func (s *EventStore) ListByDateRange(familyID, viewerID int64, start, end time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM events
		 WHERE family_id = ? AND archived_at IS NULL
		   AND start_time < ? AND end_time > ?
		   AND (is_private = 0 OR created_by = ?)
		 ORDER BY start_time ASC`,
		familyID, end.UTC(), start.UTC(), viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Update writes the full field set, guarded by creator and archive state.
// It returns the number of rows affected; zero means the guard must
// disambiguate (missing, archived, or not the creator).
func (s *EventStore) Update(familyID, id, createdBy int64, title, description string, startTime, endTime time.Time, isPrivate bool) (int64, error) {
	var isPrivateInt int
	if isPrivate {
		isPrivateInt = 1
	}

	result, err := s.db.Exec(
		`UPDATE events
		 SET title = ?, description = ?, start_time = ?, end_time = ?, is_private = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ? AND created_by = ? AND archived_at IS NULL`,
		title, description, startTime.UTC(), endTime.UTC(), isPrivateInt, id, familyID, createdBy,
	)
	if err != nil {
		return 0, fmt.Errorf("update event: %w", err)
	}
	return result.RowsAffected()
}

// Archive soft-deletes the event, guarded by creator and archive state.
// Returns rows affected, same contract as Update.
func (s *EventStore) Archive(familyID, id, createdBy int64) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE events SET archived_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ? AND created_by = ? AND archived_at IS NULL`,
		id, familyID, createdBy,
	)
	if err != nil {
		return 0, fmt.Errorf("archive event: %w", err)
	}
	return result.RowsAffected()
}

// Delete hard-deletes the event row. Participants cascade away and tasks
// are detached via ON DELETE SET NULL. Only the creation workflow's
// compensating rollback uses this; callers get Archive.
func (s *EventStore) Delete(familyID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// --- Participant methods ---

// ReplaceParticipants swaps the full participant set of the event:
// delete-all-then-insert, so an empty input removes everyone.
func (s *EventStore) ReplaceParticipants(eventID int64, profileIDs, memberIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM event_participants WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("clear participants: %w", err)
	}

	for _, pid := range profileIDs {
		if _, err := tx.Exec(
			`INSERT INTO event_participants (event_id, profile_id) VALUES (?, ?)`,
			eventID, pid,
		); err != nil {
			return fmt.Errorf("insert profile participant: %w", err)
		}
	}
	for _, mid := range memberIDs {
		if _, err := tx.Exec(
			`INSERT INTO event_participants (event_id, member_id) VALUES (?, ?)`,
			eventID, mid,
		); err != nil {
			return fmt.Errorf("insert member participant: %w", err)
		}
	}

	return tx.Commit()
}

func (s *EventStore) ListParticipants(eventID int64) ([]model.EventParticipant, error) {
	rows, err := s.db.Query(
		`SELECT id, event_id, profile_id, member_id FROM event_participants WHERE event_id = ? ORDER BY id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var participants []model.EventParticipant
	for rows.Next() {
		var p model.EventParticipant
		var profileID, memberID sql.NullInt64
		if err := rows.Scan(&p.ID, &p.EventID, &profileID, &memberID); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		if profileID.Valid {
			p.ProfileID = &profileID.Int64
		}
		if memberID.Valid {
			p.MemberID = &memberID.Int64
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// GetWithParticipants re-reads the event together with its participant rows.
func (s *EventStore) GetWithParticipants(familyID, id int64) (*model.Event, []model.EventParticipant, error) {
	e, err := s.GetByID(familyID, id)
	if err != nil {
		return nil, nil, err
	}
	if e == nil {
		return nil, nil, nil
	}
	participants, err := s.ListParticipants(id)
	if err != nil {
		return nil, nil, err
	}
	return e, participants, nil
}
